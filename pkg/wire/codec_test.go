package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Decode_ShortBuffer(t *testing.T) {
	c := NewCodec()
	_, _, err := c.Decode(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCodec_Decode_BadLength(t *testing.T) {
	c := NewCodec()
	buf := make([]byte, HeaderSize)
	buf[0] = 0xFF // absurd length, high byte of the big-endian u32
	_, _, err := c.Decode(buf)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestCodec_Decode_UnknownType(t *testing.T) {
	c := NewCodec()
	dest := make([]byte, PackedSize(&IdentityRequest{}))
	_, err := c.Pack(&IdentityRequest{}, 1, dest)
	require.NoError(t, err)
	dest[4] = 0xEE

	_, _, err = c.Decode(dest)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestCodec_Authentication(t *testing.T) {
	sender := NewCodec()
	sender.SetKey([]byte("cluster-secret"))

	msg := &LeaderActiveMessage{ID: 1, Seq: 1, Round: 1}
	dest := make([]byte, PackedSize(msg))
	n, err := sender.Pack(msg, 1, dest)
	require.NoError(t, err)

	t.Run("valid key accepts", func(t *testing.T) {
		receiver := NewCodec()
		receiver.SetKey([]byte("cluster-secret"))
		_, _, err := receiver.Decode(dest[:n])
		assert.NoError(t, err)
	})

	t.Run("wrong key rejects", func(t *testing.T) {
		receiver := NewCodec()
		receiver.SetKey([]byte("wrong-secret"))
		_, _, err := receiver.Decode(dest[:n])
		assert.ErrorIs(t, err, ErrAuthentication)
	})

	t.Run("tampered body rejects", func(t *testing.T) {
		tampered := make([]byte, n)
		copy(tampered, dest[:n])
		tampered[HeaderSize] ^= 0xFF

		receiver := NewCodec()
		receiver.SetKey([]byte("cluster-secret"))
		_, _, err := receiver.Decode(tampered)
		assert.ErrorIs(t, err, ErrAuthentication)
	})
}

func TestCodec_UnkeyedFramesCarryNoAuthentication(t *testing.T) {
	c := NewCodec()
	msg := &LeaderActiveAck{ID: 1, Seq: 1, Round: 1}
	dest := make([]byte, PackedSize(msg))
	n, err := c.Pack(msg, 1, dest)
	require.NoError(t, err)

	_, hdr, err := c.Decode(dest[:n])
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, hdr.HMAC)
}
