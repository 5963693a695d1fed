package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, c *Codec, m Message) Message {
	t.Helper()
	dest := make([]byte, PackedSize(m))
	n, err := c.Pack(m, 42, dest)
	require.NoError(t, err)
	assert.Equal(t, PackedSize(m), n)

	length, err := DecodeMessageLength(dest)
	require.NoError(t, err)
	assert.Equal(t, PackedSize(m), length)

	got, hdr, err := c.Decode(dest[:n])
	require.NoError(t, err)
	assert.Equal(t, m.Type(), hdr.Type)
	assert.EqualValues(t, 42, hdr.MessageID)
	return got
}

func TestMessageRoundTrip(t *testing.T) {
	c := NewCodec()

	tests := []struct {
		name string
		msg  Message
	}{
		{"identity_request", &IdentityRequest{}},
		{"identity", &Identity{ID: 7}},
		{"heartbeat", &LeaderActiveMessage{ID: 3, Seq: 9, Round: 5}},
		{"append", &LeaderActiveMessage{ID: 3, Seq: 10, Round: 5, Next: 6, NextContent: []byte("payload")}},
		{"ack", &LeaderActiveAck{ID: 4, Seq: 9, Round: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, c, tt.msg)
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestLeaderActiveMessage_EmptyPayloadRoundTrips(t *testing.T) {
	c := NewCodec()
	m := &LeaderActiveMessage{ID: 1, Seq: 1, Round: 1}
	got := roundTrip(t, c, m)
	lam, ok := got.(*LeaderActiveMessage)
	require.True(t, ok)
	assert.Nil(t, lam.NextContent)
}

func TestPackedSize(t *testing.T) {
	assert.Equal(t, HeaderSize, PackedSize(&IdentityRequest{}))
	assert.Equal(t, HeaderSize+8, PackedSize(&Identity{}))
	assert.Equal(t, HeaderSize+24, PackedSize(&LeaderActiveAck{}))
	assert.Equal(t, HeaderSize+36+3, PackedSize(&LeaderActiveMessage{NextContent: []byte("abc")}))
}
