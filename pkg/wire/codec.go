package wire

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
)

// Codec packs and unpacks frames. Its zero value is ready to use with no
// authentication; call SetKey to turn on HMAC-SHA256 authentication of
// every frame, matching the header's reserved iv/hmac fields.
//
// A third-party HMAC implementation was deliberately not used here: none
// of the retrieved examples pull in a MAC/crypto library, and the
// standard library's crypto/hmac plus crypto/sha256 is the idiomatic,
// constant-time-safe choice for this in the Go ecosystem.
type Codec struct {
	key []byte
}

// NewCodec returns a Codec with no authentication key set.
func NewCodec() *Codec { return &Codec{} }

// SetKey configures the shared cluster secret used to authenticate
// frames. Passing a nil or empty key disables authentication again.
func (c *Codec) SetKey(key []byte) { c.key = key }

// DecodeMessageLength reads the total frame length from the first 4
// bytes of buf.
func DecodeMessageLength(buf []byte) (int, error) {
	if len(buf) < 4 {
		return 0, ErrShortBuffer
	}
	return int(binary.BigEndian.Uint32(buf[:4])), nil
}

// Pack writes m's header and body into dest and returns the total frame
// length. dest must be at least PackedSize(m) bytes.
func (c *Codec) Pack(m Message, messageID uint64, dest []byte) (int, error) {
	total := PackedSize(m)
	if len(dest) < total {
		return 0, ErrShortBuffer
	}

	binary.BigEndian.PutUint32(dest[0:4], uint32(total))
	dest[4] = byte(m.Type())
	dest[5] = 0
	binary.BigEndian.PutUint64(dest[6:14], messageID)
	for i := 14; i < HeaderSize; i++ {
		dest[i] = 0
	}

	if len(c.key) > 0 {
		if _, err := rand.Read(dest[14:30]); err != nil {
			return 0, err
		}
	}

	m.packBody(dest[HeaderSize:total])

	if len(c.key) > 0 {
		copy(dest[30:62], c.sign(dest[:30], dest[62:total]))
	}

	return total, nil
}

// Decode dispatches on the frame's type byte and returns a typed
// message plus its header. It validates that the declared length fits
// within buf and, when a key is configured, that the frame's HMAC
// verifies.
func (c *Codec) Decode(buf []byte) (Message, Header, error) {
	if len(buf) < HeaderSize {
		return nil, Header{}, ErrShortBuffer
	}
	length := binary.BigEndian.Uint32(buf[0:4])
	if int(length) > len(buf) {
		return nil, Header{}, ErrBadLength
	}
	frame := buf[:length]

	h := Header{
		Length:    length,
		Type:      MessageType(frame[4]),
		Flags:     frame[5],
		MessageID: binary.BigEndian.Uint64(frame[6:14]),
	}
	copy(h.IV[:], frame[14:30])
	copy(h.HMAC[:], frame[30:62])

	if len(c.key) > 0 {
		expected := c.sign(frame[:30], frame[62:])
		if !hmac.Equal(expected, h.HMAC[:]) {
			return nil, h, ErrAuthentication
		}
	}

	var m Message
	switch h.Type {
	case TypeIdentityRequest:
		m = &IdentityRequest{}
	case TypeIdentity:
		m = &Identity{}
	case TypeLeaderActive:
		m = &LeaderActiveMessage{}
	case TypeLeaderActiveAck:
		m = &LeaderActiveAck{}
	default:
		return nil, h, ErrUnknownType
	}

	if err := m.unpackBody(frame[HeaderSize:]); err != nil {
		return nil, h, err
	}
	return m, h, nil
}

func (c *Codec) sign(prefix, body []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(prefix)
	mac.Write(body)
	return mac.Sum(nil)
}
