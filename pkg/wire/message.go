package wire

import "encoding/binary"

// Message is implemented by every wire message kind. BodySize/packBody/
// unpackBody deal only with the type-specific body; the shared header is
// handled once, in codec.go.
type Message interface {
	Type() MessageType
	BodySize() int
	packBody(dest []byte)
	unpackBody(src []byte) error
}

// IdentityRequest is sent by a newly connected node asking its peer to
// identify itself. It carries no body.
type IdentityRequest struct{}

func (IdentityRequest) Type() MessageType    { return TypeIdentityRequest }
func (IdentityRequest) BodySize() int        { return 0 }
func (IdentityRequest) packBody([]byte)      {}
func (*IdentityRequest) unpackBody([]byte) error { return nil }

// Identity answers an IdentityRequest with the sender's node id, letting
// the registry associate a connection with a peer id.
type Identity struct {
	ID uint64
}

func (Identity) Type() MessageType { return TypeIdentity }
func (Identity) BodySize() int     { return 8 }

func (m Identity) packBody(dest []byte) {
	binary.BigEndian.PutUint64(dest[0:8], m.ID)
}

func (m *Identity) unpackBody(src []byte) error {
	if len(src) < 8 {
		return ErrShortBuffer
	}
	m.ID = binary.BigEndian.Uint64(src[0:8])
	return nil
}

// LeaderActiveMessage is always sent via broadcast. Next == 0 means a
// plain heartbeat; Next > 0 means the leader is proposing round Next
// with the accompanying payload.
type LeaderActiveMessage struct {
	ID          uint64
	Seq         uint64
	Round       uint64
	Next        uint64
	NextContent []byte
}

func (LeaderActiveMessage) Type() MessageType { return TypeLeaderActive }

func (m LeaderActiveMessage) BodySize() int {
	return 8 + 8 + 8 + 8 + 4 + len(m.NextContent)
}

func (m LeaderActiveMessage) packBody(dest []byte) {
	binary.BigEndian.PutUint64(dest[0:8], m.ID)
	binary.BigEndian.PutUint64(dest[8:16], m.Seq)
	binary.BigEndian.PutUint64(dest[16:24], m.Round)
	binary.BigEndian.PutUint64(dest[24:32], m.Next)
	binary.BigEndian.PutUint32(dest[32:36], uint32(len(m.NextContent)))
	copy(dest[36:], m.NextContent)
}

func (m *LeaderActiveMessage) unpackBody(src []byte) error {
	if len(src) < 36 {
		return ErrShortBuffer
	}
	m.ID = binary.BigEndian.Uint64(src[0:8])
	m.Seq = binary.BigEndian.Uint64(src[8:16])
	m.Round = binary.BigEndian.Uint64(src[16:24])
	m.Next = binary.BigEndian.Uint64(src[24:32])
	nextLen := binary.BigEndian.Uint32(src[32:36])
	if uint32(len(src)-36) < nextLen {
		return ErrShortBuffer
	}
	if nextLen == 0 {
		m.NextContent = nil
		return nil
	}
	m.NextContent = make([]byte, nextLen)
	copy(m.NextContent, src[36:36+nextLen])
	return nil
}

// LeaderActiveAck is a unicast reply to a LeaderActiveMessage, addressed
// to the leader that sent it.
type LeaderActiveAck struct {
	ID    uint64
	Seq   uint64
	Round uint64
}

func (LeaderActiveAck) Type() MessageType { return TypeLeaderActiveAck }
func (LeaderActiveAck) BodySize() int     { return 24 }

func (m LeaderActiveAck) packBody(dest []byte) {
	binary.BigEndian.PutUint64(dest[0:8], m.ID)
	binary.BigEndian.PutUint64(dest[8:16], m.Seq)
	binary.BigEndian.PutUint64(dest[16:24], m.Round)
}

func (m *LeaderActiveAck) unpackBody(src []byte) error {
	if len(src) < 24 {
		return ErrShortBuffer
	}
	m.ID = binary.BigEndian.Uint64(src[0:8])
	m.Seq = binary.BigEndian.Uint64(src[8:16])
	m.Round = binary.BigEndian.Uint64(src[16:24])
	return nil
}

// PackedSize returns the total frame size (header + body) for m, without
// allocating or writing anything.
func PackedSize(m Message) int {
	return HeaderSize + m.BodySize()
}
