package registry

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumab/ab/pkg/wire"
)

type fakePeer struct {
	id     uint64
	buf    bytes.Buffer
	failOn error
}

func (p *fakePeer) ID() uint64 { return p.id }

func (p *fakePeer) Write(b []byte) (int, error) {
	if p.failOn != nil {
		return 0, p.failOn
	}
	return p.buf.Write(b)
}

func TestPeerRegistry_BroadcastReachesAllPeers(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	p2 := &fakePeer{id: 2}
	p3 := &fakePeer{id: 3}
	r.Add(p2)
	r.Add(p3)

	r.Broadcast(&wire.LeaderActiveMessage{ID: 1, Seq: 1, Round: 1})

	assert.Positive(t, p2.buf.Len())
	assert.Positive(t, p3.buf.Len())
	assert.Equal(t, p2.buf.Bytes(), p3.buf.Bytes())
}

func TestPeerRegistry_BroadcastToleratesDeadPeer(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	dead := &fakePeer{id: 2, failOn: errors.New("connection reset")}
	alive := &fakePeer{id: 3}
	r.Add(dead)
	r.Add(alive)

	assert.NotPanics(t, func() {
		r.Broadcast(&wire.LeaderActiveAck{ID: 1, Seq: 1, Round: 1})
	})
	assert.Positive(t, alive.buf.Len())
}

func TestPeerRegistry_SendToID(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	p2 := &fakePeer{id: 2}
	r.Add(p2)

	r.SendToID(2, &wire.LeaderActiveAck{ID: 1, Seq: 1, Round: 1})
	assert.Positive(t, p2.buf.Len())
}

func TestPeerRegistry_SendToID_UnknownPeerIsANoop(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	assert.NotPanics(t, func() {
		r.SendToID(99, &wire.LeaderActiveAck{ID: 1, Seq: 1, Round: 1})
	})
}

func TestPeerRegistry_RemoveStopsFutureDelivery(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	p2 := &fakePeer{id: 2}
	r.Add(p2)
	r.Remove(2)

	r.SendToID(2, &wire.LeaderActiveAck{ID: 1, Seq: 1, Round: 1})
	assert.Zero(t, p2.buf.Len())
}

func TestPeerRegistry_MessageIDsIncreaseMonotonically(t *testing.T) {
	r := New(wire.NewCodec(), nil)
	require.Equal(t, uint64(1), r.messageID())
	require.Equal(t, uint64(2), r.messageID())
}
