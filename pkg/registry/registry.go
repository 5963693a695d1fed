// Package registry implements the Registry interface the role engine
// consumes (C4): addressed send_to_id and broadcast over a set of
// connected peers, plus inbound source-id tagging established by the
// IdentityRequest/Identity handshake. It is deliberately outside the
// single-threaded engine: writes fan out concurrently and a peer that
// cannot be reached is dropped rather than blocking the caller.
package registry

import (
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quorumab/ab/pkg/log"
	"github.com/quorumab/ab/pkg/wire"
)

// Peer is a live outbound connection to a cluster member, identified by
// its node id. Transports (e.g. pkg/transport/tcp) provide the concrete
// implementation; the registry only needs to be able to write a packed
// frame to it.
type Peer interface {
	io.Writer
	// ID is the peer's node id, established during the identity
	// handshake.
	ID() uint64
}

// PeerRegistry maps peer id to a live connection and implements
// role.Registry. It is safe for concurrent use: the accept loop adds and
// removes peers from a different goroutine than the one driving the
// engine's Broadcast/SendToID calls.
type PeerRegistry struct {
	codec  *wire.Codec
	logger log.Logger

	mu    sync.RWMutex
	peers map[uint64]Peer

	nextMessageID uint64
	midMu         sync.Mutex
}

// New returns an empty PeerRegistry using codec to pack outbound frames.
func New(codec *wire.Codec, logger log.Logger) *PeerRegistry {
	if logger == nil {
		logger = log.Noop()
	}
	return &PeerRegistry{
		codec:  codec,
		logger: logger.With("registry"),
		peers:  make(map[uint64]Peer),
	}
}

// Add registers a connected peer, replacing any prior connection for the
// same id.
func (r *PeerRegistry) Add(p Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.ID()] = p
}

// Remove drops a peer, typically after its connection closes.
func (r *PeerRegistry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

// Broadcast fire-and-forgets msg to every currently connected peer,
// fanning writes out concurrently since a slow or dead peer must not
// delay delivery to the rest of the cluster.
func (r *PeerRegistry) Broadcast(msg wire.Message) {
	r.mu.RLock()
	targets := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		targets = append(targets, p)
	}
	r.mu.RUnlock()

	frame, err := r.pack(msg)
	if err != nil {
		r.logger.Error("registry: failed to pack broadcast message", "error", err.Error())
		return
	}

	var g errgroup.Group
	for _, p := range targets {
		p := p
		g.Go(func() error {
			if _, err := p.Write(frame); err != nil {
				r.logger.Debug("registry: broadcast write failed", "peer", p.ID(), "error", err.Error())
			}
			return nil
		})
	}
	_ = g.Wait()
}

// SendToID unicasts msg to a single peer, best-effort. A peer that is
// not connected is silently ignored.
func (r *PeerRegistry) SendToID(peerID uint64, msg wire.Message) {
	r.mu.RLock()
	p, ok := r.peers[peerID]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("registry: send_to_id, peer not connected", "peer", peerID)
		return
	}

	frame, err := r.pack(msg)
	if err != nil {
		r.logger.Error("registry: failed to pack unicast message", "error", err.Error())
		return
	}
	if _, err := p.Write(frame); err != nil {
		r.logger.Debug("registry: send_to_id write failed", "peer", peerID, "error", err.Error())
	}
}

func (r *PeerRegistry) pack(msg wire.Message) ([]byte, error) {
	dest := make([]byte, wire.PackedSize(msg))
	n, err := r.codec.Pack(msg, r.messageID(), dest)
	if err != nil {
		return nil, err
	}
	return dest[:n], nil
}

func (r *PeerRegistry) messageID() uint64 {
	r.midMu.Lock()
	defer r.midMu.Unlock()
	r.nextMessageID++
	return r.nextMessageID
}
