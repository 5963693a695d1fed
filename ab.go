// Package ab is the embedder-facing API for the atomic broadcast core:
// create a node, wire it to its peers, drive it, and append entries to
// the replicated log. It owns the single-threaded event loop that
// serializes every call into pkg/role.Engine, so callers never have to
// reason about the engine's concurrency model themselves.
package ab

import (
	"context"
	"fmt"
	"time"

	"github.com/quorumab/ab/pkg/admin"
	"github.com/quorumab/ab/pkg/config"
	"github.com/quorumab/ab/pkg/log"
	"github.com/quorumab/ab/pkg/model"
	"github.com/quorumab/ab/pkg/registry"
	"github.com/quorumab/ab/pkg/role"
	"github.com/quorumab/ab/pkg/transport/tcp"
	"github.com/quorumab/ab/pkg/wire"
)

// Callbacks mirrors model.CallbackHandler; it is re-exported here so
// embedders never need to import pkg/model just to implement the
// interface.
type Callbacks = model.CallbackHandler

// AppendCallback mirrors model.AppendCallback.
type AppendCallback = model.AppendCallback

// Snapshot mirrors role.Snapshot.
type Snapshot = role.Snapshot

const tickInterval = 20 * time.Millisecond

type appendRequest struct {
	payload []byte
	cb      AppendCallback
	errCh   chan error
}

type snapshotRequest struct {
	replyCh chan role.Snapshot
}

// Node is one running member of the cluster: the role engine, its
// registry of peer connections, an optional TCP transport, an optional
// admin RPC endpoint, and the goroutine that ties them together.
type Node struct {
	id     model.NodeIdentity
	engine *role.Engine

	codec     *wire.Codec
	registry  *registry.PeerRegistry
	transport *tcp.Transport
	admin     *admin.Server

	logger log.Logger

	start      time.Time
	appendCh   chan appendRequest
	snapshotCh chan snapshotRequest
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewNode constructs a Node in the initial Follower state. It does not
// start the event loop, listen, or dial anything; call Listen/
// ConnectPeer as needed and then Run.
func NewNode(id model.NodeIdentity, cfg config.Config, callbacks model.CallbackHandler, logger log.Logger) (*Node, error) {
	if logger == nil {
		logger = log.Noop()
	}
	codec := wire.NewCodec()
	reg := registry.New(codec, logger)

	engine, err := role.NewEngine(id, cfg, reg, callbacks, logger)
	if err != nil {
		return nil, err
	}

	n := &Node{
		id:         id,
		engine:     engine,
		codec:      codec,
		registry:   reg,
		logger:     logger.With("node"),
		appendCh:   make(chan appendRequest),
		snapshotCh: make(chan snapshotRequest),
		done:       make(chan struct{}),
	}
	n.transport = tcp.New(id.ID, codec, reg, logger)
	return n, nil
}

// SetAuthenticationKey turns on HMAC-SHA256 frame authentication with
// the given cluster-wide shared secret. Call it before Listen/
// ConnectPeer.
func (n *Node) SetAuthenticationKey(key []byte) { n.codec.SetKey(key) }

// Listen binds a TCP listener for peer connections.
func (n *Node) Listen(address string) error { return n.transport.Listen(address) }

// ConnectPeer dials a peer's listen address, running the identity
// handshake so the registry learns the peer's node id.
func (n *Node) ConnectPeer(address string) error { return n.transport.ConnectPeer(address) }

// ListenAdmin starts the msgpack/net-rpc status endpoint on address. It
// must be called after Run so the snapshot function has a live event
// loop to funnel through.
func (n *Node) ListenAdmin(address string) error {
	srv, err := admin.NewServer(n.id.ID, n.adminSnapshot, n.logger)
	if err != nil {
		return err
	}
	n.admin = srv
	return srv.Listen(address)
}

// Run starts the single-threaded event loop: a ticker driving
// Engine.Periodic, the transport inbox driving Engine.Handle, and the
// append/snapshot request channels. It returns immediately; Destroy
// stops the loop.
func (n *Node) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.start = time.Now()
	go n.loop(ctx)
}

// Append submits payload for replication. It blocks until the event loop
// has handed the request to the engine and returns the engine's accept or
// reject error; the completion callback fires asynchronously from the
// event loop goroutine once the append commits or is cancelled.
func (n *Node) Append(payload []byte, cb AppendCallback) error {
	req := appendRequest{payload: payload, cb: cb, errCh: make(chan error, 1)}
	select {
	case n.appendCh <- req:
	case <-n.done:
		return fmt.Errorf("ab: node is destroyed")
	}
	return <-req.errCh
}

// Snapshot fetches a point-in-time view of the engine's state via the
// event loop.
func (n *Node) Snapshot() (role.Snapshot, error) {
	req := snapshotRequest{replyCh: make(chan role.Snapshot, 1)}
	select {
	case n.snapshotCh <- req:
	case <-n.done:
		return role.Snapshot{}, fmt.Errorf("ab: node is destroyed")
	}
	return <-req.replyCh, nil
}

// Destroy stops the event loop and releases the listener/admin server.
// Open peer connections are left for the OS to reclaim.
func (n *Node) Destroy() {
	if n.cancel != nil {
		n.cancel()
	}
	<-n.done
	_ = n.transport.Close()
	if n.admin != nil {
		_ = n.admin.Close()
	}
}

func (n *Node) loop(ctx context.Context) {
	defer close(n.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.engine.Shutdown()
			return

		case <-ticker.C:
			n.engine.Periodic(n.ts())

		case in := <-n.transport.Inbox():
			n.engine.Handle(n.ts(), in.Message, in.SourceID)

		case req := <-n.appendCh:
			req.errCh <- n.engine.Append(n.ts(), req.payload, req.cb)

		case req := <-n.snapshotCh:
			req.replyCh <- n.engine.Snapshot()
		}
	}
}

// ts returns a monotonic timestamp in nanoseconds since Run was called.
// The engine only ever compares two ts values it was given, so the
// epoch is arbitrary.
func (n *Node) ts() uint64 {
	return uint64(time.Since(n.start).Nanoseconds())
}

func (n *Node) adminSnapshot() admin.Status {
	req := snapshotRequest{replyCh: make(chan role.Snapshot, 1)}
	select {
	case n.snapshotCh <- req:
	case <-n.done:
		return admin.Status{}
	}
	s := <-req.replyCh
	return admin.Status{
		State:         admin.StateString(s.State),
		Round:         s.Round,
		Commit:        s.Commit,
		Seq:           s.Seq,
		CurrentLeader: s.CurrentLeader,
	}
}
