// Package tcp is the out-of-scope-for-the-core TCP listener and outbound
// peer dialer (§6 of the design): it turns raw sockets into decoded wire
// messages tagged with a sender id, using the IdentityRequest/Identity
// handshake to learn who is on the other end of a freshly accepted or
// dialed connection.
package tcp

import (
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/quorumab/ab/pkg/log"
	"github.com/quorumab/ab/pkg/registry"
	"github.com/quorumab/ab/pkg/wire"
)

// Inbound is one decoded message together with the peer id the
// handshake established for the connection it arrived on.
type Inbound struct {
	SourceID uint64
	Message  wire.Message
}

// Transport owns a listener and a set of outbound dials, decodes frames
// with codec, and feeds application messages (LeaderActive/Ack) to
// Inbox while handling the identity handshake internally.
type Transport struct {
	selfID   uint64
	codec    *wire.Codec
	registry *registry.PeerRegistry
	logger   log.Logger

	inbox chan Inbound

	mu       sync.Mutex
	listener net.Listener
}

// New returns a Transport that will register connections in reg and
// publish decoded application messages on its Inbox channel.
func New(selfID uint64, codec *wire.Codec, reg *registry.PeerRegistry, logger log.Logger) *Transport {
	if logger == nil {
		logger = log.Noop()
	}
	return &Transport{
		selfID:   selfID,
		codec:    codec,
		registry: reg,
		logger:   logger.With("transport"),
		inbox:    make(chan Inbound, 256),
	}
}

// Inbox returns the channel of decoded application messages. The
// embedder's event loop should drain it and hand each message to
// role.Engine.Handle with a fresh monotonic timestamp.
func (t *Transport) Inbox() <-chan Inbound { return t.inbox }

// Listen binds a TCP listener on address and accepts connections until
// Close is called.
func (t *Transport) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()

	go t.acceptLoop(l)
	t.logger.Info("tcp: listening", "address", address)
	return nil
}

// ConnectPeer dials address and runs the identity handshake and read
// loop for the resulting connection.
func (t *Transport) ConnectPeer(address string) error {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return err
	}
	go t.serve(conn)
	return nil
}

// Close stops accepting new connections. Already-open connections are
// left to the OS to tear down when the process exits, matching the
// "crash-stop only" fault model this module targets.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Close()
}

func (t *Transport) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			t.logger.Error("tcp: accept failed", "error", err.Error())
			return
		}
		go t.serve(conn)
	}
}

// serve runs the identity handshake and then the frame read loop for
// one connection. Both the accepting and the dialing side send an
// IdentityRequest as soon as the connection is up; whichever side
// receives one replies with its own Identity.
func (t *Transport) serve(conn net.Conn) {
	defer conn.Close()

	if err := t.send(conn, &wire.IdentityRequest{}); err != nil {
		t.logger.Error("tcp: failed to send identity request", "error", err.Error())
		return
	}

	var remoteID uint64
	peer := &connPeer{conn: conn}

	for {
		msg, err := t.readFrame(conn)
		if err != nil {
			if err != io.EOF {
				t.logger.Debug("tcp: connection read error", "error", err.Error())
			}
			if remoteID != 0 {
				t.registry.Remove(remoteID)
			}
			return
		}

		switch m := msg.(type) {
		case *wire.IdentityRequest:
			if err := t.send(conn, &wire.Identity{ID: t.selfID}); err != nil {
				t.logger.Error("tcp: failed to send identity", "error", err.Error())
				return
			}
		case *wire.Identity:
			remoteID = m.ID
			peer.id = m.ID
			t.registry.Add(peer)
			t.logger.Info("tcp: peer identified", "peer", remoteID)
		case *wire.LeaderActiveMessage, *wire.LeaderActiveAck:
			if remoteID == 0 {
				t.logger.Debug("tcp: dropping application message before handshake completed")
				continue
			}
			t.inbox <- Inbound{SourceID: remoteID, Message: msg}
		}
	}
}

func (t *Transport) send(conn net.Conn, msg wire.Message) error {
	dest := make([]byte, wire.PackedSize(msg))
	n, err := t.codec.Pack(msg, 0, dest)
	if err != nil {
		return err
	}
	_, err = conn.Write(dest[:n])
	return err
}

func (t *Transport) readFrame(conn net.Conn) (wire.Message, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf)
	if length < wire.HeaderSize {
		return nil, wire.ErrBadLength
	}

	frame := make([]byte, length)
	copy(frame, lenBuf)
	if _, err := io.ReadFull(conn, frame[4:]); err != nil {
		return nil, err
	}

	msg, _, err := t.codec.Decode(frame)
	return msg, err
}

// connPeer adapts a net.Conn to registry.Peer.
type connPeer struct {
	id   uint64
	mu   sync.Mutex
	conn net.Conn
}

func (p *connPeer) ID() uint64 { return p.id }

func (p *connPeer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Write(b)
}
