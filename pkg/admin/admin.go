// Package admin exposes a small net/rpc status service over the node's
// engine, encoded with msgpack via ugorji/go/codec. It is a read-only
// observability side-channel: the RPC handler never touches the engine
// directly, it funnels every call through the same single-threaded work
// queue the embedder's event loop already serializes Periodic/Handle/
// Append through, so the engine's no-lock invariant holds even though
// the RPC server runs on its own goroutine(s).
package admin

import (
	"net"
	"net/rpc"

	"github.com/ugorji/go/codec"

	"github.com/quorumab/ab/pkg/log"
	"github.com/quorumab/ab/pkg/model"
)

// SnapshotFunc synchronously fetches a point-in-time engine snapshot. The
// embedder supplies an implementation that posts a request onto its
// event loop and blocks for the reply, keeping the engine single
// threaded.
type SnapshotFunc func() Status

// Status mirrors role.Snapshot; admin does not import pkg/role directly
// so that the observability surface stays decoupled from the engine's
// internal package.
type Status struct {
	State         string
	Round         uint64
	Commit        uint64
	Seq           uint64
	CurrentLeader uint64
}

// PingArgs and PingReply exist purely so Ping has a well-formed net/rpc
// signature; the service carries no other request-parameterized calls
// yet.
type PingArgs struct{}
type PingReply struct{ OK bool }

// Service is the net/rpc receiver registered on the admin server. Its
// methods follow the net/rpc convention: exported, two arguments, second
// a pointer, returns error.
type Service struct {
	snapshot SnapshotFunc
	nodeID   uint64
}

// State returns the node's current Status.
func (s *Service) State(_ *PingArgs, reply *Status) error {
	*reply = s.snapshot()
	return nil
}

// Ping is a liveness probe independent of engine state.
func (s *Service) Ping(_ *PingArgs, reply *PingReply) error {
	reply.OK = true
	return nil
}

// Server wraps a net/rpc server pinned to a msgpack codec over TCP.
type Server struct {
	rpcServer *rpc.Server
	logger    log.Logger
	listener  net.Listener
}

// NewServer registers a Service backed by snapshot and returns a Server
// ready to Listen.
func NewServer(nodeID uint64, snapshot SnapshotFunc, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Noop()
	}
	rs := rpc.NewServer()
	if err := rs.Register(&Service{snapshot: snapshot, nodeID: nodeID}); err != nil {
		return nil, err
	}
	return &Server{rpcServer: rs, logger: logger.With("admin")}, nil
}

// Listen binds address and serves admin RPC connections until the
// listener is closed.
func (s *Server) Listen(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = l

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				s.logger.Debug("admin: listener closed", "error", err.Error())
				return
			}
			go s.serveConn(conn)
		}
	}()
	s.logger.Info("admin: listening", "address", address)
	return nil
}

func (s *Server) serveConn(conn net.Conn) {
	var mh codec.MsgpackHandle
	rpcCodec := codec.MsgpackSpecRpc.ServerCodec(conn, &mh)
	s.rpcServer.ServeCodec(rpcCodec)
}

// Close stops accepting new admin connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// StateString adapts model.NodeState to the plain string carried on the
// wire, keeping the msgpack payload free of this module's internal
// types.
func StateString(s model.NodeState) string { return s.String() }
