package role

import "github.com/quorumab/ab/pkg/wire"

// Registry is the narrow capability the engine consumes from the
// surrounding network layer (C4). Both methods are fire-and-forget: a
// disconnected or unreachable peer is silently dropped, since the
// protocol tolerates loss by design (heartbeats and majority counting
// provide eventual progress). The engine never authenticates senders or
// resolves addresses; that is the Registry's job.
type Registry interface {
	// Broadcast sends msg to every currently connected peer.
	Broadcast(msg wire.Message)
	// SendToID unicasts msg to a single peer, best-effort.
	SendToID(peerID uint64, msg wire.Message)
}
