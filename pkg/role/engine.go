package role

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/quorumab/ab/pkg/config"
	"github.com/quorumab/ab/pkg/log"
	"github.com/quorumab/ab/pkg/model"
	"github.com/quorumab/ab/pkg/wire"
)

// Engine is the role protocol engine (C3). It is single-threaded
// cooperative: every exported method runs to completion without
// suspension, and the caller (the embedder's event loop) is responsible
// for serializing calls to Periodic and Handle and for supplying
// monotonic timestamps. There are no locks inside the engine.
type Engine struct {
	id  model.NodeIdentity
	cfg config.Config

	registry  Registry
	callbacks model.CallbackHandler
	logger    log.Logger

	fsm *fsm.FSM

	// seq is the monotonically increasing heartbeat sequence used to
	// distinguish fresh acks from stale ones.
	seq uint64
	// round is the highest committed round this node knows of. In the
	// round-as-commit variant this doubles as the commit index.
	round uint64

	data roleData
}

// NewEngine constructs an Engine in the initial Follower state with an
// empty FollowerData, per the data model's lifecycle rule.
func NewEngine(id model.NodeIdentity, cfg config.Config, registry Registry, callbacks model.CallbackHandler, logger log.Logger) (*Engine, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, fmt.Errorf("role: registry is nil")
	}
	if callbacks == nil {
		callbacks = model.NoopCallbacks{}
	}
	if logger == nil {
		logger = log.Noop()
	}

	e := &Engine{
		id:        id,
		cfg:       cfg.WithDefaults(),
		registry:  registry,
		callbacks: callbacks,
		logger:    logger.With("role"),
		data:      roleData{follower: &FollowerData{}},
	}
	e.fsm = newRoleFSM(fsm.Callbacks{
		"enter_" + model.NodeStateFollower.String():        e.enterFollower,
		"leave_" + model.NodeStateFollower.String():        e.leaveFollower,
		"enter_" + model.NodeStatePotentialLeader.String(): e.enterPotentialLeader,
		"leave_" + model.NodeStatePotentialLeader.String(): e.leavePotentialLeader,
		"enter_" + model.NodeStateLeader.String():          e.enterLeader,
		"leave_" + model.NodeStateLeader.String():          e.leaveLeader,
	})
	return e, nil
}

// CurrentState returns the node's current role.
func (e *Engine) CurrentState() model.NodeState {
	return model.NodeState(e.fsm.Current())
}

// Round returns the highest committed round this node knows of.
func (e *Engine) Round() uint64 { return e.round }

// Snapshot is a point-in-time, read-only view of the engine's state,
// useful for tests and for the admin status endpoint.
type Snapshot struct {
	State         model.NodeState
	Round         uint64
	Commit        uint64
	Seq           uint64
	CurrentLeader uint64
}

// Snapshot returns the engine's current state. It must only be called
// from the same goroutine that drives Periodic/Handle/Append; embedders
// that expose it across goroutines (e.g. an admin RPC server) must
// funnel the call through the same single-threaded work queue.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:  e.CurrentState(),
		Round:  e.round,
		Commit: e.round,
		Seq:    e.seq,
	}
	if e.data.follower != nil {
		s.CurrentLeader = e.data.follower.CurrentLeader
	} else if e.CurrentState() == model.NodeStateLeader {
		s.CurrentLeader = e.id.ID
	}
	return s
}

// Periodic drives time-based progress. It must be called at least every
// ~25ms for the timing constants in config to behave as specified.
func (e *Engine) Periodic(ts uint64) {
	switch e.CurrentState() {
	case model.NodeStateFollower:
		e.periodicFollower(ts)
	case model.NodeStatePotentialLeader:
		e.periodicPotentialLeader(ts)
	case model.NodeStateLeader:
		e.periodicLeader(ts)
	}
}

// Handle processes one inbound, already-decoded message. sourceID is the
// peer id the Registry associated with the connection the message
// arrived on; it is compared against the message's self-reported id only
// for diagnostic logging; protocol decisions use the message's own id
// field, matching the reference implementation.
func (e *Engine) Handle(ts uint64, msg wire.Message, sourceID uint64) {
	switch m := msg.(type) {
	case *wire.LeaderActiveMessage:
		if m.ID != sourceID {
			e.logger.Warn("role: message id does not match registry source id", "claimed", m.ID, "source", sourceID)
		}
		e.handleLeaderActive(ts, m)
	case *wire.LeaderActiveAck:
		if m.ID != sourceID {
			e.logger.Warn("role: ack id does not match registry source id", "claimed", m.ID, "source", sourceID)
		}
		e.handleLeaderActiveAck(ts, m)
	default:
		// IdentityRequest/Identity are handled entirely by the registry
		// and never reach the engine.
	}
}

// Append submits one payload for replication. It fails synchronously if
// the node is not currently the leader or another append is already
// outstanding; on success, cb fires exactly once, either on commit or on
// cancellation.
func (e *Engine) Append(ts uint64, payload []byte, cb model.AppendCallback) error {
	if e.CurrentState() != model.NodeStateLeader {
		return ErrNotLeader
	}
	ld := e.data.leader
	if ld.PendingRound != 0 || ld.Callback != nil {
		return ErrAppendPending
	}

	ld.PendingRound = e.round + 1
	ld.Payload = payload
	ld.Callback = cb

	e.seq++
	msg := &wire.LeaderActiveMessage{
		ID:          e.id.ID,
		Seq:         e.seq,
		Round:       ld.PendingRound,
		Next:        ld.PendingRound,
		NextContent: payload,
	}
	e.registry.Broadcast(msg)
	ld.LastBroadcast = ts
	ld.Acks = map[uint64]uint64{}
	return nil
}

func (e *Engine) fireEvent(event model.RoleEvent, args ...any) {
	if err := e.fsm.Event(context.Background(), event.String(), args...); err != nil {
		panic(fmt.Sprintf("role: illegal transition, state=%s event=%s: %v", e.fsm.Current(), event, err))
	}
}

// Shutdown completes any outstanding append with model.StatusCancelled.
// The embedder must call it before discarding a node, so invariant 4
// ("every accepted append eventually results in exactly one callback...
// before the node is destroyed") holds through teardown, not just
// through in-band leadership loss. It does not otherwise touch the
// state machine: the node is going away either way.
func (e *Engine) Shutdown() {
	if e.CurrentState() != model.NodeStateLeader {
		return
	}
	e.cancelPendingAppend(e.data.leader)
}

// cancelPendingAppend extracts and fires ld's outstanding append
// callback with a failure status, the move (not copy) that makes
// double-fire impossible per §9's callback-cycle design note. Shared by
// leaveLeader and Shutdown, the two paths that can discard LeaderData
// while an append is in flight.
func (e *Engine) cancelPendingAppend(ld *LeaderData) {
	if ld == nil || ld.Callback == nil {
		return
	}
	cb := ld.Callback
	round := ld.PendingRound
	ld.Callback = nil
	cb(model.StatusCancelled, round, e.round)
}
