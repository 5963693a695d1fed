package role

import (
	"context"

	"github.com/looplab/fsm"
)

// The enter_*/leave_* callbacks below are the only code in this package
// allowed to allocate or drop a role's sub-record, keeping the "exactly
// one populated" invariant structurally close to the FSM's own state.

func (e *Engine) enterFollower(_ context.Context, ev *fsm.Event) {
	var newLeader uint64
	if len(ev.Args) > 0 {
		newLeader, _ = ev.Args[0].(uint64)
	}
	e.data.follower = &FollowerData{CurrentLeader: newLeader}
	e.data.potential = nil
	e.data.leader = nil
	if newLeader != 0 {
		e.callbacks.OnLeaderChange(newLeader)
	}
	e.logger.Info("role: entered follower", "leader", newLeader)
}

func (e *Engine) leaveFollower(context.Context, *fsm.Event) {
	e.data.follower = nil
}

func (e *Engine) enterPotentialLeader(context.Context, *fsm.Event) {
	e.data.potential = &PotentialLeaderData{Acks: map[uint64]uint64{}}
	e.logger.Info("role: entered potential leader")
}

func (e *Engine) leavePotentialLeader(context.Context, *fsm.Event) {
	e.data.potential = nil
}

// enterLeader promotes to Leader, inheriting the campaign's acks and
// last_broadcast per the PotentialLeader behavior. These arrive as event
// args (set by the fireEvent call in periodicPotentialLeader) rather
// than being read off e.data.potential, since leave_potential_leader has
// already nilled it out by the time this callback runs.
func (e *Engine) enterLeader(_ context.Context, ev *fsm.Event) {
	var lastBroadcast uint64
	acks := map[uint64]uint64{}
	if len(ev.Args) >= 2 {
		lastBroadcast, _ = ev.Args[0].(uint64)
		if inherited, ok := ev.Args[1].(map[uint64]uint64); ok && inherited != nil {
			acks = inherited
		}
	}
	e.data.leader = &LeaderData{LastBroadcast: lastBroadcast, Acks: acks}
	e.data.potential = nil
	e.callbacks.GainedLeadership()
	e.logger.Info("role: gained leadership")
}

// leaveLeader is the sole destroyer of LeaderData. Per invariant 6, it
// must complete any outstanding append with a failure status before the
// data disappears, and it always notifies the embedder that leadership
// was lost, regardless of whether the exit was a timeout or a yield to
// a more authoritative peer.
func (e *Engine) leaveLeader(_ context.Context, ev *fsm.Event) {
	e.cancelPendingAppend(e.data.leader)
	e.data.leader = nil
	e.callbacks.LostLeadership()
	e.logger.Info("role: lost leadership", "reason", ev.Event)
}
