package role

import (
	"github.com/quorumab/ab/pkg/model"
	"github.com/quorumab/ab/pkg/wire"
)

func (e *Engine) periodicPotentialLeader(ts uint64) {
	pd := e.data.potential

	if ts-pd.LastBroadcast <= uint64(e.cfg.LeadershipTimeout) {
		return
	}

	if len(pd.Acks) >= e.id.Majority() {
		// leave_potential_leader clears e.data.potential before
		// enter_leader runs (looplab/fsm calls leave callbacks before
		// enter callbacks), so what's being promoted must travel as
		// event args rather than be read back off e.data.potential.
		e.fireEvent(model.EventMajorityAcks, pd.LastBroadcast, pd.Acks)
		return
	}

	e.seq++
	pd.Acks = map[uint64]uint64{}
	msg := &wire.LeaderActiveMessage{ID: e.id.ID, Seq: e.seq, Round: e.round}
	e.registry.Broadcast(msg)
	pd.LastBroadcast = ts
}

func (e *Engine) handleLeaderActiveAck(ts uint64, msg *wire.LeaderActiveAck) {
	if msg.Seq != e.seq {
		return // stale ack from a prior heartbeat
	}

	switch e.CurrentState() {
	case model.NodeStateLeader:
		e.data.leader.Acks[msg.ID] = msg.Round
		// A just-completed majority should commit immediately rather
		// than waiting for the next tick.
		e.periodicLeader(ts)
	case model.NodeStatePotentialLeader:
		e.data.potential.Acks[msg.ID] = msg.Round
	default:
		// Follower: nothing to do.
	}
}
