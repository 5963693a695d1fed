package role

import (
	"github.com/quorumab/ab/pkg/model"
	"github.com/quorumab/ab/pkg/wire"
)

func (e *Engine) periodicFollower(ts uint64) {
	fd := e.data.follower

	if fd.LastLeaderActive == 0 {
		// 0 means uninitialized, so a first tick at ts == 0 is recorded
		// as 1 to keep it distinguishable from the sentinel.
		fd.LastLeaderActive = max(ts, 1)
		return
	}

	if ts-fd.LastLeaderActive > uint64(e.cfg.FollowerTimeout) {
		prev := fd.CurrentLeader
		e.fireEvent(model.EventFollowerTimeout)
		if prev != 0 {
			e.callbacks.OnLeaderChange(0)
		}
	}
}

// handleLeaderActive implements handle_leader_active for all three
// roles at once, mirroring the reference engine: the authority check and
// the yield-to-follower transition are shared logic, and once a node is
// (or has just become) a Follower, the remaining steps apply uniformly.
func (e *Engine) handleLeaderActive(ts uint64, msg *wire.LeaderActiveMessage) {
	if msg.Seq < e.seq {
		return // stale heartbeat
	}
	e.seq = msg.Seq

	state := e.CurrentState()
	if state != model.NodeStateFollower && msg.ID < e.id.ID {
		// A more authoritative node claims leadership: yield.
		e.fireEvent(model.EventYieldAuthority, msg.ID)
	}

	if e.id.ID < msg.ID {
		// We're more authoritative. Ignore.
		return
	}

	fd := e.data.follower

	if fd.PendingRound != 0 {
		if msg.Round >= fd.PendingRound {
			fd.PendingRound = 0
		} else {
			return
		}
	}

	// Leader selection: prefer the lowest-id leader seen. When fd was
	// just (re)created by the yield above, CurrentLeader already equals
	// msg.ID, so neither branch below fires again — this is what makes
	// "re-enter the follower handler starting at step 4" correct without
	// special-casing it.
	if fd.CurrentLeader == 0 || msg.ID < fd.CurrentLeader {
		fd.CurrentLeader = msg.ID
		e.callbacks.OnLeaderChange(msg.ID)
		fd.PendingRound = 0
	} else if msg.ID > fd.CurrentLeader {
		return
	}

	if msg.Round > e.round {
		e.round = msg.Round
		e.callbacks.OnCommit(e.round, e.round)
	}

	if msg.Next != 0 {
		e.callbacks.OnAppend(msg.Next, msg.NextContent)
		fd.LastLeaderActive = ts
		fd.PendingRound = msg.Next
		return
	}

	ack := &wire.LeaderActiveAck{ID: e.id.ID, Seq: e.seq, Round: e.round}
	e.registry.SendToID(msg.ID, ack)
	if fd.CurrentLeader != msg.ID {
		e.callbacks.OnLeaderChange(msg.ID)
	}
	fd.CurrentLeader = msg.ID
	fd.LastLeaderActive = ts
}
