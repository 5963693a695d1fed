package role

import (
	"github.com/quorumab/ab/pkg/model"
	"github.com/quorumab/ab/pkg/wire"
)

func (e *Engine) periodicLeader(ts uint64) {
	ld := e.data.leader

	if ld.PendingRound == 0 {
		e.periodicLeaderIdle(ts, ld)
		return
	}
	e.periodicLeaderPending(ts, ld)
}

func (e *Engine) periodicLeaderIdle(ts uint64, ld *LeaderData) {
	if ts-ld.LastBroadcast < uint64(e.cfg.HeartbeatInterval) {
		return
	}

	if len(ld.Acks) >= e.id.Majority() {
		e.seq++
		msg := &wire.LeaderActiveMessage{ID: e.id.ID, Seq: e.seq, Round: e.round}
		e.registry.Broadcast(msg)
		ld.LastBroadcast = ts
		ld.Acks = map[uint64]uint64{}
		return
	}

	if ts-ld.LastBroadcast > uint64(e.cfg.LeadershipTimeout) {
		e.fireEvent(model.EventLeadershipLost)
	}
}

func (e *Engine) periodicLeaderPending(ts uint64, ld *LeaderData) {
	r := ld.PendingRound
	votes := 0
	for _, round := range ld.Acks {
		if round == r {
			votes++
		}
	}

	if votes >= e.id.Majority() {
		cb := ld.Callback
		payload := ld.Payload
		ld.Callback = nil
		ld.PendingRound = 0
		ld.Payload = nil
		e.round = r

		if cb != nil {
			cb(model.StatusOK, r, r)
		}
		e.callbacks.OnAppend(r, payload)
		e.callbacks.OnCommit(r, r)
		return
	}

	if ts-ld.LastBroadcast > uint64(e.cfg.LeadershipTimeout) {
		e.fireEvent(model.EventLeadershipLost)
	}
}
