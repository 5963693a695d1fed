package role

import (
	"github.com/looplab/fsm"

	"github.com/quorumab/ab/pkg/model"
)

// newRoleFSM builds the three-state machine described in the state
// machine summary:
//
//	Follower        --(follower timeout)--> PotentialLeader
//	PotentialLeader --(majority acks)------> Leader
//	PotentialLeader --(sees lower-id leader)-> Follower
//	Leader          --(no majority in time)-> PotentialLeader
//	Leader          --(sees lower-id leader)-> Follower
//
// Structural invalidity (an event fired from a state it isn't declared
// for) panics rather than silently ignoring the event: it means the
// engine itself asked for an impossible transition, which is a bug in
// this package, not something an embedder can trigger.
func newRoleFSM(callbacks fsm.Callbacks) *fsm.FSM {
	return fsm.NewFSM(
		model.NodeStateFollower.String(),
		fsm.Events{
			{
				Name: model.EventFollowerTimeout.String(),
				Src:  []string{model.NodeStateFollower.String()},
				Dst:  model.NodeStatePotentialLeader.String(),
			},
			{
				Name: model.EventMajorityAcks.String(),
				Src:  []string{model.NodeStatePotentialLeader.String()},
				Dst:  model.NodeStateLeader.String(),
			},
			{
				Name: model.EventYieldAuthority.String(),
				Src: []string{
					model.NodeStatePotentialLeader.String(),
					model.NodeStateLeader.String(),
				},
				Dst: model.NodeStateFollower.String(),
			},
			{
				Name: model.EventLeadershipLost.String(),
				Src:  []string{model.NodeStateLeader.String()},
				Dst:  model.NodeStatePotentialLeader.String(),
			},
		},
		callbacks,
	)
}
