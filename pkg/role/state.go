// Package role implements the role state machine and replication
// protocol engine (C2 + C3 of the design): the {Follower, PotentialLeader,
// Leader} state machine, the tick-driven periodic() logic, and the
// message handlers that drive heartbeats, acks, and append commits.
package role

import "github.com/quorumab/ab/pkg/model"

// FollowerData holds the sub-state that exists only while a node is a
// Follower. Exactly one of FollowerData/PotentialLeaderData/LeaderData is
// non-nil on an Engine at any time; the FSM callbacks in transitions.go are the
// only code allowed to allocate or drop these.
type FollowerData struct {
	// CurrentLeader is the id of the leader this follower currently
	// recognizes, or 0 if unknown.
	CurrentLeader uint64
	// LastLeaderActive is the monotonic timestamp of the last accepted
	// LeaderActive from CurrentLeader, or 0 if uninitialized.
	LastLeaderActive uint64
	// PendingRound is the round of an append delivered to the
	// application via OnAppend but not yet reconciled by a later
	// heartbeat, or 0 if none is outstanding.
	PendingRound uint64
}

// PotentialLeaderData holds the sub-state that exists only while a node
// is campaigning for leadership.
type PotentialLeaderData struct {
	// LastBroadcast is the last time a campaign heartbeat was sent, or 0
	// at entry.
	LastBroadcast uint64
	// Acks maps an acking peer's id to the round it reported.
	Acks map[uint64]uint64
}

// LeaderData holds the sub-state that exists only while a node is the
// leader.
type LeaderData struct {
	LastBroadcast uint64
	Acks          map[uint64]uint64
	// PendingRound is the round currently being proposed, or 0 if none.
	PendingRound uint64
	// Payload is the content of the pending append, held so it can be
	// re-delivered to the application via OnAppend on self-commit.
	Payload []byte
	// Callback is the outstanding append completion hook. A node has at
	// most one outstanding append at a time; this field is the sole
	// owner of it; whichever code path clears LeaderData is responsible
	// for firing it exactly once.
	Callback model.AppendCallback
}

// roleData is the tagged union described in the data model: at most one
// field is populated, and it must agree with the FSM's current state.
type roleData struct {
	follower  *FollowerData
	potential *PotentialLeaderData
	leader    *LeaderData
}
