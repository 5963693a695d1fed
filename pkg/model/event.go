package model

// RoleEvent drives the role finite state machine. Each event corresponds
// to one kind of arrow in the state machine summary of the protocol;
// EventYieldAuthority covers both yield arrows (from PotentialLeader and
// from Leader).
type RoleEvent string

const (
	// EventFollowerTimeout fires when a follower has not heard from its
	// leader within the follower timeout.
	EventFollowerTimeout RoleEvent = "follower_timeout"
	// EventMajorityAcks fires when a PotentialLeader collects a majority
	// of campaign acks.
	EventMajorityAcks RoleEvent = "majority_acks"
	// EventYieldAuthority fires when a PotentialLeader or Leader observes
	// a LeaderActive from a more authoritative (lower id) node.
	EventYieldAuthority RoleEvent = "yield_authority"
	// EventLeadershipLost fires when a Leader fails to retain a majority
	// within the leadership timeout.
	EventLeadershipLost RoleEvent = "leadership_lost"
)

func (e RoleEvent) String() string { return string(e) }
