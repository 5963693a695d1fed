package role

import "errors"

var (
	// ErrNotLeader is returned by Append when the node is not currently
	// the leader.
	ErrNotLeader = errors.New("role: node is not the leader")
	// ErrAppendPending is returned by Append when another append is
	// already outstanding.
	ErrAppendPending = errors.New("role: an append is already pending")
)
