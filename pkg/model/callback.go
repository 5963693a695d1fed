package model

// Append completion statuses, delivered to the callback passed to
// Engine.Append.
const (
	// StatusOK indicates the append committed successfully.
	StatusOK = 0
	// StatusCancelled indicates the append was abandoned, most commonly
	// because the node lost leadership before a majority acked it.
	StatusCancelled = -1
)

// AppendCallback is invoked exactly once for every accepted append,
// either when it commits (status == StatusOK) or when it is cancelled
// (status == StatusCancelled). round is the round the append was
// assigned; commit is the highest round known committed at the time the
// callback fires.
type AppendCallback func(status int, round uint64, commit uint64)

// CallbackHandler is the full set of embedder-facing notifications the
// engine emits. All calls happen synchronously on the goroutine driving
// Periodic/Handle; a handler must not block and must not re-enter the
// engine except to enqueue work for a later call.
type CallbackHandler interface {
	// OnAppend fires on a follower when the leader proposes a round, and
	// on a leader itself when its own append commits.
	OnAppend(round uint64, payload []byte)
	// OnCommit fires whenever a node observes a new commit index.
	OnCommit(round uint64, commit uint64)
	// GainedLeadership fires when a PotentialLeader is promoted to Leader.
	GainedLeadership()
	// LostLeadership fires when a Leader steps down, before or without a
	// majority commit.
	LostLeadership()
	// OnLeaderChange fires when a follower's view of the current leader
	// changes. id == 0 signals the loss of a known leader.
	OnLeaderChange(id uint64)
}

// NoopCallbacks implements CallbackHandler by doing nothing; embed it to
// satisfy the interface while overriding only the callbacks of interest.
type NoopCallbacks struct{}

func (NoopCallbacks) OnAppend(uint64, []byte)     {}
func (NoopCallbacks) OnCommit(uint64, uint64)     {}
func (NoopCallbacks) GainedLeadership()           {}
func (NoopCallbacks) LostLeadership()             {}
func (NoopCallbacks) OnLeaderChange(uint64)       {}
