package models

import "time"

// TimerEndState is an overlay flag on the discussion timer, independent of the
// running/paused distinction. It drives the two-step force-end handshake and the
// time-up acknowledgement on the clients.
type TimerEndState string

const (
	EndStateNone      TimerEndState = "none"
	EndStateRequested TimerEndState = "requested"
	EndStateTimeup    TimerEndState = "timeup"
)

// DiscussionTimer is the single discussion clock of a room, reused across both
// discussion rounds. EndTime (running) and RemainingMs (paused) are mutually
// exclusive: exactly one of them is set whenever Phase is set, neither when the
// timer is idle. Times are unix milliseconds so the persisted document and the
// wire payload share one representation.
type DiscussionTimer struct {
	EndTime     *int64        `json:"endTime"`
	RemainingMs *int64        `json:"remainingMs"`
	IsTicking   bool          `json:"isTicking"`
	Phase       GamePhase     `json:"phase,omitempty"`
	EndState    TimerEndState `json:"endState"`
}

// NewDiscussionTimer returns the idle timer state.
func NewDiscussionTimer() DiscussionTimer {
	return DiscussionTimer{EndState: EndStateNone}
}

// Running reports whether the timer is ticking towards a deadline.
func (t *DiscussionTimer) Running() bool {
	return t.IsTicking && t.EndTime != nil
}

// Paused reports whether the timer holds a frozen residual duration.
func (t *DiscussionTimer) Paused() bool {
	return !t.IsTicking && t.RemainingMs != nil
}

// Idle reports whether no discussion round owns the timer.
func (t *DiscussionTimer) Idle() bool {
	return t.EndTime == nil && t.RemainingMs == nil && t.Phase == ""
}

// Start puts the timer into the running state for the given round.
func (t *DiscussionTimer) Start(phase GamePhase, now time.Time, duration time.Duration) {
	end := now.Add(duration).UnixMilli()
	t.EndTime = &end
	t.RemainingMs = nil
	t.IsTicking = true
	t.Phase = phase
	t.EndState = EndStateNone
}

// Pause freezes the residual duration, floored at zero.
func (t *DiscussionTimer) Pause(now time.Time) {
	if !t.Running() {
		return
	}
	remaining := *t.EndTime - now.UnixMilli()
	if remaining < 0 {
		remaining = 0
	}
	t.RemainingMs = &remaining
	t.EndTime = nil
	t.IsTicking = false
}

// Resume converts a paused timer back to running with a fresh deadline.
func (t *DiscussionTimer) Resume(now time.Time) {
	if !t.Paused() {
		return
	}
	end := now.UnixMilli() + *t.RemainingMs
	t.EndTime = &end
	t.RemainingMs = nil
	t.IsTicking = true
}

// Reset returns the timer to its empty state between rounds.
func (t *DiscussionTimer) Reset() {
	*t = NewDiscussionTimer()
}

// Deadline returns the absolute deadline while running.
func (t *DiscussionTimer) Deadline() (time.Time, bool) {
	if t.EndTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*t.EndTime), true
}
