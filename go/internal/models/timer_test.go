package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscussionTimerStates(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)

	timer := NewDiscussionTimer()
	assert.True(t, timer.Idle())
	assert.False(t, timer.Running())
	assert.False(t, timer.Paused())
	assert.Equal(t, EndStateNone, timer.EndState)

	timer.Start(PhaseFirstDiscussion, now, 10*time.Minute)
	assert.True(t, timer.Running())
	assert.False(t, timer.Paused())
	assert.False(t, timer.Idle())
	require.NotNil(t, timer.EndTime)
	assert.Nil(t, timer.RemainingMs)
	assert.Equal(t, now.Add(10*time.Minute).UnixMilli(), *timer.EndTime)

	deadline, ok := timer.Deadline()
	require.True(t, ok)
	assert.Equal(t, now.Add(10*time.Minute), deadline)

	// Pause halfway: the residual swaps in, the deadline swaps out.
	timer.Pause(now.Add(5 * time.Minute))
	assert.True(t, timer.Paused())
	assert.False(t, timer.Running())
	assert.Nil(t, timer.EndTime)
	require.NotNil(t, timer.RemainingMs)
	assert.Equal(t, (5 * time.Minute).Milliseconds(), *timer.RemainingMs)
	assert.Equal(t, PhaseFirstDiscussion, timer.Phase)

	// Resume later: a fresh deadline from the residual, wall time in between
	// does not count against the round.
	timer.Resume(now.Add(20 * time.Minute))
	assert.True(t, timer.Running())
	assert.Nil(t, timer.RemainingMs)
	require.NotNil(t, timer.EndTime)
	assert.Equal(t, now.Add(25*time.Minute).UnixMilli(), *timer.EndTime)

	timer.Reset()
	assert.True(t, timer.Idle())
	assert.Equal(t, EndStateNone, timer.EndState)
	assert.Equal(t, GamePhase(""), timer.Phase)
}

func TestDiscussionTimerPauseFloorsAtZero(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)
	timer := NewDiscussionTimer()
	timer.Start(PhaseSecondDiscussion, now, time.Minute)

	timer.Pause(now.Add(2 * time.Minute))
	require.NotNil(t, timer.RemainingMs)
	assert.Equal(t, int64(0), *timer.RemainingMs)
}

func TestDiscussionTimerIgnoresInvalidTransitions(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)

	timer := NewDiscussionTimer()
	timer.Pause(now)
	assert.True(t, timer.Idle(), "pausing an idle timer changes nothing")

	timer.Resume(now)
	assert.True(t, timer.Idle(), "resuming an idle timer changes nothing")

	timer.Start(PhaseFirstDiscussion, now, time.Minute)
	timer.Resume(now)
	assert.True(t, timer.Running(), "resuming a running timer changes nothing")

	_, ok := timer.Deadline()
	assert.True(t, ok)
	timer.Pause(now)
	_, ok = timer.Deadline()
	assert.False(t, ok, "a paused timer has no deadline")
}

func TestDiscussionTimerStartClearsForceEndFlag(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1_000_000)
	timer := NewDiscussionTimer()
	timer.EndState = EndStateRequested

	timer.Start(PhaseFirstDiscussion, now, time.Minute)
	assert.Equal(t, EndStateNone, timer.EndState)
}
