package sched_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypher-asi/zero-os-sub001/internal/sched"
)

func TestCooperativeFIFO(t *testing.T) {
	c := sched.NewCooperative()
	c.Add(1, 0)
	c.Add(2, 0)
	c.Add(3, 0)

	for _, want := range []uint64{1, 2, 3} {
		got, ok := c.NextReady()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := c.NextReady()
	assert.False(t, ok)
}

func TestCooperativeRemove(t *testing.T) {
	c := sched.NewCooperative()
	c.Add(1, 0)
	c.Add(2, 0)
	c.Remove(1)

	got, ok := c.NextReady()
	require.True(t, ok)
	assert.Equal(t, uint64(2), got)
}

func TestCooperativeTickIsNoOp(t *testing.T) {
	c := sched.NewCooperative()
	c.Add(1, 0)
	assert.Nil(t, c.Tick(1_000_000))
	assert.Equal(t, 1, c.Len())
}

func TestTimersDueOrderedByDeadlineThenTID(t *testing.T) {
	timers := sched.NewTimers()
	timers.Arm(5, 100)
	timers.Arm(3, 100)
	timers.Arm(2, 50)
	timers.Arm(9, 200)

	due := timers.Due(150)
	require.Equal(t, []uint64{2, 3, 5}, due)
	assert.Equal(t, 1, timers.Len())

	due = timers.Due(200)
	assert.Equal(t, []uint64{9}, due)
	assert.Equal(t, 0, timers.Len())
}

func TestTimersDisarm(t *testing.T) {
	timers := sched.NewTimers()
	timers.Arm(1, 10)
	timers.Disarm(1)
	assert.Empty(t, timers.Due(1000))
}
