package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPreparing, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusCompleted, true},

		// Skipping ahead is forbidden.
		{StatusPending, StatusPreparing, false},
		{StatusPending, StatusReady, false},
		{StatusConfirmed, StatusCompleted, false},

		// Going backwards is forbidden.
		{StatusPreparing, StatusConfirmed, false},
		{StatusCompleted, StatusReady, false},

		// Cancellation from any non-terminal state.
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPreparing, StatusCancelled, true},
		{StatusReady, StatusCancelled, true},

		// Terminal states accept nothing, including re-entry.
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusCancelled, StatusConfirmed, false},

		// Re-entering the current non-terminal state is allowed.
		{StatusConfirmed, StatusConfirmed, true},
		{StatusPreparing, StatusPreparing, true},
		{StatusReady, StatusReady, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusReady.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("shipped").Valid())
	assert.False(t, Status("").Valid())
}

func TestStamp_SetsExactlyOneTimestamp(t *testing.T) {
	now := time.Now().UTC()

	targets := map[Status]func(o *Order) *time.Time{
		StatusConfirmed: func(o *Order) *time.Time { return o.ConfirmedAt },
		StatusPreparing: func(o *Order) *time.Time { return o.PreparingAt },
		StatusReady:     func(o *Order) *time.Time { return o.ReadyAt },
		StatusCompleted: func(o *Order) *time.Time { return o.CompletedAt },
	}

	for target, get := range targets {
		t.Run(string(target), func(t *testing.T) {
			var o Order
			o.Stamp(target, now)

			require.NotNil(t, get(&o))
			assert.Equal(t, now, *get(&o))
			assert.Equal(t, now, o.UpdatedAt)

			var set int
			for _, other := range targets {
				if other(&o) != nil {
					set++
				}
			}
			assert.Equal(t, 1, set)
		})
	}
}

func TestStamp_CancelledStampsNothing(t *testing.T) {
	now := time.Now().UTC()

	var o Order
	o.Stamp(StatusCancelled, now)

	assert.Nil(t, o.ConfirmedAt)
	assert.Nil(t, o.PreparingAt)
	assert.Nil(t, o.ReadyAt)
	assert.Nil(t, o.CompletedAt)
	assert.Equal(t, now, o.UpdatedAt)
}

func TestNewNumber(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		n := NewNumber()
		require.Len(t, n, 6)
		for _, c := range n {
			assert.Contains(t, numberAlphabet, string(c))
		}
		seen[n] = struct{}{}
	}
	// Collisions over 100 draws from 32^6 codes would indicate a broken
	// generator rather than bad luck.
	assert.Greater(t, len(seen), 95)
}
