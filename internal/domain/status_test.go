package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusShipping, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipping, StatusCompleted, true},
		{StatusShipping, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusShipping, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipping.Terminal())
	assert.Empty(t, NextStatuses(StatusCompleted))
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("Processing")
	require.NoError(t, err)
	assert.Equal(t, StatusShipping, s)

	s, err = ParseOrderStatus(" completed ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)

	_, err = ParseOrderStatus("refunded")
	assert.True(t, IsCode(err, ErrCodeValidation))
}
