package ids_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplan/logicalplan/ids"
)

func TestOperatorSequencerCountsDown(t *testing.T) {
	s := ids.NewOperatorSequencer()
	first := s.Next()
	second := s.Next()
	require.Equal(t, int64(math.MaxInt64), first)
	require.Equal(t, first-1, second)
}

func TestOperatorSequencerReseedPastMinimum(t *testing.T) {
	s := ids.NewOperatorSequencer()
	s.Reseed(10)
	next := s.Next()
	require.Less(t, next, int64(10))
}

func TestEventSequencerCountsUp(t *testing.T) {
	s := ids.NewEventSequencer()
	first := s.Next()
	second := s.Next()
	require.Equal(t, first+1, second)
}

func TestEventSequencerReseedPastMaximum(t *testing.T) {
	s := ids.NewEventSequencer()
	s.Reseed(100)
	next := s.Next()
	require.Greater(t, next, int64(100))
}
