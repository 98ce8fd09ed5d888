package event_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplan/logicalplan/event"
)

func TestSequencerIDsAreIncreasingAndUnique(t *testing.T) {
	seq := event.NewSequencer()

	first := seq.NewCreateOperator(1000, "a", 1)
	second := seq.NewCreateOperator(1000, "b", 2)

	require.Less(t, first.ID, second.ID)
}

func TestEventVariantFieldsMatchKind(t *testing.T) {
	seq := event.NewSequencer()

	e := seq.NewStopOperator(1000, "a", 1, "container-1", "failure-1")
	require.Equal(t, event.KindStopOperator, e.Kind)
	require.Equal(t, event.Warn, e.Level, "stop events default to WARN")
	require.NotNil(t, e.StopOperator)
	require.Nil(t, e.StartOperator)
	require.Equal(t, "a", e.StopOperator.OperatorName)
	require.Equal(t, "container-1", e.StopOperator.ContainerID)
}

func TestLifecycleEventsDefaultToInfo(t *testing.T) {
	seq := event.NewSequencer()

	create := seq.NewCreateOperator(1000, "a", 1)
	require.Equal(t, event.Info, create.Level)

	start := seq.NewStartOperator(1000, "a", 1, "container-1", "")
	require.Equal(t, event.Info, start.Level)
}

func TestErrorEventsDefaultToError(t *testing.T) {
	seq := event.NewSequencer()

	e := seq.NewOperatorError(1000, "a", 1, "container-1", "boom", "failure-1")
	require.Equal(t, event.Error, e.Level)
	require.Equal(t, event.KindOperatorError, e.Kind)
	require.Equal(t, "boom", e.OperatorError.ErrorMessage)
}

func TestLevelStringRoundTrip(t *testing.T) {
	require.Equal(t, "INFO", event.Info.String())
	require.Equal(t, "WARN", event.Warn.String())
	require.Equal(t, "ERROR", event.Error.String())
}
