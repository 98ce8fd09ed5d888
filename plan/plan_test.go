package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/plan"
	"github.com/flowplan/logicalplan/port"
)

type testSource struct {
	Out operator.Out
}

func (testSource) IsInputOperator() {}

type testPass struct {
	In  operator.In
	Out operator.Out
}

type testSink struct {
	In operator.In
}

func TestAddOperatorRejectsDuplicateName(t *testing.T) {
	p := plan.New(nil)

	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	_, err = p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.Error(t, err)
	var dup *plan.DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestAddOperatorReAddingSameInstanceIsNoOp(t *testing.T) {
	p := plan.New(nil)
	src := &testSource{}

	first, err := p.AddOperator("a", src, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	second, err := p.AddOperator("a", src, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestRootSetTracksInboundBinding(t *testing.T) {
	p := plan.New(nil)

	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &testPass{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"a", "b"}, p.RootNames())

	s, err := p.AddStream("s1")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(s, port.Key{OperatorName: "a", FieldName: "Out"}))
	require.NoError(t, p.AddSink(s, port.Key{OperatorName: "b", FieldName: "In"}))

	require.Equal(t, []string{"a"}, p.RootNames(), "b must leave the root set once it has an inbound stream")
}

func TestRemoveStreamRestoresRootSet(t *testing.T) {
	p := plan.New(nil)
	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &testPass{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	s, err := p.AddStream("s1")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(s, port.Key{OperatorName: "a", FieldName: "Out"}))
	require.NoError(t, p.AddSink(s, port.Key{OperatorName: "b", FieldName: "In"}))
	require.Equal(t, []string{"a"}, p.RootNames())

	p.RemoveStream(s)
	require.ElementsMatch(t, []string{"a", "b"}, p.RootNames(), "b becomes a root again once its only sink is detached")

	bMeta, ok := p.Operator("b")
	require.True(t, ok)
	require.False(t, bMeta.HasInboundStream())
}

func TestSetSourceRejectsDoubleBinding(t *testing.T) {
	p := plan.New(nil)
	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	s1, err := p.AddStream("s1")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(s1, port.Key{OperatorName: "a", FieldName: "Out"}))

	s2, err := p.AddStream("s2")
	require.NoError(t, err)
	err = p.SetSource(s2, port.Key{OperatorName: "a", FieldName: "Out"})
	require.Error(t, err)
	var wiring *plan.IllegalWiringError
	require.ErrorAs(t, err, &wiring)
}

func TestAddSinkRejectsAlreadyBoundPort(t *testing.T) {
	p := plan.New(nil)
	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("a2", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &testPass{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	s, err := p.AddStream("s1")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(s, port.Key{OperatorName: "a", FieldName: "Out"}))
	require.NoError(t, p.AddSink(s, port.Key{OperatorName: "b", FieldName: "In"}))

	s2, err := p.AddStream("s2")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(s2, port.Key{OperatorName: "a2", FieldName: "Out"}))

	err = p.AddSink(s2, port.Key{OperatorName: "b", FieldName: "In"})
	require.Error(t, err)
	var wiring *plan.IllegalWiringError
	require.ErrorAs(t, err, &wiring)
}

func TestRemoveOperatorRemovesOrphanedSourceStreams(t *testing.T) {
	p := plan.New(nil)
	_, err := p.AddOperator("a", &testSource{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &testPass{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("c", &testSink{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	ab, err := p.AddStream("ab")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ab, port.Key{OperatorName: "a", FieldName: "Out"}))
	require.NoError(t, p.AddSink(ab, port.Key{OperatorName: "b", FieldName: "In"}))

	bc, err := p.AddStream("bc")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(bc, port.Key{OperatorName: "b", FieldName: "Out"}))
	require.NoError(t, p.AddSink(bc, port.Key{OperatorName: "c", FieldName: "In"}))

	p.RemoveOperator("b")

	_, ok := p.Operator("b")
	require.False(t, ok)

	abStream, ok := p.Stream("ab")
	require.True(t, ok, "ab fed into b but a still sources it; it is left dangling, not deleted")
	require.True(t, abStream.IsDangling(), "ab has lost its only sink")

	_, ok = p.Stream("bc")
	require.False(t, ok, "bc was sourced by b, an orphaned-source stream must be removed entirely")

	cMeta, ok := p.Operator("c")
	require.True(t, ok)
	require.False(t, cMeta.HasInboundStream(), "c loses its inbound stream once its source operator is removed")
}

func TestOperatorsAndStreamsPreserveInsertionOrder(t *testing.T) {
	p := plan.New(nil)
	for _, name := range []string{"z", "a", "m"} {
		_, err := p.AddOperator(name, &testSource{}, operator.DefaultClassAnnotations())
		require.NoError(t, err)
	}

	got := make([]string, 0, 3)
	for _, op := range p.Operators() {
		got = append(got, op.Name())
	}
	require.Equal(t, []string{"z", "a", "m"}, got)
}
