package validator_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/plan"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

type src struct {
	Out operator.Out
}

func (src) IsInputOperator() {}

type passThrough struct {
	In  operator.In
	Out operator.Out
}

type sink struct {
	In operator.In
}

type fanIn struct {
	A operator.In
	B operator.In
}

type counter struct {
	Out        operator.Out
	RecordsOut int64 `metric:"auto"`
}

func (counter) IsInputOperator() {}

// notInputRoot has an optional-only output port, so it can sit in the
// root set fully connected (optional ports need no binding) without
// implementing the input-operator capability.
type notInputRoot struct {
	Out operator.Out
}

func buildLinear(t *testing.T) (*plan.Plan, func(op, field string) port.Key) {
	t.Helper()
	p := plan.New(nil)
	key := func(op, field string) port.Key { return port.Key{OperatorName: op, FieldName: field} }
	return p, key
}

func TestValidateAcceptsWellFormedLinearPlan(t *testing.T) {
	p, key := buildLinear(t)

	_, err := p.AddOperator("a", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &passThrough{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("c", &sink{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	ab, err := p.AddStream("ab")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ab, key("a", "Out")))
	require.NoError(t, p.AddSink(ab, key("b", "In")))

	bc, err := p.AddStream("bc")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(bc, key("b", "Out")))
	require.NoError(t, p.AddSink(bc, key("c", "In")))

	require.NoError(t, p.Validate())
}

func TestValidateRejectsUnconnectedRequiredPort(t *testing.T) {
	p, _ := buildLinear(t)

	_, err := p.AddOperator("a", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &passThrough{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	err = p.Validate()
	require.Error(t, err)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)

	var unconnected *plan.UnconnectedPortError
	require.True(t, containsAs(verr.Errors, &unconnected), "expected an UnconnectedPortError among %v", verr.Errors)
}

func TestValidateDetectsCycle(t *testing.T) {
	p, key := buildLinear(t)

	_, err := p.AddOperator("a", &passThrough{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &passThrough{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	ab, err := p.AddStream("ab")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ab, key("a", "Out")))
	require.NoError(t, p.AddSink(ab, key("b", "In")))

	ba, err := p.AddStream("ba")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ba, key("b", "Out")))
	require.NoError(t, p.AddSink(ba, key("a", "In")))

	err = p.Validate()
	require.Error(t, err)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)

	var cycle *plan.CycleError
	require.True(t, containsAs(verr.Errors, &cycle), "expected a CycleError among %v", verr.Errors)
}

func TestValidateRejectsNonThreadLocalFanIn(t *testing.T) {
	p, key := buildLinear(t)

	_, err := p.AddOperator("a", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("b", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("merge", &fanIn{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	am, err := p.AddStream("am")
	require.NoError(t, err)
	am.Locality = stream.NodeLocal
	require.NoError(t, p.SetSource(am, key("a", "Out")))
	require.NoError(t, p.AddSink(am, key("merge", "A")))

	bm, err := p.AddStream("bm")
	require.NoError(t, err)
	bm.Locality = stream.ThreadLocal
	require.NoError(t, p.SetSource(bm, key("b", "Out")))
	require.NoError(t, p.AddSink(bm, key("merge", "B")))

	err = p.Validate()
	require.Error(t, err)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)

	var oio *plan.OIOError
	require.True(t, containsAs(verr.Errors, &oio), "a non-THREAD_LOCAL fan-in input must fail OIO consistency, got %v", verr.Errors)
}

func TestValidatePropagatesAtMostOnce(t *testing.T) {
	p, key := buildLinear(t)

	a, err := p.AddOperator("a", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	a.SetProcessingMode(operator.AtMostOnce)

	b, err := p.AddOperator("b", &passThrough{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("c", &sink{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	ab, err := p.AddStream("ab")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ab, key("a", "Out")))
	require.NoError(t, p.AddSink(ab, key("b", "In")))

	bc, err := p.AddStream("bc")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(bc, key("b", "Out")))
	require.NoError(t, p.AddSink(bc, key("c", "In")))

	require.NoError(t, p.Validate())

	mode, hasMode := b.ProcessingMode()
	require.True(t, hasMode)
	require.Equal(t, operator.AtMostOnce, mode)
}

func TestValidateRejectsExactlyOnceIntoUndeclaredDownstream(t *testing.T) {
	p, key := buildLinear(t)

	a, err := p.AddOperator("a", &src{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	a.SetProcessingMode(operator.ExactlyOnce)

	_, err = p.AddOperator("b", &sink{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	ab, err := p.AddStream("ab")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(ab, key("a", "Out")))
	require.NoError(t, p.AddSink(ab, key("b", "In")))

	err = p.Validate()
	require.Error(t, err)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)

	var modeErr *plan.ProcessingModeError
	require.True(t, containsAs(verr.Errors, &modeErr), "expected a ProcessingModeError among %v", verr.Errors)
}

func TestValidateInfersMetricAggregator(t *testing.T) {
	p, key := buildLinear(t)

	c, err := p.AddOperator("c", &counter{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	_, err = p.AddOperator("s", &sink{}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	cs, err := p.AddStream("cs")
	require.NoError(t, err)
	require.NoError(t, p.SetSource(cs, key("c", "Out")))
	require.NoError(t, p.AddSink(cs, key("s", "In")))

	require.NoError(t, p.Validate())

	agg := c.MetricAggregator()
	require.NotNil(t, agg)
	require.Len(t, agg.Fields, 1)
	require.Equal(t, "RecordsOut", agg.Fields[0].Name)
}

func TestValidateRejectsNonInputRoot(t *testing.T) {
	p, _ := buildLinear(t)

	_, err := p.AddOperator("p", &notInputRoot{Out: operator.Out{Optional: true}}, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	err = p.Validate()
	require.Error(t, err)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)

	var nonInput *plan.NonInputRootError
	require.True(t, containsAs(verr.Errors, &nonInput), "expected a NonInputRootError among %v", verr.Errors)
}

// containsAs reports whether any error in errs matches target via
// errors.As, without mutating target's underlying value across calls.
func containsAs[T error](errs []error, target *T) bool {
	for _, e := range errs {
		t := *target
		if as(e, &t) {
			*target = t
			return true
		}
	}
	return false
}

func as[T error](err error, target *T) bool {
	if v, ok := err.(T); ok {
		*target = v
		return true
	}
	return false
}
