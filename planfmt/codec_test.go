package planfmt_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/plan"
	"github.com/flowplan/logicalplan/planfmt"
	"github.com/flowplan/logicalplan/port"
)

var testRecordCount = attribute.New[int]("PLANFMT_TEST_RECORD_COUNT")

type fakeSource struct {
	Out operator.Out
}

func (fakeSource) IsInputOperator() {}

type fakeSink struct {
	In operator.In
}

type memStorage struct {
	instances map[string]any
}

func newMemStorage() *memStorage { return &memStorage{instances: map[string]any{}} }

func (s *memStorage) Store(name string, instance any) error {
	s.instances[name] = instance
	return nil
}

func (s *memStorage) Retrieve(name string) (any, error) {
	v, ok := s.instances[name]
	if !ok {
		return nil, planfmt.ErrNotFound
	}
	return v, nil
}

func buildFixture(t *testing.T) *plan.Plan {
	t.Helper()
	p := plan.New(nil)
	attribute.Put(p.Attributes(), testRecordCount, 7)

	src := &fakeSource{}
	sink := &fakeSink{}

	srcMeta, err := p.AddOperator("source", src, operator.DefaultClassAnnotations())
	require.NoError(t, err)
	attribute.PutScoped(srcMeta.Attributes(), testRecordCount, 3)

	_, err = p.AddOperator("sink", sink, operator.DefaultClassAnnotations())
	require.NoError(t, err)

	s, err := p.AddStream("s1")
	require.NoError(t, err)

	require.NoError(t, p.SetSource(s, port.Key{OperatorName: "source", FieldName: "Out"}))
	require.NoError(t, p.AddSink(s, port.Key{OperatorName: "sink", FieldName: "In"}))

	return p
}

func TestWriteReadRoundTrip(t *testing.T) {
	p := buildFixture(t)
	storage := newMemStorage()

	var buf bytes.Buffer
	digest1, err := p.WriteTo(&buf, storage)
	require.NoError(t, err)

	loaded, digest2, err := plan.Load(bytes.NewReader(buf.Bytes()), storage, nil)
	require.NoError(t, err)
	require.Equal(t, digest1, digest2)

	require.ElementsMatch(t, []string{"source", "sink"}, namesOf(loaded))

	srcOrig, _ := p.Operator("source")
	srcLoaded, ok := loaded.Operator("source")
	require.True(t, ok)
	require.True(t, srcOrig.Equal(srcLoaded), "operator identity (name+id) and attributes must survive the round trip")

	v, ok := attribute.Get(loaded.Attributes(), testRecordCount)
	require.True(t, ok)
	require.Equal(t, 7, v)

	vScoped, ok := attribute.GetScoped(srcLoaded.Attributes(), testRecordCount)
	require.True(t, ok)
	require.Equal(t, 3, vScoped)

	loadedStream, ok := loaded.Stream("s1")
	require.True(t, ok)
	require.NotNil(t, loadedStream.Source)
	require.Equal(t, "source", loadedStream.Source.OperatorName)
	require.Len(t, loadedStream.Sinks, 1)
	require.Equal(t, "sink", loadedStream.Sinks[0].OperatorName)
}

func TestWriteIsDeterministic(t *testing.T) {
	p := buildFixture(t)
	storage := newMemStorage()

	var a, b bytes.Buffer
	digestA, err := p.WriteTo(&a, storage)
	require.NoError(t, err)
	digestB, err := p.WriteTo(&b, storage)
	require.NoError(t, err)

	require.Equal(t, digestA, digestB, "the content digest excludes the header timestamp, so it must be stable across writes")
}

func TestReadRejectsBadMagic(t *testing.T) {
	_, _, err := planfmt.Read(bytes.NewReader([]byte("not a plan file at all")))
	require.Error(t, err)
}

func namesOf(p *plan.Plan) []string {
	ops := p.Operators()
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Name()
	}
	return out
}
