package planfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/flowplan/logicalplan/attribute"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

// header carries metadata that never affects the content digest: only
// when the file was written. Nothing about plan structure lives here.
type header struct {
	createdAtUnixMillis int64
}

// Write serializes p to w, handing every operator's live instance to
// storage keyed by its name, and returns the BLAKE2b-256 digest of the
// body (spec §6, §4.K).
func Write(w io.Writer, p Source, storage StorageAgent) ([32]byte, error) {
	doc, err := toDoc(p)
	if err != nil {
		return [32]byte{}, err
	}

	for _, op := range p.Operators() {
		if err := storage.Store(op.Name(), op.Instance()); err != nil {
			return [32]byte{}, fmt.Errorf("planfmt: store operator %q: %w", op.Name(), err)
		}
	}

	var headerBuf, bodyBuf bytes.Buffer
	if err := writeHeader(&headerBuf, header{createdAtUnixMillis: time.Now().UnixMilli()}); err != nil {
		return [32]byte{}, err
	}
	if err := writeBody(&bodyBuf, doc); err != nil {
		return [32]byte{}, err
	}

	sum, err := digest(bodyBuf.Bytes())
	if err != nil {
		return [32]byte{}, err
	}

	if err := writePreamble(w, uint32(headerBuf.Len()), uint64(bodyBuf.Len()), 0); err != nil {
		return [32]byte{}, err
	}
	if _, err := w.Write(headerBuf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	if _, err := w.Write(bodyBuf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	return sum, nil
}

// Read decodes a Doc from r and returns it alongside the BLAKE2b-256
// digest of its body, for comparison against a previously recorded
// contract hash. It does not touch storage: retrieving each operator's
// instance is the caller's job once it knows which names it needs.
func Read(r io.Reader) (*Doc, [32]byte, error) {
	pre, err := readPreamble(r)
	if err != nil {
		return nil, [32]byte{}, err
	}

	headerBuf := make([]byte, pre.headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, [32]byte{}, fmt.Errorf("planfmt: read header: %w", err)
	}
	if _, err := readHeader(bytes.NewReader(headerBuf)); err != nil {
		return nil, [32]byte{}, err
	}

	bodyBuf := make([]byte, pre.bodyLen)
	if _, err := io.ReadFull(r, bodyBuf); err != nil {
		return nil, [32]byte{}, fmt.Errorf("planfmt: read body: %w", err)
	}

	sum, err := digest(bodyBuf)
	if err != nil {
		return nil, [32]byte{}, err
	}

	doc, err := readBody(bytes.NewReader(bodyBuf))
	if err != nil {
		return nil, [32]byte{}, err
	}
	return doc, sum, nil
}

func writeHeader(buf *bytes.Buffer, h header) error {
	return binary.Write(buf, binary.LittleEndian, h.createdAtUnixMillis)
}

func readHeader(r io.Reader) (header, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h.createdAtUnixMillis); err != nil {
		return header{}, fmt.Errorf("planfmt: read header: %w", err)
	}
	return h, nil
}

func toDoc(p Source) (*Doc, error) {
	doc := &Doc{}

	attrs, err := encodeAttrs(p.Attributes())
	if err != nil {
		return nil, err
	}
	doc.Attributes = attrs

	for _, op := range p.Operators() {
		rec, err := toOperatorRecord(op)
		if err != nil {
			return nil, err
		}
		doc.Operators = append(doc.Operators, rec)
	}

	for _, s := range p.Streams() {
		doc.Streams = append(doc.Streams, StreamRecord{
			ID:       s.ID,
			Locality: s.Locality,
			Source:   s.Source,
			Sinks:    append([]port.Key(nil), s.Sinks...),
		})
	}

	return doc, nil
}

func toOperatorRecord(op *operator.Meta) (OperatorRecord, error) {
	ann := op.Annotations()
	rec := OperatorRecord{
		Name:                          op.Name(),
		ID:                            op.ID(),
		Partitionable:                 ann.Partitionable,
		CheckpointableWithinAppWindow: ann.CheckpointableWithinAppWindow,
	}

	for _, d := range op.InputPorts() {
		pr, err := toPortRecord(op, d)
		if err != nil {
			return OperatorRecord{}, err
		}
		rec.InputPorts = append(rec.InputPorts, pr)
	}
	for _, d := range op.OutputPorts() {
		pr, err := toPortRecord(op, d)
		if err != nil {
			return OperatorRecord{}, err
		}
		rec.OutputPorts = append(rec.OutputPorts, pr)
	}

	attrs, err := encodeAttrs(op.Attributes().Own)
	if err != nil {
		return OperatorRecord{}, fmt.Errorf("planfmt: operator %q attributes: %w", op.Name(), err)
	}
	rec.Attributes = attrs

	mode, hasMode := op.ProcessingMode()
	rec.Mode, rec.HasMode = mode, hasMode
	return rec, nil
}

func toPortRecord(op *operator.Meta, d *port.Descriptor) (PortRecord, error) {
	pr := PortRecord{
		FieldName:     d.Key.FieldName,
		Optional:      d.Optional,
		AppDataQuery:  d.AppDataQuery,
		AppDataResult: d.AppDataResult,
	}
	var bound bool
	var s *stream.Meta
	if d.IsOutput() {
		s, bound = op.OutputStream(d.Key)
	} else {
		s, bound = op.InputStream(d.Key)
	}
	if bound {
		pr.StreamID = s.ID
	}

	attrs, err := encodeAttrs(d.Attributes())
	if err != nil {
		return PortRecord{}, fmt.Errorf("planfmt: port %q.%q attributes: %w", op.Name(), d.Key.FieldName, err)
	}
	pr.Attributes = attrs
	return pr, nil
}

func encodeAttrs(m *attribute.Map) (AttrSet, error) {
	var out AttrSet
	for _, name := range m.Names() {
		v, _ := m.RawValue(name)
		data, err := cbor.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("planfmt: encode attribute %q: %w", name, err)
		}
		out = append(out, AttrEntry{Name: name, CBOR: data})
	}
	return out, nil
}

// RehydrateInto rebinds every entry in attrs into m, recovering each
// attribute's static type from the process-wide key registry via
// reflection rather than requiring the caller to know every key up front
// (spec §6: the wire format carries only the stable name).
func RehydrateInto(m *attribute.Map, attrs AttrSet) error {
	for _, e := range attrs {
		entry := e
		err := attribute.RebindByName(m, entry.Name, func(t reflect.Type) (any, error) {
			ptr := reflect.New(t)
			if err := cbor.Unmarshal(entry.CBOR, ptr.Interface()); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		})
		if err != nil {
			return fmt.Errorf("planfmt: rebind attribute %q: %w", entry.Name, err)
		}
	}
	return nil
}

// DecodeAttribute recovers the typed value an AttrEntry carries, given
// the attribute.Key[T] its name was registered under. Callers that don't
// hold the Go key (a third party inspecting the file, per spec §4.K) can
// instead call cbor.Unmarshal directly on AttrEntry.CBOR.
func DecodeAttribute[T any](e AttrEntry, k attribute.Key[T]) (T, error) {
	var v T
	if e.Name != k.Name() {
		return v, fmt.Errorf("planfmt: attribute name mismatch: entry %q, key %q", e.Name, k.Name())
	}
	if err := cbor.Unmarshal(e.CBOR, &v); err != nil {
		return v, fmt.Errorf("planfmt: decode attribute %q: %w", e.Name, err)
	}
	return v, nil
}
