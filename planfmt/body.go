package planfmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/port"
	"github.com/flowplan/logicalplan/stream"
)

// Body layout: ATTRS | OPERATOR_COUNT(2) OPERATOR* | STREAM_COUNT(2) STREAM*
// Every variable-length field is a length prefix followed by its bytes,
// mirroring the framing style of the original plan-serialization format
// this module's binary encoding is descended from.

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("planfmt: string of length %d exceeds maximum %d", len(s), math.MaxUint16)
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := buf.WriteString(s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeBlob(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := buf.Write(b)
	return err
}

func readBlob(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeBool(buf *bytes.Buffer, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return buf.WriteByte(b)
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func writeAttrSet(buf *bytes.Buffer, attrs AttrSet) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(attrs))); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := writeString(buf, a.Name); err != nil {
			return err
		}
		if err := writeBlob(buf, a.CBOR); err != nil {
			return err
		}
	}
	return nil
}

func readAttrSet(r *bytes.Reader) (AttrSet, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make(AttrSet, 0, n)
	for i := 0; i < int(n); i++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		data, err := readBlob(r)
		if err != nil {
			return nil, err
		}
		out = append(out, AttrEntry{Name: name, CBOR: data})
	}
	return out, nil
}

func writePortRecord(buf *bytes.Buffer, p PortRecord) error {
	if err := writeString(buf, p.FieldName); err != nil {
		return err
	}
	for _, v := range []bool{p.Optional, p.AppDataQuery, p.AppDataResult} {
		if err := writeBool(buf, v); err != nil {
			return err
		}
	}
	if err := writeString(buf, p.StreamID); err != nil {
		return err
	}
	return writeAttrSet(buf, p.Attributes)
}

func readPortRecord(r *bytes.Reader) (PortRecord, error) {
	var p PortRecord
	var err error
	if p.FieldName, err = readString(r); err != nil {
		return p, err
	}
	if p.Optional, err = readBool(r); err != nil {
		return p, err
	}
	if p.AppDataQuery, err = readBool(r); err != nil {
		return p, err
	}
	if p.AppDataResult, err = readBool(r); err != nil {
		return p, err
	}
	if p.StreamID, err = readString(r); err != nil {
		return p, err
	}
	if p.Attributes, err = readAttrSet(r); err != nil {
		return p, err
	}
	return p, nil
}

func writePortRecordList(buf *bytes.Buffer, ports []PortRecord) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(ports))); err != nil {
		return err
	}
	for _, p := range ports {
		if err := writePortRecord(buf, p); err != nil {
			return err
		}
	}
	return nil
}

func readPortRecordList(r *bytes.Reader) ([]PortRecord, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := make([]PortRecord, 0, n)
	for i := 0; i < int(n); i++ {
		p, err := readPortRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func writeOperatorRecord(buf *bytes.Buffer, op OperatorRecord) error {
	if err := writeString(buf, op.Name); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, op.ID); err != nil {
		return err
	}
	for _, v := range []bool{op.Partitionable, op.CheckpointableWithinAppWindow, op.HasMode} {
		if err := writeBool(buf, v); err != nil {
			return err
		}
	}
	if err := buf.WriteByte(byte(op.Mode)); err != nil {
		return err
	}
	if err := writePortRecordList(buf, op.InputPorts); err != nil {
		return err
	}
	if err := writePortRecordList(buf, op.OutputPorts); err != nil {
		return err
	}
	return writeAttrSet(buf, op.Attributes)
}

func readOperatorRecord(r *bytes.Reader) (OperatorRecord, error) {
	var op OperatorRecord
	var err error
	if op.Name, err = readString(r); err != nil {
		return op, err
	}
	if err = binary.Read(r, binary.LittleEndian, &op.ID); err != nil {
		return op, err
	}
	if op.Partitionable, err = readBool(r); err != nil {
		return op, err
	}
	if op.CheckpointableWithinAppWindow, err = readBool(r); err != nil {
		return op, err
	}
	if op.HasMode, err = readBool(r); err != nil {
		return op, err
	}
	mode, err := r.ReadByte()
	if err != nil {
		return op, err
	}
	op.Mode = operator.ProcessingMode(mode)
	if op.InputPorts, err = readPortRecordList(r); err != nil {
		return op, err
	}
	if op.OutputPorts, err = readPortRecordList(r); err != nil {
		return op, err
	}
	if op.Attributes, err = readAttrSet(r); err != nil {
		return op, err
	}
	return op, nil
}

func writePortKey(buf *bytes.Buffer, k port.Key) error {
	if err := writeString(buf, k.OperatorName); err != nil {
		return err
	}
	return writeString(buf, k.FieldName)
}

func readPortKey(r *bytes.Reader) (port.Key, error) {
	var k port.Key
	var err error
	if k.OperatorName, err = readString(r); err != nil {
		return k, err
	}
	k.FieldName, err = readString(r)
	return k, err
}

func writeStreamRecord(buf *bytes.Buffer, s StreamRecord) error {
	if err := writeString(buf, s.ID); err != nil {
		return err
	}
	if err := buf.WriteByte(byte(s.Locality)); err != nil {
		return err
	}
	hasSource := s.Source != nil
	if err := writeBool(buf, hasSource); err != nil {
		return err
	}
	if hasSource {
		if err := writePortKey(buf, *s.Source); err != nil {
			return err
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(s.Sinks))); err != nil {
		return err
	}
	for _, k := range s.Sinks {
		if err := writePortKey(buf, k); err != nil {
			return err
		}
	}
	return nil
}

func readStreamRecord(r *bytes.Reader) (StreamRecord, error) {
	var s StreamRecord
	var err error
	if s.ID, err = readString(r); err != nil {
		return s, err
	}
	locality, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.Locality = stream.Locality(locality)

	hasSource, err := readBool(r)
	if err != nil {
		return s, err
	}
	if hasSource {
		k, err := readPortKey(r)
		if err != nil {
			return s, err
		}
		s.Source = &k
	}

	var sinkCount uint16
	if err := binary.Read(r, binary.LittleEndian, &sinkCount); err != nil {
		return s, err
	}
	s.Sinks = make([]port.Key, 0, sinkCount)
	for i := 0; i < int(sinkCount); i++ {
		k, err := readPortKey(r)
		if err != nil {
			return s, err
		}
		s.Sinks = append(s.Sinks, k)
	}
	return s, nil
}

func writeBody(buf *bytes.Buffer, doc *Doc) error {
	if err := writeAttrSet(buf, doc.Attributes); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(doc.Operators))); err != nil {
		return err
	}
	for _, op := range doc.Operators {
		if err := writeOperatorRecord(buf, op); err != nil {
			return err
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(doc.Streams))); err != nil {
		return err
	}
	for _, s := range doc.Streams {
		if err := writeStreamRecord(buf, s); err != nil {
			return err
		}
	}
	return nil
}

func readBody(r *bytes.Reader) (*Doc, error) {
	doc := &Doc{}
	var err error
	if doc.Attributes, err = readAttrSet(r); err != nil {
		return nil, fmt.Errorf("planfmt: read plan attributes: %w", err)
	}

	var opCount uint16
	if err := binary.Read(r, binary.LittleEndian, &opCount); err != nil {
		return nil, fmt.Errorf("planfmt: read operator count: %w", err)
	}
	for i := 0; i < int(opCount); i++ {
		op, err := readOperatorRecord(r)
		if err != nil {
			return nil, fmt.Errorf("planfmt: read operator %d: %w", i, err)
		}
		doc.Operators = append(doc.Operators, op)
	}

	var streamCount uint16
	if err := binary.Read(r, binary.LittleEndian, &streamCount); err != nil {
		return nil, fmt.Errorf("planfmt: read stream count: %w", err)
	}
	for i := 0; i < int(streamCount); i++ {
		s, err := readStreamRecord(r)
		if err != nil {
			return nil, fmt.Errorf("planfmt: read stream %d: %w", i, err)
		}
		doc.Streams = append(doc.Streams, s)
	}

	return doc, nil
}
