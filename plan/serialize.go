package plan

import (
	"fmt"
	"io"

	"github.com/flowplan/logicalplan/constraint"
	"github.com/flowplan/logicalplan/operator"
	"github.com/flowplan/logicalplan/planfmt"
	"github.com/flowplan/logicalplan/port"
)

// WriteTo serializes p to w via planfmt, handing every operator's live
// instance to storage, and returns the BLAKE2b-256 content digest (spec
// §6).
func (p *Plan) WriteTo(w io.Writer, storage planfmt.StorageAgent) ([32]byte, error) {
	return planfmt.Write(w, p, storage)
}

// Load decodes a plan previously written with WriteTo, retrieving each
// operator's instance from storage and replaying the builder state that
// produced it, including operator ids (so OperatorMeta.Equal holds
// across the round trip, spec §9). The returned plan has not been
// re-validated; callers should call Validate before relying on it.
func Load(r io.Reader, storage planfmt.StorageAgent, checker constraint.Checker) (*Plan, [32]byte, error) {
	doc, sum, err := planfmt.Read(r)
	if err != nil {
		return nil, [32]byte{}, err
	}

	p := New(checker)
	if err := planfmt.RehydrateInto(p.attributes, doc.Attributes); err != nil {
		return nil, [32]byte{}, fmt.Errorf("plan: load plan attributes: %w", err)
	}

	var minSeenID int64
	var sawOperator bool
	for _, rec := range doc.Operators {
		instance, err := storage.Retrieve(rec.Name)
		if err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: retrieve operator %q: %w", rec.Name, err)
		}
		ann := operator.ClassAnnotations{
			Partitionable:                 rec.Partitionable,
			CheckpointableWithinAppWindow: rec.CheckpointableWithinAppWindow,
		}
		meta, err := p.addOperatorWithID(rec.Name, instance, ann, rec.ID)
		if err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: load operator %q: %w", rec.Name, err)
		}
		if !sawOperator || rec.ID < minSeenID {
			minSeenID, sawOperator = rec.ID, true
		}
		if rec.HasMode {
			meta.SetProcessingMode(rec.Mode)
		}
		if err := planfmt.RehydrateInto(meta.Attributes().Own, rec.Attributes); err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: load operator %q attributes: %w", rec.Name, err)
		}
		if err := rehydratePorts(meta.InputPorts(), rec.InputPorts); err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: load operator %q input ports: %w", rec.Name, err)
		}
		if err := rehydratePorts(meta.OutputPorts(), rec.OutputPorts); err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: load operator %q output ports: %w", rec.Name, err)
		}
	}
	if sawOperator {
		p.opSeq.Reseed(minSeenID)
	}

	for _, rec := range doc.Streams {
		s, err := p.AddStream(rec.ID)
		if err != nil {
			return nil, [32]byte{}, fmt.Errorf("plan: load stream %q: %w", rec.ID, err)
		}
		s.Locality = rec.Locality
		if rec.Source != nil {
			if err := p.SetSource(s, *rec.Source); err != nil {
				return nil, [32]byte{}, fmt.Errorf("plan: load stream %q source: %w", rec.ID, err)
			}
		}
		for _, sink := range rec.Sinks {
			if err := p.AddSink(s, sink); err != nil {
				return nil, [32]byte{}, fmt.Errorf("plan: load stream %q sink: %w", rec.ID, err)
			}
		}
	}

	return p, sum, nil
}

func rehydratePorts(descriptors []*port.Descriptor, records []planfmt.PortRecord) error {
	byField := make(map[string]planfmt.PortRecord, len(records))
	for _, r := range records {
		byField[r.FieldName] = r
	}
	for _, d := range descriptors {
		rec, ok := byField[d.Key.FieldName]
		if !ok {
			continue
		}
		if err := planfmt.RehydrateInto(d.Attributes(), rec.Attributes); err != nil {
			return fmt.Errorf("port %q: %w", d.Key.FieldName, err)
		}
	}
	return nil
}
