package operator

import (
	"fmt"
	"reflect"

	"github.com/flowplan/logicalplan/port"
)

// In is the field type an operator author embeds for each declared input
// port. The zero value is a required, plain input port; set Optional or
// AppDataQuery to carry the corresponding annotation.
type In struct {
	Optional     bool
	AppDataQuery bool
}

// Out is the field type an operator author embeds for each declared
// output port.
type Out struct {
	Optional      bool
	AppDataResult bool
}

// PortSpec is one port in an explicit port declaration.
type PortSpec struct {
	Name          string
	Optional      bool
	AppDataQuery  bool // input ports only
	AppDataResult bool // output ports only
}

// PortSet is the full input/output port declaration for an operator.
type PortSet struct {
	Inputs  []PortSpec
	Outputs []PortSpec
}

// PortDeclarer lets an operator author supply its ports explicitly
// instead of relying on the reflective field scanner below (spec §9
// Design Notes: "replace reflection-driven port discovery with an
// explicit operator descriptor the operator author supplies"). Preferred
// over reflection whenever an operator implements it.
type PortDeclarer interface {
	DeclarePorts() PortSet
}

// DuplicatePortNameError reports that port discovery found two distinct
// port fields mapping to the same field name (spec §4.F).
type DuplicatePortNameError struct {
	OperatorName string
	FieldName    string
}

func (e *DuplicatePortNameError) Error() string {
	return fmt.Sprintf("operator %s: duplicate port field name %q", e.OperatorName, e.FieldName)
}

var (
	inType  = reflect.TypeOf(In{})
	outType = reflect.TypeOf(Out{})
)

// discoverPorts builds port descriptors for instance. It prefers an
// explicit PortDeclarer; failing that, it falls back to scanning
// declared and inherited (embedded) struct fields of type In/Out, a
// convenience adapter kept for operators that don't bother with an
// explicit declaration (spec §4.F, §9 Design Notes).
func discoverPorts(operatorName string, instance any) ([]*port.Descriptor, []*port.Descriptor, error) {
	if declarer, ok := instance.(PortDeclarer); ok {
		return fromPortSet(operatorName, declarer.DeclarePorts())
	}

	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, fmt.Errorf("operator %s: nil operator instance", operatorName)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("operator %s: instance has no declared ports and is not a struct to scan", operatorName)
	}

	var inputs, outputs []*port.Descriptor
	seen := make(map[string]bool)

	var walk func(reflect.Value)
	var walkErr error
	walk = func(val reflect.Value) {
		t := val.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			fv := val.Field(i)

			switch f.Type {
			case inType:
				if seen[f.Name] {
					walkErr = &DuplicatePortNameError{OperatorName: operatorName, FieldName: f.Name}
					return
				}
				seen[f.Name] = true
				spec := fv.Interface().(In)
				d := port.New(port.Input, operatorName, f.Name)
				d.Optional = spec.Optional
				d.AppDataQuery = spec.AppDataQuery
				inputs = append(inputs, d)
			case outType:
				if seen[f.Name] {
					walkErr = &DuplicatePortNameError{OperatorName: operatorName, FieldName: f.Name}
					return
				}
				seen[f.Name] = true
				spec := fv.Interface().(Out)
				d := port.New(port.Output, operatorName, f.Name)
				d.Optional = spec.Optional
				d.AppDataResult = spec.AppDataResult
				outputs = append(outputs, d)
			default:
				if f.Anonymous && f.Type.Kind() == reflect.Struct {
					walk(fv) // inherited (embedded) fields
				}
			}
			if walkErr != nil {
				return
			}
		}
	}
	walk(v)

	if walkErr != nil {
		return nil, nil, walkErr
	}
	return inputs, outputs, nil
}

func fromPortSet(operatorName string, set PortSet) ([]*port.Descriptor, []*port.Descriptor, error) {
	seen := make(map[string]bool)
	inputs := make([]*port.Descriptor, 0, len(set.Inputs))
	for _, spec := range set.Inputs {
		if seen[spec.Name] {
			return nil, nil, &DuplicatePortNameError{OperatorName: operatorName, FieldName: spec.Name}
		}
		seen[spec.Name] = true
		d := port.New(port.Input, operatorName, spec.Name)
		d.Optional = spec.Optional
		d.AppDataQuery = spec.AppDataQuery
		inputs = append(inputs, d)
	}

	outputs := make([]*port.Descriptor, 0, len(set.Outputs))
	for _, spec := range set.Outputs {
		if seen[spec.Name] {
			return nil, nil, &DuplicatePortNameError{OperatorName: operatorName, FieldName: spec.Name}
		}
		seen[spec.Name] = true
		d := port.New(port.Output, operatorName, spec.Name)
		d.Optional = spec.Optional
		d.AppDataResult = spec.AppDataResult
		outputs = append(outputs, d)
	}

	return inputs, outputs, nil
}
