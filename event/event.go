// Package event implements the closed family of operational events (spec
// §4.I): a shared header plus a tagged variant, collapsing what the
// source modeled as a deep class hierarchy into one type consumers
// pattern-match on by Kind (spec §9 Design Notes).
package event

import "github.com/flowplan/logicalplan/ids"

// Level is an event's log level.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Kind tags which variant a Event carries.
type Kind int

const (
	KindSetOperatorProperty Kind = iota
	KindPartition
	KindCreateOperator
	KindRemoveOperator
	KindStartOperator
	KindStopOperator
	KindSetPhysicalOperatorProperty
	KindStartContainer
	KindStopContainer
	KindChangeLogicalPlan
	KindOperatorError
	KindContainerError
)

// Header is the data every event variant shares (spec §4.I: "each event
// carries an id from a process-global counter, a millisecond timestamp,
// a log level, an optional human-readable reason, and a type tag").
type Header struct {
	ID              int64
	TimestampMillis int64
	Level           Level
	Reason          string
	Kind            Kind
}

// Event is a single operational event. Exactly one of the variant fields
// below is populated, selected by Header.Kind; consumers pattern-match
// on Kind rather than on dynamic type.
type Event struct {
	Header

	SetOperatorProperty         *SetOperatorProperty
	Partition                   *Partition
	CreateOperator              *CreateOperator
	RemoveOperator              *RemoveOperator
	StartOperator               *StartOperator
	StopOperator                *StopOperator
	SetPhysicalOperatorProperty *SetPhysicalOperatorProperty
	StartContainer              *StartContainer
	StopContainer               *StopContainer
	ChangeLogicalPlan           *ChangeLogicalPlan
	OperatorError               *OperatorError
	ContainerError              *ContainerError
}

type SetOperatorProperty struct {
	OperatorName string
	Property     string
	Value        string
}

type Partition struct {
	OperatorName string
	OldCount     int
	NewCount     int
}

type CreateOperator struct {
	OperatorName string
	OperatorID   int64
}

type RemoveOperator struct {
	OperatorName string
	OperatorID   int64
}

type StartOperator struct {
	OperatorName string
	OperatorID   int64
	ContainerID  string
	FailureID    string
}

type StopOperator struct {
	OperatorName string
	OperatorID   int64
	ContainerID  string
	FailureID    string
}

type SetPhysicalOperatorProperty struct {
	OperatorName string
	OperatorID   int64
	Property     string
	Value        string
}

type StartContainer struct {
	ContainerID string
	NodeID      string
}

type StopContainer struct {
	ContainerID string
	ExitStatus  int
	FailureID   string
}

type ChangeLogicalPlan struct {
	Request string
}

type OperatorError struct {
	OperatorName string
	OperatorID   int64
	ContainerID  string
	ErrorMessage string
	FailureID    string
}

type ContainerError struct {
	ContainerID  string
	ErrorMessage string
}

// Sequencer mints event headers with increasing ids (spec §5: "the only
// shared state is the monotonic id counter, which uses an atomic
// fetch-and-increment").
type Sequencer struct {
	seq *ids.EventSequencer
}

// eventIDs is the process-global event id counter every Sequencer draws
// from; the first event minted in the process gets id 1.
var eventIDs = ids.NewEventSequencer()

// NewSequencer returns an event sequencer backed by the process-global
// event id counter, so ids stay unique across every Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{seq: eventIDs}
}

func (s *Sequencer) header(kind Kind, level Level, timestampMillis int64, reason string) Header {
	return Header{
		ID:              s.seq.Next(),
		TimestampMillis: timestampMillis,
		Level:           level,
		Reason:          reason,
		Kind:            kind,
	}
}

// NewCreateOperator builds a CreateOperator event at Info level (spec
// §4.I: "Default log levels: INFO for lifecycle").
func (s *Sequencer) NewCreateOperator(timestampMillis int64, name string, id int64) Event {
	return Event{
		Header:         s.header(KindCreateOperator, Info, timestampMillis, ""),
		CreateOperator: &CreateOperator{OperatorName: name, OperatorID: id},
	}
}

// NewRemoveOperator builds a RemoveOperator event at Info level.
func (s *Sequencer) NewRemoveOperator(timestampMillis int64, name string, id int64) Event {
	return Event{
		Header:         s.header(KindRemoveOperator, Info, timestampMillis, ""),
		RemoveOperator: &RemoveOperator{OperatorName: name, OperatorID: id},
	}
}

// NewStartOperator builds a StartOperator event at Info level.
func (s *Sequencer) NewStartOperator(timestampMillis int64, name string, id int64, containerID, failureID string) Event {
	return Event{
		Header: s.header(KindStartOperator, Info, timestampMillis, ""),
		StartOperator: &StartOperator{
			OperatorName: name, OperatorID: id, ContainerID: containerID, FailureID: failureID,
		},
	}
}

// NewStopOperator builds a StopOperator event at Warn level (spec §4.I:
// "WARN for stop").
func (s *Sequencer) NewStopOperator(timestampMillis int64, name string, id int64, containerID, failureID string) Event {
	return Event{
		Header: s.header(KindStopOperator, Warn, timestampMillis, ""),
		StopOperator: &StopOperator{
			OperatorName: name, OperatorID: id, ContainerID: containerID, FailureID: failureID,
		},
	}
}

// NewStartContainer builds a StartContainer event at Info level.
func (s *Sequencer) NewStartContainer(timestampMillis int64, containerID, nodeID string) Event {
	return Event{
		Header:         s.header(KindStartContainer, Info, timestampMillis, ""),
		StartContainer: &StartContainer{ContainerID: containerID, NodeID: nodeID},
	}
}

// NewStopContainer builds a StopContainer event at Warn level.
func (s *Sequencer) NewStopContainer(timestampMillis int64, containerID string, exitStatus int, failureID string) Event {
	return Event{
		Header:        s.header(KindStopContainer, Warn, timestampMillis, ""),
		StopContainer: &StopContainer{ContainerID: containerID, ExitStatus: exitStatus, FailureID: failureID},
	}
}

// NewOperatorError builds an OperatorError event at Error level (spec
// §4.I: "ERROR for errors").
func (s *Sequencer) NewOperatorError(timestampMillis int64, name string, id int64, containerID, message, failureID string) Event {
	return Event{
		Header: s.header(KindOperatorError, Error, timestampMillis, ""),
		OperatorError: &OperatorError{
			OperatorName: name, OperatorID: id, ContainerID: containerID,
			ErrorMessage: message, FailureID: failureID,
		},
	}
}

// NewContainerError builds a ContainerError event at Error level.
func (s *Sequencer) NewContainerError(timestampMillis int64, containerID, message string) Event {
	return Event{
		Header:         s.header(KindContainerError, Error, timestampMillis, ""),
		ContainerError: &ContainerError{ContainerID: containerID, ErrorMessage: message},
	}
}

// NewSetOperatorProperty builds a SetOperatorProperty event at Info
// level.
func (s *Sequencer) NewSetOperatorProperty(timestampMillis int64, name, property, value string) Event {
	return Event{
		Header:              s.header(KindSetOperatorProperty, Info, timestampMillis, ""),
		SetOperatorProperty: &SetOperatorProperty{OperatorName: name, Property: property, Value: value},
	}
}

// NewPartition builds a Partition event at Info level.
func (s *Sequencer) NewPartition(timestampMillis int64, name string, oldCount, newCount int) Event {
	return Event{
		Header:    s.header(KindPartition, Info, timestampMillis, ""),
		Partition: &Partition{OperatorName: name, OldCount: oldCount, NewCount: newCount},
	}
}

// NewSetPhysicalOperatorProperty builds a SetPhysicalOperatorProperty
// event at Info level.
func (s *Sequencer) NewSetPhysicalOperatorProperty(timestampMillis int64, name string, id int64, property, value string) Event {
	return Event{
		Header: s.header(KindSetPhysicalOperatorProperty, Info, timestampMillis, ""),
		SetPhysicalOperatorProperty: &SetPhysicalOperatorProperty{
			OperatorName: name, OperatorID: id, Property: property, Value: value,
		},
	}
}

// NewChangeLogicalPlan builds a ChangeLogicalPlan event at Info level.
func (s *Sequencer) NewChangeLogicalPlan(timestampMillis int64, request string) Event {
	return Event{
		Header:            s.header(KindChangeLogicalPlan, Info, timestampMillis, ""),
		ChangeLogicalPlan: &ChangeLogicalPlan{Request: request},
	}
}

// StatsRecorder is the external interface (spec §6) downstream stats
// sinks implement.
type StatsRecorder interface {
	RecordContainers(containers map[string]any, timestampMillis int64) error
	RecordOperators(operators []Event, timestampMillis int64) error
}
