package main

import (
	"encoding/gob"

	"github.com/flowplan/logicalplan/operator"
)

// demoSource, demoPass, and demoSink make up the tiny A -> B -> C linear
// plan the demo subcommand builds. They carry no runtime behavior; only
// their ports and capabilities matter here.
type demoSource struct {
	Records operator.Out
}

func (demoSource) IsInputOperator() {}

type demoPass struct {
	In  operator.In
	Out operator.Out
}

type demoSink struct {
	In operator.In
}

// FileStorageAgent stores each operator's instance behind an any, so
// encoding/gob needs every concrete type registered up front.
func init() {
	gob.Register(&demoSource{})
	gob.Register(&demoPass{})
	gob.Register(&demoSink{})
}
