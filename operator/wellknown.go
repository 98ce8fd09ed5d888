package operator

import "github.com/flowplan/logicalplan/attribute"

// Well-known operator-scoped attribute keys referenced by the validator
// (spec §4.G).
var (
	// PartitionerAttr holds an explicit partitioner configuration name.
	// Its presence satisfies "an explicit partitioner attribute is set"
	// even when the operator's class also implements the Partitioner
	// capability.
	PartitionerAttr = attribute.New[string]("PARTITIONER")

	// ParallelPartitioned is a port-level attribute: a stream feeding a
	// port it's set on expects to be load-balanced across partitions of
	// the downstream operator.
	ParallelPartitioned = attribute.NewWithDefault("PARTITION_PARALLEL", false)

	// ApplicationWindowCount and CheckpointWindowCount are the two
	// window-size attributes whose ratio the checkpoint/window
	// consistency check (spec §4.G) depends on.
	ApplicationWindowCount = attribute.NewWithDefault("APPLICATION_WINDOW_COUNT", 1)
	CheckpointWindowCount  = attribute.NewWithDefault("CHECKPOINT_WINDOW_COUNT", 30)

	// MetricsAggregatorOverride, when set, is the operator's explicit metric
	// aggregator declaration; its presence suppresses automatic
	// inference (spec §4.H).
	MetricsAggregatorOverride = attribute.New[string]("METRICS_AGGREGATOR")

	// DimensionsScheme names the metric dimensions scheme bundled into
	// the operator's metric-aggregator metadata (spec §4.H).
	DimensionsScheme = attribute.NewWithDefault("METRICS_DIMENSIONS_SCHEME", "")
)
