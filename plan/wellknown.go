package plan

import "github.com/flowplan/logicalplan/attribute"

// Well-known plan-level attribute keys (spec §6, non-exhaustive).
var (
	FastPublisherSubscriber = attribute.NewWithDefault("FAST_PUBLISHER_SUBSCRIBER", false)

	// HDFSTokenLifeTimeMillis and RMTokenLifeTimeMillis are delegation
	// token lifetimes in milliseconds.
	HDFSTokenLifeTimeMillis = attribute.NewWithDefault[int64]("HDFS_TOKEN_LIFE_TIME", 7*24*60*60*1000)
	RMTokenLifeTimeMillis   = attribute.New[int64]("RM_TOKEN_LIFE_TIME")

	KeyTabFile                     = attribute.New[string]("KEY_TAB_FILE")
	TokenRefreshAnticipatoryFactor = attribute.NewWithDefault("TOKEN_REFRESH_ANTICIPATORY_FACTOR", 0.7)

	License     = attribute.New[string]("LICENSE")
	LicenseRoot = attribute.New[string]("LICENSE_ROOT")

	LibraryJars = attribute.New[string]("LIBRARY_JARS")
	Archives    = attribute.New[string]("ARCHIVES")
	Files       = attribute.New[string]("FILES")

	ContainersMaxCount = attribute.NewWithDefault("CONTAINERS_MAX_COUNT", int(^uint(0)>>1))

	// ApplicationPath is the persistent root for checkpoints/stats/events
	// (spec §6); it has no usable default and must be set before launch.
	ApplicationPath = attribute.New[string]("APPLICATION_PATH")

	Debug               = attribute.NewWithDefault("DEBUG", false)
	MasterMemoryMB      = attribute.NewWithDefault("MASTER_MEMORY_MB", 1024)
	ContainerJVMOptions = attribute.New[string]("CONTAINER_JVM_OPTIONS")
)

// Subdirectory names rooted under ApplicationPath (spec §6).
const (
	CheckpointsSubdir = "checkpoints"
	StatsSubdir       = "stats"
	EventsSubdir      = "events"
)
