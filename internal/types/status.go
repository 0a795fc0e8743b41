package types

// Status is a type for the database lifecycle status of a resource.
// This is used to track soft deletion and to scope queries.
// Any changes to this type should be reflected in the database schema by
// running migrations.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// RunMode is the mode the process runs in
type RunMode string

const (
	// ModeLocal runs everything in a single process
	ModeLocal RunMode = "local"
	// ModeService runs the billing engine as a library consumer
	ModeService RunMode = "service"
	// ModeScheduler runs only the periodic sweeps
	ModeScheduler RunMode = "scheduler"
)

// LogLevel controls logger verbosity
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
