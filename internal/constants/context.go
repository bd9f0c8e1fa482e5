package constants

// ctxKey is a private type for context keys defined in this package.
type ctxKey string

const (
	// ConfigCtxKey stores the loaded *config.Config on the command context.
	ConfigCtxKey ctxKey = "config"
	// StartTimeCtxKey stores the command start time for elapsed reporting.
	StartTimeCtxKey ctxKey = "startTime"
)
