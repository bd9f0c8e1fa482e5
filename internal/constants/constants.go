// Package constants defines global constants used throughout the console.
package constants

// ProjectName is the canonical name of the CLI binary.
const ProjectName = "vedfolnir"

// Environment identifies the runtime environment for logging purposes.
type Environment string

const (
	// Production selects machine-readable JSON logging
	Production Environment = "production"
	// CLI selects human-readable colored logging
	CLI Environment = "cli"
)

// ConfigDirName is the directory under the user's home that holds
// the config file and the shared session state file.
const ConfigDirName = ".vedfolnir"

// ConfigFileName is the name of the YAML configuration file.
const ConfigFileName = "config.yaml"

// SessionStateFileName is the shared session state file used for
// cross-process synchronization (the browser localStorage analog).
const SessionStateFileName = "session-state.json"

// ConfigDirPermissions is the permission mode for the config directory.
const ConfigDirPermissions = 0o700

// ConfigFilePermissions is the permission mode for the config file.
const ConfigFilePermissions = 0o600
