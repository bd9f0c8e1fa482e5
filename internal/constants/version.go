package constants

// version is overridden at build time via -ldflags.
var version = "dev"

// GetVersion returns the build version string.
func GetVersion() *string {
	return &version
}
