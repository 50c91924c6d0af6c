// Package settings provides build metadata, runtime configuration, and
// context helpers shared by the nodetree CLI and library packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "nodetree"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// Input describes where the data for a run comes from.
type Input struct {
	FromStdin bool
	Path      string
}

// Run holds configuration settings for a single execution.
type Run struct {
	MinLogLevel int8
	Input       Input
	IsQuiet     bool
	NoColor     bool
}

// NewCliParams returns Run defaults for the CLI: info logging, stdin input
// and colored output.
func NewCliParams() *Run {
	return &Run{
		Input: Input{FromStdin: true},
	}
}
