package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/nodetree/pkg/settings"
)

// versionData is the build information printed by `nodetree version`.
type versionData struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// buildVersionData prefers ldflags metadata and falls back to module and
// VCS information embedded by the Go toolchain.
func buildVersionData() versionData {
	v := versionData{
		Name:      settings.CliBinaryName,
		Version:   settings.VersionInformation.BuildVersion,
		Commit:    settings.VersionInformation.Commit,
		BuildTime: settings.VersionInformation.BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := rdebug.ReadBuildInfo()
	if !ok {
		return v
	}
	if info.GoVersion != "" {
		v.GoVersion = info.GoVersion
	}
	if v.Version == "v0.0.0-nightly" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && v.Commit == "unknown" && len(s.Value) >= 7 {
			v.Commit = s.Value[:7]
		}
	}
	return v
}

// cliVersionString is the one-line form used by --version.
func cliVersionString() string {
	v := buildVersionData()
	return fmt.Sprintf("%s %s (commit %s, %s)", v.Name, v.Version, v.Commit, v.GoVersion)
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print " + settings.CliBinaryName + " version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(buildVersionData())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
