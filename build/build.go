// Package build describes the running binary: version, commit and the
// module versions it was built against. Release builds inject a JSON
// document with -ldflags; development builds fall back to the information
// the Go toolchain embeds.
package build

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
)

const develVersion = "(devel)"

// Info contains build metadata.
type Info struct {
	Version      string            `json:"version"`
	GitCommit    string            `json:"git_commit"` //nolint:tagliatelle
	GitBranch    string            `json:"git_branch"` //nolint:tagliatelle
	BuildTime    string            `json:"build_time"` //nolint:tagliatelle
	GoVersion    string            `json:"go_version"` //nolint:tagliatelle
	Dependencies map[string]string `json:"dependencies"`
}

// Parse deserializes a JSON string into build Info.
// Returns (nil, false) if the input is empty, "{}", or fails to parse.
func Parse(js string) (*Info, bool) {
	if len(js) == 0 || js == "{}" {
		return nil, false
	}

	var info Info

	if err := json.Unmarshal([]byte(js), &info); err != nil {
		slog.Warn("Failed to parse build info from JSON",
			"data", js,
			"error", err)

		return nil, false
	}

	return &info, true
}

// Current returns the injected build info when js parses, and otherwise what
// runtime/debug knows about the binary.
func Current(js string) *Info {
	if info, ok := Parse(js); ok {
		return info
	}

	info := &Info{
		Version:   develVersion,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if bi.Main.Version != "" {
		info.Version = bi.Main.Version
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.GitCommit = setting.Value
		case "vcs.time":
			info.BuildTime = setting.Value
		}
	}

	if len(bi.Deps) > 0 {
		info.Dependencies = make(map[string]string, len(bi.Deps))

		for _, dep := range bi.Deps {
			info.Dependencies[dep.Path] = dep.Version
		}
	}

	return info
}

// String renders the info for a version command. Dependencies are listed in
// path order.
func (i *Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "version:  %s\n", i.Version)

	if i.GitCommit != "" {
		fmt.Fprintf(&sb, "commit:   %s\n", i.GitCommit)
	}

	if i.GitBranch != "" {
		fmt.Fprintf(&sb, "branch:   %s\n", i.GitBranch)
	}

	if i.BuildTime != "" {
		fmt.Fprintf(&sb, "built:    %s\n", i.BuildTime)
	}

	fmt.Fprintf(&sb, "go:       %s\n", i.GoVersion)

	paths := make([]string, 0, len(i.Dependencies))
	for path := range i.Dependencies {
		paths = append(paths, path)
	}

	slices.Sort(paths)

	for _, path := range paths {
		fmt.Fprintf(&sb, "  %s %s\n", path, i.Dependencies[path])
	}

	return sb.String()
}
