// Package version reports the simulator release.
package version

import (
	"fmt"
	"runtime"

	"github.com/pzverkov/quantum-netsim/internal/constants"
)

// Semantic version components.
const (
	// Major is the major version (breaking changes).
	Major = 0
	// Minor is the minor version (new features).
	Minor = 3
	// Patch is the patch version (bug fixes).
	Patch = 0
	// Label is the optional pre-release label.
	Label = ""
)

// String returns the semantic version, e.g. "v0.3.0".
func String() string {
	v := fmt.Sprintf("v%d.%d.%d", Major, Minor, Patch)
	if Label != "" {
		v += "-" + Label
	}
	return v
}

// Full returns the project name, version and toolchain.
func Full() string {
	return fmt.Sprintf("%s %s (%s %s/%s)", constants.ProjectName, String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
