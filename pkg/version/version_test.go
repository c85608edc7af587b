package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionStrings(t *testing.T) {
	v := String()
	if !strings.HasPrefix(v, "v") {
		t.Errorf("version string should start with v, got %s", v)
	}
	if strings.Count(v, ".") < 2 {
		t.Errorf("version %q is not major.minor.patch", v)
	}

	full := Full()
	for _, want := range []string{"Quantum-NetSim", v, runtime.Version()} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() = %q, missing %q", full, want)
		}
	}
}
