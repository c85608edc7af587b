package sim

import (
	_ "embed"
)

//go:embed demo.yaml
var demoScenario []byte

// DemoScenario returns the built-in end-to-end scenario: entanglement, key
// distribution, a message round trip, error injection and correction, and
// the expected failures along the way.
func DemoScenario() *Scenario {
	sc, err := ParseScenario(demoScenario)
	if err != nil {
		panic("sim: built-in scenario is invalid: " + err.Error())
	}
	return sc
}
