// Package testreset gives test suites one coordinated reset point across
// every stateful capture module (§4.1's test-reset surface), mirroring how
// large test suites in the examples needed a single call to return many
// independently-owned caches/buffers/toggles to a clean slate rather than
// reconstructing the whole object graph per test.
package testreset

// Resettable is implemented by every stateful module's own type
// (actions.Buffer, contextannot.Store, network.Tracker, perf.MarkTracker,
// perf.SnapshotObserver, ai.Pipeline, wsight.Manager, ...). Each module
// owns its own reset logic; this package only coordinates calling it.
type Resettable interface {
	ResetForTesting()
}

// ResetAll resets every registered component, in the order given. A
// panic in one component's reset does not stop the rest from running —
// test-reset itself must be fail-open, the same as the capture paths it
// resets.
func ResetAll(components ...Resettable) {
	for _, c := range components {
		resetOne(c)
	}
}

func resetOne(c Resettable) {
	defer func() { recover() }()
	c.ResetForTesting()
}
