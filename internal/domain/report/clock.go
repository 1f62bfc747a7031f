package report

import "github.com/jonboulle/clockwork"

// clock stamps GeneratedAt. Real by default.
var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock installs an alternative time source, typically a
// clockwork.FakeClock in tests. It returns the previous source so the
// caller can restore it.
func SetClock(c clockwork.Clock) clockwork.Clock {
	prev := clock
	clock = c
	return prev
}
