package domain

import "time"

// VolatilityKind classifies how long a trace stays valid irrespective of its
// dependency digests.
type VolatilityKind uint8

const (
	// VolatileNone means the trace's validity is governed solely by its
	// dependency digests.
	VolatileNone VolatilityKind = iota
	// VolatileAlways means the trace is never considered valid for reuse;
	// the rule reruns on every build.
	VolatileAlways
	// VolatileAfter means the trace is valid until Duration has elapsed
	// since WallClock.
	VolatileAfter
)

// Volatility attaches a freshness policy to a Trace, set via the --always
// and --after probe flags.
type Volatility struct {
	Kind      VolatilityKind
	Duration  time.Duration
	WallClock time.Time
}

// Expired reports whether the volatility policy has lapsed as of now.
// VolatileNone never expires on its own; VolatileAlways always has.
func (v Volatility) Expired(now time.Time) bool {
	switch v.Kind {
	case VolatileAlways:
		return true
	case VolatileAfter:
		return now.After(v.WallClock.Add(v.Duration))
	default:
		return false
	}
}
