package ports

import "github.com/jonboulle/clockwork"

// Clock is the injectable wall-clock source used to decide whether an
// --after volatility window has expired. It is satisfied directly by
// clockwork.Clock; tests inject clockwork.NewFakeClock().
type Clock = clockwork.Clock
