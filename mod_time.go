package rusteroids

import (
	"time"
)

// Time is the per-frame clock resource: wall-clock now, delta since the
// previous frame, and a monotonically increasing frame counter.
type Time struct {
	Now   time.Time
	Dt    time.Duration
	Frame uint64
}

type TimeModule struct {
}

func (mod TimeModule) Install(app *App) {
	app.AddResources(&Time{
		Now: time.Now(),
	})
	app.UseSystem(timeSystem, Prelude)
}

func timeSystem(t *Time) {
	now := time.Now()

	t.Dt = now.Sub(t.Now)
	t.Now = now
	t.Frame++
}
