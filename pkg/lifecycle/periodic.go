package lifecycle

import "time"

// Periodic registers a recurring task that runs fn every interval until the
// coordinator's context is cancelled. The task is owned by the process
// lifecycle: the loop starts immediately and Shutdown waits for it to stop.
// fn runs once up front before the first interval elapses.
func (c *Coordinator) Periodic(interval time.Duration, fn func()) {
	c.OnShutdown(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		fn()

		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	})
}
