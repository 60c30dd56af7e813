package pool

import (
	"time"

	"github.com/rs/zerolog"
)

// goroutineRunner hosts the worker body on a goroutine.
type goroutineRunner struct {
	spawn SpawnFunc
	log   zerolog.Logger
	done  chan struct{}
}

func (r *goroutineRunner) Start(rec *workerRecord) error {
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		runWorkerBody(rec.stop, rec.config, rec.input, rec.output, r.spawn, r.log)
	}()
	return nil
}

func (r *goroutineRunner) Join(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		// A goroutine stuck inside a blocking generation cannot be
		// reclaimed; it drains on its own once the call returns and then
		// observes the stop signal. Treated as clean, same as a joined
		// thread with no exit status.
		r.log.Warn().Msg("goroutine worker did not exit within join timeout; leaving it to drain")
		return true
	}
}

func (r *goroutineRunner) Kill() {}

func (r *goroutineRunner) PID() int { return 0 }
