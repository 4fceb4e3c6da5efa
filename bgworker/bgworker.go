// Package bgworker is a process-wide worker pool for work that runs off the
// tick loop, such as batches of scenario runs. The pool is created on first
// use and drained on shutdown.
package bgworker

import (
	"errors"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/screenflow/envutil"
	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/shutdown"
)

const defaultWorkerCount = 10

// workerPool is created on first use.
var workerPool = sync.OnceValue(func() pond.Pool { //nolint:gochecknoglobals
	count := envutil.Int[int]("BACKGROUND_WORKER_COUNT",
		envutil.Default(defaultWorkerCount),
		envutil.Positive[int]()).ValueOrElse(defaultWorkerCount)

	logger.Get().Debug("Initializing background worker pool", "count", count)

	pool := pond.NewPool(count)

	shutdown.BeforeShutdown(func() {
		logger.Get().Debug("Stopping background worker pool")
		pool.StopAndWait()
		logger.Get().Debug("Background worker pool stopped")
	})

	return pool
})

// SubmitErr submits a fallible function. The returned Task's Wait reports the
// function's error, or the panic it raised.
func SubmitErr(f func() error) pond.Task { //nolint:ireturn
	return workerPool().SubmitErr(f)
}

// Map runs f on every item in the pool and waits for all of them. Results
// keep the order of items; an item whose call failed leaves the zero R, and
// its error joins the returned error.
func Map[T, R any](items []T, f func(T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	tasks := make([]pond.Task, len(items))

	for i, item := range items {
		tasks[i] = SubmitErr(func() error {
			out, err := f(item)
			if err != nil {
				return err
			}

			results[i] = out

			return nil
		})
	}

	errs := make([]error, 0, len(tasks))

	for _, task := range tasks {
		if err := task.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}
