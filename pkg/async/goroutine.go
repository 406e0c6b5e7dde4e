package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/campushub/campushub/pkg/observability"
)

// SafeGo runs fn in a goroutine with panic recovery and a timeout.
//
// The task context is detached from the parent's cancellation but keeps
// its values, so request-scoped metadata (request id, trace) survives
// while the end of the request does not abort the task. Errors are
// logged, never propagated: callers use SafeGo precisely for work whose
// failure must not fail the request.
func SafeGo(parent context.Context, logger *observability.Logger, timeout time.Duration, task string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"task":  task,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", task).Warn("Background task failed")
		}
	}()
}
