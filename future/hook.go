package future

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/amp-labs/screenflow/logger"
)

// ErrHookPanic wraps a value recovered from a panicking done hook.
var ErrHookPanic = errors.New("panic in future done hook")

// runHook runs a done hook on the calling goroutine. A panicking hook is
// logged and does not prevent the hooks registered after it from running.
func runHook(hook func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v\nstack trace:\n%s", ErrHookPanic, r, debug.Stack())
			logger.Get().Error("panic encountered in future.OnDone hook", "error", err)
		}
	}()

	hook()
}
