// Package invariant reports programmer errors: violated preconditions and
// unreachable branches. Builds tagged skydebug abort on the first violation;
// other builds log the violation and continue with best-effort behavior.
package invariant

import (
	"fmt"
	"sync/atomic"

	"github.com/litescript/ls-sky/internal/logging"
)

var reporter atomic.Pointer[logging.Logger]

// SetLogger installs the logger used to report violations in release builds.
func SetLogger(l *logging.Logger) {
	reporter.Store(l)
}

// Check reports a violation when cond is false.
func Check(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	violate(fmt.Sprintf(format, args...))
}

// Unreachable reports that control reached a branch that must never run.
func Unreachable(format string, args ...interface{}) {
	violate("unreachable: " + fmt.Sprintf(format, args...))
}

func violate(msg string) {
	if abortOnViolation {
		panic("invariant violated: " + msg)
	}
	if l := reporter.Load(); l != nil {
		l.Error("invariant violated: %s", msg)
	}
}
