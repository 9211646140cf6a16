package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// SafeContext wraps a context-taking function so a panic inside it surfaces
// as a returned error instead of crashing the process. Used for the daemon's
// long-running goroutines, where one panicking component should shut the
// others down cleanly.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}
