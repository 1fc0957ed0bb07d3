// Package system holds small process-level helpers shared by services.
package system

import "context"

// RunWithContext executes a teardown operation under the caller's context.
// The operation always runs to completion so resources are never left half
// released, but a cancelled caller stops waiting for it: the operation's
// own context is cancelled and whatever it returns is handed back.
func RunWithContext(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The operation gets its own context so it can finish critical work
	// after the caller gives up.
	opCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- operation(opCtx)
		close(done)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return <-done
	}
}
