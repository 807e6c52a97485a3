// Package shutdown coordinates the exit of long-running CLI commands.
//
// A Handler waits for SIGINT, SIGTERM or the cancellation of a parent
// context, then runs its registered hooks in reverse order under a timeout:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(receiver.Shutdown)
//	err := h.Wait(ctx)
package shutdown
