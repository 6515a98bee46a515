// Package shutdown coordinates daemon termination and reloads.
//
// Handler waits for SIGINT or SIGTERM (or a programmatic Trigger), then
// runs the registered hooks in reverse registration order under a shared
// deadline. SIGHUP runs the reload callbacks and keeps waiting.
//
// Usage:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("listener", srv.Close)
//	h.OnReload(reloadConfig)
//	err := h.Wait(ctx)
package shutdown
