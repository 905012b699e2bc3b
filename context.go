package inferpipe

import "sync/atomic"

// CallbackContext is the per-run record threaded through every user-callback
// invocation. It combines the automatic frame counter with an open extension
// slot for user state.
//
// The counter is owned by the controller: it is advanced exactly once per
// successful callback invocation, after the invocation returns, so the value
// observed during invocation N is always N (zero-indexed). The callback must
// not attempt its own counting; the increment capability is deliberately not
// part of the public surface.
//
// User is owned exclusively by application code. The controller never
// inspects or locks it, so any concurrency inside the callback touching
// shared user state is the application's responsibility.
type CallbackContext struct {
	frameCount atomic.Uint64

	// User is the extension slot for arbitrary user-defined state.
	User any
}

func newCallbackContext(user any) *CallbackContext {
	return &CallbackContext{User: user}
}

// Count returns the current frame index. Safe to call any number of times,
// from the callback or from any other goroutine.
func (c *CallbackContext) Count() uint64 {
	return c.frameCount.Load()
}

// advance increments the frame counter. Called only by the controller's
// delivery path, after the user callback returns.
func (c *CallbackContext) advance() {
	c.frameCount.Add(1)
}
