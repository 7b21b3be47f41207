package gobayeux

// Executor runs a function, possibly asynchronously. It is the Go stand-in
// for the delegateQueue/callbackQueue dispatch queues a session dispatches
// delegate notifications and subscription callbacks onto: swapping the
// Executor lets a caller serialize all of them onto a single goroutine, a
// worker pool, or (the default) a fresh goroutine per call.
type Executor interface {
	Go(func())
}

// goroutineExecutor is the default Executor: every call runs in its own
// goroutine, so a slow or blocking delegate/callback can never stall the
// session engine's own loop.
type goroutineExecutor struct{}

func (goroutineExecutor) Go(fn func()) {
	go fn()
}

// SyncExecutor runs functions synchronously, in the caller's goroutine.
// Useful in tests that need delegate notifications and callbacks to have
// already happened by the time a call like Connect returns.
type SyncExecutor struct{}

func (SyncExecutor) Go(fn func()) {
	fn()
}

var (
	_ Executor = goroutineExecutor{}
	_ Executor = SyncExecutor{}
)
