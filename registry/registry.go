// Package registry implements the process-wide, "current supervisor
// context for this worker goroutine" slot that callbacks invoked without
// an explicit context parameter (log handlers, the screenshot routine)
// read from. Go has no native thread-local storage and the example
// corpus names no library that provides goroutine-local storage, so the
// binding key is the calling goroutine's numeric id, parsed once per call
// from runtime.Stack's header line — the same trick several Go diagnostic
// tools use when no TLS primitive is available.
package registry

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

var contexts sync.Map // goroutine id (int64) -> any

// Bind publishes ctx as the current context for the calling goroutine. It
// is called by the worker during bootstrap, before the first callback
// that might read it can fire.
func Bind(ctx any) {
	contexts.Store(goroutineID(), ctx)
}

// Clear removes the calling goroutine's binding. Called by the worker on
// its way out, after Teardown. The registry never outlives the worker
// that published to it: a goroutine that never calls Clear just leaves an
// orphaned entry keyed by an id the runtime will never reuse while the
// process is also still running workers, which matters only in tests that
// spin up many short-lived workers — those call Clear themselves via
// defer, same as the worker.
func Clear() {
	contexts.Delete(goroutineID())
}

// Current returns the calling goroutine's bound context, or ok=false if
// no worker ever bound one — the "non-worker threads see a null context"
// contract.
func Current() (ctx any, ok bool) {
	return contexts.Load(goroutineID())
}

// goroutineID parses the numeric goroutine id out of the calling
// goroutine's own stack header ("goroutine 123 [running]:"). It is not
// cheap enough to call on a hot path, but every use in this package is on
// a cold path (bootstrap/teardown, or a callback that already does I/O).
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(header, []byte(prefix)) {
		return -1
	}
	header = header[len(prefix):]

	space := bytes.IndexByte(header, ' ')
	if space < 0 {
		return -1
	}

	id, err := strconv.ParseInt(string(header[:space]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
