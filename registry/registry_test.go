package registry_test

import (
	"sync"
	"testing"

	"github.com/orion-emu/gbasup/registry"
)

// TestBindAndCurrentOnSameGoroutine verifies Current returns exactly
// what Bind published, on the goroutine that published it.
func TestBindAndCurrentOnSameGoroutine(t *testing.T) {
	type session struct{ name string }
	want := &session{name: "worker-a"}

	registry.Bind(want)
	defer registry.Clear()

	got, ok := registry.Current()
	if !ok {
		t.Fatal("Current reported ok=false right after Bind")
	}
	if got != want {
		t.Errorf("Current returned %v, want %v", got, want)
	}
}

// TestClearRemovesBinding verifies Clear leaves the goroutine with no
// bound context.
func TestClearRemovesBinding(t *testing.T) {
	registry.Bind("anything")
	registry.Clear()

	if _, ok := registry.Current(); ok {
		t.Error("Current reported ok=true after Clear")
	}
}

// TestCurrentWithNoBindingReportsFalse verifies a goroutine that never
// called Bind sees no context — the non-worker-thread contract.
func TestCurrentWithNoBindingReportsFalse(t *testing.T) {
	done := make(chan bool, 1)
	go func() {
		_, ok := registry.Current()
		done <- ok
	}()
	if ok := <-done; ok {
		t.Error("Current reported ok=true on a goroutine that never bound")
	}
}

// TestBindingsAreGoroutineLocal verifies two concurrent goroutines each
// see only their own binding, never each other's.
func TestBindingsAreGoroutineLocal(t *testing.T) {
	var wg sync.WaitGroup
	results := make(chan string, 2)

	for _, name := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			registry.Bind(name)
			defer registry.Clear()

			got, ok := registry.Current()
			if !ok {
				results <- "missing:" + name
				return
			}
			results <- got.(string)
		}(name)
	}

	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for r := range results {
		seen[r] = true
	}
	if !seen["alpha"] || !seen["beta"] {
		t.Errorf("goroutines did not each see their own binding, got %v", seen)
	}
}
