package fixtures

import "runtime/debug"

// guarded is what a guarded region observed.
type guarded struct {
	recovered any
	stack     []byte
	// goexit is set when fn called runtime.Goexit, which recover cannot see.
	goexit bool
}

func (g guarded) ok() bool {
	return g.recovered == nil && !g.goexit
}

// guard runs fn on a helper goroutine and waits for it. Panics are recovered
// with their stack, and a runtime.Goexit (t.FailNow of a host *testing.T
// reached through a closure) only ends the helper goroutine.
func guard(fn func()) guarded {
	var g guarded
	done := make(chan struct{})
	go func() {
		normal := false
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				g.recovered = r
				g.stack = debug.Stack()
				return
			}
			if !normal {
				g.goexit = true
			}
		}()
		fn()
		normal = true
	}()
	<-done
	return g
}
