// Package fixtures runs tests against reusable, optionally parameterized
// fixtures and expands every test into the cross product of its fixtures'
// parameter tuples.
//
// # Declaring fixtures
//
// A fixture is declared with New. P is its parameter tuple and R the value
// its setup binds:
//
//	type xy struct{ X, Y int }
//
//	var mul = fixtures.New("mul", func(t *fixtures.T, f *fixtures.Instance[xy]) int {
//		return f.Params.X * f.Params.Y
//	}).WithValues(xy{1, 1}, xy{2, 4}, xy{3, 6})
//
//	var double = fixtures.New("double", func(t *fixtures.T, f *fixtures.Instance[int]) int {
//		return f.Params * 2
//	})
//
// A fixture without parameters uses NoParams and always has exactly one
// parameterisation. A fixture with parameters and no generator can only be
// used pinned.
//
// # Referencing fixtures
//
// A test references fixtures bare, with Ref, or pinned to explicit
// arguments, with Pin. Bare references iterate over every generated tuple;
// pinned ones bypass the generator:
//
//	fixtures.Run(t, "products", func(t *fixtures.T, b fixtures.Bindings) {
//		m := mul.From(b)
//		assert.Equal(t, m.Params().X*m.Params().Y, m.Value)
//		assert.Equal(t, 42, double.From(b).Value)
//	}, mul.Ref(), double.Pin(21))
//
// Invocations enumerate the cross product in nested loop order with the
// first reference outermost.
//
// # Execution
//
// Every invocation constructs fresh instances, runs their setups in declared
// order, runs the body and tears the instances down in reverse order. Any
// failure in construction, setup or the body (a panic, t.FailNow, a testify
// require failure, t.Errorf or runtime.Goexit) is recorded against that
// invocation and printed with its parameterisation:
//
//	The above error occurred with the following parameterisation of the test case:
//	    mul{X:2 Y:4}, double(21)
//
// The remaining invocations still run. Teardown failures are reported in the
// same way, in addition to any body failure. After the last invocation the
// host test fails once if anything failed.
package fixtures
