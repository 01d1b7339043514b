// Package toolchain models the external firmware build as a synchronous
// collaborator: one invocation per target returning exit status and captured
// output. The compiler itself is out of scope; this package only launches
// and observes it.
package toolchain
