// SPDX-License-Identifier: MPL-2.0

// Package runtime runs a foreign module's entry point inside its activated environment.
//
// The Executor builds one shell command that sources the environment's activation
// script and then runs the environment interpreter with a module-style entry point
// (`<interp> -m <dotted.path> <args>`). The child receives the host environment plus
// the variables captured at activation; captured values take precedence for the child
// only.
//
// Both output pipes are drained concurrently: stdout on a dedicated goroutine that
// accumulates the result, stderr on the calling goroutine where it is echoed and
// logged but not retained. Neither drain can block the other, so a child writing more
// than a pipe buffer to either stream cannot deadlock the call.
//
// There is no timeout or cancellation: a child that never exits blocks Run forever.
package runtime
