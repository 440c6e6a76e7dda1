// SPDX-License-Identifier: MPL-2.0

// Package shell resolves the host shell used to source an isolated environment and
// run a module inside it, and builds the single command string handed to `<shell> -c`.
//
// Word quoting and syntax checks for POSIX shells are delegated to mvdan.cc/sh so the
// generated command survives paths with spaces or quotes.
package shell
