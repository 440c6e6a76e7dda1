// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown remediation guides.
//
// An ActionableError says what operation failed, on which resource, and what to try
// next. Catalog entries are rendered with glamour when the CLI runs in verbose mode.
package issue
