// SPDX-License-Identifier: MPL-2.0

// Package schema discovers the command surface of a foreign module without executing it.
//
// Extraction is a best-effort syntactic pass over the module's top-level script files.
// It recognizes a narrow set of textual idioms:
//
//   - flag registration: <recv>.add_argument("--flag", ..., default=value)
//   - command declaration: @<recv>.command("name") immediately followed by def fn(params):
//   - parameter declaration: name: Type [= default-expression], with Type optionally
//     wrapped in Optional[...]
//
// Anything that does not match these idioms is ignored. Unconventional formatting
// produces false negatives; the patterns are kept narrow to avoid false positives.
package schema
