// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the modvalidator command-line interface.
//
// Commands install and remove modules, print a subnet's command schema, run inference
// modules, launch subnet roles, and serve subnet commands over HTTP. Each handler
// resolves its collaborators through App and reports failures as actionable errors.
package cmd
