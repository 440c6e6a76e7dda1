// SPDX-License-Identifier: MPL-2.0

// Package module defines the identity of a foreign module managed by modvalidator.
//
// A ManagedModule is a plain value (name, kind, source root) that is passed explicitly
// through every provisioning, extraction, patching, and execution call. Kind determines
// the directory convention: inference modules live under the modules directory, subnet
// modules under the subnets directory.
package module
