// SPDX-License-Identifier: MPL-2.0

// Package platform holds operating-system names and filename rules shared by the
// environment, shell and module packages.
package platform
