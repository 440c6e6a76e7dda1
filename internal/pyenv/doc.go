// SPDX-License-Identifier: MPL-2.0

// Package pyenv provisions and activates the isolated interpreter environment that
// backs each foreign module.
//
// The lifecycle is an explicit two-phase contract. Manager.Ensure creates the
// environment (idempotently) and returns an EnvironmentHandle; Manager.Activate sources
// the environment's activation script together with the module's declared-variables
// file in a child shell and captures the resulting KEY=VALUE lines. The captured map is
// the only channel through which module variables reach the process executor; the
// host's own environment is never inspected for them.
//
// Handle states only move forward:
//
//	Uninitialized -> Created -> DependenciesInstalled -> Activated
//
// A failed activation leaves the state where it was, so activation can be retried
// without recreating the environment.
package pyenv
