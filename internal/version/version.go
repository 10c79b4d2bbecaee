/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import "fmt"

// Version is the current version of the technical director.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/technicaldirector/internal/version.Version=X.Y.Z
var Version = "0.3.0"

// Commit is the git revision, set at build time like Version.
var Commit = "unknown"

// String renders the version with its commit.
func String() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
