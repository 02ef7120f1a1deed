// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.1.0-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	ZcloneVersion = "v0.1.0"

	// DefaultPIDFilePath is used when no profile and no explicit path is
	// configured; a profile suffixes the file name so profiles coexist.
	DefaultPIDFilePath = "/var/run/zclone.pid"

	// config
	ConfigFileName  = "zclone.yml"
	SystemConfigDir = "/etc/zclone"

	// routes
	APIVersion = "v1"
	APIBase    = "/api/" + APIVersion + "/zclone"
	APIStatus  = APIBase + "/status"
	APICycles  = APIBase + "/cycles"
)
