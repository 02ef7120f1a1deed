// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import "time"

const (
	// Base commands
	BinZFS = "/usr/sbin/zfs"

	maxCommandArgs = 64

	// Default timeout for command execution
	DefaultTimeout = 30 * time.Second
)

// Dangerous characters that could enable command injection
const dangerousChars = "&|><$`\\[];{}"

// Commands that require sudo
var SudoRequiredCommands = map[string]bool{
	"zfs create":   true,
	"zfs destroy":  true,
	"zfs rename":   true,
	"zfs snapshot": true,
	"zfs rollback": true,
	"zfs clone":    true,
	"zfs promote":  true,
	"zfs mount":    true,
	"zfs unmount":  true,
	"zfs set":      true,
	"zfs receive":  true,
	"zfs send":     true,
}
