// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

const (
	DomainConfig      Domain = "CONFIG"
	DomainCommand     Domain = "CMD"
	DomainZFS         Domain = "ZFS"
	DomainReplication Domain = "REPL"
	DomainLifecycle   Domain = "LIFECYCLE"
	DomainNotify      Domain = "NOTIFY"
	DomainMisc        Domain = "MISC"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

// Error code ranges:
// 1000-1099: Configuration errors
// 1300-1399: Command execution
// 1500-1599: Lifecycle management
// 1800-1899: Notification delivery
// 2000-2999: ZFS operations
// 3000-3099: Replication engine
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound         = 1000 + iota // Config file not found
	ConfigInvalid                        // Invalid config format
	ConfigLoadFailed                     // Failed to load config
	ConfigWriteFailed                    // Failed to write config
	ConfigValidationFailed               // Config validation failed
	ConfigMarshalFailed                  // Config serialization failed
	ConfigUnmarshalFailed                // Config deserialization failed
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	CommandPipe                       // Command pipe error
	RemoteConnect                     // Remote shell connection failed
	RemoteExecution                   // Remote command failed
)

const (
	// Lifecycle Errors (1500-1599)
	LifecycleInstanceConflict = 1500 + iota // Another instance already running
	LifecyclePIDFile                        // PID file error
	SchedulerError                          // Scheduler error
	StatusAPIError                          // Status API serve failure
)

const (
	// Notification Errors (1800-1899)
	NotifyDeliveryFailed = 1800 + iota // Webhook delivery failed
)

const (
	// ZFS Operations (2000-2999)
	ZFSCommandFailed = 2000 + iota // ZFS command execution failed
	ZFSSnapshotCreate
	ZFSSnapshotList
	ZFSSnapshotDestroy
	ZFSSnapshotInvalidName
	ZFSDatasetSend
	ZFSDatasetReceive
	ZFSCloneError
	ZFSMountError
	ZFSPropertyError
	FSError // Filesystem operation failed
)

const (
	// Replication Engine (3000-3099)
	ReplBasisInconsistent = 3000 + iota // Local catalog has no incremental basis
	ReplSnapshotFailed                  // Master snapshot creation failed
	ReplTransferFailed                  // Incremental transfer failed
	ReplPublishFailed                   // Clone publish failed
	ReplCycleAborted                    // Cycle aborted
)

type errorDefinition struct {
	message string
	domain  Domain
}

var errorDefinitions = map[ErrorCode]errorDefinition{
	ConfigNotFound:         {"Configuration file not found", DomainConfig},
	ConfigInvalid:          {"Invalid configuration", DomainConfig},
	ConfigLoadFailed:       {"Failed to load configuration", DomainConfig},
	ConfigWriteFailed:      {"Failed to write configuration", DomainConfig},
	ConfigValidationFailed: {"Configuration validation failed", DomainConfig},
	ConfigMarshalFailed:    {"Failed to serialize configuration", DomainConfig},
	ConfigUnmarshalFailed:  {"Failed to deserialize configuration", DomainConfig},

	CommandNotFound:     {"Command not found", DomainCommand},
	CommandExecution:    {"Command execution failed", DomainCommand},
	CommandTimeout:      {"Command execution timed out", DomainCommand},
	CommandInvalidInput: {"Invalid command input", DomainCommand},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand},
	CommandPipe:         {"Command pipe error", DomainCommand},
	RemoteConnect:       {"Remote shell connection failed", DomainCommand},
	RemoteExecution:     {"Remote command failed", DomainCommand},

	LifecycleInstanceConflict: {"Another instance is already running", DomainLifecycle},
	LifecyclePIDFile:          {"PID file error", DomainLifecycle},
	SchedulerError:            {"Scheduler error", DomainLifecycle},
	StatusAPIError:            {"Status API serve failure", DomainLifecycle},

	NotifyDeliveryFailed: {"Webhook delivery failed", DomainNotify},

	ZFSCommandFailed:       {"ZFS command execution failed", DomainZFS},
	ZFSSnapshotCreate:      {"Failed to create snapshot", DomainZFS},
	ZFSSnapshotList:        {"Failed to list snapshots", DomainZFS},
	ZFSSnapshotDestroy:     {"Failed to destroy snapshot", DomainZFS},
	ZFSSnapshotInvalidName: {"Invalid snapshot name", DomainZFS},
	ZFSDatasetSend:         {"ZFS send failed", DomainZFS},
	ZFSDatasetReceive:      {"ZFS receive failed", DomainZFS},
	ZFSCloneError:          {"Failed to clone snapshot", DomainZFS},
	ZFSMountError:          {"Mount operation failed", DomainZFS},
	ZFSPropertyError:       {"Property operation failed", DomainZFS},
	FSError:                {"Filesystem operation failed", DomainZFS},

	ReplBasisInconsistent: {"No incremental basis in local catalog", DomainReplication},
	ReplSnapshotFailed:    {"Master snapshot creation failed", DomainReplication},
	ReplTransferFailed:    {"Incremental transfer failed", DomainReplication},
	ReplPublishFailed:     {"Failed to publish linked clone", DomainReplication},
	ReplCycleAborted:      {"Replication cycle aborted", DomainReplication},
}
