// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package snapname derives the deterministic snapshot labels that mark a
// snapshot as belonging to a replication profile's managed sequence.
package snapname

import (
	"fmt"
	"strings"
	"time"

	"github.com/stratastor/zclone/pkg/errors"
)

const (
	labelPrefix = "zclone"

	// TimestampFormat sorts lexically in chronological order, to one-second
	// resolution. Two snapshots created within the same second collide by
	// name and fail at create time rather than silently.
	TimestampFormat = "2006-01-02.15:04:05"
)

// Generate produces the label for a snapshot of the given profile taken at
// the given instant: zclone[-<profile>]-<timestamp>.
func Generate(profile string, t time.Time) string {
	if profile == "" {
		return fmt.Sprintf("%s-%s", labelPrefix, t.Format(TimestampFormat))
	}
	return fmt.Sprintf("%s-%s-%s", labelPrefix, profile, t.Format(TimestampFormat))
}

// Matches reports whether label was produced by Generate for this profile.
// Labels of other profiles, including the profile-less form, never match.
func Matches(label, profile string) bool {
	_, err := Parse(label, profile)
	return err == nil
}

// Parse extracts the creation timestamp from a label of this profile.
func Parse(label, profile string) (time.Time, error) {
	prefix := labelPrefix + "-"
	if profile != "" {
		prefix = labelPrefix + "-" + profile + "-"
	}

	if !strings.HasPrefix(label, prefix) {
		return time.Time{}, errors.New(errors.ZFSSnapshotInvalidName,
			fmt.Sprintf("label %q does not belong to profile %q", label, profile))
	}

	ts, err := time.ParseInLocation(TimestampFormat, strings.TrimPrefix(label, prefix), time.Local)
	if err != nil {
		return time.Time{}, errors.New(errors.ZFSSnapshotInvalidName,
			fmt.Sprintf("label %q carries no valid timestamp", label))
	}

	return ts, nil
}
