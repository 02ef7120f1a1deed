// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package catalog reads snapshot listings and reduces them to the managed
// sequence a replication profile operates on. All text-format coupling to
// zfs list output lives here.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stratastor/zclone/pkg/zfs/remote"
	"github.com/stratastor/zclone/pkg/zfs/snapname"
)

// ManagedSnapshot is one snapshot of a profile's replication sequence.
type ManagedSnapshot struct {
	Dataset   string
	Label     string
	Timestamp time.Time
}

// Name returns the qualified snapshot name, dataset@label.
func (s ManagedSnapshot) Name() string {
	return fmt.Sprintf("%s@%s", s.Dataset, s.Label)
}

// Sequence is the ordered managed snapshots of one dataset, oldest first.
type Sequence []ManagedSnapshot

// Last returns the newest entry, the only valid incremental basis for the
// next transfer.
func (s Sequence) Last() (ManagedSnapshot, bool) {
	if len(s) == 0 {
		return ManagedSnapshot{}, false
	}
	return s[len(s)-1], true
}

// Filter retains the entries of rawListing that belong to the profile's
// managed sequence on the given dataset, preserving listing order. The
// listing is assumed time-ordered (zfs list -s creation).
func Filter(rawListing []string, dataset, profile string) Sequence {
	var seq Sequence
	for _, line := range rawListing {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}

		ds, label, found := strings.Cut(name, "@")
		if !found || ds != dataset {
			continue
		}

		ts, err := snapname.Parse(label, profile)
		if err != nil {
			continue
		}

		seq = append(seq, ManagedSnapshot{
			Dataset:   dataset,
			Label:     label,
			Timestamp: ts,
		})
	}
	return seq
}

func splitLines(out []byte) []string {
	return strings.Split(strings.TrimSpace(string(out)), "\n")
}

// LocalCatalog lists the managed sequence of the local replica dataset.
type LocalCatalog struct {
	executor *command.CommandExecutor
	profile  string
}

func NewLocalCatalog(executor *command.CommandExecutor, profile string) *LocalCatalog {
	return &LocalCatalog{executor: executor, profile: profile}
}

func (c *LocalCatalog) List(ctx context.Context, dataset string) (Sequence, error) {
	args := []string{"-t", "snapshot", "-o", "name", "-s", "createtxg", "-d", "1", dataset}

	opts := command.CommandOptions{Flags: command.FlagNoHeaders}
	out, err := c.executor.Execute(ctx, opts, "zfs list", args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSSnapshotList)
	}

	return Filter(splitLines(out), dataset, c.profile), nil
}

// RemoteCatalog lists the managed sequence of the master dataset through
// the remote executor.
type RemoteCatalog struct {
	executor *remote.Executor
	profile  string
}

func NewRemoteCatalog(executor *remote.Executor, profile string) *RemoteCatalog {
	return &RemoteCatalog{executor: executor, profile: profile}
}

func (c *RemoteCatalog) List(ctx context.Context, dataset string) (Sequence, error) {
	cmd := fmt.Sprintf("zfs list -H -t snapshot -o name -s createtxg -d 1 %s",
		shellquote.Join(dataset))

	out, err := c.executor.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSSnapshotList)
	}

	return Filter(splitLines(out), dataset, c.profile), nil
}
