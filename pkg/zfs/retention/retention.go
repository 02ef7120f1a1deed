// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package retention prunes managed snapshot sequences down to a keep-count.
// Destruction failures are never fatal: a snapshot that fails to destroy is
// "staled" and remains a candidate on the next eligible purge cycle.
package retention

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stratastor/zclone/pkg/zfs/remote"
)

// SnapshotDestroyer destroys one snapshot by qualified name. Destroying an
// already-absent snapshot may fail; callers treat that as staled and retry,
// which is safe either way.
type SnapshotDestroyer interface {
	Destroy(ctx context.Context, name string) error
}

// PruneResult reports one side's purge outcome.
type PruneResult struct {
	Destroyed []string // names actually destroyed, oldest first
	Purged    int
	Staled    int
}

// Countdown gates purging to every (delay+1)-th cycle. It is engine-local
// state; losing it on a crash costs at most one skipped eligibility.
type Countdown struct {
	delay     int
	remaining int
}

func NewCountdown(delay int) *Countdown {
	return &Countdown{delay: delay, remaining: delay}
}

// Tick reports whether this cycle purges. On an eligible cycle the counter
// resets to the configured delay; otherwise it decrements.
func (c *Countdown) Tick() bool {
	if c.remaining <= 0 {
		c.remaining = c.delay
		return true
	}
	c.remaining--
	return false
}

// Candidates returns every snapshot older than the keep newest.
func Candidates(seq catalog.Sequence, keep int) catalog.Sequence {
	if keep < 1 || len(seq) <= keep {
		return nil
	}
	return seq[:len(seq)-keep]
}

type Manager struct {
	logger logger.Logger
}

func NewManager(logCfg logger.Config) (*Manager, error) {
	l, err := logger.NewTag(logCfg, "retention")
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSSnapshotDestroy)
	}
	return &Manager{logger: l}, nil
}

// Prune destroys every candidate outside the keep window, oldest first.
// onDestroyed, when non-nil, runs after each successful destroy (mountpoint
// cleanup in linked-clone mode); its errors are logged, not counted.
func (m *Manager) Prune(
	ctx context.Context,
	d SnapshotDestroyer,
	seq catalog.Sequence,
	keep int,
	onDestroyed func(catalog.ManagedSnapshot),
) PruneResult {
	var result PruneResult

	for _, snap := range Candidates(seq, keep) {
		if err := d.Destroy(ctx, snap.Name()); err != nil {
			m.logger.Warn("Failed to destroy snapshot, will retry next purge",
				"snapshot", snap.Name(), "error", err)
			result.Staled++
			continue
		}

		result.Destroyed = append(result.Destroyed, snap.Name())
		result.Purged++
		m.logger.Info("Destroyed snapshot", "snapshot", snap.Name())

		if onDestroyed != nil {
			onDestroyed(snap)
		}
	}

	return result
}

// LocalDestroyer destroys snapshots on the local replica, including any
// dependent clones.
type LocalDestroyer struct {
	executor *command.CommandExecutor
}

func NewLocalDestroyer(executor *command.CommandExecutor) *LocalDestroyer {
	return &LocalDestroyer{executor: executor}
}

func (d *LocalDestroyer) Destroy(ctx context.Context, name string) error {
	args := []string{"-R", name}

	out, err := d.executor.Execute(ctx, command.CommandOptions{}, "zfs destroy", args...)
	if err != nil {
		if len(out) > 0 {
			return errors.Wrap(err, errors.ZFSSnapshotDestroy).
				WithMetadata("output", string(out))
		}
		return errors.Wrap(err, errors.ZFSSnapshotDestroy)
	}
	return nil
}

// RemoteDestroyer destroys snapshots on the master through the remote
// executor.
type RemoteDestroyer struct {
	executor *remote.Executor
}

func NewRemoteDestroyer(executor *remote.Executor) *RemoteDestroyer {
	return &RemoteDestroyer{executor: executor}
}

func (d *RemoteDestroyer) Destroy(ctx context.Context, name string) error {
	cmd := fmt.Sprintf("zfs destroy -r %s", shellquote.Join(name))

	if _, err := d.executor.Run(ctx, cmd); err != nil {
		return errors.Wrap(err, errors.ZFSSnapshotDestroy)
	}
	return nil
}
