// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package publish turns a received snapshot into a read-only linked clone
// under the mount root and repoints a stable symlink at it, so the newest
// replicated state is always servable from one path.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stratastor/zclone/pkg/zfs/snapname"
)

type Manager struct {
	executor  *command.CommandExecutor
	mountRoot string
	linkPath  string
	logger    logger.Logger
}

func NewManager(executor *command.CommandExecutor, mountRoot, linkPath string, logCfg logger.Config) (*Manager, error) {
	l, err := logger.NewTag(logCfg, "publish")
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSCloneError)
	}
	return &Manager{
		executor:  executor,
		mountRoot: mountRoot,
		linkPath:  linkPath,
		logger:    l,
	}, nil
}

// MountPath returns the mount point the snapshot's clone is published under.
func (m *Manager) MountPath(snap catalog.ManagedSnapshot) string {
	return filepath.Join(m.mountRoot, snap.Timestamp.Format(snapname.TimestampFormat))
}

// CloneName returns the dataset name of the snapshot's clone.
func (m *Manager) CloneName(snap catalog.ManagedSnapshot) string {
	return fmt.Sprintf("%s_%s", snap.Dataset, snap.Label)
}

// Publish clones snap read-only under the mount root, then atomically
// repoints the stable link at the new mount path. If the clone fails the
// link is left untouched and the old state stays servable. If only the
// relink fails the clone stays; a later cycle supersedes it.
func (m *Manager) Publish(ctx context.Context, snap catalog.ManagedSnapshot) error {
	if err := os.MkdirAll(m.mountRoot, 0755); err != nil {
		return errors.Wrap(err, errors.FSError).WithMetadata("path", m.mountRoot)
	}

	mountPath := m.MountPath(snap)
	args := []string{
		"-o", "readonly=on",
		"-o", "atime=off",
		"-o", "setuid=off",
		"-o", fmt.Sprintf("mountpoint=%s", mountPath),
		snap.Name(),
		m.CloneName(snap),
	}

	out, err := m.executor.Execute(ctx, command.CommandOptions{}, "zfs clone", args...)
	if err != nil {
		if len(out) > 0 {
			return errors.Wrap(err, errors.ZFSCloneError).
				WithMetadata("output", string(out))
		}
		return errors.Wrap(err, errors.ZFSCloneError)
	}

	if err := m.relink(mountPath); err != nil {
		return err
	}

	m.logger.Info("Published snapshot",
		"snapshot", snap.Name(),
		"mountpoint", mountPath,
		"link", m.linkPath)

	return nil
}

// relink swaps the stable symlink to target with replace-if-exists
// semantics. The rename is the atomic step; the link never points at a
// half-made clone.
func (m *Manager) relink(target string) error {
	tmpLink := m.linkPath + ".tmp"

	os.Remove(tmpLink)
	if err := os.Symlink(target, tmpLink); err != nil {
		return errors.Wrap(err, errors.FSError).WithMetadata("link", tmpLink)
	}

	if err := os.Rename(tmpLink, m.linkPath); err != nil {
		os.Remove(tmpLink)
		return errors.Wrap(err, errors.FSError).WithMetadata("link", m.linkPath)
	}

	return nil
}

// RemoveMountpoint removes the now-orphaned mount directory of a pruned
// clone, if present. Absence is not an error.
func (m *Manager) RemoveMountpoint(snap catalog.ManagedSnapshot) error {
	mountPath := m.MountPath(snap)
	if err := os.Remove(mountPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.FSError).WithMetadata("path", mountPath)
	}
	return nil
}
