// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T, mountRoot, linkPath string) *Manager {
	t.Helper()

	m, err := NewManager(nil, mountRoot, linkPath,
		logger.Config{LogLevel: "debug", EnableSentry: false})
	require.NoError(t, err)
	return m
}

func testSnapshot() catalog.ManagedSnapshot {
	return catalog.ManagedSnapshot{
		Dataset:   "backup/data",
		Label:     "zclone-2025-03-14.09:26:53",
		Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local),
	}
}

func TestMountPath(t *testing.T) {
	m := testManager(t, "/srv/zclone/mounts", "/srv/zclone/current")
	assert.Equal(t, "/srv/zclone/mounts/2025-03-14.09:26:53", m.MountPath(testSnapshot()))
}

func TestCloneName(t *testing.T) {
	m := testManager(t, "/srv/zclone/mounts", "/srv/zclone/current")
	assert.Equal(t, "backup/data_zclone-2025-03-14.09:26:53", m.CloneName(testSnapshot()))
}

func TestRelinkCreatesLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "current")
	m := testManager(t, dir, link)

	require.NoError(t, m.relink(filepath.Join(dir, "mount-a")))

	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mount-a"), target)
}

func TestRelinkReplacesExistingLink(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "current")
	m := testManager(t, dir, link)

	require.NoError(t, m.relink(filepath.Join(dir, "mount-a")))
	require.NoError(t, m.relink(filepath.Join(dir, "mount-b")))

	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mount-b"), target)

	_, err = os.Lstat(link + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary link must not linger")
}

func TestPublishCloneFailureLeavesLinkUntouched(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "current")

	executor, err := command.NewCommandExecutor(false,
		logger.Config{LogLevel: "debug", EnableSentry: false})
	require.NoError(t, err)

	m, err := NewManager(executor, dir, link,
		logger.Config{LogLevel: "debug", EnableSentry: false})
	require.NoError(t, err)

	require.NoError(t, m.relink(filepath.Join(dir, "mount-a")))

	// The clone cannot succeed: the snapshot does not exist.
	err = m.Publish(context.Background(), testSnapshot())
	require.Error(t, err)

	target, readErr := os.Readlink(link)
	require.NoError(t, readErr)
	assert.Equal(t, filepath.Join(dir, "mount-a"), target)
}

func TestRemoveMountpoint(t *testing.T) {
	dir := t.TempDir()
	m := testManager(t, dir, filepath.Join(dir, "current"))
	snap := testSnapshot()

	require.NoError(t, os.Mkdir(m.MountPath(snap), 0755))
	require.NoError(t, m.RemoveMountpoint(snap))

	_, err := os.Stat(m.MountPath(snap))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMountpointAbsentIsNoError(t *testing.T) {
	dir := t.TempDir()
	m := testManager(t, dir, filepath.Join(dir, "current"))

	assert.NoError(t, m.RemoveMountpoint(testSnapshot()))
}
