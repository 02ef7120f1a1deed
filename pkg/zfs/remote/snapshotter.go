// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/zclone/pkg/errors"
)

// Snapshotter creates snapshots on the master host.
type Snapshotter struct {
	executor *Executor
}

func NewSnapshotter(executor *Executor) *Snapshotter {
	return &Snapshotter{executor: executor}
}

// CreateSnapshot snapshots dataset under the given label. zfs refuses an
// existing name, so a same-second label collision fails here instead of
// silently reusing a snapshot.
func (s *Snapshotter) CreateSnapshot(ctx context.Context, dataset, label string) error {
	cmd := fmt.Sprintf("zfs snapshot %s",
		shellquote.Join(fmt.Sprintf("%s@%s", dataset, label)))

	if _, err := s.executor.Run(ctx, cmd); err != nil {
		return errors.Wrap(err, errors.ZFSSnapshotCreate)
	}
	return nil
}
