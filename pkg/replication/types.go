// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package replication

import (
	"context"
	"time"

	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/retention"
)

// CatalogReader lists a dataset's managed snapshot sequence.
type CatalogReader interface {
	List(ctx context.Context, dataset string) (catalog.Sequence, error)
}

// Snapshotter creates the cycle's snapshot on the master dataset.
type Snapshotter interface {
	CreateSnapshot(ctx context.Context, dataset, label string) error
}

// Transferrer streams masterDataset@newLabel into localDataset,
// incrementally from basisLabel when non-empty.
type Transferrer interface {
	Transfer(ctx context.Context, masterDataset, basisLabel, newLabel, localDataset string) error
}

// Publisher maintains the stable link over the newest replicated state.
type Publisher interface {
	Publish(ctx context.Context, snap catalog.ManagedSnapshot) error
	RemoveMountpoint(snap catalog.ManagedSnapshot) error
}

// Notifier delivers cycle reports to an external sink.
type Notifier interface {
	NotifyCycle(ctx context.Context, report CycleReport) error
}

// CycleState names the steps of the cycle state machine.
type CycleState string

const (
	StateDetermineBasis CycleState = "determine_basis"
	StateCreateSnapshot CycleState = "create_master_snapshot"
	StateTransfer       CycleState = "transfer"
	StatePublish        CycleState = "publish"
	StateRetain         CycleState = "retain"
	StateComplete       CycleState = "complete"
	StateFailed         CycleState = "failed"
)

// CycleReport is the per-iteration record: created fresh each cycle,
// discarded at loop end. Everything needed to resume after a crash lives in
// the snapshot catalogs, not here.
type CycleReport struct {
	ID          string                `json:"id"`
	Number      uint64                `json:"number"`
	State       CycleState            `json:"state"`
	Bootstrap   bool                  `json:"bootstrap"`
	Basis       string                `json:"basis,omitempty"`
	Snapshot    string                `json:"snapshot,omitempty"`
	PurgeRan    bool                  `json:"purge_ran"`
	LocalPrune  retention.PruneResult `json:"local_prune,omitempty"`
	MasterPrune retention.PruneResult `json:"master_prune,omitempty"`
	PublishErr  string                `json:"publish_error,omitempty"`
	BeganAt     time.Time             `json:"began_at"`
	Elapsed     time.Duration         `json:"elapsed"`
	Error       string                `json:"error,omitempty"`
}
