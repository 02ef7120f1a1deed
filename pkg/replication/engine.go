// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package replication ties the snapshot catalog, remote executor, transfer
// pipeline, publisher and retention manager into the replication cycle and
// the daemon loop around it.
//
// Every cycle re-derives its state (incremental basis, what landed) from
// the snapshot catalogs, so a restarted daemon resumes correctly after a
// crash. The retention countdown is the one piece of in-memory state; its
// loss costs at most one skipped purge eligibility.
package replication

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/config"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/zfs/catalog"
	"github.com/stratastor/zclone/pkg/zfs/retention"
	"github.com/stratastor/zclone/pkg/zfs/snapname"
)

// Params wires the engine's collaborators. Publisher and Notifier are
// optional; a nil Publisher disables linked-clone mode.
type Params struct {
	Config          *config.Config
	MasterCatalog   CatalogReader
	LocalCatalog    CatalogReader
	Snapshotter     Snapshotter
	Pipeline        Transferrer
	Publisher       Publisher
	Retention       *retention.Manager
	LocalDestroyer  retention.SnapshotDestroyer
	MasterDestroyer retention.SnapshotDestroyer
	Notifier        Notifier
	Clock           func() time.Time
}

// Engine runs replication cycles. A single goroutine drives it; the public
// accessors are safe for the status API's concurrent reads.
type Engine struct {
	cfg             *config.Config
	masterCatalog   CatalogReader
	localCatalog    CatalogReader
	snapshotter     Snapshotter
	pipeline        Transferrer
	publisher       Publisher
	retention       *retention.Manager
	localDestroyer  retention.SnapshotDestroyer
	masterDestroyer retention.SnapshotDestroyer
	notifier        Notifier
	clock           func() time.Time
	logger          logger.Logger

	countdown  *retention.Countdown
	cycleCount uint64

	mu         sync.RWMutex
	lastReport *CycleReport
}

func New(p Params, logCfg logger.Config) (*Engine, error) {
	if p.Config == nil {
		return nil, errors.New(errors.ConfigInvalid, "engine requires a configuration")
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}

	l, err := logger.NewTag(logCfg, "replication")
	if err != nil {
		return nil, errors.Wrap(err, errors.ReplCycleAborted)
	}

	return &Engine{
		cfg:             p.Config,
		masterCatalog:   p.MasterCatalog,
		localCatalog:    p.LocalCatalog,
		snapshotter:     p.Snapshotter,
		pipeline:        p.Pipeline,
		publisher:       p.Publisher,
		retention:       p.Retention,
		localDestroyer:  p.LocalDestroyer,
		masterDestroyer: p.MasterDestroyer,
		notifier:        p.Notifier,
		clock:           p.Clock,
		logger:          l,
		countdown:       retention.NewCountdown(p.Config.Retention.PurgeDelay),
	}, nil
}

// CycleCount returns how many cycles this process has started.
func (e *Engine) CycleCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cycleCount
}

// LastReport returns the most recent cycle report, if any cycle ran.
func (e *Engine) LastReport() (CycleReport, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastReport == nil {
		return CycleReport{}, false
	}
	return *e.lastReport, true
}

func (e *Engine) storeReport(r *CycleReport) {
	e.mu.Lock()
	e.lastReport = r
	e.mu.Unlock()

	if e.notifier != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.notifier.NotifyCycle(ctx, *r); err != nil {
			e.logger.Warn("Cycle notification failed", "cycle", r.ID, "error", err)
		}
	}
}

func (e *Engine) fail(r *CycleReport, err error) (CycleReport, error) {
	r.State = StateFailed
	r.Error = err.Error()
	r.Elapsed = e.clock().Sub(r.BeganAt)
	e.logger.Error("Cycle failed",
		"cycle", r.ID, "state", r.State, "error", err)
	e.storeReport(r)
	return *r, err
}

// RunCycle executes one full replication cycle:
// DetermineBasis → CreateMasterSnapshot → Transfer → (Publish) → (Retain).
// A fatal step aborts the cycle and is returned as an error; publish and
// retention failures are recorded in the report and do not fail the cycle.
func (e *Engine) RunCycle(ctx context.Context) (CycleReport, error) {
	masterDS := e.cfg.Master.Dataset
	localDS := e.cfg.LocalDataset()
	profile := e.cfg.Profile

	e.mu.Lock()
	firstEver := e.cycleCount == 0
	e.cycleCount++
	number := e.cycleCount
	e.mu.Unlock()

	report := &CycleReport{
		ID:      uuid.NewString(),
		Number:  number,
		State:   StateDetermineBasis,
		BeganAt: e.clock(),
	}

	e.logger.Info("Cycle started", "cycle", report.ID, "number", number)

	// DetermineBasis: the last local managed snapshot is the only valid
	// incremental basis. An empty local sequence is legal solely on the
	// first-ever cycle (bootstrap, full send).
	localSeq, err := e.localCatalog.List(ctx, localDS)
	if err != nil {
		return e.fail(report, errors.Wrap(err, errors.ReplCycleAborted))
	}

	var basisLabel string
	basis, ok := localSeq.Last()
	if ok {
		basisLabel = basis.Label
		report.Basis = basis.Name()
	} else {
		if !firstEver {
			return e.fail(report, errors.New(errors.ReplBasisInconsistent,
				fmt.Sprintf("local dataset %s has no managed snapshot after cycle 1", localDS)))
		}
		report.Bootstrap = true
		e.logger.Info("Bootstrap cycle, full transfer", "cycle", report.ID, "local", localDS)
	}

	// CreateMasterSnapshot
	report.State = StateCreateSnapshot
	label := snapname.Generate(profile, e.clock())
	if label == basisLabel {
		return e.fail(report, errors.New(errors.ReplSnapshotFailed,
			fmt.Sprintf("label %s collides with current basis", label)))
	}

	if err := e.snapshotter.CreateSnapshot(ctx, masterDS, label); err != nil {
		return e.fail(report, errors.Wrap(err, errors.ReplSnapshotFailed))
	}
	report.Snapshot = fmt.Sprintf("%s@%s", masterDS, label)
	e.logger.Info("Created master snapshot", "cycle", report.ID, "snapshot", report.Snapshot)

	// Transfer
	report.State = StateTransfer
	if err := e.pipeline.Transfer(ctx, masterDS, basisLabel, label, localDS); err != nil {
		return e.fail(report, errors.Wrap(err, errors.ReplTransferFailed))
	}

	// The re-read local catalog, not the pipeline's exit status, decides
	// what actually landed.
	localSeq, err = e.localCatalog.List(ctx, localDS)
	if err != nil {
		return e.fail(report, errors.Wrap(err, errors.ReplCycleAborted))
	}
	received, ok := localSeq.Last()
	if !ok || received.Label != label {
		return e.fail(report, errors.New(errors.ReplTransferFailed,
			fmt.Sprintf("snapshot %s not present in local catalog after transfer", label)))
	}

	// Publish: linked-clone mode only; failure does not fail the cycle.
	if e.publisher != nil {
		report.State = StatePublish
		if err := e.publisher.Publish(ctx, received); err != nil {
			report.PublishErr = err.Error()
			e.logger.Warn("Publish failed, continuing cycle",
				"cycle", report.ID, "snapshot", received.Name(), "error", err)
		}
	}

	// Retain: gated by the countdown; failures inside are non-fatal.
	report.State = StateRetain
	if e.countdown.Tick() {
		report.PurgeRan = true
		e.retain(ctx, report, localSeq, masterDS)
	}

	report.State = StateComplete
	report.Elapsed = e.clock().Sub(report.BeganAt)
	e.logger.Info("Cycle complete",
		"cycle", report.ID,
		"number", number,
		"snapshot", report.Snapshot,
		"elapsed", report.Elapsed.String(),
		"purged", report.LocalPrune.Purged+report.MasterPrune.Purged,
		"staled", report.LocalPrune.Staled+report.MasterPrune.Staled)
	e.storeReport(report)

	return *report, nil
}

// retain prunes both sides under their independent keep-counts. Master and
// local outcomes are tracked with the same purged/staled fidelity.
func (e *Engine) retain(ctx context.Context, report *CycleReport, localSeq catalog.Sequence, masterDS string) {
	var onDestroyed func(catalog.ManagedSnapshot)
	if e.publisher != nil {
		onDestroyed = func(snap catalog.ManagedSnapshot) {
			if err := e.publisher.RemoveMountpoint(snap); err != nil {
				e.logger.Warn("Failed to remove clone mountpoint",
					"cycle", report.ID, "snapshot", snap.Name(), "error", err)
			}
		}
	}

	report.LocalPrune = e.retention.Prune(
		ctx, e.localDestroyer, localSeq, e.cfg.Retention.KeepLocal, onDestroyed)

	masterSeq, err := e.masterCatalog.List(ctx, masterDS)
	if err != nil {
		e.logger.Warn("Master catalog listing failed, skipping master purge",
			"cycle", report.ID, "error", err)
		return
	}

	report.MasterPrune = e.retention.Prune(
		ctx, e.masterDestroyer, masterSeq, e.cfg.Retention.KeepMaster, nil)
}

// Run is the daemon loop: cycles forever with the configured inter-cycle
// pause. A fatal cycle error terminates the loop so the supervising harness
// can restart the process; context cancellation is a clean stop.
func (e *Engine) Run(ctx context.Context) error {
	pause := time.Duration(e.cfg.Replication.PauseSeconds) * time.Second

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := e.RunCycle(ctx); err != nil {
			return err
		}

		if pause > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pause):
			}
		}
	}
}
