// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package transfer drives one incremental send/receive between the master
// and the local replica: remote zfs send piped into local zfs receive over
// the SSH session itself.
package transfer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/zfs/command"
	"github.com/stratastor/zclone/pkg/zfs/remote"
)

// Config tunes the pipeline; the dataset endpoints arrive per transfer.
type Config struct {
	Verbose bool // -v on the sending side, progress to stderr
	UseSudo bool
}

type Pipeline struct {
	remote *remote.Executor
	cfg    Config
	logger logger.Logger
}

func NewPipeline(remoteExec *remote.Executor, cfg Config, logCfg logger.Config) (*Pipeline, error) {
	l, err := logger.NewTag(logCfg, "transfer")
	if err != nil {
		return nil, errors.Wrap(err, errors.ZFSDatasetSend)
	}
	return &Pipeline{remote: remoteExec, cfg: cfg, logger: l}, nil
}

// Transfer streams masterDataset@newLabel into localDataset, incrementally
// from basisLabel when non-empty, as a full stream otherwise (bootstrap).
// Partial receipt is not an applied snapshot; the caller re-reads the local
// catalog for the truth of what landed.
func (p *Pipeline) Transfer(ctx context.Context, masterDataset, basisLabel, newLabel, localDataset string) error {
	cmdStr := p.buildCommand(masterDataset, basisLabel, newLabel, localDataset)
	p.logger.Debug("Built transfer command", "command", cmdStr)

	execCmd := exec.CommandContext(ctx, "bash", "-c", cmdStr)

	var stderr strings.Builder
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return errors.Wrap(err, errors.ZFSDatasetReceive).
				WithMetadata("output", stderr.String())
		}
		return errors.Wrap(err, errors.ZFSDatasetReceive)
	}

	p.logger.Info("Transfer complete",
		"snapshot", fmt.Sprintf("%s@%s", masterDataset, newLabel),
		"basis", basisLabel,
		"target", localDataset)

	return nil
}

// buildCommand composes the send/receive pipeline run under bash -c.
func (p *Pipeline) buildCommand(masterDataset, basisLabel, newLabel, localDataset string) string {
	sendPart := []string{"zfs", "send"}
	if p.cfg.Verbose {
		sendPart = append(sendPart, "-v")
	}
	if basisLabel != "" {
		sendPart = append(sendPart, "-i", fmt.Sprintf("%s@%s", masterDataset, basisLabel))
	}
	sendPart = append(sendPart, fmt.Sprintf("%s@%s", masterDataset, newLabel))

	recvPart := []string{command.BinZFS, "receive", "-u", "-F", localDataset}

	sudo := ""
	if p.cfg.UseSudo {
		sudo = "sudo "
	}

	// pipefail so a dead send stage fails the pipeline even when receive
	// exits clean on a truncated stream
	return fmt.Sprintf("set -o pipefail; %s %s%s | %s%s",
		shellquote.Join(p.remote.Prefix()...),
		sudo, shellquote.Join(sendPart...),
		sudo, shellquote.Join(recvPart...))
}
