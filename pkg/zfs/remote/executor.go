// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package remote runs commands against the master host over SSH. It performs
// no retries; retry policy belongs to the replication engine.
package remote

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
)

const DefaultConnectTimeout = 30 * time.Second

// Config describes the SSH transport to the master host.
type Config struct {
	Host           string
	User           string
	SSHBinary      string
	ConnectTimeout time.Duration
	Options        []string // extra -o options
}

// Executor runs single commands on the master host.
type Executor struct {
	cfg    Config
	logger logger.Logger
}

func NewExecutor(cfg Config, logCfg logger.Config) (*Executor, error) {
	if cfg.Host == "" {
		return nil, errors.New(errors.RemoteConnect, "remote host is required")
	}
	if cfg.SSHBinary == "" {
		cfg.SSHBinary = "ssh"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	l, err := logger.NewTag(logCfg, "remote-exec")
	if err != nil {
		return nil, errors.Wrap(err, errors.RemoteConnect)
	}

	return &Executor{cfg: cfg, logger: l}, nil
}

// Prefix returns the ssh invocation that opens a session on the master
// host, for callers composing pipelines around a remote command.
func (e *Executor) Prefix() []string {
	args := []string{
		e.cfg.SSHBinary,
		"-o", fmt.Sprintf("ConnectTimeout=%d", int(e.cfg.ConnectTimeout.Seconds())),
		"-o", "BatchMode=yes",
	}
	for _, opt := range e.cfg.Options {
		args = append(args, "-o", opt)
	}

	target := e.cfg.Host
	if e.cfg.User != "" {
		target = e.cfg.User + "@" + e.cfg.Host
	}
	return append(args, target)
}

// Run executes a command on the master host and returns its stdout. Any
// non-zero exit or timeout surfaces as a coded error carrying the command
// and exit status; the caller decides fatal vs. recoverable.
func (e *Executor) Run(ctx context.Context, command string) ([]byte, error) {
	full := append(e.Prefix(), command)
	cmdStr := shellquote.Join(full...)

	e.logger.Debug("Executing remote command", "cmd", cmdStr)

	execCmd := exec.CommandContext(ctx, full[0], full[1:]...)

	var stderr strings.Builder
	execCmd.Stderr = &stderr

	out, err := execCmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(errors.CommandTimeout, command)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			// ssh exits 255 when the session itself could not be opened
			if exitErr.ExitCode() == 255 {
				return nil, errors.New(errors.RemoteConnect, stderr.String()).
					WithMetadata("command", command)
			}
			return nil, errors.NewCommandError(command, exitErr.ExitCode(), stderr.String())
		}
		return nil, errors.Wrap(err, errors.RemoteExecution)
	}

	return out, nil
}
