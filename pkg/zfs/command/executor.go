// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
)

// CommandFlags represents supported command flags
type CommandFlags uint8

const (
	FlagRecursive CommandFlags = 1 << iota // -r for recursive operations
	FlagForce                              // -f to force operation
	FlagNoHeaders                          // -H to disable output headers
	FlagParsable                           // -p for parsable output
)

// CommandOptions configures command execution
type CommandOptions struct {
	Flags   CommandFlags  // Command flags to apply
	Timeout time.Duration // Command-specific timeout
}

// CommandExecutor provides safe execution of local ZFS commands
type CommandExecutor struct {
	useSudo bool // Whether to use sudo for privileged commands
	logger  logger.Logger
}

func NewCommandExecutor(useSudo bool, logCfg logger.Config) (*CommandExecutor, error) {
	l, err := logger.NewTag(logCfg, "zfs-exec")
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandExecution)
	}
	return &CommandExecutor{
		useSudo: useSudo,
		logger:  l,
	}, nil
}

func (e *CommandExecutor) Execute(ctx context.Context, opts CommandOptions, cmd string, args ...string) ([]byte, error) {
	if err := e.validateCommand(cmd, args); err != nil {
		return nil, err
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	cmdArgs := e.buildCommandArgs(cmd, opts, args...)
	e.logger.Debug("Executing command", "cmd", strings.Join(cmdArgs, " "))

	execCmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)

	stdout, err := execCmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandPipe)
	}
	stderr, err := execCmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandPipe)
	}

	if err := execCmd.Start(); err != nil {
		return nil, errors.NewCommandError(
			strings.Join(cmdArgs, " "),
			-1,
			fmt.Sprintf("failed to start command: %v", err),
		)
	}

	var outData []byte
	var outErr error
	done := make(chan struct{})

	go func() {
		defer close(done)
		data, err := io.ReadAll(stdout)
		if err != nil {
			outErr = errors.Wrap(err, errors.CommandOutputParse)
			return
		}
		outData = data
	}()

	select {
	case <-ctx.Done():
		if err := execCmd.Process.Kill(); err != nil {
			return nil, errors.Wrap(err, errors.CommandTimeout)
		}
		return nil, errors.New(errors.CommandTimeout, strings.Join(cmdArgs, " "))

	case <-done:
		if outErr != nil {
			return nil, outErr
		}

		if err := execCmd.Wait(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				errOut, _ := io.ReadAll(stderr)
				return nil, errors.NewCommandError(
					strings.Join(cmdArgs, " "),
					exitErr.ExitCode(),
					string(errOut),
				)
			}
			return nil, errors.Wrap(err, errors.CommandExecution)
		}

		return outData, nil
	}
}

func (e *CommandExecutor) buildCommandArgs(cmd string, opts CommandOptions, args ...string) []string {
	var cmdArgs []string

	if e.useSudo && SudoRequiredCommands[cmd] {
		cmdArgs = append(cmdArgs, "sudo")
	}

	if strings.HasPrefix(cmd, "zfs") {
		cmdArgs = append(cmdArgs, BinZFS)
	}

	parts := strings.SplitN(cmd, " ", 2)
	if len(parts) > 1 {
		cmdArgs = append(cmdArgs, parts[1])
	}

	if opts.Flags&FlagRecursive != 0 {
		cmdArgs = append(cmdArgs, "-r")
	}
	if opts.Flags&FlagForce != 0 {
		cmdArgs = append(cmdArgs, "-f")
	}
	if opts.Flags&FlagNoHeaders != 0 {
		cmdArgs = append(cmdArgs, "-H")
	}
	if opts.Flags&FlagParsable != 0 {
		cmdArgs = append(cmdArgs, "-p")
	}

	cmdArgs = append(cmdArgs, args...)

	return cmdArgs
}

// validateCommand checks command and args for security
func (e *CommandExecutor) validateCommand(cmd string, args []string) error {
	if !strings.HasPrefix(cmd, "zfs") {
		return errors.New(errors.CommandNotFound,
			"only zfs commands are allowed")
	}

	if len(args) > maxCommandArgs {
		return errors.New(errors.CommandInvalidInput, "too many arguments")
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, dangerousChars) {
			return errors.New(errors.CommandInvalidInput,
				"argument contains invalid characters")
		}
	}

	return nil
}
