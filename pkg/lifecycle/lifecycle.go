// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/stratastor/zclone/pkg/errors"
)

var (
	shutdownHooks []func()
	cancel        context.CancelFunc
)

func RegisterShutdownHook(hook func()) {
	shutdownHooks = append(shutdownHooks, hook)
}

func RegisterContextCanceller(c context.CancelFunc) {
	cancel = c
}

func HandleSignals(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-stop:
		shutdown()
	case <-ctx.Done():
	}
}

func shutdown() {
	if cancel != nil {
		cancel()
	}
	for i := len(shutdownHooks) - 1; i >= 0; i-- {
		shutdownHooks[i]()
	}
	os.Exit(0)
}

// EnsureSingleInstance acquires the PID-file instance lock, failing fast if
// another live process holds it. Stale PID files are reclaimed. The lock is
// released by a registered shutdown hook.
func EnsureSingleInstance(pidPath string) error {
	if pidPath == "" {
		return errors.New(errors.LifecyclePIDFile, "invalid PID file path")
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidBytes, err := os.ReadFile(pidPath)
		if err != nil {
			return errors.Wrap(err, errors.LifecyclePIDFile)
		}

		content := strings.TrimSpace(string(pidBytes))
		if content == "" {
			os.Remove(pidPath)
		} else {
			pid, err := strconv.Atoi(content)
			if err != nil {
				return errors.New(errors.LifecyclePIDFile,
					fmt.Sprintf("invalid PID format: %v", err))
			}

			if process, err := os.FindProcess(pid); err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return errors.New(errors.LifecycleInstanceConflict,
						fmt.Sprintf("PID %d", pid))
				}
			}
			// Process not running, reclaim stale PID file
			os.Remove(pidPath)
		}
	}

	currentPid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(currentPid)), 0644); err != nil {
		return errors.Wrap(err, errors.LifecyclePIDFile)
	}

	RegisterShutdownHook(func() {
		os.Remove(pidPath)
	})

	return nil
}
