// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoggerConfig() logger.Config {
	return logger.Config{LogLevel: "debug", EnableSentry: false}
}

func TestNewExecutorRequiresHost(t *testing.T) {
	_, err := NewExecutor(Config{}, testLoggerConfig())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.RemoteConnect))
}

func TestNewExecutorDefaults(t *testing.T) {
	e, err := NewExecutor(Config{Host: "master.example.com"}, testLoggerConfig())
	require.NoError(t, err)

	prefix := e.Prefix()
	assert.Equal(t, "ssh", prefix[0])
	assert.Contains(t, prefix, "ConnectTimeout=30")
	assert.Equal(t, "master.example.com", prefix[len(prefix)-1])
}

func TestPrefix(t *testing.T) {
	e, err := NewExecutor(Config{
		Host:           "master.example.com",
		User:           "repl",
		SSHBinary:      "/usr/bin/ssh",
		ConnectTimeout: 10 * time.Second,
		Options:        []string{"StrictHostKeyChecking=accept-new", "Compression=yes"},
	}, testLoggerConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/usr/bin/ssh",
		"-o", "ConnectTimeout=10",
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "Compression=yes",
		"repl@master.example.com",
	}, e.Prefix())
}
