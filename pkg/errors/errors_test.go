// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ZFSSnapshotCreate, "out of space")

	assert.Equal(t, ErrorCode(ZFSSnapshotCreate), err.Code)
	assert.Equal(t, DomainZFS, err.Domain)
	assert.Contains(t, err.Error(), "out of space")
	assert.Contains(t, err.Error(), fmt.Sprintf("%d", ZFSSnapshotCreate))
}

func TestNewUnknownCode(t *testing.T) {
	err := New(ErrorCode(999999), "whatever")
	assert.Equal(t, DomainMisc, err.Domain)
	assert.Equal(t, "Unknown error", err.Message)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("underlying failure")
	err := Wrap(cause, ReplTransferFailed)

	assert.Equal(t, ErrorCode(ReplTransferFailed), err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrapKeepsExistingCode(t *testing.T) {
	inner := New(ZFSSnapshotDestroy, "dataset is busy")
	err := Wrap(inner, ReplCycleAborted)

	assert.Equal(t, ErrorCode(ZFSSnapshotDestroy), err.Code)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ReplCycleAborted))
}

func TestNewCommandError(t *testing.T) {
	err := NewCommandError("zfs list", 1, "permission denied")

	assert.Equal(t, ErrorCode(CommandExecution), err.Code)
	assert.Equal(t, "zfs list", err.Metadata["command"])
	assert.Equal(t, "1", err.Metadata["exit_code"])
	assert.Contains(t, err.Error(), "permission denied")
}

func TestNewCommandErrorNotFound(t *testing.T) {
	err := NewCommandError("zsf list", -1, "")
	assert.Equal(t, ErrorCode(CommandNotFound), err.Code)
}

func TestWithMetadata(t *testing.T) {
	err := New(ZFSDatasetReceive, "stream truncated").
		WithMetadata("output", "cannot receive").
		WithMetadata("snapshot", "tank/data@zclone-2025-03-14.09:26:53")

	require.NotNil(t, err.Metadata)
	assert.Equal(t, "cannot receive", err.Metadata["output"])
	assert.Equal(t, "tank/data@zclone-2025-03-14.09:26:53", err.Metadata["snapshot"])
}

func TestHasCode(t *testing.T) {
	err := New(ReplBasisInconsistent, "no managed snapshot")

	assert.True(t, HasCode(err, ReplBasisInconsistent))
	assert.False(t, HasCode(err, ReplTransferFailed))
	assert.False(t, HasCode(stderrors.New("plain"), ReplBasisInconsistent))
	assert.Equal(t, ErrorCode(-1), GetErrorCode(stderrors.New("plain")))
}

func TestIsZcloneError(t *testing.T) {
	assert.True(t, IsZcloneError(New(ConfigInvalid, "")))
	assert.False(t, IsZcloneError(stderrors.New("plain")))
}
