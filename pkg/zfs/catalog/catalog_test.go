// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagedSnapshotName(t *testing.T) {
	snap := ManagedSnapshot{Dataset: "tank/data", Label: "zclone-2025-03-14.09:26:53"}
	assert.Equal(t, "tank/data@zclone-2025-03-14.09:26:53", snap.Name())
}

func TestFilter(t *testing.T) {
	listing := []string{
		"tank/data@zclone-2025-03-14.09:00:00",
		"tank/data@manual-backup",                    // foreign label
		"tank/data@zclone-other-2025-03-14.09:10:00", // other profile
		"tank/scratch@zclone-2025-03-14.09:20:00",    // other dataset
		"",
		"  tank/data@zclone-2025-03-14.09:30:00  ",
		"tank/data@zclone-2025-03-14.09:40:00",
	}

	seq := Filter(listing, "tank/data", "")

	require.Len(t, seq, 3)
	assert.Equal(t, "zclone-2025-03-14.09:00:00", seq[0].Label)
	assert.Equal(t, "zclone-2025-03-14.09:30:00", seq[1].Label)
	assert.Equal(t, "zclone-2025-03-14.09:40:00", seq[2].Label)

	for _, snap := range seq {
		assert.Equal(t, "tank/data", snap.Dataset)
		assert.False(t, snap.Timestamp.IsZero())
	}
}

func TestFilterByProfile(t *testing.T) {
	listing := []string{
		"tank/data@zclone-2025-03-14.09:00:00",
		"tank/data@zclone-pgdata-2025-03-14.09:10:00",
		"tank/data@zclone-pgdata-2025-03-14.09:20:00",
		"tank/data@zclone-maildata-2025-03-14.09:30:00",
	}

	seq := Filter(listing, "tank/data", "pgdata")

	require.Len(t, seq, 2)
	assert.Equal(t, "zclone-pgdata-2025-03-14.09:10:00", seq[0].Label)
	assert.Equal(t, "zclone-pgdata-2025-03-14.09:20:00", seq[1].Label)
}

func TestFilterPreservesListingOrder(t *testing.T) {
	// The listing is createtxg-ordered; Filter must not reorder it even
	// when timestamps disagree (clock adjustment on the master).
	listing := []string{
		"tank/data@zclone-2025-03-14.10:00:00",
		"tank/data@zclone-2025-03-14.09:00:00",
	}

	seq := Filter(listing, "tank/data", "")

	require.Len(t, seq, 2)
	assert.Equal(t, "zclone-2025-03-14.10:00:00", seq[0].Label)
	assert.Equal(t, "zclone-2025-03-14.09:00:00", seq[1].Label)
}

func TestFilterEmptyListing(t *testing.T) {
	assert.Empty(t, Filter(nil, "tank/data", ""))
	assert.Empty(t, Filter([]string{""}, "tank/data", ""))
}

func TestSequenceLast(t *testing.T) {
	var empty Sequence
	_, ok := empty.Last()
	assert.False(t, ok)

	seq := Sequence{
		{Dataset: "tank/data", Label: "a", Timestamp: time.Now()},
		{Dataset: "tank/data", Label: "b", Timestamp: time.Now()},
	}
	last, ok := seq.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Label)
}
