// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package snapname

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	tests := []struct {
		name    string
		profile string
		want    string
	}{
		{
			name:    "without profile",
			profile: "",
			want:    "zclone-2025-03-14.09:26:53",
		},
		{
			name:    "with profile",
			profile: "pgdata",
			want:    "zclone-pgdata-2025-03-14.09:26:53",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.profile, at))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	for _, profile := range []string{"", "pgdata"} {
		label := Generate(profile, at)
		ts, err := Parse(label, profile)
		require.NoError(t, err)
		assert.True(t, ts.Equal(at), "profile %q: got %v, want %v", profile, ts, at)
	}
}

func TestMatches(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	tests := []struct {
		name    string
		label   string
		profile string
		want    bool
	}{
		{
			name:    "own label",
			label:   Generate("pgdata", at),
			profile: "pgdata",
			want:    true,
		},
		{
			name:    "profile-less label",
			label:   Generate("", at),
			profile: "",
			want:    true,
		},
		{
			name:    "other profile never matches",
			label:   Generate("pgdata", at),
			profile: "maildata",
			want:    false,
		},
		{
			name:    "profile-less label does not match a profile",
			label:   Generate("", at),
			profile: "pgdata",
			want:    false,
		},
		{
			name:    "profiled label does not match profile-less",
			label:   Generate("pgdata", at),
			profile: "",
			want:    false,
		},
		{
			name:    "foreign snapshot",
			label:   "manual-backup-before-upgrade",
			profile: "pgdata",
			want:    false,
		},
		{
			name:    "prefix without timestamp",
			label:   "zclone-pgdata-not-a-time",
			profile: "pgdata",
			want:    false,
		},
		{
			name:    "empty label",
			label:   "",
			profile: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.label, tt.profile))
		})
	}
}

// Retention and basis selection rely on creation order; the label format
// must sort lexically in that same order.
func TestLexicalOrderIsChronological(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 1, 1, 0, 0, 1, 0, time.Local),
		time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
		time.Date(2025, 10, 5, 12, 30, 0, 0, time.Local),
	}

	labels := make([]string, len(times))
	for i, at := range times {
		labels[i] = Generate("pgdata", at)
	}

	assert.True(t, sort.StringsAreSorted(labels), "labels out of order: %v", labels)
}
