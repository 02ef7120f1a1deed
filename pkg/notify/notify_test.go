// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoggerConfig() logger.Config {
	return logger.Config{LogLevel: "debug", EnableSentry: false}
}

func TestNewWebhookRequiresURL(t *testing.T) {
	_, err := NewWebhook(Config{}, testLoggerConfig())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.NotifyDeliveryFailed))
}

func TestNotifyCycleDeliversReport(t *testing.T) {
	var got replication.CycleReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, err := NewWebhook(Config{WebhookURL: srv.URL}, testLoggerConfig())
	require.NoError(t, err)

	report := replication.CycleReport{
		ID:       "test-cycle-1",
		Number:   7,
		State:    replication.StateComplete,
		Snapshot: "tank/data@zclone-2025-03-14.09:26:53",
	}
	require.NoError(t, wh.NotifyCycle(context.Background(), report))

	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Number, got.Number)
	assert.Equal(t, report.Snapshot, got.Snapshot)
}

func TestNotifyCycleNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh, err := NewWebhook(Config{WebhookURL: srv.URL}, testLoggerConfig())
	require.NoError(t, err)

	err = wh.NotifyCycle(context.Background(), replication.CycleReport{ID: "test-cycle-2"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.NotifyDeliveryFailed))
}

func TestNotifyCycleRetriesOnServerError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh, err := NewWebhook(Config{WebhookURL: srv.URL, RetryCount: 2}, testLoggerConfig())
	require.NoError(t, err)

	require.NoError(t, wh.NotifyCycle(context.Background(), replication.CycleReport{ID: "test-cycle-3"}))
	assert.Equal(t, 2, attempts)
}
