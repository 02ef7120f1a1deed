// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/config"
	"github.com/stratastor/zclone/pkg/replication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	logCfg := logger.Config{LogLevel: "debug", EnableSentry: false}

	cfg := &config.Config{}
	cfg.Master.Host = "master.example.com"
	cfg.Master.Dataset = "tank/data"
	cfg.Retention.KeepMaster = 10
	cfg.Retention.KeepLocal = 10

	engine, err := replication.New(replication.Params{Config: cfg}, logCfg)
	require.NoError(t, err)

	s, err := NewServer(engine, "pgdata", logCfg)
	require.NoError(t, err)
	return s
}

func TestGetStatus(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/zclone/status", nil)
	s.routes().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pgdata", body["profile"])
	assert.Equal(t, float64(0), body["cycles"])
	assert.NotContains(t, body, "state", "no cycle has run yet")
}

func TestGetLastCycleBeforeFirstCycle(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/zclone/cycles/last", nil)
	s.routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownRouteIs404(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/zclone/nope", nil)
	s.routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
