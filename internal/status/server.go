// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package status serves a read-only HTTP view of the replication engine.
//
//	GET /api/v1/zclone/status       Engine summary
//	  Response: {"profile": "...", "cycles": 42, "state": "complete", ...}
//
//	GET /api/v1/zclone/cycles/last  Full report of the last cycle
//	  Response: CycleReport JSON, 404 before the first cycle finishes
package status

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/internal/constants"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/replication"
)

type Server struct {
	engine  *replication.Engine
	profile string
	srv     *http.Server
	logger  logger.Logger
}

func NewServer(engine *replication.Engine, profile string, logCfg logger.Config) (*Server, error) {
	l, err := logger.NewTag(logCfg, "status-api")
	if err != nil {
		return nil, errors.Wrap(err, errors.StatusAPIError)
	}
	return &Server{engine: engine, profile: profile, logger: l}, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(constants.APIStatus, s.getStatus)
	router.GET(constants.APICycles+"/last", s.getLastCycle)

	return router
}

func (s *Server) getStatus(c *gin.Context) {
	summary := gin.H{
		"version": constants.ZcloneVersion,
		"profile": s.profile,
		"cycles":  s.engine.CycleCount(),
	}

	if report, ok := s.engine.LastReport(); ok {
		summary["state"] = report.State
		summary["last_snapshot"] = report.Snapshot
		summary["last_began_at"] = report.BeganAt
		summary["last_elapsed"] = report.Elapsed.String()
		if report.Error != "" {
			summary["last_error"] = report.Error
		}
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) getLastCycle(c *gin.Context) {
	report, ok := s.engine.LastReport()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Status API shutdown error", "error", err)
		}
	}()

	s.logger.Info("Status API listening", "port", port)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.StatusAPIError)
	}
	return nil
}
