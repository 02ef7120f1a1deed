// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package notify posts cycle reports to a configured webhook. Delivery
// failures are the caller's warning, never a cycle failure.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stratastor/logger"
	"github.com/stratastor/zclone/internal/constants"
	"github.com/stratastor/zclone/pkg/errors"
	"github.com/stratastor/zclone/pkg/replication"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRetryWait = 2 * time.Second
	userAgent        = "zclone"
)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
	RetryCount int
}

type Webhook struct {
	client *resty.Client
	url    string
	logger logger.Logger
}

func NewWebhook(cfg Config, logCfg logger.Config) (*Webhook, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New(errors.NotifyDeliveryFailed, "webhook URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	l, err := logger.NewTag(logCfg, "notify")
	if err != nil {
		return nil, errors.Wrap(err, errors.NotifyDeliveryFailed)
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(defaultRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("User-Agent", userAgent+"/"+constants.ZcloneVersion)

	return &Webhook{
		client: client,
		url:    cfg.WebhookURL,
		logger: l,
	}, nil
}

// NotifyCycle posts the report as JSON. Non-2xx responses count as
// delivery failures.
func (w *Webhook) NotifyCycle(ctx context.Context, report replication.CycleReport) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(report).
		Post(w.url)
	if err != nil {
		return errors.Wrap(err, errors.NotifyDeliveryFailed)
	}

	if resp.IsError() {
		return errors.New(errors.NotifyDeliveryFailed,
			fmt.Sprintf("webhook returned %s", resp.Status()))
	}

	w.logger.Debug("Cycle report delivered", "cycle", report.ID, "status", resp.Status())
	return nil
}
