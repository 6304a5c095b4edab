// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcoDecco/spacefy-mobile/internal/config"
	"github.com/MarcoDecco/spacefy-mobile/internal/logger"
	"github.com/MarcoDecco/spacefy-mobile/internal/utils"
)

type healthChecker struct {
	client *utils.HTTPClient
	path   string
	logger *logger.Logger
}

// NewConnectivityChecker returns a [ConnectivityChecker] that checks
// GET <HealthPath> on the remote API. Any 2xx answer means online.
func NewConnectivityChecker(adapterCfg config.ClientAdapter, log *logger.Logger) (ConnectivityChecker, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	path := strings.TrimSpace(adapterCfg.HealthPath)
	if path == "" {
		path = "/"
	}

	return &healthChecker{
		client: utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		path:   path,
		logger: log,
	}, nil
}

// IsOnline implements [ConnectivityChecker].
func (c *healthChecker) IsOnline(ctx context.Context) bool {
	resp, err := c.client.R().SetContext(ctx).Get(c.path)
	if err != nil {
		c.logger.Debug().Err(err).Str("func", "healthChecker.IsOnline").Msg("remote api unreachable")
		return false
	}
	if err = mapHTTPError(resp); err != nil {
		c.logger.Debug().Err(err).Str("func", "healthChecker.IsOnline").Msg("remote api unhealthy")
		return false
	}
	return true
}
