// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientConfig_Validate(t *testing.T) {
	valid := func() *ClientConfig { return NewClientConfig(Defaults()) }

	tests := []struct {
		name    string
		mutate  func(c *ClientConfig)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*ClientConfig) {}},
		{name: "memory dsn is valid", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = ":memory:" }},
		{name: "empty dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = " " }, wantErr: ErrInvalidStorageConfigs},
		{name: "address without scheme", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "localhost:3000" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "zero timeout", mutate: func(c *ClientConfig) { c.Adapter.RequestTimeout = 0 }, wantErr: ErrInvalidAdapterConfigs},
		{name: "relative health path", mutate: func(c *ClientConfig) { c.Adapter.HealthPath = "health" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "zero inactivity", mutate: func(c *ClientConfig) { c.Session.MaxInactivity = 0 }, wantErr: ErrInvalidSessionConfigs},
		{name: "zero refresh", mutate: func(c *ClientConfig) { c.Workers.RefreshInterval = 0 }, wantErr: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)

			err := c.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
