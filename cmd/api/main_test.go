package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/config"
)

func TestIsDuplicateUsername(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"username taken", &pgconn.PgError{ConstraintName: "users_username_key"}, true},
		{"wrapped", fmt.Errorf("插入用户失败: %w", &pgconn.PgError{ConstraintName: "users_username_key"}), true},
		{"email taken", &pgconn.PgError{ConstraintName: "users_email_key"}, false},
		{"other error", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateUsername(tt.err))
		})
	}
}

func TestResultCacheOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.Host = "cache"
	cfg.Redis.Port = 6380
	cfg.Redis.Password = "secret"
	cfg.Redis.ConnectTimeout = 3

	opts := resultCacheOptions(cfg)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 3*time.Second, opts.DialTimeout)
}
