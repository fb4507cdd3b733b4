package server

import (
	"context"
	"testing"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestServeFailsOnBadAddress(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.ListenAddress = "127.0.0.1:-1"
	})
	err := s.Serve(context.Background())
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, apperrors.KindUnavailable, apperrors.KindOf(err))
}

func TestServeStopsWithContext(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.ListenAddress = "127.0.0.1:0"
	})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Serve(ctx))
}
