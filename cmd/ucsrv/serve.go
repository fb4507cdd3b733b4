package main

import (
	"context"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"github.com/mugiliam/unitycatalogsrv/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const storeCheckInterval = 30 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the backing store and serve the catalog and sharing APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	m := metrics.New()
	store, err := db.Open(ctx, opts.cfg.Store, m)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to open backing store")
		return err
	}
	defer store.Close(ctx)

	logger := log.Ctx(ctx)
	s, err := server.CreateNewServer(opts.cfg, store, m, server.Options{Logger: logger})
	if err != nil {
		logger.Error().Err(err).Msg("unable to create server")
		return err
	}
	s.MountHandlers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(gctx)
	})
	g.Go(func() error {
		watchStore(gctx, store)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// watchStore logs when the backing store stops or resumes answering pings.
func watchStore(ctx context.Context, store db.GraphDB) {
	ticker := time.NewTicker(storeCheckInterval)
	defer ticker.Stop()
	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		switch {
		case err != nil && healthy:
			log.Ctx(ctx).Warn().Err(err).Msg("backing store is not reachable")
		case err == nil && !healthy:
			log.Ctx(ctx).Info().Msg("backing store is reachable again")
		}
		healthy = err == nil
	}
}
