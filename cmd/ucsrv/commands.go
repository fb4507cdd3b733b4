package main

import (
	"fmt"
	"sort"

	"github.com/mugiliam/unitycatalogsrv/internal/bootstrap"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the backing store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := db.Migrate(ctx, opts.cfg.Store); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("migration failed")
				return err
			}
			log.Ctx(ctx).Info().Msg("backing store is up to date")
			return nil
		},
	}
}

func newBootstrapCommand(opts *rootOptions) *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the catalogs, shares and recipients described by a seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			seed, err := bootstrap.LoadSeed(seedPath)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Str("seed", seedPath).Msg("invalid seed")
				return err
			}
			store, err := db.Open(ctx, opts.cfg.Store, nil)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			m := catalogmanager.New(store, catalogmanager.Options{
				TokenLifetime: opts.cfg.Sharing.TokenLifetime.Duration,
				SecretKey:     opts.cfg.Store.SecretKey,
			})
			report, err := bootstrap.Apply(ctx, m, seed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created %d, skipped %d\n", report.Created, report.Skipped)
			names := make([]string, 0, len(report.Tokens))
			for name := range report.Tokens {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "recipient %s bearer token: %s\n", name, report.Tokens[name])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "path to the YAML seed file")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server and API versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "UnityCatalogSrv %s (API %s)\n", api.ServerVersion, api.ApiVersion_2_1)
			return nil
		},
	}
}
