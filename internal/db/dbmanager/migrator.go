package dbmanager

import (
	"context"
	"embed"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

type migration struct {
	version int
	name    string
	sql     string
}

func (d Dialect) migrations() ([]migration, error) {
	dir := path.Join("migrations", string(d))
	entries, err := fs.ReadDir(migrationFiles, dir)
	if err != nil {
		return nil, dberror.ErrDatabase.MsgErr("unable to read migrations", err)
	}
	var ms []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version, err := migrationVersion(e.Name())
		if err != nil {
			return nil, err
		}
		body, err := fs.ReadFile(migrationFiles, path.Join(dir, e.Name()))
		if err != nil {
			return nil, dberror.ErrDatabase.MsgErr("unable to read migration "+e.Name(), err)
		}
		ms = append(ms, migration{version: version, name: e.Name(), sql: string(body)})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].version < ms[j].version })
	return ms, nil
}

// migrationVersion extracts the leading number of a "0001_name.sql" file.
func migrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, dberror.ErrDatabase.Msg("migration file name has no version: " + name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, dberror.ErrDatabase.MsgErr("migration file name has no version: "+name, err)
	}
	return v, nil
}

func statements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate applies every migration that has not been recorded in schema_migrations.
// Each migration runs in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return dberror.Translate(err, "unable to create schema_migrations")
	}

	var applied []int
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return dberror.Translate(err, "unable to read applied migrations")
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	ms, err := db.Dialect.migrations()
	if err != nil {
		return err
	}
	for _, m := range ms {
		if done[m.version] {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("migration", m.name).Msg("migration failed")
			return err
		}
		log.Ctx(ctx).Info().Str("migration", m.name).Msg("migration applied")
	}
	return nil
}

func (db *DB) apply(ctx context.Context, m migration) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return dberror.Translate(err, "unable to begin migration")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	for _, stmt := range statements(m.sql) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return dberror.Translate(err, "unable to apply migration "+m.name)
		}
	}
	insert := db.Rebind(`INSERT INTO schema_migrations (version) VALUES (?)`)
	if _, err = tx.ExecContext(ctx, insert, m.version); err != nil {
		return dberror.Translate(err, "unable to record migration "+m.name)
	}
	if err = tx.Commit(); err != nil {
		return dberror.Translate(err, "unable to commit migration "+m.name)
	}
	return nil
}
