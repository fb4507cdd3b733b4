package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/config"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dbmanager"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/mugiliam/unitycatalogsrv/internal/db/sqlstore"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
)

type ObjectUpdate = sqlstore.ObjectUpdate

// GraphDB is the catalog graph store: labeled objects and labeled directed
// associations between them.
type GraphDB interface {
	// Objects
	AddObject(ctx context.Context, label models.ObjectLabel, name []string, properties json.RawMessage) (*models.Object, error)
	GetObject(ctx context.Context, id uuid.UUID) (*models.Object, error)
	GetObjectByName(ctx context.Context, label models.ObjectLabel, name []string) (*models.Object, error)
	UpdateObject(ctx context.Context, id uuid.UUID, upd ObjectUpdate) (*models.Object, error)
	DeleteObject(ctx context.Context, id uuid.UUID) error
	ListObjects(ctx context.Context, label models.ObjectLabel, prefix []string, page pagination.Request) ([]models.Object, string, error)

	// Associations
	AddAssociation(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to uuid.UUID, properties json.RawMessage) (*models.Association, error)
	DeleteAssociation(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to uuid.UUID) error
	GetAssociations(ctx context.Context, from uuid.UUID, label models.AssociationLabel, to []uuid.UUID, page pagination.Request) ([]models.Association, string, error)
	ListAssociations(ctx context.Context, from uuid.UUID, label models.AssociationLabel, toLabel models.ObjectLabel, page pagination.Request) ([]models.Association, string, error)

	// InTx runs fn in a transaction; calls made with the context handed to fn join it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	MaxPageSize() int
	Ping(ctx context.Context) error
	Close(ctx context.Context)
}

var _ GraphDB = (*sqlstore.CatalogDb)(nil)

// Open connects to the backing store described by cfg, applies pending migrations
// and returns the graph store.
func Open(ctx context.Context, cfg config.StoreConfig, m *metrics.Metrics) (GraphDB, error) {
	conn, err := dbmanager.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return sqlstore.NewCatalogDb(conn, sqlstore.Options{
		MaxPageSize:          cfg.MaxPageSize,
		MaxRetries:           cfg.MaxRetries,
		RetryInitialInterval: cfg.RetryInitialInterval.Duration,
		Metrics:              m,
	}), nil
}

// Migrate applies pending migrations to the backing store described by cfg
// without opening the graph store.
func Migrate(ctx context.Context, cfg config.StoreConfig) error {
	conn, err := dbmanager.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Migrate(ctx)
}

// OpenInMemory returns a graph store over a private in-memory SQLite database.
func OpenInMemory(ctx context.Context) (GraphDB, error) {
	cfg := config.Default().Store
	cfg.BackingStoreURL = "sqlite::memory:"
	return Open(ctx, cfg, nil)
}

// CollectAll drives a paginated list call to completion.
func CollectAll[T any](list func(page pagination.Request) ([]T, string, error)) ([]T, error) {
	var all []T
	page := pagination.Request{}
	for {
		items, next, err := list(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		page.Token = next
	}
}
