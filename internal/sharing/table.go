package sharing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

const (
	MinReaderVersion = 1
	FormatProvider   = "parquet"
)

// TableResult is the body of a metadata or query response.
type TableResult struct {
	Version  int64
	Protocol api.ProtocolAction
	Metadata api.MetadataAction
	Files    []api.FileAction
}

// Actions returns the response lines in order: protocol, metadata, then files.
func (r *TableResult) Actions() []any {
	out := make([]any, 0, 2+len(r.Files))
	out = append(out, r.Protocol, r.Metadata)
	for _, f := range r.Files {
		out = append(out, f)
	}
	return out
}

// TableVersion returns the current version of a shared table or, with
// startingTimestamp, the first version committed at or after it.
func (s *Service) TableVersion(ctx context.Context, share, schema, table string, startingTimestamp *time.Time) (int64, error) {
	var version int64
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		_, p, err := s.table(ctx, share, schema, table)
		if err != nil {
			return err
		}
		if startingTimestamp == nil {
			version = p.CurrentVersion()
			return nil
		}
		tv, err := p.VersionAt(*startingTimestamp)
		if err != nil {
			return err
		}
		version = tv.Version
		return nil
	})
	return version, err
}

// TableMetadata returns the protocol and metadata of the current table version.
func (s *Service) TableMetadata(ctx context.Context, share, schema, table string) (*TableResult, error) {
	var res *TableResult
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		t, p, err := s.table(ctx, share, schema, table)
		if err != nil {
			return err
		}
		version := p.CurrentVersion()
		files, err := p.Snapshot(version)
		if err != nil {
			return err
		}
		res, err = s.result(t, p, version, files)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// QueryTable returns the files of a table snapshot, selected by version, by
// timestamp, or the current one. With startingVersion it returns the files added
// by every version in [startingVersion, endingVersion] instead. Predicate hints are
// accepted and ignored; limitHint caps the number of files.
func (s *Service) QueryTable(ctx context.Context, share, schema, table string, req *api.QueryTableRequest) (*TableResult, error) {
	if req == nil {
		req = &api.QueryTableRequest{}
	}
	if err := validateQuery(req); err != nil {
		return nil, err
	}
	var res *TableResult
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		t, p, err := s.table(ctx, share, schema, table)
		if err != nil {
			return err
		}
		var (
			version int64
			files   []catalogmanager.SnapshotFile
		)
		if req.StartingVersion != nil {
			version, files, err = changes(p, *req.StartingVersion, req.EndingVersion)
		} else {
			version, files, err = snapshot(p, req)
		}
		if err != nil {
			return err
		}
		if req.LimitHint != nil && int64(len(files)) > *req.LimitHint {
			files = files[:*req.LimitHint]
		}
		res, err = s.result(t, p, version, files)
		if err != nil {
			return err
		}
		res.Files, err = s.fileActions(ctx, t, p, files, req.StartingVersion != nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().Str("share", share).Str("table", schema+"."+table).
		Int64("version", res.Version).Int("files", len(res.Files)).Msg("table queried")
	return res, nil
}

func validateQuery(req *api.QueryTableRequest) error {
	selectors := 0
	if req.Version != nil {
		selectors++
	}
	if req.Timestamp != "" {
		selectors++
	}
	if req.StartingVersion != nil {
		selectors++
	}
	switch {
	case selectors > 1:
		return ErrInvalidQuery.Msg("only one of version, timestamp and startingVersion may be set")
	case req.LimitHint != nil && *req.LimitHint < 0:
		return ErrInvalidQuery.Msg("limitHint must not be negative")
	case req.Version != nil && *req.Version < 0:
		return ErrInvalidQuery.Msg("version must not be negative")
	case req.StartingVersion != nil && *req.StartingVersion < 0:
		return ErrInvalidQuery.Msg("startingVersion must not be negative")
	case req.EndingVersion != nil && req.StartingVersion == nil:
		return ErrInvalidQuery.Msg("endingVersion requires startingVersion")
	case req.EndingVersion != nil && *req.EndingVersion < *req.StartingVersion:
		return ErrInvalidQuery.Msg("endingVersion must not be less than startingVersion")
	}
	return nil
}

// snapshot selects the table version a query reads and returns its live files.
func snapshot(p *catalogmanager.TableProperties, req *api.QueryTableRequest) (int64, []catalogmanager.SnapshotFile, error) {
	version := p.CurrentVersion()
	switch {
	case req.Version != nil:
		version = *req.Version
	case req.Timestamp != "":
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return 0, nil, ErrInvalidQuery.MsgErr("invalid timestamp '"+req.Timestamp+"'", err)
		}
		tv, err := p.VersionAsOf(ts)
		if err != nil {
			return 0, nil, err
		}
		version = tv.Version
	}
	files, err := p.Snapshot(version)
	if err != nil {
		return 0, nil, err
	}
	return version, files, nil
}

// changes returns the files added by the versions in [start, end].
func changes(p *catalogmanager.TableProperties, start int64, end *int64) (int64, []catalogmanager.SnapshotFile, error) {
	last := p.CurrentVersion()
	if end != nil {
		last = *end
	}
	if _, err := p.Version(start); err != nil {
		return 0, nil, err
	}
	if _, err := p.Version(last); err != nil {
		return 0, nil, err
	}
	var files []catalogmanager.SnapshotFile
	for _, tv := range p.Versions {
		if tv.Version < start || tv.Version > last {
			continue
		}
		for _, f := range tv.Add {
			files = append(files, catalogmanager.SnapshotFile{DataFile: f, Version: tv.Version, Timestamp: tv.Timestamp})
		}
	}
	return start, files, nil
}

func (s *Service) result(t *sharedTable, p *catalogmanager.TableProperties, version int64, files []catalogmanager.SnapshotFile) (*TableResult, error) {
	schema, err := schemaString(p.Columns)
	if err != nil {
		return nil, ErrInvalidStoredObject.MsgErr("unable to render schema of table "+t.table.FullName(), err)
	}
	var size int64
	for _, f := range files {
		size += f.Size
	}
	return &TableResult{
		Version:  version,
		Protocol: api.ProtocolAction{Kind: api.ActionKindProtocol, Protocol: api.Protocol{MinReaderVersion: MinReaderVersion}},
		Metadata: api.MetadataAction{Kind: api.ActionKindMetadata, MetaData: api.Metadata{
			ID:               t.table.ID.String(),
			Name:             t.name,
			Description:      p.Comment,
			Format:           api.Format{Provider: FormatProvider},
			SchemaString:     schema,
			PartitionColumns: partitionColumns(p.Columns),
			Configuration:    p.Properties,
			Version:          version,
			NumFiles:         int64(len(files)),
			Size:             size,
		}},
	}, nil
}

// fileLocation resolves a data file path against the table's storage location.
func fileLocation(storageLocation, path string) string {
	if strings.Contains(path, "://") || storageLocation == "" {
		return path
	}
	return strings.TrimSuffix(storageLocation, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (s *Service) fileActions(ctx context.Context, t *sharedTable, p *catalogmanager.TableProperties, files []catalogmanager.SnapshotFile, withVersion bool) ([]api.FileAction, error) {
	expiresAt := s.now().Add(s.opts.URLExpiration)
	out := make([]api.FileAction, 0, len(files))
	for _, f := range files {
		location := fileLocation(p.StorageLocation, f.Path)
		signed, err := s.signer.SignURL(ctx, location, expiresAt)
		if err != nil {
			return nil, err
		}
		pv := f.PartitionValues
		if pv == nil {
			pv = map[string]string{}
		}
		file := api.File{
			URL:                 signed,
			ID:                  uuid.NewSHA1(t.table.ID, []byte(f.Path)).String(),
			PartitionValues:     pv,
			Size:                f.Size,
			Stats:               f.Stats,
			ExpirationTimestamp: expiresAt.UnixMilli(),
		}
		if withVersion {
			file.Version = f.Version
			file.Timestamp = f.Timestamp
		}
		out = append(out, api.FileAction{Kind: api.ActionKindFile, File: file})
	}
	return out, nil
}

// FormatVersion renders a table version for the Delta-Table-Version header.
func FormatVersion(v int64) string {
	return strconv.FormatInt(v, 10)
}
