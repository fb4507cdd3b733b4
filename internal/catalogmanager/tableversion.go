package catalogmanager

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
)

// TableVersion is one commit in the history of a table. Version 0 is written
// when the table is created.
type TableVersion struct {
	Version   int64          `json:"version"`
	Timestamp int64          `json:"timestamp"`
	Add       []api.DataFile `json:"add,omitempty"`
	Remove    []string       `json:"remove,omitempty"`
}

// TableProperties is the stored form of a table object.
type TableProperties struct {
	TableType        string            `json:"tableType"`
	DataSourceFormat string            `json:"dataSourceFormat"`
	Columns          []api.ColumnInfo  `json:"columns,omitempty"`
	StorageLocation  string            `json:"storageLocation,omitempty"`
	Comment          string            `json:"comment,omitempty"`
	Properties       map[string]string `json:"properties,omitempty"`
	Owner            string            `json:"owner,omitempty"`
	Versions         []TableVersion    `json:"versions,omitempty"`
}

// DecodeTableProperties reads the properties of a table object.
func DecodeTableProperties(ctx context.Context, o *models.Object) (*TableProperties, error) {
	p := &TableProperties{}
	if err := unmarshalProps(ctx, o, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CurrentVersion returns the latest committed version, 0 for a table without history.
func (p *TableProperties) CurrentVersion() int64 {
	if len(p.Versions) == 0 {
		return 0
	}
	return p.Versions[len(p.Versions)-1].Version
}

// Version returns the commit with the given version number.
func (p *TableProperties) Version(v int64) (*TableVersion, error) {
	i := sort.Search(len(p.Versions), func(i int) bool { return p.Versions[i].Version >= v })
	if i == len(p.Versions) || p.Versions[i].Version != v {
		return nil, ErrTableVersionNotFound.Msg("table version " + strconv.FormatInt(v, 10) + " not found")
	}
	return &p.Versions[i], nil
}

// VersionAt returns the smallest version committed at or after ts.
func (p *TableProperties) VersionAt(ts time.Time) (*TableVersion, error) {
	ms := ts.UnixMilli()
	if ts.Nanosecond()%int(time.Millisecond) != 0 {
		ms++
	}
	i := sort.Search(len(p.Versions), func(i int) bool { return p.Versions[i].Timestamp >= ms })
	if i == len(p.Versions) {
		return nil, ErrTableVersionNotFound.Msg("no table version committed at or after " + ts.UTC().Format(time.RFC3339))
	}
	return &p.Versions[i], nil
}

// VersionAsOf returns the latest version committed at or before ts.
func (p *TableProperties) VersionAsOf(ts time.Time) (*TableVersion, error) {
	ms := ts.UnixMilli()
	i := sort.Search(len(p.Versions), func(i int) bool { return p.Versions[i].Timestamp > ms })
	if i == 0 {
		return nil, ErrTableVersionNotFound.Msg("no table version committed at or before " + ts.UTC().Format(time.RFC3339))
	}
	return &p.Versions[i-1], nil
}

// SnapshotFile is a live data file together with the commit that added it.
type SnapshotFile struct {
	api.DataFile
	Version   int64
	Timestamp int64
}

// Snapshot returns the data files live at version v in the order they were added.
func (p *TableProperties) Snapshot(v int64) ([]SnapshotFile, error) {
	if _, err := p.Version(v); err != nil {
		return nil, err
	}
	live := map[string]int{}
	var files []SnapshotFile
	for _, tv := range p.Versions {
		if tv.Version > v {
			break
		}
		for _, path := range tv.Remove {
			if i, ok := live[path]; ok {
				files[i].Path = ""
				delete(live, path)
			}
		}
		for _, f := range tv.Add {
			if i, ok := live[f.Path]; ok {
				files[i].Path = ""
			}
			live[f.Path] = len(files)
			files = append(files, SnapshotFile{DataFile: f, Version: tv.Version, Timestamp: tv.Timestamp})
		}
	}
	out := files[:0]
	for _, f := range files {
		if f.Path != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// commit appends a new version. Removed paths must be live in the current version.
func (p *TableProperties) commit(at time.Time, add []api.DataFile, remove []string) (*TableVersion, error) {
	next := TableVersion{Version: 0, Timestamp: at.UnixMilli(), Add: add, Remove: remove}
	if n := len(p.Versions); n > 0 {
		last := p.Versions[n-1]
		next.Version = last.Version + 1
		if next.Timestamp <= last.Timestamp {
			next.Timestamp = last.Timestamp + 1
		}
		if len(remove) > 0 {
			files, err := p.Snapshot(last.Version)
			if err != nil {
				return nil, err
			}
			live := make(map[string]struct{}, len(files))
			for _, f := range files {
				live[f.Path] = struct{}{}
			}
			for _, path := range remove {
				if _, ok := live[path]; !ok {
					return nil, ErrFileNotInSnapshot.Msg("file '" + path + "' is not part of table version " + strconv.FormatInt(last.Version, 10))
				}
			}
		}
	} else if len(remove) > 0 {
		return nil, ErrFileNotInSnapshot.Msg("table has no files to remove")
	}
	p.Versions = append(p.Versions, next)
	return &p.Versions[len(p.Versions)-1], nil
}
