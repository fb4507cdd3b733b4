// Package bootstrap seeds a catalog from a declarative file. Seeding is
// idempotent: objects that already exist are left as they are, share members
// already present are not added again and grants are reapplied.
package bootstrap

import (
	"context"

	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
	"github.com/mugiliam/unitycatalogsrv/internal/catalogmanager"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type Report struct {
	Created int
	Skipped int
	// Tokens holds the bearer token of every recipient created by this run.
	Tokens map[string]string
}

type seeder struct {
	m      *catalogmanager.Managers
	report *Report
}

// Apply creates the objects of seed in dependency order: credentials, external
// locations, catalogs with their schemas, tables and volumes, shares, then
// recipients with their grants.
func Apply(ctx context.Context, m *catalogmanager.Managers, seed *Seed) (*Report, error) {
	s := &seeder{m: m, report: &Report{Tokens: map[string]string{}}}
	for i := range seed.Credentials {
		req := &seed.Credentials[i]
		if err := s.create(ctx, "credential", req.Name, func() error {
			_, err := m.Credentials.Create(ctx, req)
			return err
		}); err != nil {
			return s.report, err
		}
	}
	for i := range seed.ExternalLocations {
		req := &seed.ExternalLocations[i]
		if err := s.create(ctx, "external_location", req.Name, func() error {
			_, err := m.ExternalLocations.Create(ctx, req)
			return err
		}); err != nil {
			return s.report, err
		}
	}
	for i := range seed.Catalogs {
		if err := s.catalog(ctx, &seed.Catalogs[i]); err != nil {
			return s.report, err
		}
	}
	for i := range seed.Shares {
		if err := s.share(ctx, &seed.Shares[i]); err != nil {
			return s.report, err
		}
	}
	for i := range seed.Recipients {
		if err := s.recipient(ctx, &seed.Recipients[i]); err != nil {
			return s.report, err
		}
	}
	log.Ctx(ctx).Info().Int("created", s.report.Created).Int("skipped", s.report.Skipped).Msg("seed applied")
	return s.report, nil
}

// create runs fn and counts an AlreadyExists failure as skipped.
func (s *seeder) create(ctx context.Context, kind, name string, fn func() error) error {
	err := fn()
	switch {
	case err == nil:
		s.report.Created++
		log.Ctx(ctx).Debug().Str("kind", kind).Str("name", name).Msg("created")
		return nil
	case apperrors.KindOf(err) == apperrors.KindAlreadyExists:
		s.report.Skipped++
		log.Ctx(ctx).Debug().Str("kind", kind).Str("name", name).Msg("exists, skipped")
		return nil
	}
	log.Ctx(ctx).Error().Err(err).Str("kind", kind).Str("name", name).Msg("unable to seed")
	return err
}

func (s *seeder) catalog(ctx context.Context, c *CatalogSeed) error {
	if err := s.create(ctx, "catalog", c.Name, func() error {
		_, err := s.m.Catalogs.Create(ctx, &c.CreateCatalogRequest)
		return err
	}); err != nil {
		return err
	}
	for i := range c.Schemas {
		sc := &c.Schemas[i]
		if err := s.create(ctx, "schema", c.Name+"."+sc.Name, func() error {
			_, err := s.m.Schemas.Create(ctx, &sc.CreateSchemaRequest)
			return err
		}); err != nil {
			return err
		}
		for j := range sc.Tables {
			t := &sc.Tables[j]
			if err := s.create(ctx, "table", c.Name+"."+sc.Name+"."+t.Name, func() error {
				_, err := s.m.Tables.Create(ctx, t)
				return err
			}); err != nil {
				return err
			}
		}
		for j := range sc.Volumes {
			v := &sc.Volumes[j]
			if err := s.create(ctx, "volume", c.Name+"."+sc.Name+"."+v.Name, func() error {
				_, err := s.m.Volumes.Create(ctx, v)
				return err
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) share(ctx context.Context, sh *ShareSeed) error {
	if err := s.create(ctx, "share", sh.Name, func() error {
		_, err := s.m.Shares.Create(ctx, &sh.CreateShareRequest)
		return err
	}); err != nil {
		return err
	}
	info, err := s.m.Shares.Get(ctx, sh.Name, true)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(info.DataObjects))
	for _, do := range info.DataObjects {
		present[do.Name] = true
	}
	var updates []api.DataObjectUpdate
	for _, do := range sh.Objects {
		if present[do.Name] {
			s.report.Skipped++
			continue
		}
		updates = append(updates, api.DataObjectUpdate{Action: api.DataObjectActionAdd, DataObject: do})
	}
	if len(updates) == 0 {
		return nil
	}
	if _, err := s.m.Shares.Update(ctx, sh.Name, &api.UpdateShareRequest{Updates: updates}); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("share", sh.Name).Msg("unable to add share members")
		return err
	}
	s.report.Created += len(updates)
	return nil
}

func (s *seeder) recipient(ctx context.Context, r *RecipientSeed) error {
	if err := s.create(ctx, "recipient", r.Name, func() error {
		info, err := s.m.Recipients.Create(ctx, &r.CreateRecipientRequest)
		if err != nil {
			return err
		}
		for _, t := range info.Tokens {
			if t.BearerToken != "" {
				s.report.Tokens[r.Name] = t.BearerToken
			}
		}
		return nil
	}); err != nil {
		return err
	}
	for _, share := range r.Shares {
		_, err := s.m.Shares.UpdatePermissions(ctx, share, &api.UpdateSharePermissionsRequest{
			Changes: []api.PermissionsChange{{Principal: r.Name, Add: []string{api.PrivilegeSelect}}},
		})
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("recipient", r.Name).Str("share", share).Msg("unable to grant share")
			return err
		}
	}
	return nil
}
