package catalogmanager

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/db"
	"github.com/mugiliam/unitycatalogsrv/internal/db/models"
	"github.com/mugiliam/unitycatalogsrv/internal/db/pagination"
	"github.com/mugiliam/unitycatalogsrv/internal/resolver"
	"github.com/mugiliam/unitycatalogsrv/pkg/api"
	"github.com/rs/zerolog/log"
)

type shareProps struct {
	Comment string `json:"comment,omitempty"`
	Owner   string `json:"owner,omitempty"`
}

// ShareMember is stored on a share_contains edge and its inverse.
type ShareMember struct {
	DataObjectType string `json:"dataObjectType"`
	SharedAs       string `json:"sharedAs"`
	Comment        string `json:"comment,omitempty"`
	AddedAt        int64  `json:"addedAt"`
	AddedBy        string `json:"addedBy,omitempty"`
}

// DecodeShareMember reads the member record of a share_contains edge.
func DecodeShareMember(a *models.Association) (*ShareMember, error) {
	sm := &ShareMember{}
	if err := a.UnmarshalProperties(sm); err != nil {
		return nil, ErrInvalidObjectFormat.MsgErr("invalid share member "+a.ID.String(), err)
	}
	return sm, nil
}

// SharedAsSegments returns the number of segments a shared name has for a data object type.
func SharedAsSegments(dataObjectType string) int {
	if dataObjectType == api.DataObjectTypeSchema {
		return 1
	}
	return 2
}

type ShareManager struct {
	*base
}

func (m *ShareManager) fetch(ctx context.Context, name string) (*models.Object, error) {
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelShare, resolver.ByName(name)))
	if err != nil {
		return nil, translate(err, ErrShareNotFound, "share '"+name+"' not found")
	}
	return o, nil
}

func (m *ShareManager) toInfo(ctx context.Context, o *models.Object, members []shareMember) (*api.ShareInfo, error) {
	var p shareProps
	if err := unmarshalProps(ctx, o, &p); err != nil {
		return nil, err
	}
	info := &api.ShareInfo{
		ID:          o.ID.String(),
		Name:        o.Leaf(),
		Comment:     p.Comment,
		Owner:       p.Owner,
		DataObjects: []api.DataObject{},
		CreatedAt:   millis(o.CreatedAt),
		UpdatedAt:   millis(o.UpdatedAt),
	}
	for _, sm := range members {
		info.DataObjects = append(info.DataObjects, api.DataObject{
			Name:           sm.target.FullName(),
			DataObjectType: sm.DataObjectType,
			SharedAs:       sm.SharedAs,
			Comment:        sm.Comment,
			AddedAt:        sm.AddedAt,
			AddedBy:        sm.AddedBy,
		})
	}
	return info, nil
}

type shareMember struct {
	ShareMember
	target *models.Object
}

// members loads every data object of the share, newest first.
func (m *ShareManager) members(ctx context.Context, shareID uuid.UUID) ([]shareMember, error) {
	edges, err := m.children(ctx, shareID, models.AssocShareContains, "")
	if err != nil {
		return nil, err
	}
	out := make([]shareMember, 0, len(edges))
	for i := range edges {
		sm, err := DecodeShareMember(&edges[i])
		if err != nil {
			return nil, err
		}
		target, err := m.db.GetObject(ctx, edges[i].ToID)
		if err != nil {
			return nil, err
		}
		out = append(out, shareMember{ShareMember: *sm, target: target})
	}
	return out, nil
}

func (m *ShareManager) Create(ctx context.Context, req *api.CreateShareRequest) (*api.ShareInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	props, err := marshalProps(ctx, shareProps{Comment: req.Comment, Owner: req.Owner})
	if err != nil {
		return nil, err
	}
	var info *api.ShareInfo
	err = m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.db.AddObject(ctx, models.LabelShare, []string{req.Name}, props)
		if err != nil {
			return conflict(err, "share '"+req.Name+"' already exists")
		}
		info, err = m.toInfo(ctx, o, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("share", req.Name).Msg("share created")
	return info, nil
}

// Get returns the share, with its data objects when includeSharedData is set.
func (m *ShareManager) Get(ctx context.Context, name string, includeSharedData bool) (*api.ShareInfo, error) {
	var info *api.ShareInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var members []shareMember
		if includeSharedData {
			if members, err = m.members(ctx, o.ID); err != nil {
				return err
			}
		}
		info, err = m.toInfo(ctx, o, members)
		return err
	})
	return info, err
}

func (m *ShareManager) List(ctx context.Context, opts ListOptions) (*api.ListSharesResponse, error) {
	rsp := &api.ListSharesResponse{Shares: []api.ShareInfo{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		objs, next, err := m.db.ListObjects(ctx, models.LabelShare, nil, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for i := range objs {
			info, err := m.toInfo(ctx, &objs[i], nil)
			if err != nil {
				return err
			}
			rsp.Shares = append(rsp.Shares, *info)
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// memberSet tracks share membership while an update is applied.
type memberSet struct {
	byTarget   map[uuid.UUID]ShareMember
	bySharedAs map[string]uuid.UUID
}

func sharedAsKey(dataObjectType, sharedAs string) string {
	return dataObjectType + ":" + sharedAs
}

func newMemberSet(members []shareMember) *memberSet {
	ms := &memberSet{
		byTarget:   make(map[uuid.UUID]ShareMember, len(members)),
		bySharedAs: make(map[string]uuid.UUID, len(members)),
	}
	for _, sm := range members {
		ms.put(sm.target.ID, sm.ShareMember)
	}
	return ms
}

func (ms *memberSet) put(id uuid.UUID, sm ShareMember) {
	ms.byTarget[id] = sm
	ms.bySharedAs[sharedAsKey(sm.DataObjectType, sm.SharedAs)] = id
}

func (ms *memberSet) remove(id uuid.UUID) {
	if sm, ok := ms.byTarget[id]; ok {
		delete(ms.bySharedAs, sharedAsKey(sm.DataObjectType, sm.SharedAs))
		delete(ms.byTarget, id)
	}
}

// resolveDataObject finds the table or schema a data object names. The type is
// inferred from the number of name segments when not given.
func (m *ShareManager) resolveDataObject(ctx context.Context, do *api.DataObject) (*models.Object, string, error) {
	name := strings.Split(do.Name, ".")
	objType := do.DataObjectType
	if objType == "" {
		switch len(name) {
		case 3:
			objType = api.DataObjectTypeTable
		case 2:
			objType = api.DataObjectTypeSchema
		default:
			return nil, "", ErrInvalidRequest.Msg("cannot infer the type of data object '" + do.Name + "'")
		}
	}
	label, notFound := models.LabelTable, ErrTableNotFound
	if objType == api.DataObjectTypeSchema {
		label, notFound = models.LabelSchema, ErrSchemaNotFound
	}
	o, err := resolver.Fetch(ctx, m.db, resolver.Ident(label, resolver.ByName(name...)))
	if err != nil {
		return nil, "", translate(err, notFound, strings.ToLower(objType)+" '"+do.Name+"' not found")
	}
	return o, objType, nil
}

func validateSharedAs(objType, sharedAs string) error {
	segs := strings.Split(sharedAs, ".")
	if len(segs) != SharedAsSegments(objType) {
		return ErrInvalidRequest.Msg("invalid sharedAs '" + sharedAs + "' for " + strings.ToLower(objType))
	}
	for _, s := range segs {
		if !resolver.ValidSegment(s) {
			return ErrInvalidRequest.Msg("invalid sharedAs '" + sharedAs + "'")
		}
	}
	return nil
}

func (m *ShareManager) addMember(ctx context.Context, share *models.Object, ms *memberSet, do *api.DataObject) error {
	target, objType, err := m.resolveDataObject(ctx, do)
	if err != nil {
		return err
	}
	if _, ok := ms.byTarget[target.ID]; ok {
		return ErrAlreadyShareMember.Msg("'" + do.Name + "' is already part of share '" + share.Leaf() + "'")
	}
	sharedAs := do.SharedAs
	if sharedAs == "" {
		sharedAs = resolver.FullName(target.Name[1:]...)
	}
	if err := validateSharedAs(objType, sharedAs); err != nil {
		return err
	}
	if _, ok := ms.bySharedAs[sharedAsKey(objType, sharedAs)]; ok {
		return ErrSharedAsCollision.Msg("'" + sharedAs + "' is already used in share '" + share.Leaf() + "'")
	}
	sm := ShareMember{
		DataObjectType: objType,
		SharedAs:       sharedAs,
		Comment:        do.Comment,
		AddedAt:        m.now().UnixMilli(),
		AddedBy:        do.AddedBy,
	}
	props, err := marshalProps(ctx, sm)
	if err != nil {
		return err
	}
	if _, err := m.db.AddAssociation(ctx, share.ID, models.AssocShareContains, target.ID, props); err != nil {
		return conflict(err, "'"+do.Name+"' is already part of share '"+share.Leaf()+"'")
	}
	ms.put(target.ID, sm)
	return nil
}

func (m *ShareManager) removeMember(ctx context.Context, share *models.Object, ms *memberSet, do *api.DataObject) error {
	target, _, err := m.resolveDataObject(ctx, do)
	if err != nil {
		return err
	}
	if _, ok := ms.byTarget[target.ID]; !ok {
		return ErrNotShareMember.Msg("'" + do.Name + "' is not part of share '" + share.Leaf() + "'")
	}
	if err := m.db.DeleteAssociation(ctx, share.ID, models.AssocShareContains, target.ID); err != nil {
		return err
	}
	ms.remove(target.ID)
	return nil
}

// updateMember replaces the member record; edges are never updated in place.
func (m *ShareManager) updateMember(ctx context.Context, share *models.Object, ms *memberSet, do *api.DataObject) error {
	target, _, err := m.resolveDataObject(ctx, do)
	if err != nil {
		return err
	}
	sm, ok := ms.byTarget[target.ID]
	if !ok {
		return ErrNotShareMember.Msg("'" + do.Name + "' is not part of share '" + share.Leaf() + "'")
	}
	if do.SharedAs != "" && do.SharedAs != sm.SharedAs {
		if err := validateSharedAs(sm.DataObjectType, do.SharedAs); err != nil {
			return err
		}
		if _, ok := ms.bySharedAs[sharedAsKey(sm.DataObjectType, do.SharedAs)]; ok {
			return ErrSharedAsCollision.Msg("'" + do.SharedAs + "' is already used in share '" + share.Leaf() + "'")
		}
	}
	ms.remove(target.ID)
	if do.SharedAs != "" {
		sm.SharedAs = do.SharedAs
	}
	if do.Comment != "" {
		sm.Comment = do.Comment
	}
	props, err := marshalProps(ctx, sm)
	if err != nil {
		return err
	}
	if err := m.db.DeleteAssociation(ctx, share.ID, models.AssocShareContains, target.ID); err != nil {
		return err
	}
	if _, err := m.db.AddAssociation(ctx, share.ID, models.AssocShareContains, target.ID, props); err != nil {
		return err
	}
	ms.put(target.ID, sm)
	return nil
}

// Update renames the share and changes its comment and owner, then applies the
// data object updates in order. The whole call is one transaction: a failing
// update leaves the share as it was.
func (m *ShareManager) Update(ctx context.Context, name string, req *api.UpdateShareRequest) (*api.ShareInfo, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var info *api.ShareInfo
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		share, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		var p shareProps
		if err := unmarshalProps(ctx, share, &p); err != nil {
			return err
		}
		p.Comment = req.Comment.Apply(p.Comment)
		p.Owner = req.Owner.Apply(p.Owner)
		props, err := marshalProps(ctx, p)
		if err != nil {
			return err
		}
		upd := db.ObjectUpdate{Properties: props}
		if req.NewName != "" && req.NewName != name {
			upd.Name = []string{req.NewName}
		}
		if share, err = m.db.UpdateObject(ctx, share.ID, upd); err != nil {
			return conflict(err, "share '"+req.NewName+"' already exists")
		}

		current, err := m.members(ctx, share.ID)
		if err != nil {
			return err
		}
		ms := newMemberSet(current)
		for i := range req.Updates {
			u := &req.Updates[i]
			switch u.Action {
			case api.DataObjectActionAdd:
				err = m.addMember(ctx, share, ms, &u.DataObject)
			case api.DataObjectActionRemove:
				err = m.removeMember(ctx, share, ms, &u.DataObject)
			case api.DataObjectActionUpdate:
				err = m.updateMember(ctx, share, ms, &u.DataObject)
			default:
				err = ErrInvalidAction.Msg("unknown action '" + u.Action + "'")
			}
			if err != nil {
				log.Ctx(ctx).Info().Err(err).Str("share", share.Leaf()).Int("update", i).Msg("share update rejected")
				return err
			}
		}

		members, err := m.members(ctx, share.ID)
		if err != nil {
			return err
		}
		info, err = m.toInfo(ctx, share, members)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (m *ShareManager) Delete(ctx context.Context, name string) error {
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		return m.db.DeleteObject(ctx, o.ID)
	})
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("share", name).Msg("share deleted")
	return nil
}

// GetPermissions lists the recipients that can read the share.
func (m *ShareManager) GetPermissions(ctx context.Context, name string, opts ListOptions) (*api.GetSharePermissionsResponse, error) {
	rsp := &api.GetSharePermissionsResponse{PrivilegeAssignments: []api.PrivilegeAssignment{}}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		o, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		edges, next, err := m.db.ListAssociations(ctx, o.ID, models.AssocAccessibleBy, models.LabelRecipient, opts.page())
		if err != nil {
			return translate(err, nil, "")
		}
		for _, e := range edges {
			r, err := m.db.GetObject(ctx, e.ToID)
			if err != nil {
				return err
			}
			rsp.PrivilegeAssignments = append(rsp.PrivilegeAssignments, api.PrivilegeAssignment{
				Principal:  r.Leaf(),
				Privileges: []string{api.PrivilegeSelect},
			})
		}
		rsp.NextPageToken = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rsp, nil
}

// UpdatePermissions grants or revokes SELECT for recipients. Granting an existing
// grant or revoking a missing one is a no-op.
func (m *ShareManager) UpdatePermissions(ctx context.Context, name string, req *api.UpdateSharePermissionsRequest) (*api.GetSharePermissionsResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	err := m.db.InTx(ctx, func(ctx context.Context) error {
		share, err := m.fetch(ctx, name)
		if err != nil {
			return err
		}
		for _, c := range req.Changes {
			r, err := resolver.Fetch(ctx, m.db, resolver.Ident(models.LabelRecipient, resolver.ByName(c.Principal)))
			if err != nil {
				return translate(err, ErrRecipientNotFound, "recipient '"+c.Principal+"' not found")
			}
			granted, _, err := m.db.GetAssociations(ctx, r.ID, models.AssocCanAccess, []uuid.UUID{share.ID}, pagination.Request{})
			if err != nil {
				return err
			}
			if len(c.Add) > 0 && len(granted) == 0 {
				if _, err := m.db.AddAssociation(ctx, r.ID, models.AssocCanAccess, share.ID, nil); err != nil {
					return err
				}
				granted = []models.Association{{}}
			}
			if len(c.Remove) > 0 && len(granted) > 0 {
				if err := m.db.DeleteAssociation(ctx, r.ID, models.AssocCanAccess, share.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("share", name).Int("changes", len(req.Changes)).Msg("share permissions updated")
	return m.GetPermissions(ctx, name, ListOptions{})
}
