package models

// ObjectLabel identifies the kind of an object.
type ObjectLabel string

const (
	LabelCatalog          ObjectLabel = "catalog"
	LabelSchema           ObjectLabel = "schema"
	LabelTable            ObjectLabel = "table"
	LabelColumn           ObjectLabel = "column"
	LabelVolume           ObjectLabel = "volume"
	LabelCredential       ObjectLabel = "credential"
	LabelCredentialSecret ObjectLabel = "credential_secret"
	LabelExternalLocation ObjectLabel = "external_location"
	LabelShare            ObjectLabel = "share"
	LabelRecipient        ObjectLabel = "recipient"
	LabelRecipientToken   ObjectLabel = "recipient_token"
)

var objectLabels = map[ObjectLabel]struct{}{
	LabelCatalog:          {},
	LabelSchema:           {},
	LabelTable:            {},
	LabelColumn:           {},
	LabelVolume:           {},
	LabelCredential:       {},
	LabelCredentialSecret: {},
	LabelExternalLocation: {},
	LabelShare:            {},
	LabelRecipient:        {},
	LabelRecipientToken:   {},
}

func (l ObjectLabel) Valid() bool {
	_, ok := objectLabels[l]
	return ok
}

func (l ObjectLabel) String() string {
	return string(l)
}

// AssociationLabel identifies the kind of an association.
type AssociationLabel string

const (
	AssocParentOf      AssociationLabel = "parent_of"
	AssocChildOf       AssociationLabel = "child_of"
	AssocOwnerOf       AssociationLabel = "owner_of"
	AssocOwnedBy       AssociationLabel = "owned_by"
	AssocHasPart       AssociationLabel = "has_part"
	AssocPartOf        AssociationLabel = "part_of"
	AssocDependsOn     AssociationLabel = "depends_on"
	AssocDependencyOf  AssociationLabel = "dependency_of"
	AssocReferences    AssociationLabel = "references"
	AssocReferencedBy  AssociationLabel = "referenced_by"
	AssocShareContains AssociationLabel = "share_contains"
	AssocSharedVia     AssociationLabel = "shared_via"
	AssocCanAccess     AssociationLabel = "can_access"
	AssocAccessibleBy  AssociationLabel = "accessible_by"
)

// inverseLabels is the frozen catalog of declared inverses. Every entry is symmetric.
var inverseLabels = map[AssociationLabel]AssociationLabel{
	AssocParentOf:      AssocChildOf,
	AssocChildOf:       AssocParentOf,
	AssocOwnerOf:       AssocOwnedBy,
	AssocOwnedBy:       AssocOwnerOf,
	AssocHasPart:       AssocPartOf,
	AssocPartOf:        AssocHasPart,
	AssocDependsOn:     AssocDependencyOf,
	AssocDependencyOf:  AssocDependsOn,
	AssocReferences:    AssocReferencedBy,
	AssocReferencedBy:  AssocReferences,
	AssocShareContains: AssocSharedVia,
	AssocSharedVia:     AssocShareContains,
	AssocCanAccess:     AssocAccessibleBy,
	AssocAccessibleBy:  AssocCanAccess,
}

func (l AssociationLabel) Valid() bool {
	_, ok := inverseLabels[l]
	return ok
}

// Inverse returns the declared inverse of l, if any.
func (l AssociationLabel) Inverse() (AssociationLabel, bool) {
	inv, ok := inverseLabels[l]
	return inv, ok
}

func (l AssociationLabel) String() string {
	return string(l)
}

// AssociationLabels returns every known association label.
func AssociationLabels() []AssociationLabel {
	labels := make([]AssociationLabel, 0, len(inverseLabels))
	for l := range inverseLabels {
		labels = append(labels, l)
	}
	return labels
}
