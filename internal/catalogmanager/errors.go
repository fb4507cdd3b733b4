package catalogmanager

import (
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
)

var (
	ErrCatalogError apperrors.Error = apperrors.New("error in processing request")

	ErrInvalidRequest   apperrors.Error = apperrors.ErrInvalid.New("invalid request").SetExpandError(true)
	ErrInvalidPageToken apperrors.Error = ErrInvalidRequest.New("invalid page token")
	ErrInvalidAction    apperrors.Error = ErrInvalidRequest.New("invalid data object action")

	ErrCatalogNotFound          apperrors.Error = apperrors.ErrNotFound.New("catalog not found")
	ErrSchemaNotFound           apperrors.Error = apperrors.ErrNotFound.New("schema not found")
	ErrTableNotFound            apperrors.Error = apperrors.ErrNotFound.New("table not found")
	ErrVolumeNotFound           apperrors.Error = apperrors.ErrNotFound.New("volume not found")
	ErrCredentialNotFound       apperrors.Error = apperrors.ErrNotFound.New("credential not found")
	ErrExternalLocationNotFound apperrors.Error = apperrors.ErrNotFound.New("external location not found")
	ErrShareNotFound            apperrors.Error = apperrors.ErrNotFound.New("share not found")
	ErrRecipientNotFound        apperrors.Error = apperrors.ErrNotFound.New("recipient not found")
	ErrTableVersionNotFound     apperrors.Error = apperrors.ErrNotFound.New("table version not found")
	ErrSecretNotFound           apperrors.Error = apperrors.ErrNotFound.New("credential has no secret")
	ErrNotShareMember           apperrors.Error = apperrors.ErrNotFound.New("data object is not part of the share")

	ErrAlreadyExists       apperrors.Error = apperrors.ErrAlreadyExists.New("object already exists")
	ErrAlreadyShareMember  apperrors.Error = ErrAlreadyExists.New("data object is already part of the share")
	ErrSharedAsCollision   apperrors.Error = ErrAlreadyExists.New("shared name is already used in the share")
	ErrForceRequired       apperrors.Error = apperrors.ErrFailedPrecondition.New("resource is not empty; use force to delete")
	ErrCredentialPurpose   apperrors.Error = apperrors.ErrFailedPrecondition.New("credential cannot be used for storage")
	ErrNotTokenRecipient   apperrors.Error = apperrors.ErrFailedPrecondition.New("recipient does not use token authentication")
	ErrFileNotInSnapshot   apperrors.Error = apperrors.ErrFailedPrecondition.New("file is not part of the current table version")
	ErrUnableToLoadObject  apperrors.Error = ErrCatalogError.New("unable to load object").SetKind(apperrors.KindInternal)
	ErrInvalidObjectFormat apperrors.Error = ErrCatalogError.New("stored object has an invalid format").SetKind(apperrors.KindInternal)
	ErrSecretSeal          apperrors.Error = ErrCatalogError.New("unable to seal credential secret").SetKind(apperrors.KindInternal)
	ErrSecretUnreadable    apperrors.Error = ErrCatalogError.New("unable to open credential secret").SetKind(apperrors.KindInternal)
)
