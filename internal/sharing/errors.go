package sharing

import (
	"github.com/mugiliam/unitycatalogsrv/internal/apperrors"
)

var (
	ErrSharingError apperrors.Error = apperrors.New("error in serving shared data")

	ErrShareNotFound       apperrors.Error = apperrors.ErrNotFound.New("share not found")
	ErrSchemaNotFound      apperrors.Error = apperrors.ErrNotFound.New("schema not found in share")
	ErrTableNotFound       apperrors.Error = apperrors.ErrNotFound.New("table not found in share")
	ErrInvalidQuery        apperrors.Error = apperrors.ErrInvalid.New("invalid table query")
	ErrUnsupportedFormat   apperrors.Error = apperrors.ErrInvalid.New("unsupported response format")
	ErrInvalidSignature    apperrors.Error = apperrors.ErrPermissionDenied.New("invalid url signature")
	ErrExpiredSignature    apperrors.Error = ErrInvalidSignature.New("url signature expired")
	ErrUnableToSign        apperrors.Error = ErrSharingError.New("unable to sign file url").SetKind(apperrors.KindInternal)
	ErrInvalidStoredObject apperrors.Error = ErrSharingError.New("stored object has an invalid format").SetKind(apperrors.KindInternal)
)
