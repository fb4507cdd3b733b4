// Package pagination implements the self-describing page tokens used by every list
// operation. A token encodes the position of the last item returned; it carries no
// server-side state.
package pagination

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/mugiliam/unitycatalogsrv/internal/db/dberror"
)

const (
	// V1 cursors encode {v, created_at, id}.
	V1 = 1

	CurrentVersion = V1
)

// Cursor is the decoded position of a paginated scan. The next page holds items with id < ID.
type Cursor struct {
	Version   int
	CreatedAt time.Time
	ID        uuid.UUID
}

type cursorV1 struct {
	V         int    `json:"v"`
	CreatedAt string `json:"created_at"`
	ID        string `json:"id"`
}

// After returns a V1 cursor positioned after the item (createdAt, id).
func After(createdAt time.Time, id uuid.UUID) Cursor {
	return Cursor{Version: V1, CreatedAt: createdAt, ID: id}
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() (string, error) {
	if c.Version != V1 {
		return "", dberror.ErrInvalidCursor.Msg("unsupported page token version")
	}
	raw, err := json.Marshal(cursorV1{
		V:         c.Version,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        c.ID.String(),
	})
	if err != nil {
		return "", dberror.ErrDatabase.MsgErr("unable to encode page token", err)
	}
	return base64.RawURLEncoding.EncodeToString(snappy.Encode(nil, raw)), nil
}

// Decode parses a token produced by Encode. Anything else, including tokens of an
// unknown version, is rejected as invalid.
func Decode(token string) (Cursor, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	var probe struct {
		V int `json:"v"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	if probe.V != V1 {
		return Cursor{}, dberror.ErrInvalidCursor.Msg("unsupported page token version")
	}

	var c cursorV1
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, c.CreatedAt)
	if err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return Cursor{}, dberror.ErrInvalidCursor.Err(err)
	}
	return Cursor{Version: c.V, CreatedAt: createdAt, ID: id}, nil
}

// DecodeOptional decodes token, treating the empty string as "start of stream".
func DecodeOptional(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	c, err := Decode(token)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
