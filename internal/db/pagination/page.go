package pagination

import (
	"time"

	"github.com/google/uuid"
)

const DefaultMaxPageSize = 1000

// Request is the paging part of a list call.
type Request struct {
	Token   string
	MaxSize int
}

// Limits clamps requested page sizes to a configured maximum.
type Limits struct {
	MaxPageSize int
}

// PageSize returns the effective page size for requested. Zero or negative
// requests get the maximum.
func (l Limits) PageSize(requested int) int {
	max := l.MaxPageSize
	if max <= 0 {
		max = DefaultMaxPageSize
	}
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}

// NextToken returns the token for the page following items, or "" when the page
// was not full and the stream has ended. key extracts the position of an item.
func NextToken[T any](items []T, pageSize int, key func(T) (time.Time, uuid.UUID)) (string, error) {
	if pageSize <= 0 || len(items) < pageSize {
		return "", nil
	}
	createdAt, id := key(items[len(items)-1])
	return After(createdAt, id).Encode()
}
