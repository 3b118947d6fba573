package common

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewULID returns a lexicographically sortable id. Used for message ids so that
// id order matches insertion order within a room.
func NewULID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewToken returns an opaque session token (uuid without dashes).
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewID returns a short random id with the given resource prefix, e.g.
// NewID("post") -> "post_1a2b3c4d5e6f".
func NewID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:12]
}
