package store

import (
	"context"
	"errors"
	"time"

	"github.com/chronicle-hq/chronicle/internal/models"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: conflict")
)

// Store is the record store behind the whole API. Two implementations exist:
// an ephemeral map-based one for development and a gorm-backed one for
// production. The backend is picked once at startup; nothing above this
// interface knows which one is active.
//
// AppendMessage must be effectively atomic per room: no two messages in the
// same room may receive the same sequence number.
type Store interface {
	// users & sessions
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// rooms
	CreateRoom(ctx context.Context, r *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context, limit int) ([]models.Room, error)
	CountMessageAuthors(ctx context.Context, roomID string) (int64, error)
	RecentAuthors(ctx context.Context, roomID string, since time.Time) ([]string, error)

	// messages (append-only; store assigns Seq)
	AppendMessage(ctx context.Context, m *models.Message) error
	// ListMessages pages by sequence number: afterSeq == 0 returns the last
	// `limit` messages, otherwise messages with Seq > afterSeq, oldest first.
	ListMessages(ctx context.Context, roomID string, afterSeq uint64, limit int) ([]models.Message, error)
	// ListUserMessagesAfter returns the author's messages with creation time
	// strictly after t, oldest first.
	ListUserMessagesAfter(ctx context.Context, roomID, author string, t time.Time) ([]models.Message, error)

	// posts
	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, roomID, postID string) (*models.Post, error)
	ListPosts(ctx context.Context, roomID string, limit int) ([]models.Post, error)
	IncrementPostViews(ctx context.Context, roomID, postID string) error

	// comments
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, postID, commentID, content string) (*models.Comment, error)
	// SoftDeleteComment flags the comment and decrements the post's comment
	// count, floored at zero. Deleting an already-deleted comment is a no-op.
	SoftDeleteComment(ctx context.Context, postID, commentID string) (*models.Comment, error)
	LikeComment(ctx context.Context, postID, commentID string) (*models.Comment, error)

	// room category presets
	ListCategories(ctx context.Context, roomID string) ([]string, error)
	AddCategory(ctx context.Context, roomID, name string) ([]string, error)
	RemoveCategory(ctx context.Context, roomID, name string) ([]string, error)

	// AI sync cursor, keyed by (room, user). The cursor never moves backward.
	GetSyncCursor(ctx context.Context, roomID, userID string) (time.Time, bool, error)
	RecordSync(ctx context.Context, roomID, userID string, at time.Time) error
	// HasRoomSync reports whether any user has ever synced the room.
	HasRoomSync(ctx context.Context, roomID string) (bool, error)
}
