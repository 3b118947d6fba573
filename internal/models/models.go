package models

import "time"

type User struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(64);not null" json:"name"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Session maps an opaque cookie token to a user. Carries no other state.
type Session struct {
	Token     string    `gorm:"type:varchar(64);primaryKey" json:"-"`
	UserID    string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityInvite  Visibility = "invite"
)

// Room is immutable after creation except for its category presets, which live
// in their own table.
type Room struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(128);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	Rules       string     `gorm:"type:text" json:"rules,omitempty"`
	Visibility  Visibility `gorm:"type:varchar(16);not null;default:public" json:"visibility"`
	Starred     bool       `json:"starred"`
	// LastSeq backs per-room sequence assignment; only the store touches it.
	LastSeq   uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Room) TableName() string { return "rooms" }

type MessageKind string

const (
	KindUser    MessageKind = "user"
	KindAI      MessageKind = "ai"
	KindSummary MessageKind = "summary"
	KindSystem  MessageKind = "system"
)

// Message is append-only. Seq is strictly increasing and unique within a room
// and is the cursor for message pagination.
type Message struct {
	ID        string      `gorm:"type:varchar(26);primaryKey" json:"id"`
	RoomID    string      `gorm:"type:varchar(64);not null;index:uniq_room_seq,unique,priority:1" json:"room_id"`
	Seq       uint64      `gorm:"not null;index:uniq_room_seq,unique,priority:2" json:"seq"`
	Kind      MessageKind `gorm:"type:varchar(16);not null" json:"kind"`
	Author    string      `gorm:"type:varchar(64);index" json:"author,omitempty"`
	Text      string      `gorm:"type:text" json:"text,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

type Post struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	RoomID    string    `gorm:"type:varchar(64);index;not null" json:"room_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"type:varchar(64)" json:"author,omitempty"`
	Views     uint64    `gorm:"not null;default:0" json:"views"`
	Likes     uint64    `gorm:"not null;default:0" json:"likes"`
	// Denormalized count of non-deleted comments.
	Comments  int64     `gorm:"not null;default:0" json:"comments"`
	CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string { return "posts" }

// Comment supports arbitrary parent chains in data; deletion is a soft flag so
// replies stay addressable.
type Comment struct {
	ID        string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	PostID    string     `gorm:"type:varchar(64);index;not null" json:"post_id"`
	RoomID    string     `gorm:"type:varchar(64);not null" json:"room_id"`
	ParentID  *string    `gorm:"type:varchar(64)" json:"parent_id,omitempty"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Author    string     `gorm:"type:varchar(64)" json:"author,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Likes     uint64     `gorm:"not null;default:0" json:"likes"`
	IsDeleted bool       `gorm:"not null;default:false" json:"is_deleted"`
}

func (Comment) TableName() string { return "comments" }

// AISync is the per-(room, user) cursor: the last point up to which that user's
// chat was converted into a post. It never moves backward.
type AISync struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID    string    `gorm:"type:varchar(64);not null;index:uniq_room_user,unique,priority:1" json:"room_id"`
	UserID    string    `gorm:"type:varchar(64);not null;index:uniq_room_user,unique,priority:2" json:"user_id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (AISync) TableName() string { return "ai_syncs" }

// RoomCategory is a free-text post prefix preset, managed per room.
type RoomCategory struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID string `gorm:"type:varchar(64);not null;index:uniq_room_category,unique,priority:1" json:"room_id"`
	Name   string `gorm:"type:varchar(64);not null;index:uniq_room_category,unique,priority:2" json:"name"`
}

func (RoomCategory) TableName() string { return "room_categories" }
