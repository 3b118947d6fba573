package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// Store is the persistent backend. Sequence assignment locks the room row so
// message appends stay atomic per room.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Room{},
		&models.Message{},
		&models.Post{},
		&models.Comment{},
		&models.AISync{},
		&models.RoomCategory{},
	)
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrConflict
	}
	return err
}

// users & sessions

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", u.Email).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return store.ErrConflict
	}
	return mapErr(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) CreateSession(ctx context.Context, sess *models.Session) error {
	return mapErr(s.db.WithContext(ctx).Create(sess).Error)
}

func (s *Store) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).First(&sess, "token = ?", token).Error; err != nil {
		return nil, mapErr(err)
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&models.Session{}, "token = ?", token).Error
}

// rooms

func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	return mapErr(s.db.WithContext(ctx).Create(r).Error)
}

func (s *Store) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	var r models.Room
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (s *Store) ListRooms(ctx context.Context, limit int) ([]models.Room, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var rooms []models.Room
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Store) CountMessageAuthors(ctx context.Context, roomID string) (int64, error) {
	var cnt int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ? AND author <> ''", roomID).
		Distinct("author").
		Count(&cnt).Error
	return cnt, err
}

func (s *Store) RecentAuthors(ctx context.Context, roomID string, since time.Time) ([]string, error) {
	var authors []string
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ? AND author <> '' AND created_at > ?", roomID, since).
		Distinct().
		Pluck("author", &authors).Error
	return authors, err
}

// messages

func (s *Store) AppendMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&room, "id = ?", m.RoomID).Error; err != nil {
			return mapErr(err)
		}
		next := room.LastSeq + 1
		if err := tx.Model(&models.Room{}).
			Where("id = ?", m.RoomID).
			Update("last_seq", next).Error; err != nil {
			return err
		}
		m.Seq = next
		return tx.Create(m).Error
	})
}

func (s *Store) ListMessages(ctx context.Context, roomID string, afterSeq uint64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []models.Message
	if afterSeq == 0 {
		// tail: newest `limit` in DESC, then reverse to ASC
		if err := s.db.WithContext(ctx).
			Where("room_id = ?", roomID).
			Order("seq DESC").
			Limit(limit).
			Find(&msgs).Error; err != nil {
			return nil, err
		}
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
		return msgs, nil
	}
	if err := s.db.WithContext(ctx).
		Where("room_id = ? AND seq > ?", roomID, afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) ListUserMessagesAfter(ctx context.Context, roomID, author string, t time.Time) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.WithContext(ctx).
		Where("room_id = ? AND author = ? AND created_at > ?", roomID, author, t).
		Order("seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// posts

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	return mapErr(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetPost(ctx context.Context, roomID, postID string) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).
		Where("id = ? AND room_id = ?", postID, roomID).
		First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, roomID string, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var posts []models.Post
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) IncrementPostViews(ctx context.Context, roomID, postID string) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND room_id = ?", postID, roomID).
		Update("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// comments

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Post
		if err := tx.Where("id = ? AND room_id = ?", c.PostID, c.RoomID).
			First(&p).Error; err != nil {
			return mapErr(err)
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", c.PostID).
			Update("comments", gorm.Expr("comments + 1")).Error
	})
}

func (s *Store) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).
		Where("id = ? AND post_id = ?", commentID, postID).
		First(&c).Error; err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, postID, commentID, content string) (*models.Comment, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", commentID, postID).
		Updates(map[string]any{"content": content, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetComment(ctx, postID, commentID)
}

func (s *Store) SoftDeleteComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	var out *models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND post_id = ?", commentID, postID).
			First(&c).Error; err != nil {
			return mapErr(err)
		}
		if !c.IsDeleted {
			now := time.Now()
			c.IsDeleted = true
			c.UpdatedAt = &now
			if err := tx.Model(&models.Comment{}).
				Where("id = ?", c.ID).
				Updates(map[string]any{"is_deleted": true, "updated_at": now}).Error; err != nil {
				return err
			}
			// floored at zero
			if err := tx.Model(&models.Post{}).
				Where("id = ? AND comments > 0", postID).
				Update("comments", gorm.Expr("comments - 1")).Error; err != nil {
				return err
			}
		}
		out = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LikeComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", commentID, postID).
		Update("likes", gorm.Expr("likes + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetComment(ctx, postID, commentID)
}

// categories

func (s *Store) ListCategories(ctx context.Context, roomID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.RoomCategory{}).
		Where("room_id = ?", roomID).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

func (s *Store) AddCategory(ctx context.Context, roomID, name string) ([]string, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RoomCategory{RoomID: roomID, Name: name}).Error
	if err != nil {
		return nil, err
	}
	return s.ListCategories(ctx, roomID)
}

func (s *Store) RemoveCategory(ctx context.Context, roomID, name string) ([]string, error) {
	if err := s.db.WithContext(ctx).
		Where("room_id = ? AND name = ?", roomID, name).
		Delete(&models.RoomCategory{}).Error; err != nil {
		return nil, err
	}
	return s.ListCategories(ctx, roomID)
}

// AI sync cursor

func (s *Store) GetSyncCursor(ctx context.Context, roomID, userID string) (time.Time, bool, error) {
	var sync models.AISync
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&sync).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return sync.Timestamp, true, nil
}

func (s *Store) RecordSync(ctx context.Context, roomID, userID string, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sync models.AISync
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			First(&sync).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.AISync{RoomID: roomID, UserID: userID, Timestamp: at}).Error
		}
		if err != nil {
			return err
		}
		// never move backward
		if sync.Timestamp.After(at) {
			return nil
		}
		return tx.Model(&models.AISync{}).
			Where("id = ?", sync.ID).
			Update("timestamp", at).Error
	})
}

func (s *Store) HasRoomSync(ctx context.Context, roomID string) (bool, error) {
	var cnt int64
	if err := s.db.WithContext(ctx).Model(&models.AISync{}).
		Where("room_id = ?", roomID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
