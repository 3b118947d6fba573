package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// Store is the ephemeral development backend: process-wide maps behind one
// mutex, no persistence. It owns all keyed mutable state (per-room sequence
// counters, sync cursors); callers only go through the store.Store operations.
type Store struct {
	mu sync.Mutex

	usersByEmail map[string]*models.User
	usersByID    map[string]*models.User
	sessions     map[string]*models.Session

	rooms     map[string]*models.Room
	roomOrder []string // newest first

	messagesByRoom map[string][]*models.Message
	lastSeqByRoom  map[string]uint64

	postsByRoom    map[string][]*models.Post
	commentsByPost map[string][]*models.Comment

	categoriesByRoom map[string]map[string]struct{}

	syncCursors map[string]map[string]time.Time // roomID -> userID -> cursor
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		usersByEmail:     make(map[string]*models.User),
		usersByID:        make(map[string]*models.User),
		sessions:         make(map[string]*models.Session),
		rooms:            make(map[string]*models.Room),
		messagesByRoom:   make(map[string][]*models.Message),
		lastSeqByRoom:    make(map[string]uint64),
		postsByRoom:      make(map[string][]*models.Post),
		commentsByPost:   make(map[string][]*models.Comment),
		categoriesByRoom: make(map[string]map[string]struct{}),
		syncCursors:      make(map[string]map[string]time.Time),
	}
}

// users & sessions

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return store.ErrConflict
	}
	cp := *u
	s.usersByEmail[key] = &cp
	s.usersByID[u.ID] = &cp
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// rooms

func (s *Store) CreateRoom(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[r.ID]; exists {
		return store.ErrConflict
	}
	cp := *r
	s.rooms[r.ID] = &cp
	s.roomOrder = append([]string{r.ID}, s.roomOrder...)
	return nil
}

func (s *Store) GetRoom(_ context.Context, id string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListRooms(_ context.Context, limit int) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	out := make([]models.Room, 0, limit)
	for _, id := range s.roomOrder {
		if len(out) >= limit {
			break
		}
		out = append(out, *s.rooms[id])
	}
	return out, nil
}

func (s *Store) CountMessageAuthors(_ context.Context, roomID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for _, m := range s.messagesByRoom[roomID] {
		if m.Author != "" {
			seen[m.Author] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (s *Store) RecentAuthors(_ context.Context, roomID string, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.messagesByRoom[roomID] {
		if m.Author == "" || !m.CreatedAt.After(since) {
			continue
		}
		if _, dup := seen[m.Author]; dup {
			continue
		}
		seen[m.Author] = struct{}{}
		out = append(out, m.Author)
	}
	return out, nil
}

// messages

func (s *Store) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[m.RoomID]; !ok {
		return store.ErrNotFound
	}
	next := s.lastSeqByRoom[m.RoomID] + 1
	s.lastSeqByRoom[m.RoomID] = next
	m.Seq = next
	cp := *m
	s.messagesByRoom[m.RoomID] = append(s.messagesByRoom[m.RoomID], &cp)
	return nil
}

func (s *Store) ListMessages(_ context.Context, roomID string, afterSeq uint64, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	msgs := s.messagesByRoom[roomID]
	if afterSeq == 0 {
		start := len(msgs) - limit
		if start < 0 {
			start = 0
		}
		return copyMessages(msgs[start:]), nil
	}
	out := make([]models.Message, 0, limit)
	for _, m := range msgs {
		if m.Seq > afterSeq {
			out = append(out, *m)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) ListUserMessagesAfter(_ context.Context, roomID, author string, t time.Time) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messagesByRoom[roomID] {
		if m.Author == author && m.CreatedAt.After(t) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func copyMessages(in []*models.Message) []models.Message {
	out := make([]models.Message, 0, len(in))
	for _, m := range in {
		out = append(out, *m)
	}
	return out
}

// posts

func (s *Store) CreatePost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[p.RoomID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	// newest first, like the room list
	s.postsByRoom[p.RoomID] = append([]*models.Post{&cp}, s.postsByRoom[p.RoomID]...)
	return nil
}

func (s *Store) getPostLocked(roomID, postID string) *models.Post {
	for _, p := range s.postsByRoom[roomID] {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

func (s *Store) GetPost(_ context.Context, roomID, postID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.getPostLocked(roomID, postID)
	if p == nil {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListPosts(_ context.Context, roomID string, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	posts := s.postsByRoom[roomID]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, *p)
	}
	return out, nil
}

func (s *Store) IncrementPostViews(_ context.Context, roomID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.getPostLocked(roomID, postID)
	if p == nil {
		return store.ErrNotFound
	}
	p.Views++
	return nil
}

// comments

func (s *Store) CreateComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.getPostLocked(c.RoomID, c.PostID)
	if p == nil {
		return store.ErrNotFound
	}
	cp := *c
	s.commentsByPost[c.PostID] = append(s.commentsByPost[c.PostID], &cp)
	p.Comments++
	return nil
}

func (s *Store) getCommentLocked(postID, commentID string) *models.Comment {
	for _, c := range s.commentsByPost[postID] {
		if c.ID == commentID {
			return c
		}
	}
	return nil
}

func (s *Store) GetComment(_ context.Context, postID, commentID string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getCommentLocked(postID, commentID)
	if c == nil {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListComments(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comments := s.commentsByPost[postID]
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		out = append(out, *c)
	}
	return out, nil
}

func (s *Store) UpdateComment(_ context.Context, postID, commentID, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getCommentLocked(postID, commentID)
	if c == nil {
		return nil, store.ErrNotFound
	}
	now := time.Now()
	c.Content = content
	c.UpdatedAt = &now
	cp := *c
	return &cp, nil
}

func (s *Store) SoftDeleteComment(_ context.Context, postID, commentID string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getCommentLocked(postID, commentID)
	if c == nil {
		return nil, store.ErrNotFound
	}
	if !c.IsDeleted {
		c.IsDeleted = true
		now := time.Now()
		c.UpdatedAt = &now
		if p := s.getPostLocked(c.RoomID, postID); p != nil && p.Comments > 0 {
			p.Comments--
		}
	}
	cp := *c
	return &cp, nil
}

func (s *Store) LikeComment(_ context.Context, postID, commentID string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.getCommentLocked(postID, commentID)
	if c == nil {
		return nil, store.ErrNotFound
	}
	c.Likes++
	cp := *c
	return &cp, nil
}

// categories

func (s *Store) listCategoriesLocked(roomID string) []string {
	set := s.categoriesByRoom[roomID]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) ListCategories(_ context.Context, roomID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCategoriesLocked(roomID), nil
}

func (s *Store) AddCategory(_ context.Context, roomID, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.categoriesByRoom[roomID]
	if set == nil {
		set = make(map[string]struct{})
		s.categoriesByRoom[roomID] = set
	}
	set[name] = struct{}{}
	return s.listCategoriesLocked(roomID), nil
}

func (s *Store) RemoveCategory(_ context.Context, roomID, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set := s.categoriesByRoom[roomID]; set != nil {
		delete(set, name)
	}
	return s.listCategoriesLocked(roomID), nil
}

// AI sync cursor

func (s *Store) GetSyncCursor(_ context.Context, roomID, userID string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.syncCursors[roomID]
	if !ok {
		return time.Time{}, false, nil
	}
	t, ok := byUser[userID]
	return t, ok, nil
}

func (s *Store) RecordSync(_ context.Context, roomID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser := s.syncCursors[roomID]
	if byUser == nil {
		byUser = make(map[string]time.Time)
		s.syncCursors[roomID] = byUser
	}
	// never move backward
	if prev, ok := byUser[userID]; ok && prev.After(at) {
		return nil
	}
	byUser[userID] = at
	return nil
}

func (s *Store) HasRoomSync(_ context.Context, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.syncCursors[roomID]) > 0, nil
}
