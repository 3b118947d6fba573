package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

func newRoom(t *testing.T, s *Store, id string) {
	t.Helper()
	err := s.CreateRoom(context.Background(), &models.Room{
		ID: id, Name: id, Visibility: models.VisibilityPublic, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestAppendMessageAssignsStrictSequence(t *testing.T) {
	s := New()
	ctx := context.Background()
	newRoom(t, s, "go-talk")

	seen := make(map[uint64]bool)
	var prev uint64
	for i := 0; i < 10; i++ {
		m := &models.Message{
			ID: fmt.Sprintf("m%02d", i), RoomID: "go-talk", Kind: models.KindUser,
			Author: "alice", Text: "hi", CreatedAt: time.Now(),
		}
		require.NoError(t, s.AppendMessage(ctx, m))
		require.Greater(t, m.Seq, prev, "sequence must strictly increase")
		require.False(t, seen[m.Seq], "sequence must be unique")
		seen[m.Seq] = true
		prev = m.Seq
	}
}

func TestAppendMessageUnknownRoom(t *testing.T) {
	s := New()
	err := s.AppendMessage(context.Background(), &models.Message{ID: "m1", RoomID: "nope"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListMessagesPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	newRoom(t, s, "r")
	for i := 0; i < 7; i++ {
		require.NoError(t, s.AppendMessage(ctx, &models.Message{
			ID: fmt.Sprintf("m%d", i), RoomID: "r", Kind: models.KindUser,
			Author: "a", Text: fmt.Sprintf("t%d", i), CreatedAt: time.Now(),
		}))
	}

	// tail page
	tail, err := s.ListMessages(ctx, "r", 0, 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	require.Equal(t, uint64(5), tail[0].Seq)
	require.Equal(t, uint64(7), tail[2].Seq)

	// cursor page
	next, err := s.ListMessages(ctx, "r", 2, 3)
	require.NoError(t, err)
	require.Len(t, next, 3)
	require.Equal(t, uint64(3), next[0].Seq)
	require.Equal(t, uint64(5), next[2].Seq)

	// past the end
	empty, err := s.ListMessages(ctx, "r", 7, 3)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestUserMessagesExactCursorTimeExcluded(t *testing.T) {
	s := New()
	ctx := context.Background()
	newRoom(t, s, "r")

	cursor := time.Now()
	require.NoError(t, s.AppendMessage(ctx, &models.Message{
		ID: "at", RoomID: "r", Kind: models.KindUser, Author: "alice", Text: "at cursor", CreatedAt: cursor,
	}))
	require.NoError(t, s.AppendMessage(ctx, &models.Message{
		ID: "after", RoomID: "r", Kind: models.KindUser, Author: "alice", Text: "after cursor", CreatedAt: cursor.Add(time.Millisecond),
	}))

	msgs, err := s.ListUserMessagesAfter(ctx, "r", "alice", cursor)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "after", msgs[0].ID)
}

func TestCommentCountFloor(t *testing.T) {
	s := New()
	ctx := context.Background()
	newRoom(t, s, "r")
	require.NoError(t, s.CreatePost(ctx, &models.Post{ID: "p1", RoomID: "r", Title: "t", Content: "c"}))

	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, s.CreateComment(ctx, &models.Comment{ID: id, PostID: "p1", RoomID: "r", Content: "x"}))
	}
	post, err := s.GetPost(ctx, "r", "p1")
	require.NoError(t, err)
	require.EqualValues(t, 2, post.Comments)

	c, err := s.SoftDeleteComment(ctx, "p1", "c1")
	require.NoError(t, err)
	require.True(t, c.IsDeleted)

	// deleting the same comment again does not decrement twice
	_, err = s.SoftDeleteComment(ctx, "p1", "c1")
	require.NoError(t, err)
	post, err = s.GetPost(ctx, "r", "p1")
	require.NoError(t, err)
	require.EqualValues(t, 1, post.Comments)

	_, err = s.SoftDeleteComment(ctx, "p1", "c2")
	require.NoError(t, err)
	post, err = s.GetPost(ctx, "r", "p1")
	require.NoError(t, err)
	require.EqualValues(t, 0, post.Comments)

	// deleted comments stay listed
	all, err := s.ListComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestSyncCursorNeverMovesBackward(t *testing.T) {
	s := New()
	ctx := context.Background()

	t0 := time.Now()
	require.NoError(t, s.RecordSync(ctx, "r", "alice", t0))
	require.NoError(t, s.RecordSync(ctx, "r", "alice", t0.Add(-time.Hour)))

	got, ok, err := s.GetSyncCursor(ctx, "r", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(t0))

	// a different user's cursor is independent
	_, ok, err = s.GetSyncCursor(ctx, "r", "bob")
	require.NoError(t, err)
	require.False(t, ok)

	synced, err := s.HasRoomSync(ctx, "r")
	require.NoError(t, err)
	require.True(t, synced)

	synced, err = s.HasRoomSync(ctx, "other")
	require.NoError(t, err)
	require.False(t, synced)
}

func TestCategoriesSetSemantics(t *testing.T) {
	s := New()
	ctx := context.Background()

	cats, err := s.AddCategory(ctx, "r", "question")
	require.NoError(t, err)
	require.Equal(t, []string{"question"}, cats)

	cats, err = s.AddCategory(ctx, "r", "question")
	require.NoError(t, err)
	require.Equal(t, []string{"question"}, cats)

	cats, err = s.AddCategory(ctx, "r", "announcement")
	require.NoError(t, err)
	require.Equal(t, []string{"announcement", "question"}, cats)

	cats, err = s.RemoveCategory(ctx, "r", "question")
	require.NoError(t, err)
	require.Equal(t, []string{"announcement"}, cats)
}

func TestCreateUserConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := &models.User{ID: "u1", Email: "a@example.com", Name: "a"}
	require.NoError(t, s.CreateUser(ctx, u))
	err := s.CreateUser(ctx, &models.User{ID: "u2", Email: "A@Example.com", Name: "dup"})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, "u1", got.ID)
}

func TestRoomMemberMetadata(t *testing.T) {
	s := New()
	ctx := context.Background()
	newRoom(t, s, "r")

	now := time.Now()
	seed := []struct {
		author string
		at     time.Time
	}{
		{"alice", now.Add(-2 * time.Hour)},
		{"alice", now},
		{"bob", now.Add(-time.Minute)},
		{"carol", now.Add(-90 * time.Minute)},
	}
	for i, m := range seed {
		require.NoError(t, s.AppendMessage(ctx, &models.Message{
			ID: fmt.Sprintf("m%d", i), RoomID: "r", Kind: models.KindUser,
			Author: m.author, Text: "x", CreatedAt: m.at,
		}))
	}

	n, err := s.CountMessageAuthors(ctx, "r")
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	recent, err := s.RecentAuthors(ctx, "r", now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, recent)
}
