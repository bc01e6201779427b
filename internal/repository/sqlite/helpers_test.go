package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"photo-share/internal/domain"
	"photo-share/internal/repository"
)

type testStore struct {
	db       *sql.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func newTestStore(t *testing.T) testStore {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := testStore{
		db:       db,
		users:    NewUserRepository(db),
		posts:    NewPostRepository(db),
		comments: NewCommentRepository(db),
	}
	ctx := context.Background()
	require.NoError(t, store.users.Init(ctx))
	require.NoError(t, store.posts.Init(ctx))
	require.NoError(t, store.comments.Init(ctx))
	return store
}

func (s testStore) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        username + "@example.com",
		Username:     username,
		Name:         "User " + username,
		PasswordHash: "hash",
	}
	require.NoError(t, s.users.Create(context.Background(), user))
	return user
}

func (s testStore) createPost(t *testing.T, userID, caption string) *domain.Post {
	t.Helper()
	post := &domain.Post{
		ID:       uuid.NewString(),
		ImageURL: "/api/uploads/" + uuid.NewString() + ".jpg",
		UserID:   userID,
	}
	if caption != "" {
		post.Caption = &caption
	}
	require.NoError(t, s.posts.Create(context.Background(), post))
	return post
}

func (s testStore) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(query, args...).Scan(&n))
	return n
}
