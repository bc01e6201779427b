package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"photo-share/internal/auth"
	"photo-share/internal/repository"
	"photo-share/internal/repository/sqlite"
	"photo-share/internal/storage"
)

type testEnv struct {
	db       *sql.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	store    *storage.LocalStore
	storeDir string
	userSvc  UserService
	postSvc  PostService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		users:    sqlite.NewUserRepository(db),
		posts:    sqlite.NewPostRepository(db),
		comments: sqlite.NewCommentRepository(db),
		storeDir: filepath.Join(dir, "uploads"),
	}
	ctx := context.Background()
	require.NoError(t, env.users.Init(ctx))
	require.NoError(t, env.posts.Init(ctx))
	require.NoError(t, env.comments.Init(ctx))

	env.store, err = storage.NewLocalStore(env.storeDir)
	require.NoError(t, err)

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	env.userSvc = NewUserService(env.users, hasher)
	env.postSvc = NewPostService(env.posts, env.comments, env.store, logger)
	return env
}

func (e *testEnv) userCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	return n
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	identity, err := e.userSvc.Register(context.Background(), RegisterInput{
		Email:    username + "@example.com",
		Password: "password123",
		Name:     "User " + username,
		Username: username,
	})
	require.NoError(t, err)
	return identity.ID
}
