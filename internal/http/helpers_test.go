package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"photo-share/internal/auth"
	"photo-share/internal/repository"
	"photo-share/internal/repository/sqlite"
	"photo-share/internal/service"
	"photo-share/internal/storage"
)

const (
	testMaxUploadBytes = 4 << 10
	testRotateAfter    = time.Hour
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(context.Context) error {
	return p.err
}

type testServer struct {
	router *gin.Engine
	clock  *testClock
	logs   *logtest.Hook
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithPinger(t, nil)
}

// newTestServerWithPinger builds the full stack on a temp sqlite file. A nil
// pinger means health checks hit the real database.
func newTestServerWithPinger(t *testing.T, pinger repository.Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	posts := sqlite.NewPostRepository(db)
	comments := sqlite.NewCommentRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))
	require.NoError(t, comments.Init(ctx))

	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	sessions, err := auth.NewSessionIssuer(auth.SessionConfig{
		Secret:      "test-secret",
		Issuer:      "photo-share-test",
		MaxAge:      24 * time.Hour,
		RotateAfter: testRotateAfter,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logs := logtest.NewLocal(logger)

	if pinger == nil {
		pinger = db
	}

	handler := NewHandler(Options{
		Users:          service.NewUserService(users, hasher),
		Posts:          service.NewPostService(posts, comments, store, logger),
		Sessions:       sessions,
		Store:          store,
		DB:             pinger,
		Logger:         logger,
		CookieName:     "session-token",
		MaxUploadBytes: testMaxUploadBytes,
		Now:            clock.Now,
	})

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, clock: clock, logs: logs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func imageRequest(t *testing.T, caption, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if caption != "" {
		require.NoError(t, w.WriteField("caption", caption))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signUp registers a user and logs in, returning the session token.
func (s *testServer) signUp(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
		"name":     "User " + username,
		"username": username,
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[loginResponse](t, rec).Token
}

func (s *testServer) createPost(t *testing.T, token, caption string) PostResponse {
	t.Helper()
	rec := s.do(withToken(imageRequest(t, caption, "photo.jpg", []byte("jpeg-bytes")), token))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[PostResponse](t, rec)
}
