package service

import (
	"context"
	"errors"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photo-share/internal/apperror"
	"photo-share/internal/domain"
	"photo-share/internal/repository"
	"photo-share/internal/storage"
)

// UploadsPath is the URL prefix under which stored images are served.
const UploadsPath = "/api/uploads/"

var (
	// ErrPostNotFound is returned for operations on an unknown post.
	ErrPostNotFound = apperror.NotFound("Post not found")
	// ErrNoImage is returned when a post is created without an image.
	ErrNoImage = apperror.Validation("No image provided")
	// ErrUnsupportedImage is returned for uploads outside the accepted formats.
	ErrUnsupportedImage = apperror.Validation("Unsupported image type")
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CreatePostInput describes a new post and its uploaded image.
type CreatePostInput struct {
	UserID   string
	Caption  string
	Filename string
	Image    io.Reader
}

// PostService coordinates posts, likes, comments and their stored images.
type PostService interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) (bool, error)
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	AddComment(ctx context.Context, userID, postID, content string) (*domain.Comment, error)
}

type postService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	store    storage.Store
	logger   logrus.FieldLogger
}

func NewPostService(posts repository.PostRepository, comments repository.CommentRepository, store storage.Store, logger logrus.FieldLogger) PostService {
	return &postService{
		posts:    posts,
		comments: comments,
		store:    store,
		logger:   logger,
	}
}

func (s *postService) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	if in.Image == nil || in.Filename == "" {
		return nil, ErrNoImage
	}
	key := objectKey(in.Filename)
	contentType, ok := storage.ImageContentType(key)
	if !ok {
		return nil, ErrUnsupportedImage
	}

	if err := s.store.Put(ctx, key, in.Image, contentType); err != nil {
		return nil, apperror.Internal("store image", err)
	}

	post := &domain.Post{
		ID:       uuid.NewString(),
		ImageURL: UploadsPath + key,
		UserID:   in.UserID,
	}
	if caption := strings.TrimSpace(in.Caption); caption != "" {
		post.Caption = &caption
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthorized("Unauthorized")
		}
		return nil, apperror.Internal("create post", err)
	}

	created, err := s.posts.Get(ctx, post.ID)
	if err != nil {
		return nil, apperror.Internal("load post", err)
	}
	return created, nil
}

// discardImage removes an image whose post could not be saved. It runs
// detached from the request context, which may already be cancelled.
func (s *postService) discardImage(key string) {
	if err := s.store.Delete(context.Background(), key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("remove orphaned image")
	}
}

// objectKey builds a unique key that keeps the upload's extension, so the
// uploads route can always serve it.
func objectKey(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	ext := path.Ext(base)
	stem := strings.Trim(strings.TrimSuffix(base, ext), ".")
	if stem == "" {
		stem = "image"
	}
	return uuid.NewString() + "-" + stem + ext
}

func (s *postService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, apperror.Internal("list posts", err)
	}
	return posts, nil
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return false, err
	}

	liked, err := s.posts.ToggleLike(ctx, userID, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrPostNotFound
		}
		return false, apperror.Internal("toggle like", err)
	}
	return liked, nil
}

func (s *postService) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, apperror.Internal("list comments", err)
	}
	return comments, nil
}

func (s *postService) AddComment(ctx context.Context, userID, postID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("Comment content is required")
	}
	if utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return nil, apperror.Validation("Comment is too long (max 500 characters)")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:      uuid.NewString(),
		Content: content,
		UserID:  userID,
		PostID:  postID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, apperror.Internal("create comment", err)
	}

	created, err := s.comments.Get(ctx, comment.ID)
	if err != nil {
		return nil, apperror.Internal("load comment", err)
	}
	return created, nil
}

func (s *postService) requirePost(ctx context.Context, postID string) error {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return apperror.Internal("check post", err)
	}
	if !exists {
		return ErrPostNotFound
	}
	return nil
}
