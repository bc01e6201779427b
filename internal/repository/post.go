package repository

import (
	"context"

	"photo-share/internal/domain"
)

// PostRepository exposes persistence operations for posts and their likes.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) error
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context) ([]domain.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ToggleLike flips the like state of (userID, postID) and reports the new state.
	ToggleLike(ctx context.Context, userID, postID string) (bool, error)
}

// CommentRepository manages comments attached to posts.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) error
	Get(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]domain.Comment, error)
}
