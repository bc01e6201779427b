package domain

import "time"

// Post is an uploaded image with an optional caption.
type Post struct {
	ID           string
	ImageURL     string
	Caption      *string
	UserID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Author       Author
	Likes        []Like
	LikeCount    int
	CommentCount int
}

// Like marks that a user liked a post. A (UserID, PostID) pair is unique.
type Like struct {
	ID        string
	UserID    string
	PostID    string
	Username  string
	CreatedAt time.Time
}

// Comment is a short text reply attached to a post.
type Comment struct {
	ID        string
	Content   string
	UserID    string
	PostID    string
	CreatedAt time.Time
	Author    Author
}

// MaxCommentLength bounds comment content, counted in runes.
const MaxCommentLength = 500
