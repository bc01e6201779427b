package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"photo-share/internal/domain"
	"photo-share/internal/repository"
)

const selectCommentColumns = `
SELECT c.id, c.content, c.user_id, c.post_id, c.created_at, u.username, u.name, u.avatar
FROM comments c
JOIN users u ON u.id = c.user_id`

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	user_id TEXT NOT NULL,
	post_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.CreatedAt = now()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO comments (id, content, user_id, post_id, created_at)
VALUES (?, ?, ?, ?, ?)`,
		comment.ID,
		comment.Content,
		comment.UserID,
		comment.PostID,
		comment.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert comment: %w", repository.ErrNotFound)
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id string) (*domain.Comment, error) {
	row := r.db.QueryRowContext(ctx, selectCommentColumns+`
WHERE c.id = ?`, id)

	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("comment: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return comment, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, selectCommentColumns+`
WHERE c.post_id = ?
ORDER BY c.created_at DESC, c.rowid DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	return comments, rows.Err()
}

func scanComment(scanner interface {
	Scan(dest ...any) error
}) (*domain.Comment, error) {
	var (
		comment domain.Comment
		avatar  sql.NullString
	)
	if err := scanner.Scan(
		&comment.ID,
		&comment.Content,
		&comment.UserID,
		&comment.PostID,
		&comment.CreatedAt,
		&comment.Author.Username,
		&comment.Author.Name,
		&avatar,
	); err != nil {
		return nil, err
	}
	comment.Author.ID = comment.UserID
	comment.Author.Avatar = stringPtr(avatar)
	return &comment, nil
}
