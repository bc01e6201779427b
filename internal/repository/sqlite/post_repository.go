package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"photo-share/internal/domain"
	"photo-share/internal/repository"
)

const (
	createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	image_url TEXT NOT NULL,
	caption TEXT NULL,
	user_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
`

	createLikesTable = `
CREATE TABLE IF NOT EXISTS likes (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	post_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(user_id, post_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes(post_id);
`

	selectPostColumns = `
SELECT p.id, p.image_url, p.caption, p.user_id, p.created_at, p.updated_at,
	u.username, u.name, u.avatar,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
	(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id)
FROM posts p
JOIN users u ON u.id = p.user_id`
)

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

// Init creates the post aggregate tables. The comments table is created here as
// well because post listings count comments.
func (r *PostRepository) Init(ctx context.Context) error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"posts", createPostsTable},
		{"likes", createLikesTable},
		{"comments", createCommentsTable},
	}
	for _, table := range tables {
		if _, err := r.db.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", table.name, err)
		}
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	ts := now()
	post.CreatedAt = ts
	post.UpdatedAt = ts

	_, err := r.db.ExecContext(ctx, `
INSERT INTO posts (id, image_url, caption, user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.ImageURL,
		nullString(post.Caption),
		post.UserID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert post: user %s: %w", post.UserID, repository.ErrNotFound)
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *PostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPostColumns+`
WHERE p.id = ?`, id)

	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}

	likes, err := r.likesByPost(ctx, []string{post.ID})
	if err != nil {
		return nil, err
	}
	post.Likes = likes[post.ID]
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPostColumns+`
ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	likes, err := r.likesByPost(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Likes = likes[posts[i].ID]
	}
	return posts, nil
}

func (r *PostRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check post exists: %w", err)
	}
	return exists, nil
}

// ToggleLike removes an existing like or inserts a new one inside a single
// transaction. The UNIQUE(user_id, post_id) constraint keeps concurrent
// toggles from producing duplicate likes.
func (r *PostRepository) ToggleLike(ctx context.Context, userID, postID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE user_id=? AND post_id=?`, userID, postID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("like delete rows affected: %w", err)
	}

	liked := removed == 0
	if liked {
		_, err := tx.ExecContext(ctx, `
INSERT INTO likes (id, user_id, post_id, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id, post_id) DO NOTHING`,
			uuid.NewString(),
			userID,
			postID,
			now(),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return false, fmt.Errorf("insert like: %w", repository.ErrNotFound)
			}
			return false, fmt.Errorf("insert like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit like toggle: %w", err)
	}
	return liked, nil
}

// likeBatchSize bounds the IN list per query below SQLite's host parameter
// limit. A var so tests can force several batches.
var likeBatchSize = 500

func (r *PostRepository) likesByPost(ctx context.Context, postIDs []string) (map[string][]domain.Like, error) {
	likes := make(map[string][]domain.Like, len(postIDs))
	for start := 0; start < len(postIDs); start += likeBatchSize {
		end := min(start+likeBatchSize, len(postIDs))
		if err := r.loadLikes(ctx, postIDs[start:end], likes); err != nil {
			return nil, err
		}
	}
	return likes, nil
}

func (r *PostRepository) loadLikes(ctx context.Context, postIDs []string, likes map[string][]domain.Like) error {
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`
SELECT l.id, l.user_id, l.post_id, l.created_at, u.username
FROM likes l
JOIN users u ON u.id = l.user_id
WHERE l.post_id IN (%s)
ORDER BY l.created_at ASC, l.rowid ASC`, placeholders(len(postIDs)))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var like domain.Like
		if err := rows.Scan(&like.ID, &like.UserID, &like.PostID, &like.CreatedAt, &like.Username); err != nil {
			return fmt.Errorf("scan like: %w", err)
		}
		likes[like.PostID] = append(likes[like.PostID], like)
	}
	return rows.Err()
}

func scanPost(scanner interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var (
		post    domain.Post
		caption sql.NullString
		avatar  sql.NullString
	)
	if err := scanner.Scan(
		&post.ID,
		&post.ImageURL,
		&caption,
		&post.UserID,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.Author.Username,
		&post.Author.Name,
		&avatar,
		&post.LikeCount,
		&post.CommentCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	post.Caption = stringPtr(caption)
	post.Author.ID = post.UserID
	post.Author.Avatar = stringPtr(avatar)
	return &post, nil
}
