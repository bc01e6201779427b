package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-share/internal/domain"
	"photo-share/internal/repository"
)

func TestPostRepository_ListEmpty(t *testing.T) {
	store := newTestStore(t)

	posts, err := store.posts.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostRepository_CreateAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.createUser(t, "alice")
	bob := store.createUser(t, "bob")

	first := store.createPost(t, alice.ID, "first")
	second := store.createPost(t, bob.ID, "")

	_, err := store.posts.ToggleLike(ctx, bob.ID, first.ID)
	require.NoError(t, err)

	posts, err := store.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// newest first
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Nil(t, posts[0].Caption)
	assert.Equal(t, "bob", posts[0].Author.Username)
	assert.Equal(t, 0, posts[0].LikeCount)
	assert.Empty(t, posts[0].Likes)

	assert.Equal(t, first.ID, posts[1].ID)
	require.NotNil(t, posts[1].Caption)
	assert.Equal(t, "first", *posts[1].Caption)
	assert.Equal(t, alice.ID, posts[1].Author.ID)
	assert.Equal(t, 1, posts[1].LikeCount)
	require.Len(t, posts[1].Likes, 1)
	assert.Equal(t, bob.ID, posts[1].Likes[0].UserID)
	assert.Equal(t, "bob", posts[1].Likes[0].Username)
}

func TestPostRepository_CreateUnknownUser(t *testing.T) {
	store := newTestStore(t)

	post := &domain.Post{ID: uuid.NewString(), ImageURL: "/api/uploads/x.jpg", UserID: uuid.NewString()}
	err := store.posts.Create(context.Background(), post)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepository_Get(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.createUser(t, "alice")
	post := store.createPost(t, alice.ID, "hello")

	got, err := store.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ImageURL, got.ImageURL)
	assert.Equal(t, "alice", got.Author.Username)

	_, err = store.posts.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepository_Exists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.createUser(t, "alice")
	post := store.createPost(t, alice.ID, "")

	exists, err := store.posts.Exists(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.posts.Exists(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := store.createUser(t, "alice")
	post := store.createPost(t, alice.ID, "")

	liked, err := store.posts.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, store.count(t, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, post.ID))

	liked, err = store.posts.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, store.count(t, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, post.ID))

	liked, err = store.posts.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestPostRepository_ListLoadsLikesAcrossBatches(t *testing.T) {
	orig := likeBatchSize
	likeBatchSize = 2
	t.Cleanup(func() { likeBatchSize = orig })

	store := newTestStore(t)
	ctx := context.Background()
	alice := store.createUser(t, "alice")
	bob := store.createUser(t, "bob")

	want := map[string]int{}
	for i := 0; i < 5; i++ {
		post := store.createPost(t, alice.ID, "")
		_, err := store.posts.ToggleLike(ctx, alice.ID, post.ID)
		require.NoError(t, err)
		want[post.ID] = 1
		if i%2 == 0 {
			_, err = store.posts.ToggleLike(ctx, bob.ID, post.ID)
			require.NoError(t, err)
			want[post.ID] = 2
		}
	}

	posts, err := store.posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 5)
	for _, post := range posts {
		assert.Len(t, post.Likes, want[post.ID], post.ID)
		for _, like := range post.Likes {
			assert.Equal(t, post.ID, like.PostID)
		}
	}
}

func TestPostRepository_ToggleLikeUnknownPost(t *testing.T) {
	store := newTestStore(t)
	alice := store.createUser(t, "alice")

	_, err := store.posts.ToggleLike(context.Background(), alice.ID, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 0, store.count(t, `SELECT COUNT(*) FROM likes`))
}
