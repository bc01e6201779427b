package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photo-share/internal/apperror"
	"photo-share/internal/domain"
	"photo-share/internal/service"
)

type UserSummaryResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
}

type LikeUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type LikeResponse struct {
	ID     string           `json:"id"`
	UserID string           `json:"userId"`
	User   LikeUserResponse `json:"user"`
}

type PostCountResponse struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

type PostResponse struct {
	ID        string              `json:"id"`
	ImageURL  string              `json:"imageUrl"`
	Caption   *string             `json:"caption"`
	UserID    string              `json:"userId"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	User      UserSummaryResponse `json:"user"`
	Likes     []LikeResponse      `json:"likes"`
	Count     PostCountResponse   `json:"_count"`
}

type CommentResponse struct {
	ID        string              `json:"id"`
	Content   string              `json:"content"`
	UserID    string              `json:"userId"`
	PostID    string              `json:"postId"`
	CreatedAt time.Time           `json:"createdAt"`
	User      UserSummaryResponse `json:"user"`
}

type createCommentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPost(c *gin.Context) {
	claims, _ := sessionFrom(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, apperror.Validation("Image too large"))
			return
		}
		h.writeError(c, service.ErrNoImage)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.writeError(c, apperror.Internal("open uploaded image", err))
		return
	}
	defer file.Close()

	post, err := h.posts.CreatePost(c.Request.Context(), service.CreatePostInput{
		UserID:   claims.Subject,
		Caption:  c.PostForm("caption"),
		Filename: header.Filename,
		Image:    file,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) toggleLike(c *gin.Context) {
	claims, _ := sessionFrom(c)

	liked, err := h.posts.ToggleLike(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *Handler) listComments(c *gin.Context) {
	comments, err := h.posts.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]CommentResponse, len(comments))
	for i := range comments {
		resp[i] = commentToResponse(comments[i])
	}
	c.JSON(http.StatusOK, gin.H{"comments": resp})
}

func (h *Handler) addComment(c *gin.Context) {
	claims, _ := sessionFrom(c)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errInvalidBody)
		return
	}

	comment, err := h.posts.AddComment(c.Request.Context(), claims.Subject, c.Param("id"), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": commentToResponse(*comment)})
}

func authorToResponse(author domain.Author) UserSummaryResponse {
	return UserSummaryResponse{
		ID:       author.ID,
		Username: author.Username,
		Name:     author.Name,
		Avatar:   author.Avatar,
	}
}

func postToResponse(post domain.Post) PostResponse {
	resp := PostResponse{
		ID:        post.ID,
		ImageURL:  post.ImageURL,
		Caption:   post.Caption,
		UserID:    post.UserID,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
		User:      authorToResponse(post.Author),
		Likes:     make([]LikeResponse, len(post.Likes)),
		Count: PostCountResponse{
			Likes:    post.LikeCount,
			Comments: post.CommentCount,
		},
	}
	for i, like := range post.Likes {
		resp.Likes[i] = LikeResponse{
			ID:     like.ID,
			UserID: like.UserID,
			User: LikeUserResponse{
				ID:       like.UserID,
				Username: like.Username,
			},
		}
	}
	return resp
}

func commentToResponse(comment domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		CreatedAt: comment.CreatedAt,
		User:      authorToResponse(comment.Author),
	}
}
