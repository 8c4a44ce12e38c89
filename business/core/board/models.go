package board

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a discussion thread.
type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DateCreated time.Time `json:"timestamp"`
}

// NewPost contains information needed to create a new post.
type NewPost struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Comment represents a reply to a post.
type Comment struct {
	ID          uuid.UUID `json:"id"`
	PostID      uuid.UUID `json:"post_id"`
	PostTitle   string    `json:"post_title,omitempty"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Content     string    `json:"content"`
	DateCreated time.Time `json:"timestamp"`
}

// NewComment contains information needed to comment on a post.
type NewComment struct {
	Content string `json:"content" validate:"required"`
}
