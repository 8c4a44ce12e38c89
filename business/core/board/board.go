// Package board provides the core business API for the discussion board.
package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/chainlogger/business/data/paging"
	"github.com/ardanlabs/chainlogger/foundation/validate"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound        = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	WithinTran(ctx context.Context, fn func(s Storer) error) error
	CreatePost(ctx context.Context, post Post) error
	QueryPostByID(ctx context.Context, postID uuid.UUID) (Post, error)
	QueryPosts(ctx context.Context, offset int, limit int) ([]Post, error)
	CountPosts(ctx context.Context) (int, error)
	DeletePost(ctx context.Context, postID uuid.UUID) error
	CreateComment(ctx context.Context, cmt Comment) error
	QueryCommentByID(ctx context.Context, commentID uuid.UUID) (Comment, error)
	QueryComments(ctx context.Context, postID uuid.UUID) ([]Comment, error)
	QueryAllComments(ctx context.Context) ([]Comment, error)
	DeleteComments(ctx context.Context, postID uuid.UUID) error
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

// Core manages the set of APIs for board access.
type Core struct {
	log    *zap.SugaredLogger
	storer Storer
	policy *bluemonday.Policy
}

// NewCore constructs a core for board api access.
func NewCore(log *zap.SugaredLogger, storer Storer) *Core {

	// Only simple emphasis survives, every other tag is stripped.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "i", "u", "strong", "em")

	return &Core{
		log:    log,
		storer: storer,
		policy: policy,
	}
}

// CreatePost sanitizes and stores a new post.
func (c *Core) CreatePost(ctx context.Context, userID uuid.UUID, np NewPost, now time.Time) (Post, error) {
	if err := validate.Check(np); err != nil {
		return Post{}, err
	}

	post := Post{
		ID:          uuid.New(),
		Title:       c.policy.Sanitize(np.Title),
		Content:     c.policy.Sanitize(np.Content),
		UserID:      userID,
		DateCreated: now,
	}

	if err := c.storer.CreatePost(ctx, post); err != nil {
		return Post{}, fmt.Errorf("create: %w", err)
	}

	return post, nil
}

// QueryPage returns one page of posts, newest first. The requested page is
// clamped to the pages available.
func (c *Core) QueryPage(ctx context.Context, page int) ([]Post, paging.Page, error) {
	total, err := c.storer.CountPosts(ctx)
	if err != nil {
		return nil, paging.Page{}, fmt.Errorf("count: %w", err)
	}

	p := paging.New(page, paging.DefaultPerPage, total)

	posts, err := c.storer.QueryPosts(ctx, p.Offset(), p.PerPage)
	if err != nil {
		return nil, paging.Page{}, fmt.Errorf("query: %w", err)
	}

	return posts, p, nil
}

// QueryAllPosts returns every post, newest first.
func (c *Core) QueryAllPosts(ctx context.Context) ([]Post, error) {
	total, err := c.storer.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	posts, err := c.storer.QueryPosts(ctx, 0, total)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return posts, nil
}

// QueryPost returns the post with its comments, oldest comment first.
func (c *Core) QueryPost(ctx context.Context, postID uuid.UUID) (Post, []Comment, error) {
	post, err := c.storer.QueryPostByID(ctx, postID)
	if err != nil {
		return Post{}, nil, fmt.Errorf("query: postID[%s]: %w", postID, err)
	}

	cmts, err := c.storer.QueryComments(ctx, postID)
	if err != nil {
		return Post{}, nil, fmt.Errorf("query comments: postID[%s]: %w", postID, err)
	}

	return post, cmts, nil
}

// AddComment sanitizes and stores a comment on an existing post.
func (c *Core) AddComment(ctx context.Context, postID uuid.UUID, userID uuid.UUID, nc NewComment, now time.Time) (Comment, error) {
	if err := validate.Check(nc); err != nil {
		return Comment{}, err
	}

	if _, err := c.storer.QueryPostByID(ctx, postID); err != nil {
		return Comment{}, fmt.Errorf("query: postID[%s]: %w", postID, err)
	}

	cmt := Comment{
		ID:          uuid.New(),
		PostID:      postID,
		UserID:      userID,
		Content:     c.policy.Sanitize(nc.Content),
		DateCreated: now,
	}

	if err := c.storer.CreateComment(ctx, cmt); err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}

	return cmt, nil
}

// QueryAllComments returns every comment with the title of its post,
// newest first.
func (c *Core) QueryAllComments(ctx context.Context) ([]Comment, error) {
	cmts, err := c.storer.QueryAllComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}

	return cmts, nil
}

// DeletePost removes a post together with its comments.
func (c *Core) DeletePost(ctx context.Context, postID uuid.UUID) error {
	f := func(s Storer) error {
		if _, err := s.QueryPostByID(ctx, postID); err != nil {
			return fmt.Errorf("query: postID[%s]: %w", postID, err)
		}

		if err := s.DeleteComments(ctx, postID); err != nil {
			return fmt.Errorf("delete comments: postID[%s]: %w", postID, err)
		}

		if err := s.DeletePost(ctx, postID); err != nil {
			return fmt.Errorf("delete: postID[%s]: %w", postID, err)
		}

		return nil
	}

	return c.storer.WithinTran(ctx, f)
}

// DeleteComment removes a comment and returns the post it belonged to.
func (c *Core) DeleteComment(ctx context.Context, commentID uuid.UUID) (uuid.UUID, error) {
	cmt, err := c.storer.QueryCommentByID(ctx, commentID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("query: commentID[%s]: %w", commentID, err)
	}

	if err := c.storer.DeleteComment(ctx, commentID); err != nil {
		return uuid.Nil, fmt.Errorf("delete: commentID[%s]: %w", commentID, err)
	}

	return cmt.PostID, nil
}
