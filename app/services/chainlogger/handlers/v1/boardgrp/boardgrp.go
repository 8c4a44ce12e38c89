// Package boardgrp maintains the group of handlers for the discussion board.
package boardgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/business/web/errs"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handlers manages the set of board endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Board *board.Core
}

// QueryPosts returns a page of posts, newest first.
func (h Handlers) QueryPosts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page := web.QueryInt(r, "page", 1)

	posts, p, err := h.Board.QueryPage(ctx, page)
	if err != nil {
		return fmt.Errorf("query posts: %w", err)
	}

	resp := postPage{
		Posts: posts,
		Page:  p,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreatePost adds a new post written by the caller.
func (h Handlers) CreatePost(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	var np board.NewPost
	if err := web.Decode(r, &np); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	post, err := h.Board.CreatePost(ctx, claims.UserID, np, v.Now)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return web.Respond(ctx, w, post, http.StatusCreated)
}

// QueryPost returns a post with its comments.
func (h Handlers) QueryPost(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	postID, err := paramID(r)
	if err != nil {
		return err
	}

	post, cmts, err := h.Board.QueryPost(ctx, postID)
	if err != nil {
		return statuses.Trust(err)
	}

	resp := postDetail{
		Post:     post,
		Comments: cmts,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddComment adds a comment from the caller to a post.
func (h Handlers) AddComment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	claims, err := auth.GetClaims(ctx)
	if err != nil {
		return err
	}

	postID, err := paramID(r)
	if err != nil {
		return err
	}

	var nc board.NewComment
	if err := web.Decode(r, &nc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	cmt, err := h.Board.AddComment(ctx, postID, claims.UserID, nc, v.Now)
	if err != nil {
		return statuses.Trust(err)
	}

	return web.Respond(ctx, w, cmt, http.StatusCreated)
}

// DeletePost removes a post and its comments.
func (h Handlers) DeletePost(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	postID, err := paramID(r)
	if err != nil {
		return err
	}

	if err := h.Board.DeletePost(ctx, postID); err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("delete post", "traceid", v.TraceID, "postid", postID)

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// DeleteComment removes a single comment.
func (h Handlers) DeleteComment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	cmtID, err := paramID(r)
	if err != nil {
		return err
	}

	postID, err := h.Board.DeleteComment(ctx, cmtID)
	if err != nil {
		return statuses.Trust(err)
	}

	h.Log.Infow("delete comment", "traceid", v.TraceID, "commentid", cmtID, "postid", postID)

	resp := deleted{
		PostID: postID,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// =============================================================================

func paramID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(web.Param(r, "id"))
	if err != nil {
		return uuid.Nil, errs.NewTrusted(errors.New("invalid id"), http.StatusBadRequest)
	}

	return id, nil
}

var statuses = errs.Statuses{
	{Err: board.ErrNotFound, Code: http.StatusNotFound},
	{Err: board.ErrCommentNotFound, Code: http.StatusNotFound},
}
