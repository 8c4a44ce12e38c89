// Package boarddb contains post and comment related CRUD functionality.
package boarddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/sys/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Store manages the set of APIs for board access.
type Store struct {
	log    *zap.SugaredLogger
	db     sqlx.ExtContext
	inTran bool
}

// NewStore constructs the api for data access.
func NewStore(log *zap.SugaredLogger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// WithinTran runs passed function and do commit/rollback at the end.
func (s *Store) WithinTran(ctx context.Context, fn func(s board.Storer) error) error {
	if s.inTran {
		return fn(s)
	}

	f := func(tx *sqlx.Tx) error {
		s := &Store{
			log:    s.log,
			db:     tx,
			inTran: true,
		}
		return fn(s)
	}

	return database.WithinTran(ctx, s.log, s.db.(*sqlx.DB), f)
}

// CreatePost inserts a new post.
func (s *Store) CreatePost(ctx context.Context, post board.Post) error {
	const q = `
	INSERT INTO posts
		(post_id, title, content, user_id, date_created)
	VALUES
		(:post_id, :title, :content, :user_id, :date_created)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBPost(post)); err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	return nil
}

// QueryPostByID gets the specified post.
func (s *Store) QueryPostByID(ctx context.Context, postID uuid.UUID) (board.Post, error) {
	data := struct {
		PostID uuid.UUID `db:"post_id"`
	}{
		PostID: postID,
	}

	const q = `
	SELECT
		p.post_id, p.title, p.content, p.user_id, p.date_created,
		COALESCE(u.username, 'None') AS username
	FROM
		posts p
	LEFT JOIN
		users u ON u.user_id = p.user_id
	WHERE
		p.post_id = :post_id`

	var dbp dbPost
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbp); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return board.Post{}, board.ErrNotFound
		}
		return board.Post{}, fmt.Errorf("selecting postID[%s]: %w", postID, err)
	}

	return toCorePost(dbp), nil
}

// QueryPosts returns a window of posts, newest first.
func (s *Store) QueryPosts(ctx context.Context, offset int, limit int) ([]board.Post, error) {
	data := struct {
		Offset int `db:"offset"`
		Limit  int `db:"limit"`
	}{
		Offset: offset,
		Limit:  limit,
	}

	const q = `
	SELECT
		p.post_id, p.title, p.content, p.user_id, p.date_created,
		COALESCE(u.username, 'None') AS username
	FROM
		posts p
	LEFT JOIN
		users u ON u.user_id = p.user_id
	ORDER BY
		p.date_created DESC
	OFFSET :offset ROWS FETCH NEXT :limit ROWS ONLY`

	var dbps []dbPost
	if err := database.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbps); err != nil {
		return nil, fmt.Errorf("selecting posts: %w", err)
	}

	return toCorePostSlice(dbps), nil
}

// CountPosts returns the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	const q = `
	SELECT
		COUNT(*) AS count
	FROM
		posts`

	var count struct {
		Count int `db:"count"`
	}
	if err := database.QueryStruct(ctx, s.log, s.db, q, &count); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}

	return count.Count, nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, postID uuid.UUID) error {
	data := struct {
		PostID uuid.UUID `db:"post_id"`
	}{
		PostID: postID,
	}

	const q = `
	DELETE FROM
		posts
	WHERE
		post_id = :post_id`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("deleting postID[%s]: %w", postID, err)
	}

	return nil
}

// CreateComment inserts a new comment.
func (s *Store) CreateComment(ctx context.Context, cmt board.Comment) error {
	const q = `
	INSERT INTO comments
		(comment_id, post_id, user_id, content, date_created)
	VALUES
		(:comment_id, :post_id, :user_id, :content, :date_created)`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, toDBComment(cmt)); err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}

	return nil
}

// QueryCommentByID gets the specified comment.
func (s *Store) QueryCommentByID(ctx context.Context, commentID uuid.UUID) (board.Comment, error) {
	data := struct {
		CommentID uuid.UUID `db:"comment_id"`
	}{
		CommentID: commentID,
	}

	const q = `
	SELECT
		c.comment_id, c.post_id, c.user_id, c.content, c.date_created,
		COALESCE(u.username, 'None') AS username,
		COALESCE(p.title, 'Unknown') AS post_title
	FROM
		comments c
	LEFT JOIN
		users u ON u.user_id = c.user_id
	LEFT JOIN
		posts p ON p.post_id = c.post_id
	WHERE
		c.comment_id = :comment_id`

	var dbc dbComment
	if err := database.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbc); err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return board.Comment{}, board.ErrCommentNotFound
		}
		return board.Comment{}, fmt.Errorf("selecting commentID[%s]: %w", commentID, err)
	}

	return toCoreComment(dbc), nil
}

// QueryComments returns the comments of a post, oldest first.
func (s *Store) QueryComments(ctx context.Context, postID uuid.UUID) ([]board.Comment, error) {
	data := struct {
		PostID uuid.UUID `db:"post_id"`
	}{
		PostID: postID,
	}

	const q = `
	SELECT
		c.comment_id, c.post_id, c.user_id, c.content, c.date_created,
		COALESCE(u.username, 'None') AS username,
		'' AS post_title
	FROM
		comments c
	LEFT JOIN
		users u ON u.user_id = c.user_id
	WHERE
		c.post_id = :post_id
	ORDER BY
		c.date_created ASC`

	var dbcs []dbComment
	if err := database.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbcs); err != nil {
		return nil, fmt.Errorf("selecting comments postID[%s]: %w", postID, err)
	}

	return toCoreCommentSlice(dbcs), nil
}

// QueryAllComments returns every comment with its post title, newest first.
func (s *Store) QueryAllComments(ctx context.Context) ([]board.Comment, error) {
	const q = `
	SELECT
		c.comment_id, c.post_id, c.user_id, c.content, c.date_created,
		COALESCE(u.username, 'None') AS username,
		COALESCE(p.title, 'Unknown') AS post_title
	FROM
		comments c
	LEFT JOIN
		users u ON u.user_id = c.user_id
	LEFT JOIN
		posts p ON p.post_id = c.post_id
	ORDER BY
		c.date_created DESC`

	var dbcs []dbComment
	if err := database.QuerySlice(ctx, s.log, s.db, q, &dbcs); err != nil {
		return nil, fmt.Errorf("selecting comments: %w", err)
	}

	return toCoreCommentSlice(dbcs), nil
}

// DeleteComments removes every comment of a post.
func (s *Store) DeleteComments(ctx context.Context, postID uuid.UUID) error {
	data := struct {
		PostID uuid.UUID `db:"post_id"`
	}{
		PostID: postID,
	}

	const q = `
	DELETE FROM
		comments
	WHERE
		post_id = :post_id`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("deleting comments postID[%s]: %w", postID, err)
	}

	return nil
}

// DeleteComment removes a comment.
func (s *Store) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	data := struct {
		CommentID uuid.UUID `db:"comment_id"`
	}{
		CommentID: commentID,
	}

	const q = `
	DELETE FROM
		comments
	WHERE
		comment_id = :comment_id`

	if err := database.NamedExecContext(ctx, s.log, s.db, q, data); err != nil {
		return fmt.Errorf("deleting commentID[%s]: %w", commentID, err)
	}

	return nil
}
