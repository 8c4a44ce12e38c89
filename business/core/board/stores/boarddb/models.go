package boarddb

import (
	"time"

	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/google/uuid"
)

type dbPost struct {
	ID          uuid.UUID     `db:"post_id"`
	Title       string        `db:"title"`
	Content     string        `db:"content"`
	UserID      uuid.NullUUID `db:"user_id"`
	Username    string        `db:"username"`
	DateCreated time.Time     `db:"date_created"`
}

func toDBPost(post board.Post) dbPost {
	return dbPost{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		UserID:      uuid.NullUUID{UUID: post.UserID, Valid: post.UserID != uuid.Nil},
		DateCreated: post.DateCreated.UTC(),
	}
}

func toCorePost(dbp dbPost) board.Post {
	return board.Post{
		ID:          dbp.ID,
		Title:       dbp.Title,
		Content:     dbp.Content,
		UserID:      dbp.UserID.UUID,
		Username:    dbp.Username,
		DateCreated: dbp.DateCreated.In(time.UTC),
	}
}

func toCorePostSlice(dbps []dbPost) []board.Post {
	posts := make([]board.Post, len(dbps))
	for i, dbp := range dbps {
		posts[i] = toCorePost(dbp)
	}
	return posts
}

type dbComment struct {
	ID          uuid.UUID     `db:"comment_id"`
	PostID      uuid.UUID     `db:"post_id"`
	PostTitle   string        `db:"post_title"`
	UserID      uuid.NullUUID `db:"user_id"`
	Username    string        `db:"username"`
	Content     string        `db:"content"`
	DateCreated time.Time     `db:"date_created"`
}

func toDBComment(cmt board.Comment) dbComment {
	return dbComment{
		ID:          cmt.ID,
		PostID:      cmt.PostID,
		UserID:      uuid.NullUUID{UUID: cmt.UserID, Valid: cmt.UserID != uuid.Nil},
		Content:     cmt.Content,
		DateCreated: cmt.DateCreated.UTC(),
	}
}

func toCoreComment(dbc dbComment) board.Comment {
	return board.Comment{
		ID:          dbc.ID,
		PostID:      dbc.PostID,
		PostTitle:   dbc.PostTitle,
		UserID:      dbc.UserID.UUID,
		Username:    dbc.Username,
		Content:     dbc.Content,
		DateCreated: dbc.DateCreated.In(time.UTC),
	}
}

func toCoreCommentSlice(dbcs []dbComment) []board.Comment {
	cmts := make([]board.Comment, len(dbcs))
	for i, dbc := range dbcs {
		cmts[i] = toCoreComment(dbc)
	}
	return cmts
}
