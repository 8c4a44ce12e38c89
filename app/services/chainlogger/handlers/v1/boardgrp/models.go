package boardgrp

import (
	"github.com/ardanlabs/chainlogger/business/core/board"
	"github.com/ardanlabs/chainlogger/business/data/paging"
	"github.com/google/uuid"
)

type postPage struct {
	Posts []board.Post `json:"posts"`
	Page  paging.Page  `json:"paging"`
}

type postDetail struct {
	Post     board.Post      `json:"post"`
	Comments []board.Comment `json:"comments"`
}

type deleted struct {
	PostID uuid.UUID `json:"post_id"`
}
