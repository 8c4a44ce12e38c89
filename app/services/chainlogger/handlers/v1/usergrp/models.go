package usergrp

import "time"

type credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	IsAdmin     bool      `json:"is_admin"`
	DateExpires time.Time `json:"expires"`
}

type status struct {
	Status string `json:"status"`
}
