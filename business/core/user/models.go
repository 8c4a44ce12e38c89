package user

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an individual user.
type User struct {
	ID            uuid.UUID       `json:"id"`
	Username      string          `json:"username"`
	PasswordHash  []byte          `json:"-"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	IsAdmin       bool            `json:"is_admin"`
	DateCreated   time.Time       `json:"date_created"`
	WalletAddress string          `json:"wallet_address"`
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// Wallet is the key pair created for every user at registration. The
// private key is kept with the wallet so the owner can read it back.
type Wallet struct {
	Address    string    `json:"address"`
	PrivateKey string    `json:"private_key"`
	UserID     uuid.UUID `json:"user_id"`
}
