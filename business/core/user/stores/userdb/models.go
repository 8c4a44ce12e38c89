package userdb

import (
	"database/sql"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dbUser represent the structure we need for moving data
// between the app and the database.
type dbUser struct {
	ID            uuid.UUID       `db:"user_id"`
	Username      string          `db:"username"`
	PasswordHash  []byte          `db:"password_hash"`
	PukBalance    decimal.Decimal `db:"puk_balance"`
	IsAdmin       bool            `db:"is_admin"`
	DateCreated   time.Time       `db:"date_created"`
	WalletAddress sql.NullString  `db:"wallet_address"`
}

func toDBUser(usr user.User) dbUser {
	return dbUser{
		ID:           usr.ID,
		Username:     usr.Username,
		PasswordHash: usr.PasswordHash,
		PukBalance:   usr.StoredBalance,
		IsAdmin:      usr.IsAdmin,
		DateCreated:  usr.DateCreated.UTC(),
	}
}

func toCoreUser(dbUsr dbUser) user.User {
	return user.User{
		ID:            dbUsr.ID,
		Username:      dbUsr.Username,
		PasswordHash:  dbUsr.PasswordHash,
		StoredBalance: dbUsr.PukBalance,
		IsAdmin:       dbUsr.IsAdmin,
		DateCreated:   dbUsr.DateCreated.In(time.UTC),
		WalletAddress: dbUsr.WalletAddress.String,
	}
}

type dbWallet struct {
	Address    string    `db:"wallet_address"`
	PrivateKey string    `db:"private_key"`
	UserID     uuid.UUID `db:"user_id"`
}

func toDBWallet(w user.Wallet) dbWallet {
	return dbWallet{
		Address:    w.Address,
		PrivateKey: w.PrivateKey,
		UserID:     w.UserID,
	}
}
