// Package user manages the accounts of the service. Every user is created
// with a wallet and authenticates with a bcrypt hashed password.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound              = errors.New("user not found")
	ErrUniqueUsername        = errors.New("username already exists")
	ErrAuthenticationFailure = errors.New("authentication failed")
	ErrPasswordTooLong       = errors.New("password exceeds 72 bytes")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	WithinTran(ctx context.Context, fn func(s Storer) error) error
	Create(ctx context.Context, usr User) error
	CreateWallet(ctx context.Context, w Wallet) error
	QueryByID(ctx context.Context, userID uuid.UUID) (User, error)
	QueryByUsername(ctx context.Context, username string) (User, error)
	Count(ctx context.Context) (int, error)
	CountAdmins(ctx context.Context) (int, error)
}

// Core manages the set of APIs for user access.
type Core struct {
	log    *zap.SugaredLogger
	storer Storer
}

// NewCore constructs a core for user api access.
func NewCore(log *zap.SugaredLogger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Create inserts a new user and the wallet that belongs to it.
func (c *Core) Create(ctx context.Context, nu NewUser, isAdmin bool, now time.Time) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, ErrPasswordTooLong
		}
		return User{}, fmt.Errorf("generatefrompassword: %w", err)
	}

	w, err := newWallet()
	if err != nil {
		return User{}, fmt.Errorf("newwallet: %w", err)
	}

	usr := User{
		ID:            uuid.New(),
		Username:      nu.Username,
		PasswordHash:  hash,
		StoredBalance: decimal.Zero,
		IsAdmin:       isAdmin,
		DateCreated:   now,
		WalletAddress: w.Address,
	}
	w.UserID = usr.ID

	f := func(s Storer) error {
		if err := s.Create(ctx, usr); err != nil {
			return fmt.Errorf("create: %w", err)
		}

		if err := s.CreateWallet(ctx, w); err != nil {
			return fmt.Errorf("createwallet: %w", err)
		}

		return nil
	}

	if err := c.storer.WithinTran(ctx, f); err != nil {
		return User{}, err
	}

	return usr, nil
}

// BootstrapAdmin creates the first admin account. Nothing is created when
// an admin already exists.
func (c *Core) BootstrapAdmin(ctx context.Context, nu NewUser, now time.Time) (User, bool, error) {
	n, err := c.storer.CountAdmins(ctx)
	if err != nil {
		return User{}, false, fmt.Errorf("countadmins: %w", err)
	}

	if n > 0 {
		return User{}, false, nil
	}

	usr, err := c.Create(ctx, nu, true, now)
	if err != nil {
		return User{}, false, err
	}

	return usr, true, nil
}

// Authenticate finds a user by their username and verifies their password.
func (c *Core) Authenticate(ctx context.Context, username string, password string) (User, error) {
	usr, err := c.storer.QueryByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrAuthenticationFailure
		}
		return User{}, fmt.Errorf("query: username[%s]: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrAuthenticationFailure
	}

	return usr, nil
}

// QueryByID gets the specified user from the database.
func (c *Core) QueryByID(ctx context.Context, userID uuid.UUID) (User, error) {
	usr, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return usr, nil
}

// QueryByUsername gets the specified user from the database.
func (c *Core) QueryByUsername(ctx context.Context, username string) (User, error) {
	usr, err := c.storer.QueryByUsername(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("query: username[%s]: %w", username, err)
	}

	return usr, nil
}

// Count returns the number of registered users.
func (c *Core) Count(ctx context.Context) (int, error) {
	return c.storer.Count(ctx)
}

// CountAdmins returns the number of admin users.
func (c *Core) CountAdmins(ctx context.Context) (int, error) {
	return c.storer.CountAdmins(ctx)
}

// =============================================================================

// newWallet generates a fresh ECDSA key pair and derives its address.
func newWallet() (Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, err
	}

	w := Wallet{
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(privateKey)),
	}

	return w, nil
}
