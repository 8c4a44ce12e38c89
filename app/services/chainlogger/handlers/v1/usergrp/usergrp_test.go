package usergrp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/chainlogger/app/services/chainlogger/handlers/v1/usergrp"
	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/core/user"
	"github.com/ardanlabs/chainlogger/business/web/mid"
	"github.com/ardanlabs/chainlogger/foundation/web"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const cookieName = "chainlogger_session"

func newApp() http.Handler {
	log := zap.NewNop().Sugar()
	sess := session.NewCore(log, &sessionStore{m: make(map[string]session.Session)}, time.Hour)

	h := usergrp.Handlers{
		Log:        log,
		User:       user.NewCore(log, &userStore{users: make(map[uuid.UUID]user.User)}),
		Session:    sess,
		CookieName: cookieName,
	}

	authen := mid.Authenticate(sess, cookieName)
	ident := mid.Identify(sess, cookieName)

	app := web.NewApp(nil, mid.Errors(log))
	app.Handle(http.MethodPost, "v1", "/register", h.Register)
	app.Handle(http.MethodPost, "v1", "/login", h.Login)
	app.Handle(http.MethodPost, "v1", "/register_admin", h.RegisterAdmin, ident)
	app.Handle(http.MethodGet, "v1", "/logout", h.Logout, authen)

	return app
}

func call(t *testing.T, app http.Handler, method string, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the body: %v", failed, err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		r.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func TestAccounts(t *testing.T) {
	app := newApp()
	alice := map[string]string{"username": "alice", "password": "gophers"}

	t.Log("Given the need to register and log in users over http.")
	{
		t.Logf("\tTest 0:\tWhen registering a new user.")
		{
			w := call(t, app, http.MethodPost, "/v1/register", alice, nil)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 0:\tShould get a 201, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 0:\tShould get a 201.", success)

			var usr user.User
			if err := json.NewDecoder(w.Body).Decode(&usr); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to decode the user: %v", failed, err)
			}
			if usr.Username != "alice" || usr.IsAdmin || usr.WalletAddress == "" {
				t.Fatalf("\t%s\tTest 0:\tShould get a regular user with a wallet, got %+v.", failed, usr)
			}
			t.Logf("\t%s\tTest 0:\tShould get a regular user with a wallet.", success)
		}

		t.Logf("\tTest 1:\tWhen registering the same username again.")
		{
			w := call(t, app, http.MethodPost, "/v1/register", alice, nil)
			if w.Code != http.StatusConflict {
				t.Fatalf("\t%s\tTest 1:\tShould get a 409, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould get a 409.", success)
		}

		t.Logf("\tTest 2:\tWhen registering without a password.")
		{
			w := call(t, app, http.MethodPost, "/v1/register", map[string]string{"username": "bob"}, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest 2:\tShould get a 400, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 2:\tShould get a 400.", success)

			for _, pw := range []string{strings.Repeat("a", 100), strings.Repeat("€", 30)} {
				w := call(t, app, http.MethodPost, "/v1/register", map[string]string{"username": "bob", "password": pw}, nil)
				if w.Code != http.StatusBadRequest {
					t.Fatalf("\t%s\tTest 2:\tShould reject a %d byte password with a 400, got %d: %s", failed, len(pw), w.Code, w.Body.String())
				}
			}
			t.Logf("\t%s\tTest 2:\tShould reject passwords longer than 72 bytes with a 400.", success)
		}

		t.Logf("\tTest 3:\tWhen logging in with the wrong password.")
		{
			w := call(t, app, http.MethodPost, "/v1/login", map[string]string{"username": "alice", "password": "nope"}, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("\t%s\tTest 3:\tShould get a 401, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 3:\tShould get a 401.", success)

			if sessionCookie(w) != nil {
				t.Fatalf("\t%s\tTest 3:\tShould not set a session cookie.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould not set a session cookie.", success)
		}

		t.Logf("\tTest 4:\tWhen logging in and out.")
		{
			w := call(t, app, http.MethodPost, "/v1/login", alice, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 4:\tShould get a 200, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 4:\tShould get a 200.", success)

			cookie := sessionCookie(w)
			if cookie == nil || cookie.Value == "" || !cookie.HttpOnly {
				t.Fatalf("\t%s\tTest 4:\tShould set an http only session cookie, got %+v.", failed, cookie)
			}
			t.Logf("\t%s\tTest 4:\tShould set an http only session cookie.", success)

			w = call(t, app, http.MethodGet, "/v1/logout", nil, cookie)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 4:\tShould be able to log out, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 4:\tShould be able to log out.", success)

			w = call(t, app, http.MethodGet, "/v1/logout", nil, cookie)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("\t%s\tTest 4:\tShould reject the ended session, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 4:\tShould reject the ended session.", success)
		}
	}
}

func TestRegisterAdmin(t *testing.T) {
	app := newApp()
	root := map[string]string{"username": "root", "password": "secret"}

	t.Log("Given the need to create admins over http.")
	{
		t.Logf("\tTest 0:\tWhen no admin exists yet.")
		{
			w := call(t, app, http.MethodPost, "/v1/register_admin", root, nil)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 0:\tShould let anyone create the first admin, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 0:\tShould let anyone create the first admin.", success)
		}

		t.Logf("\tTest 1:\tWhen an anonymous caller adds another admin.")
		{
			w := call(t, app, http.MethodPost, "/v1/register_admin", map[string]string{"username": "eve", "password": "x"}, nil)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("\t%s\tTest 1:\tShould get a 401, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 1:\tShould get a 401.", success)
		}

		t.Logf("\tTest 2:\tWhen a regular user adds another admin.")
		{
			call(t, app, http.MethodPost, "/v1/register", map[string]string{"username": "bob", "password": "pw"}, nil)
			cookie := sessionCookie(call(t, app, http.MethodPost, "/v1/login", map[string]string{"username": "bob", "password": "pw"}, nil))

			w := call(t, app, http.MethodPost, "/v1/register_admin", map[string]string{"username": "eve", "password": "x"}, cookie)
			if w.Code != http.StatusForbidden {
				t.Fatalf("\t%s\tTest 2:\tShould get a 403, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 2:\tShould get a 403.", success)
		}

		t.Logf("\tTest 3:\tWhen an admin adds another admin.")
		{
			cookie := sessionCookie(call(t, app, http.MethodPost, "/v1/login", root, nil))

			w := call(t, app, http.MethodPost, "/v1/register_admin", map[string]string{"username": "carol", "password": "x"}, cookie)
			if w.Code != http.StatusCreated {
				t.Fatalf("\t%s\tTest 3:\tShould get a 201, got %d: %s", failed, w.Code, w.Body.String())
			}
			t.Logf("\t%s\tTest 3:\tShould get a 201.", success)
		}
	}
}

// =============================================================================

type userStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func (s *userStore) WithinTran(ctx context.Context, fn func(user.Storer) error) error {
	return fn(s)
}

func (s *userStore) Create(ctx context.Context, usr user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == usr.Username {
			return user.ErrUniqueUsername
		}
	}
	s.users[usr.ID] = usr
	return nil
}

func (s *userStore) CreateWallet(ctx context.Context, w user.Wallet) error {
	return nil
}

func (s *userStore) QueryByID(ctx context.Context, userID uuid.UUID) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usr, exists := s.users[userID]
	if !exists {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (s *userStore) QueryByUsername(ctx context.Context, username string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usr := range s.users {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *userStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users), nil
}

func (s *userStore) CountAdmins(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, usr := range s.users {
		if usr.IsAdmin {
			n++
		}
	}
	return n, nil
}

type sessionStore struct {
	mu sync.Mutex
	m  map[string]session.Session
}

func (s *sessionStore) Create(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[sess.Token] = sess
	return nil
}

func (s *sessionStore) QueryByToken(ctx context.Context, token string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.m[token]
	if !exists {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *sessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, token)
	return nil
}

func (s *sessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
