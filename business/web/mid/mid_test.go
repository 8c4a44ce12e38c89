package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/chainlogger/business/core/session"
	"github.com/ardanlabs/chainlogger/business/web/auth"
	"github.com/ardanlabs/chainlogger/business/web/errs"
	"github.com/ardanlabs/chainlogger/business/web/mid"
	"github.com/ardanlabs/chainlogger/foundation/validate"
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

func TestErrors(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
		fields bool
	}

	tt := []table{
		{name: "ok", err: nil, status: http.StatusOK},
		{name: "validation", err: validate.NewFieldsError("title", errors.New("title is a required field")), status: http.StatusBadRequest, fields: true},
		{name: "trusted", err: errs.NewTrusted(errors.New("username already exists"), http.StatusConflict), status: http.StatusConflict},
		{name: "unauthenticated", err: auth.ErrUnauthenticated, status: http.StatusUnauthorized},
		{name: "forbidden", err: auth.ErrForbidden, status: http.StatusForbidden},
		{name: "unknown", err: errors.New("database exploded"), status: http.StatusInternalServerError},
	}

	t.Log("Given the need to turn handler errors into responses.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen the handler returns %v.", testID, tst.err)
				{
					h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						if tst.err != nil {
							return tst.err
						}
						return web.Respond(ctx, w, nil, http.StatusOK)
					}

					w := serve(t, wrap(h, mid.Errors(zap.NewNop().Sugar())), nil)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould get status %d, got %d.", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)

					if tst.err == nil {
						return
					}

					var er errs.Response
					if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould get a JSON error body: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a JSON error body.", success, testID)

					if tst.status == http.StatusInternalServerError && er.Error != http.StatusText(http.StatusInternalServerError) {
						t.Fatalf("\t%s\tTest %d:\tShould hide the internal error, got %q.", failed, testID, er.Error)
					}

					if tst.fields && er.Fields["title"] == "" {
						t.Fatalf("\t%s\tTest %d:\tShould report the failing field.", failed, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestPanics(t *testing.T) {
	t.Log("Given the need to survive a panicking handler.")
	{
		t.Logf("\tTest 0:\tWhen the handler panics.")
		{
			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			}

			w := serve(t, wrap(h, mid.Errors(zap.NewNop().Sugar()), mid.Panics()), nil)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("\t%s\tTest 0:\tShould get status 500, got %d.", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould get status 500.", success)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := &memStore{m: make(map[string]session.Session)}
	core := session.NewCore(zap.NewNop().Sugar(), store, time.Hour)

	user, err := core.Create(ctx, uuid.New(), false, time.Now().UTC())
	if err != nil {
		t.Fatalf("Should be able to create a session: %v", err)
	}

	admin, err := core.Create(ctx, uuid.New(), true, time.Now().UTC())
	if err != nil {
		t.Fatalf("Should be able to create a session: %v", err)
	}

	type table struct {
		name   string
		cookie *http.Cookie
		admin  bool
		status int
	}

	tt := []table{
		{name: "no-cookie", cookie: nil, status: http.StatusUnauthorized},
		{name: "bad-cookie", cookie: &http.Cookie{Name: cookieName, Value: uuid.NewString()}, status: http.StatusUnauthorized},
		{name: "user", cookie: &http.Cookie{Name: cookieName, Value: user.Token}, status: http.StatusOK},
		{name: "user-on-admin", cookie: &http.Cookie{Name: cookieName, Value: user.Token}, admin: true, status: http.StatusForbidden},
		{name: "admin-on-admin", cookie: &http.Cookie{Name: cookieName, Value: admin.Token}, admin: true, status: http.StatusOK},
	}

	t.Log("Given the need to authenticate requests by session cookie.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen calling with %s.", testID, tst.name)
				{
					h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						claims, err := auth.GetClaims(ctx)
						if err != nil {
							return err
						}
						return web.Respond(ctx, w, claims.UserID, http.StatusOK)
					}

					mw := []web.Middleware{mid.Errors(zap.NewNop().Sugar()), mid.Authenticate(core, cookieName)}
					if tst.admin {
						mw = append(mw, mid.Authorize())
					}

					w := serve(t, wrap(h, mw...), tst.cookie)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould get status %d, got %d.", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

// =============================================================================

// wrap applies the middleware so the first one listed runs first.
func wrap(h web.Handler, mw ...web.Middleware) web.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

func serve(t *testing.T, h web.Handler, cookie *http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/v1/test", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()

	ctx := web.InitValues(r.Context(), uuid.NewString())
	if err := h(ctx, w, r); err != nil {
		t.Fatalf("\t%s\tShould not leak an error past the middleware: %v", failed, err)
	}

	return w
}

type memStore struct {
	mu sync.Mutex
	m  map[string]session.Session
}

func (s *memStore) Create(ctx context.Context, sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[sess.Token] = sess
	return nil
}

func (s *memStore) QueryByToken(ctx context.Context, token string) (session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.m[token]
	if !exists {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (s *memStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, token)
	return nil
}

func (s *memStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
