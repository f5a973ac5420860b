package handler_test

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/realtime-auction/internal/config"
	"github.com/iliyamo/realtime-auction/internal/handler"
	"github.com/iliyamo/realtime-auction/internal/repository"
	"github.com/iliyamo/realtime-auction/internal/router"
	"github.com/iliyamo/realtime-auction/internal/utils"
)

// captured matches any argument and remembers it.
type captured struct{ value string }

func (c *captured) Match(v driver.Value) bool {
	s, ok := v.(string)
	c.value = s
	return ok
}

type authResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	User    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

var userCols = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

func newAuthAPI(t *testing.T) (*echo.Echo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: bcrypt.MinCost}
	e := echo.New()
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), secret)
	return e, mock
}

func postJSON(t *testing.T, e *echo.Echo, path, body string) (int, authResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out authResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestAuth_SignupLoginRoundTrip(t *testing.T) {
	e, mock := newAuthAPI(t)
	userID, hash := &captured{}, &captured{}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (id, username, email, password_hash)`)).
		WithArgs(userID, "alice", "alice@example.com", hash).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	code, signup := postJSON(t, e, "/api/v1/auth/signup",
		`{"username":" alice ","email":"Alice@Example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, code, signup.Error)
	require.Equal(t, "User registered successfully", signup.Message)
	require.Equal(t, userID.value, signup.User.ID)
	require.NotEqual(t, "hunter22", hash.value)
	uid, name, err := utils.ParseAccessToken(secret, signup.Access.Token)
	require.NoError(t, err)
	require.Equal(t, userID.value, uid)
	require.Equal(t, "alice", name)

	now := time.Now().UTC()
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).AddRow(userID.value, "alice", "alice@example.com", hash.value, now, now)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=?`)).WithArgs("alice@example.com").WillReturnRows(userRow())

	code, bad := postJSON(t, e, "/api/v1/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid credentials", bad.Error)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=?`)).WithArgs("alice@example.com").WillReturnRows(userRow())
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WithArgs(userID.value, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	code, login := postJSON(t, e, "/api/v1/auth/login", `{"email":"ALICE@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, code, login.Error)
	require.Equal(t, "Login successful", login.Message)
	require.NotEqual(t, signup.Refresh.Token, login.Refresh.Token)

	// a fresh access token from the refresh token, without rotating it
	refreshHash := utils.HashRefreshRaw(login.Refresh.Token)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash=?`)).WithArgs(refreshHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(userID.value, now.Add(time.Hour), nil))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=?`)).WithArgs(userID.value).WillReturnRows(userRow())

	code, access := postJSON(t, e, "/api/v1/auth/refresh-access", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	require.Equal(t, http.StatusOK, code, access.Error)
	uid, _, err = utils.ParseAccessToken(secret, access.Access.Token)
	require.NoError(t, err)
	require.Equal(t, userID.value, uid)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash=?`)).WithArgs(refreshHash).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(userID.value, now.Add(time.Hour), nil))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?`)).
		WithArgs(refreshHash).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code, _ = postJSON(t, e, "/api/v1/auth/logout", `{"refresh_token":"`+login.Refresh.Token+`"}`)
	require.Equal(t, http.StatusNoContent, code)
}

func TestAuth_SignupErrors(t *testing.T) {
	e, mock := newAuthAPI(t)

	code, out := postJSON(t, e, "/api/v1/auth/signup", `{"username":"bob","email":"","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.NotEmpty(t, out.Error)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(sqlmock.AnyArg(), "bob", "bob@example.com", sqlmock.AnyArg()).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'bob@example.com' for key 'users.email'"))

	code, out = postJSON(t, e, "/api/v1/auth/signup", `{"username":"bob","email":"bob@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "user already exists", out.Error)
}

func TestAuth_LoginUnknownEmail(t *testing.T) {
	e, mock := newAuthAPI(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=?`)).WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	code, out := postJSON(t, e, "/api/v1/auth/login", `{"email":"nobody@example.com","password":"x"}`)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid credentials", out.Error)
}

func TestAuth_LogoutNeedsCredentials(t *testing.T) {
	e, _ := newAuthAPI(t)
	code, out := postJSON(t, e, "/api/v1/auth/logout", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.NotEmpty(t, out.Error)
}
