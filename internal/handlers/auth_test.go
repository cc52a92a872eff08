package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/stellularorg/guppy/internal/boot"
	"github.com/stellularorg/guppy/internal/cachedb"
	"github.com/stellularorg/guppy/internal/guppydb"
	"github.com/stellularorg/guppy/internal/model"
	"github.com/stellularorg/guppy/internal/sqldb"
)

func newTestEnv(t *testing.T, name string) (Database, *Session) {
	t.Helper()

	opts := sqldb.Options{
		Type: sqldb.TypeSQLite,
		DSN:  name + "?mode=memory&cache=shared",
	}

	db, err := sqldb.Connect(opts)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := cachedb.New("")
	if err != nil {
		t.Fatalf("opening test cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	g := guppydb.New(db, cache, opts, func(s string) string { return s })
	if err := g.Init(); err != nil {
		t.Fatalf("creating tables: %v", err)
	}

	return g, NewSession("test-signing-secret")
}

func jsonRequest(method string, body string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	assert := assert.New(t)
	db, session := newTestEnv(t, "handlersregister")

	t.Run("Register", func(t *testing.T) {
		rec, c := jsonRequest(http.MethodPost, `{"username":"newcomer"}`)
		err := Register(db, session, &boot.Config{})(c)
		assert.Nil(err)
		assert.Equal(http.StatusOK, rec.Code)

		var res model.DefaultReturn[*model.UserCredentials]
		assert.Nil(json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(res.Success)
		assert.NotEmpty(res.Payload.UnhashedSecret)

		cookie := sessionCookie(rec)
		assert.NotNil(cookie)
		assert.True(cookie.HttpOnly)
	})

	t.Run("Duplicate gets no cookie", func(t *testing.T) {
		rec, c := jsonRequest(http.MethodPost, `{"username":"newcomer"}`)
		err := Register(db, session, &boot.Config{})(c)
		assert.Nil(err)

		var res model.DefaultReturn[*model.UserCredentials]
		assert.Nil(json.Unmarshal(rec.Body.Bytes(), &res))
		assert.False(res.Success)
		assert.Equal("User already exists!", res.Message)
		assert.Nil(sessionCookie(rec))
	})

	t.Run("Registration disabled", func(t *testing.T) {
		rec, c := jsonRequest(http.MethodPost, `{"username":"blocked"}`)
		err := Register(db, session, &boot.Config{RegistrationDisabled: true})(c)
		assert.Nil(err)
		assert.Equal(http.StatusNotAcceptable, rec.Code)
	})

	t.Run("Invite code gate", func(t *testing.T) {
		config := &boot.Config{InviteCodes: "alpha,beta"}

		rec, c := jsonRequest(http.MethodPost, `{"username":"gated","invite_code":"wrong"}`)
		err := Register(db, session, config)(c)
		assert.Nil(err)
		assert.Equal(http.StatusNotAcceptable, rec.Code)

		rec, c = jsonRequest(http.MethodPost, `{"username":"gated","invite_code":"beta"}`)
		err = Register(db, session, config)(c)
		assert.Nil(err)
		assert.Equal(http.StatusOK, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	assert := assert.New(t)
	db, session := newTestEnv(t, "handlerslogin")

	created := db.CreateUser("resident")
	assert.True(created.Success)
	secret := created.Payload.UnhashedSecret

	t.Run("Login", func(t *testing.T) {
		rec, c := jsonRequest(http.MethodPost, `{"uid":"`+secret+`"}`)
		err := Login(db, session)(c)
		assert.Nil(err)
		assert.Equal(http.StatusOK, rec.Code)
		assert.NotNil(sessionCookie(rec))

		var res model.DefaultReturn[string]
		assert.Nil(json.Unmarshal(rec.Body.Bytes(), &res))
		assert.True(res.Success)
		assert.Equal("resident", res.Payload)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		rec, c := jsonRequest(http.MethodPost, `{"uid":"wrong-secret"}`)
		err := Login(db, session)(c)
		assert.Nil(err)
		assert.Equal(http.StatusNotAcceptable, rec.Code)
		assert.Nil(sessionCookie(rec))
	})

	t.Run("Whoami", func(t *testing.T) {
		signed, err := session.Issue(secret)
		assert.Nil(err)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: signed})
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.Nil(Whoami(db, session)(c))
		assert.Equal("resident", rec.Body.String())
	})

	t.Run("Whoami signed out", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.Nil(Whoami(db, session)(c))
		assert.Empty(rec.Body.String())
	})
}
