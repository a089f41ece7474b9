package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"messagely/internal/common"
	"messagely/internal/config"
	"messagely/internal/dbmysql/dbtest"
	"messagely/internal/message"
	"messagely/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type apiClient struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) (*apiClient, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{Auth: config.AuthConfig{SecretKey: "test-secret", BcryptWorkFactor: bcrypt.MinCost}}
	db := dbtest.OpenSQLite(t)

	tokens, err := common.NewTokenManager(cfg)
	require.NoError(t, err)

	store := common.NewStore(
		user.NewUserRepository(db, common.NewPasswordHasher(cfg)),
		message.NewMessageRepository(db),
	)
	router := NewRouter(user.NewHandler(store, tokens), message.NewHandler(store), tokens, db)
	return &apiClient{t: t, router: router}, db
}

func (c *apiClient) call(method, path, token string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()

	if token != "" {
		path += "?_token=" + url.QueryEscape(token)
	}

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func (c *apiClient) register(username string) string {
	c.t.Helper()
	code, out := c.call(http.MethodPost, "/register", "", map[string]string{
		"username":   username,
		"password":   "secret-" + username,
		"first_name": "First-" + username,
		"last_name":  "Last-" + username,
		"phone":      "555-" + username,
	})
	require.Equal(c.t, http.StatusOK, code, out)
	token, ok := out["token"].(string)
	require.True(c.t, ok)
	return token
}

func asMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "expected object, got %T", v)
	return m
}

func asList(t *testing.T, v interface{}) []interface{} {
	t.Helper()
	l, ok := v.([]interface{})
	require.True(t, ok, "expected array, got %T", v)
	return l
}

func TestRouter_AliceAndBobScenario(t *testing.T) {
	api, _ := newTestAPI(t)

	alice := api.register("alice")
	bob := api.register("bob")

	code, out := api.call(http.MethodPost, "/messages", alice, map[string]string{"to_username": "bob", "body": "hi"})
	require.Equal(t, http.StatusOK, code, out)
	sent := asMap(t, out["message"])
	assert.Equal(t, "alice", sent["from_username"])
	assert.Equal(t, "bob", sent["to_username"])
	assert.NotEmpty(t, sent["sent_at"])
	id := int(sent["id"].(float64))

	code, out = api.call(http.MethodGet, "/users/alice/from", alice, nil)
	require.Equal(t, http.StatusOK, code)
	outbox := asList(t, out["messages"])
	require.Len(t, outbox, 1)
	first := asMap(t, outbox[0])
	assert.Equal(t, "hi", first["body"])
	assert.Nil(t, first["read_at"])
	assert.Equal(t, map[string]interface{}{
		"username":   "bob",
		"first_name": "First-bob",
		"last_name":  "Last-bob",
		"phone":      "555-bob",
	}, first["to_user"])

	code, out = api.call(http.MethodGet, "/users/bob/to", bob, nil)
	require.Equal(t, http.StatusOK, code)
	inbox := asList(t, out["messages"])
	require.Len(t, inbox, 1)
	assert.Equal(t, "alice", asMap(t, asMap(t, inbox[0])["from_user"])["username"])

	readPath := fmt.Sprintf("/messages/%d/read", id)
	code, _ = api.call(http.MethodPost, readPath, alice, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "the sender cannot mark read")

	code, out = api.call(http.MethodPost, readPath, bob, nil)
	require.Equal(t, http.StatusOK, code)
	receipt := asMap(t, out["message"])
	require.NotNil(t, receipt["read_at"])
	firstReadAt := receipt["read_at"]

	code, out = api.call(http.MethodPost, readPath, bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, firstReadAt, asMap(t, out["message"])["read_at"])

	code, out = api.call(http.MethodGet, fmt.Sprintf("/messages/%d", id), alice, nil)
	require.Equal(t, http.StatusOK, code)
	detail := asMap(t, out["message"])
	assert.Equal(t, firstReadAt, detail["read_at"])
	assert.Equal(t, "alice", asMap(t, detail["from_user"])["username"])
	assert.Equal(t, "bob", asMap(t, detail["to_user"])["username"])
}

func TestRouter_ThirdPartyCannotReadMessage(t *testing.T) {
	api, _ := newTestAPI(t)

	alice := api.register("alice")
	api.register("bob")
	carol := api.register("carol")

	code, out := api.call(http.MethodPost, "/messages", alice, map[string]string{"to_username": "bob", "body": "secret"})
	require.Equal(t, http.StatusOK, code)
	id := int(asMap(t, out["message"])["id"].(float64))

	code, out = api.call(http.MethodGet, fmt.Sprintf("/messages/%d", id), carol, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, map[string]interface{}{"message": "Unauthorized", "status": float64(401)}, out["error"])

	code, _ = api.call(http.MethodPost, fmt.Sprintf("/messages/%d/read", id), carol, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_UsersOrderedByUsername(t *testing.T) {
	api, _ := newTestAPI(t)

	var token string
	for _, name := range []string{"zoe", "mike", "adam"} {
		token = api.register(name)
	}

	code, out := api.call(http.MethodGet, "/users", token, nil)
	require.Equal(t, http.StatusOK, code)

	var names []string
	for _, u := range asList(t, out["users"]) {
		entry := asMap(t, u)
		assert.NotContains(t, entry, "password")
		assert.NotContains(t, entry, "phone")
		names = append(names, entry["username"].(string))
	}
	assert.Equal(t, []string{"adam", "mike", "zoe"}, names)
}

func TestRouter_LoginFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	api.register("alice")

	code, out := api.call(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "secret-alice"})
	require.Equal(t, http.StatusOK, code)
	token := out["token"].(string)

	code, out = api.call(http.MethodGet, "/users/alice", token, nil)
	require.Equal(t, http.StatusOK, code)
	profile := asMap(t, out["user"])
	assert.Equal(t, "555-alice", profile["phone"])
	assert.NotNil(t, profile["join_at"])
	assert.NotNil(t, profile["last_login_at"])
	assert.NotContains(t, profile, "password")

	code, _ = api.call(http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.call(http.MethodPost, "/login", "", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code, "unknown users look like bad passwords")

	code, out = api.call(http.MethodPost, "/register", "", map[string]string{
		"username": "alice", "password": "x", "first_name": "A", "last_name": "B", "phone": "1",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username alice already exists", asMap(t, out["error"])["message"])
}

func TestRouter_ErrorEnvelopes(t *testing.T) {
	api, _ := newTestAPI(t)
	alice := api.register("alice")

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		body     interface{}
		wantCode int
	}{
		{name: "unknown route", method: http.MethodGet, path: "/nowhere", wantCode: http.StatusNotFound},
		{name: "wrong method", method: http.MethodDelete, path: "/users", wantCode: http.StatusMethodNotAllowed},
		{name: "no token", method: http.MethodGet, path: "/users", wantCode: http.StatusUnauthorized},
		{name: "forged token", method: http.MethodGet, path: "/users", token: "abc.def.ghi", wantCode: http.StatusUnauthorized},
		{name: "missing message", method: http.MethodGet, path: "/messages/999", token: alice, wantCode: http.StatusNotFound},
		{name: "message to unknown user", method: http.MethodPost, path: "/messages", token: alice,
			body: map[string]string{"to_username": "ghost", "body": "hi"}, wantCode: http.StatusNotFound},
		{name: "register missing fields", method: http.MethodPost, path: "/register",
			body: map[string]string{"username": "x"}, wantCode: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out := api.call(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.wantCode, code)
			envelope := asMap(t, out["error"])
			assert.Equal(t, float64(tc.wantCode), envelope["status"])
			assert.NotEmpty(t, envelope["message"])
		})
	}
}

func TestRouter_RejectsOversizedInput(t *testing.T) {
	api, _ := newTestAPI(t)
	alice := api.register("alice")
	api.register("bob")

	tests := []struct {
		name      string
		path      string
		token     string
		body      map[string]string
		wantField string
	}{
		{
			name: "multibyte password over 72 bytes",
			path: "/register",
			body: map[string]string{
				"username": "carol", "password": strings.Repeat("é", 40),
				"first_name": "C", "last_name": "D", "phone": "1",
			},
			wantField: "password",
		},
		{
			name:      "multibyte password at login",
			path:      "/login",
			body:      map[string]string{"username": "alice", "password": strings.Repeat("é", 40)},
			wantField: "password",
		},
		{
			name:      "message body larger than the column",
			path:      "/messages",
			token:     alice,
			body:      map[string]string{"to_username": "bob", "body": strings.Repeat("a", 65536)},
			wantField: "body",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out := api.call(http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, asMap(t, out["error"])["message"], tc.wantField)
		})
	}

	code, _ := api.call(http.MethodPost, "/messages", alice, map[string]string{"to_username": "bob", "body": strings.Repeat("a", 65535)})
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_Health(t *testing.T) {
	api, db := newTestAPI(t)

	code, out := api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", out["status"])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, out = api.call(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "down", out["database"])
}

func TestRouter_Preflight(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/messages", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
