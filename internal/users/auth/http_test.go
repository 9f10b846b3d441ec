// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/cliply/internal/platform/constants"
	"github.com/taibuivan/cliply/internal/platform/sec"
	"github.com/taibuivan/cliply/internal/users/auth"
)

// httpFixture wires the full auth handler over the in-memory repository.
type httpFixture struct {
	router     http.Handler
	repository *memoryAccountRepository
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()

	repository := newMemoryAccountRepository()
	issuer := newTestTokenProvider(t)
	uploader := &fakeUploader{}

	service := auth.NewService(repository, nil, sec.NewHasher(bcrypt.MinCost), issuer, uploader)
	guard := auth.NewGuard(issuer, repository, nil)

	handler := auth.NewHandler(service, guard, auth.HandlerOptions{
		UploadTempDir:   t.TempDir(),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		SecureCookies:   true,
	})

	return &httpFixture{router: handler.Routes(), repository: repository}
}

// registerRequest builds a multipart registration request with an avatar part.
func registerRequest(t *testing.T, username, email string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	require.NoError(t, form.WriteField(auth.FieldUsername, username))
	require.NoError(t, form.WriteField(auth.FieldEmail, email))
	require.NoError(t, form.WriteField(auth.FieldFullName, "Chitoge Kirisaki"))
	require.NoError(t, form.WriteField(auth.FieldPassword, "correct-horse"))

	part, err := form.CreateFormFile(auth.FieldAvatar, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/register", body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	return request
}

// envelope mirrors the response shape for decoding in assertions.
type envelope struct {
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return decoded
}

/*
TestHandler_Register verifies the multipart endpoint: 201, envelope shape,
and no credential material in the body.
*/
func TestHandler_Register(t *testing.T) {
	fixture := newHTTPFixture(t)

	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, registerRequest(t, "chitoge", "chitoge@example.com"))

	require.Equal(t, http.StatusCreated, recorder.Code)

	decoded := decodeEnvelope(t, recorder)
	assert.Equal(t, http.StatusCreated, decoded.Status)
	assert.Equal(t, "User registered successfully", decoded.Message)
	assert.NotContains(t, recorder.Body.String(), "password")
	assert.NotContains(t, recorder.Body.String(), "refresh_token")
}

/*
TestHandler_Register_NoAvatar verifies the 400 when the avatar part is absent.
*/
func TestHandler_Register_NoAvatar(t *testing.T) {
	fixture := newHTTPFixture(t)

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	require.NoError(t, form.WriteField(auth.FieldUsername, "chitoge"))
	require.NoError(t, form.Close())

	request := httptest.NewRequest(http.MethodPost, "/register", body)
	request.Header.Set("Content-Type", form.FormDataContentType())
	recorder := httptest.NewRecorder()

	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHandler_Register_Conflict verifies the 409 for a duplicate registration.
*/
func TestHandler_Register_Conflict(t *testing.T) {
	fixture := newHTTPFixture(t)

	first := httptest.NewRecorder()
	fixture.router.ServeHTTP(first, registerRequest(t, "chitoge", "chitoge@example.com"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	fixture.router.ServeHTTP(second, registerRequest(t, "chitoge", "other@example.com"))

	assert.Equal(t, http.StatusConflict, second.Code)
	decoded := decodeEnvelope(t, second)
	assert.Equal(t, "CONFLICT", decoded.Code)
}

// loginRecorder registers and logs in, returning the login response.
func loginRecorder(t *testing.T, fixture *httpFixture) *httptest.ResponseRecorder {
	t.Helper()

	register := httptest.NewRecorder()
	fixture.router.ServeHTTP(register, registerRequest(t, "chitoge", "chitoge@example.com"))
	require.Equal(t, http.StatusCreated, register.Code)

	body := strings.NewReader(`{"identifier":"chitoge","password":"correct-horse"}`)
	request := httptest.NewRequest(http.MethodPost, "/login", body)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

// sessionCookies extracts the two session cookies from a response.
func sessionCookies(t *testing.T, recorder *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	t.Helper()
	response := recorder.Result()
	for _, cookie := range response.Cookies() {
		switch cookie.Name {
		case constants.AccessTokenCookieName:
			access = cookie
		case constants.RefreshTokenCookieName:
			refresh = cookie
		}
	}
	return access, refresh
}

/*
TestHandler_Login verifies the token cookies: httpOnly, Secure, and expiries
matching the configured TTLs.
*/
func TestHandler_Login(t *testing.T) {
	fixture := newHTTPFixture(t)

	recorder := loginRecorder(t, fixture)
	require.Equal(t, http.StatusOK, recorder.Code)

	decoded := decodeEnvelope(t, recorder)
	assert.Equal(t, "User logged in successfully", decoded.Message)

	access, refresh := sessionCookies(t, recorder)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	for _, cookie := range []*http.Cookie{access, refresh} {
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.NotEmpty(t, cookie.Value)
	}
	assert.Equal(t, 60, access.MaxAge)
	assert.Equal(t, 3600, refresh.MaxAge)
}

/*
TestHandler_Login_BadCredentials verifies the 401 envelope.
*/
func TestHandler_Login_BadCredentials(t *testing.T) {
	fixture := newHTTPFixture(t)

	register := httptest.NewRecorder()
	fixture.router.ServeHTTP(register, registerRequest(t, "chitoge", "chitoge@example.com"))
	require.Equal(t, http.StatusCreated, register.Code)

	body := strings.NewReader(`{"identifier":"chitoge","password":"wrong-horse"}`)
	request := httptest.NewRequest(http.MethodPost, "/login", body)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	decoded := decodeEnvelope(t, recorder)
	assert.Equal(t, "UNAUTHORIZED", decoded.Code)
}

/*
TestHandler_RefreshToken verifies the cookie-driven rotation flow end to end:
login, refresh with the cookie, and rejection of the consumed token.
*/
func TestHandler_RefreshToken(t *testing.T) {
	fixture := newHTTPFixture(t)

	login := loginRecorder(t, fixture)
	require.Equal(t, http.StatusOK, login.Code)
	_, refreshCookie := sessionCookies(t, login)
	require.NotNil(t, refreshCookie)

	// 1. Refresh with the cookie succeeds and rotates
	request := httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	request.AddCookie(refreshCookie)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	_, rotatedCookie := sessionCookies(t, recorder)
	require.NotNil(t, rotatedCookie)
	assert.NotEqual(t, refreshCookie.Value, rotatedCookie.Value)

	// 2. The consumed token is rejected on reuse
	replay := httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	replay.AddCookie(refreshCookie)
	replayRecorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(replayRecorder, replay)

	assert.Equal(t, http.StatusUnauthorized, replayRecorder.Code)
}

/*
TestHandler_RefreshToken_Body verifies the JSON-body fallback for clients
without cookies.
*/
func TestHandler_RefreshToken_Body(t *testing.T) {
	fixture := newHTTPFixture(t)

	login := loginRecorder(t, fixture)
	_, refreshCookie := sessionCookies(t, login)
	require.NotNil(t, refreshCookie)

	payload, err := json.Marshal(map[string]string{"refresh_token": refreshCookie.Value})
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, "/refresh-token", bytes.NewReader(payload))
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHandler_RefreshToken_Missing verifies the 401 when no token arrives at all.
*/
func TestHandler_RefreshToken_Missing(t *testing.T) {
	fixture := newHTTPFixture(t)

	request := httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHandler_Logout verifies the guarded logout: session cleared and cookies
expired.
*/
func TestHandler_Logout(t *testing.T) {
	fixture := newHTTPFixture(t)

	login := loginRecorder(t, fixture)
	accessCookie, refreshCookie := sessionCookies(t, login)
	require.NotNil(t, accessCookie)

	// 1. Without a token the endpoint is guarded
	bare := httptest.NewRequest(http.MethodPost, "/logout", nil)
	bareRecorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(bareRecorder, bare)
	assert.Equal(t, http.StatusUnauthorized, bareRecorder.Code)

	// 2. With the access cookie the session is cleared
	request := httptest.NewRequest(http.MethodPost, "/logout", nil)
	request.AddCookie(accessCookie)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	expiredAccess, expiredRefresh := sessionCookies(t, recorder)
	require.NotNil(t, expiredAccess)
	require.NotNil(t, expiredRefresh)
	assert.Equal(t, -1, expiredAccess.MaxAge)
	assert.Equal(t, -1, expiredRefresh.MaxAge)

	// 3. The pre-logout refresh token is dead
	replay := httptest.NewRequest(http.MethodPost, "/refresh-token", nil)
	replay.AddCookie(refreshCookie)
	replayRecorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(replayRecorder, replay)
	assert.Equal(t, http.StatusUnauthorized, replayRecorder.Code)
}

/*
TestHandler_ChangePassword verifies the guarded JSON endpoint.
*/
func TestHandler_ChangePassword(t *testing.T) {
	fixture := newHTTPFixture(t)

	login := loginRecorder(t, fixture)
	accessCookie, _ := sessionCookies(t, login)
	require.NotNil(t, accessCookie)

	body := strings.NewReader(`{"old_password":"correct-horse","new_password":"battery-staple"}`)
	request := httptest.NewRequest(http.MethodPost, "/change-password", body)
	request.AddCookie(accessCookie)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	decoded := decodeEnvelope(t, recorder)
	assert.Equal(t, "Password changed successfully", decoded.Message)

	// The new credential logs in
	loginBody := strings.NewReader(`{"identifier":"chitoge","password":"battery-staple"}`)
	loginRequest := httptest.NewRequest(http.MethodPost, "/login", loginBody)
	loginRec := httptest.NewRecorder()
	fixture.router.ServeHTTP(loginRec, loginRequest)
	assert.Equal(t, http.StatusOK, loginRec.Code)
}
