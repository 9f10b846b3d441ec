// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/constants"
	requestutil "github.com/taibuivan/cliply/internal/platform/request"
	"github.com/taibuivan/cliply/internal/platform/respond"
	"github.com/taibuivan/cliply/internal/platform/validate"
)

// # HTTP Transport

// HandlerOptions carries the transport-level knobs the handler cannot derive
// from the service.
type HandlerOptions struct {
	// UploadTempDir is where multipart uploads are spooled before the media
	// uploader takes ownership.
	UploadTempDir string

	// AccessTokenTTL and RefreshTokenTTL drive cookie expiry. They must match
	// the TTLs the token issuer was built with.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// SecureCookies marks session cookies Secure. Disabled only for local
	// development over plain HTTP.
	SecureCookies bool
}

// Handler exposes the auth use cases over HTTP.
type Handler struct {
	service *Service
	guard   *Guard
	options HandlerOptions
}

// NewHandler creates the HTTP handler for the auth domain.
func NewHandler(service *Service, guard *Guard, options HandlerOptions) *Handler {
	return &Handler{
		service: service,
		guard:   guard,
		options: options,
	}
}

// Routes mounts the auth endpoints. Registration, login, and refresh are
// public; logout and change-password sit behind the request guard.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.Register)
	router.Post("/login", handler.Login)
	router.Post("/refresh-token", handler.Refresh)

	router.Group(func(protected chi.Router) {
		protected.Use(handler.guard.RequireAccount)
		protected.Post("/logout", handler.Logout)
		protected.Post("/change-password", handler.ChangePassword)
	})

	return router
}

/*
Register handles POST /register (multipart/form-data).

Description: Text fields arrive as form values, media as file parts. Exactly
one avatar part is required; the cover image part is optional. Files are
spooled to the temp dir here; ownership of the spooled paths passes to the
service, which guarantees their removal on every outcome.
*/
func (handler *Handler) Register(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Expected multipart/form-data payload"))
		return
	}

	avatarHeaders := request.MultipartForm.File[FieldAvatar]
	coverHeaders := request.MultipartForm.File[FieldCoverImage]

	validator := &validate.Validator{}
	err := validator.
		Custom(FieldAvatar, len(avatarHeaders) != 1, "Exactly one avatar image is required").
		Custom(FieldCoverImage, len(coverHeaders) > 1, "At most one cover image is allowed").
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	avatarPath, err := requestutil.SaveFormFile(avatarHeaders[0], handler.options.UploadTempDir, constants.MaxUploadBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	coverImagePath := ""
	if len(coverHeaders) == 1 {
		coverImagePath, err = requestutil.SaveFormFile(coverHeaders[0], handler.options.UploadTempDir, constants.MaxUploadBytes)
		if err != nil {
			handler.service.discardSpooled(avatarPath)
			respond.Error(writer, request, err)
			return
		}
	}

	account, err := handler.service.Register(request.Context(), RegisterInput{
		Username:       request.FormValue(FieldUsername),
		Email:          request.FormValue(FieldEmail),
		FullName:       request.FormValue(FieldFullName),
		Password:       request.FormValue(FieldPassword),
		AvatarPath:     avatarPath,
		CoverImagePath: coverImagePath,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, account, "User registered successfully")
}

// loginResponse is the data payload of a successful login. Tokens ride in the
// body as well as in the cookies for non-browser clients.
type loginResponse struct {
	User         *Account `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

/*
Login handles POST /login (JSON).

Description: Accepts {"identifier", "password"} and on success writes the
token pair both as httpOnly cookies and in the response body.
*/
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, pair, err := handler.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, pair)

	respond.OK(writer, loginResponse{
		User:         account,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

/*
Logout handles POST /logout (guarded).

Description: Clears the stored session and expires both cookies. The access
token the client still holds stays technically valid until its TTL runs out;
the cleared refresh token means the session cannot be extended.
*/
func (handler *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	account, err := RequiredAccount(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Logout(request.Context(), account.ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)

	respond.OK(writer, nil, "User logged out successfully")
}

// refreshRequest is the optional JSON body of the refresh endpoint for
// clients that do not carry cookies.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

/*
Refresh handles POST /refresh-token.

Description: Reads the refresh token from the refreshToken cookie, falling
back to the JSON body. On success the rotated pair replaces the cookies and
is echoed in the body.
*/
func (handler *Handler) Refresh(writer http.ResponseWriter, request *http.Request) {
	presented := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var body refreshRequest
		// Body is optional here; a decode failure just means no token.
		if err := requestutil.DecodeJSON(request, &body); err == nil {
			presented = body.RefreshToken
		}
	}

	account, pair, err := handler.service.RefreshSession(request.Context(), presented)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, pair)

	respond.OK(writer, loginResponse{
		User:         account,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

/*
ChangePassword handles POST /change-password (guarded, JSON).
*/
func (handler *Handler) ChangePassword(writer http.ResponseWriter, request *http.Request) {
	account, err := RequiredAccount(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ChangePasswordInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ChangePassword(request.Context(), account.ID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, nil, "Password changed successfully")
}

// # Cookie Management

func (handler *Handler) setSessionCookies(writer http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(writer, handler.sessionCookie(constants.AccessTokenCookieName, pair.AccessToken, handler.options.AccessTokenTTL))
	http.SetCookie(writer, handler.sessionCookie(constants.RefreshTokenCookieName, pair.RefreshToken, handler.options.RefreshTokenTTL))
}

func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	for _, name := range []string{constants.AccessTokenCookieName, constants.RefreshTokenCookieName} {
		expired := handler.sessionCookie(name, "", 0)
		expired.MaxAge = -1
		http.SetCookie(writer, expired)
	}
}

func (handler *Handler) sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   handler.options.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
