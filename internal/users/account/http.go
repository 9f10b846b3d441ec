// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/constants"
	requestutil "github.com/taibuivan/cliply/internal/platform/request"
	"github.com/taibuivan/cliply/internal/platform/respond"
	"github.com/taibuivan/cliply/internal/users/auth"
)

// Handler exposes the profile endpoints. Every route sits behind the request
// guard.
type Handler struct {
	service       *Service
	guard         *auth.Guard
	uploadTempDir string
}

// NewHandler creates the HTTP handler for the profile surface.
func NewHandler(service *Service, guard *auth.Guard, uploadTempDir string) *Handler {
	return &Handler{
		service:       service,
		guard:         guard,
		uploadTempDir: uploadTempDir,
	}
}

// Routes mounts the guarded profile endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.guard.RequireAccount)

	router.Get("/me", handler.GetProfile)
	router.Patch("/me/avatar", handler.UpdateAvatar)
	router.Patch("/me/cover-image", handler.UpdateCoverImage)

	return router
}

/*
GetProfile handles GET /me.

Description: Returns the guard-resolved sanitized account re-read from
storage, so the response reflects mutations the cache may not have seen yet.
*/
func (handler *Handler) GetProfile(writer http.ResponseWriter, request *http.Request) {
	caller, err := auth.RequiredAccount(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.service.GetProfile(request.Context(), caller.ID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile, "Current user fetched successfully")
}

/*
UpdateAvatar handles PATCH /me/avatar (multipart/form-data, one avatar part).
*/
func (handler *Handler) UpdateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.updateMedia(writer, request, auth.FieldAvatar, handler.service.UpdateAvatar,
		"Avatar updated successfully")
}

/*
UpdateCoverImage handles PATCH /me/cover-image (multipart/form-data, one
coverImage part).
*/
func (handler *Handler) UpdateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.updateMedia(writer, request, auth.FieldCoverImage, handler.service.UpdateCoverImage,
		"Cover image updated successfully")
}

// updateMedia is the shared multipart intake for the two media endpoints.
func (handler *Handler) updateMedia(
	writer http.ResponseWriter,
	request *http.Request,
	field string,
	update func(requestContext context.Context, accountID, localPath string) (*auth.Account, error),
	message string,
) {
	caller, err := auth.RequiredAccount(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := request.ParseMultipartForm(constants.MaxMultipartMemory); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Expected multipart/form-data payload"))
		return
	}

	headers := request.MultipartForm.File[field]
	if len(headers) != 1 {
		respond.Error(writer, request, apperr.ValidationError("Exactly one "+field+" file is required"))
		return
	}

	localPath, err := requestutil.SaveFormFile(headers[0], handler.uploadTempDir, constants.MaxUploadBytes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := update(request.Context(), caller.ID, localPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile, message)
}
