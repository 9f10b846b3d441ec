// Copyright (c) 2026 Cliply. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction, common body
decoding patterns, and multipart file intake, ensuring consistent error
handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/cliply/internal/platform/apperr"
	"github.com/taibuivan/cliply/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// # Multipart Intake

/*
SaveFormFile spools a single multipart file part to a temporary file under dir
and returns its path. The caller (media uploader) owns the temp file from then
on and removes it on both success and failure paths.

Parameters:
  - header: *multipart.FileHeader (one entry of request.MultipartForm.File)
  - dir: string (spool directory, created if missing)
  - maxBytes: int64 (hard cap on the part size)

Returns:
  - string: Path of the spooled temporary file
  - error: apperr.ValidationError when the part is oversized or unreadable
*/
func SaveFormFile(header *multipart.FileHeader, dir string, maxBytes int64) (string, error) {
	if header.Size > maxBytes {
		return "", apperr.ValidationError(fmt.Sprintf("Uploaded file exceeds the %d byte limit", maxBytes))
	}

	part, err := header.Open()
	if err != nil {
		return "", apperr.ValidationError("Uploaded file could not be read")
	}
	defer part.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("request: failed to create upload dir: %w", err)
	}

	// Keep the original extension so the uploader can infer a content type.
	extension := filepath.Ext(header.Filename)
	tempFile, err := os.CreateTemp(dir, "upload-*"+extension)
	if err != nil {
		return "", fmt.Errorf("request: failed to create temp file: %w", err)
	}

	// Copy with a one-byte margin so a lying Content-Length is still caught.
	written, err := io.Copy(tempFile, io.LimitReader(part, maxBytes+1))
	closeErr := tempFile.Close()

	if err != nil || closeErr != nil {
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("request: failed to spool upload: %w", errors.Join(err, closeErr))
	}
	if written > maxBytes {
		_ = os.Remove(tempFile.Name())
		return "", apperr.ValidationError(fmt.Sprintf("Uploaded file exceeds the %d byte limit", maxBytes))
	}

	return tempFile.Name(), nil
}
