package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/JonMunkholm/DataEditor/internal/core"
	"github.com/JonMunkholm/DataEditor/internal/logging"
	"github.com/JonMunkholm/DataEditor/internal/web/templates"
)

// multipartMemory is how much of a multipart upload is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// openUpload limits the request body and returns the "file" form field.
// The caller must close the returned file.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, core.ErrNoFile
		}
		return nil, nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	return file, header, nil
}

// upload parses the request's file into the session.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (*core.UploadResult, error) {
	file, header, err := s.openUpload(w, r)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sess := sessionFrom(r.Context())
	logger := logging.WithFields(r.Context(),
		"session_id", sess.ID,
		"file", header.Filename,
		"size", header.Size,
	)
	logger.Info("upload started")

	res, err := s.service.Upload(r.Context(), sess, header.Filename, file)
	if err != nil {
		return nil, err
	}
	logger.Info("upload completed", "rows", res.Rows, "columns", res.Columns)
	return res, nil
}

// handleUpload loads a CSV or XLSX file through the JSON API.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	res, err := s.upload(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUploadResponse(res))
}

// handleUploadForm loads a file from the Upload page form and renders the
// page with the preview or the error.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	params := templates.UploadPageParams{MaxFileSize: s.cfg.Upload.MaxFileSize}

	status := http.StatusOK
	res, err := s.upload(w, r)
	if err != nil {
		status = statusForError(err)
		params.Flash = pageFlash(r, err)
	} else {
		params.Result = res
	}

	params.State = sess.State()
	renderPage(w, r, status, templates.UploadPage(params))
}
