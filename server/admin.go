package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/services"
)

// maxUploadBytes caps catalog imports and image uploads.
const maxUploadBytes = 16 << 20

func (s *GameServer) registerAdminRoutes(r *mux.Router) {
	r.HandleFunc("/catalog", s.handleGetCatalog()).Methods(http.MethodGet)
	r.HandleFunc("/catalog/export", s.handleExport()).Methods(http.MethodGet)
	r.HandleFunc("/catalog/import", s.handleImport()).Methods(http.MethodPost)
	r.HandleFunc("/catalog/reset", s.handleReset()).Methods(http.MethodPost)
	r.HandleFunc("/categories/{id:[0-9]+}/image", s.handleGetImage()).Methods(http.MethodGet)
	r.HandleFunc("/categories/{id:[0-9]+}/image", s.handlePutImage()).Methods(http.MethodPut)
	r.HandleFunc("/categories/{id:[0-9]+}/{kind}/{index:[0-9]+}", s.handlePutLabel()).Methods(http.MethodPut)
	r.HandleFunc("/edits", s.handleBeginEdit()).Methods(http.MethodPost)
	r.HandleFunc("/edits/{token}", s.handleCommitEdit()).Methods(http.MethodPost)
	r.HandleFunc("/edits/{token}", s.handleCancelEdit()).Methods(http.MethodDelete)
}

// statusFor maps catalog and admin errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrNothingToExport),
		errors.Is(err, services.ErrEditNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrMalformedImport),
		errors.Is(err, catalog.ErrInvalidCatalog),
		errors.Is(err, catalog.ErrInvalidEdit),
		errors.Is(err, catalog.ErrNotAnImage):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Errorf("Admin request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}

// writeResult sends v, or the error. A storage failure after an in-memory
// change still sends v, flagged with a warning header.
func writeResult(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		if !errors.Is(err, catalog.ErrStorageUnavailable) {
			writeError(w, err)
			return
		}
		w.Header().Set("X-Storage-Warning", err.Error())
	}
	writeJSON(w, v)
}

func categoryID(r *http.Request) int {
	// the route pattern guarantees digits
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (s *GameServer) handleGetCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.admin.Catalog())
	}
}

func (s *GameServer) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := s.admin.Export()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", catalog.ExportFileName))
		w.Write(data)
	}
}

func (s *GameServer) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusRequestEntityTooLarge)
			return
		}
		c, err := s.admin.Import(body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, c)
	}
}

func (s *GameServer) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := s.admin.Reset()
		writeResult(w, c, err)
	}
}

// handleGetImage serves an uploaded image, or redirects to the bundled file.
func (s *GameServer) handleGetImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, ok := s.store.Category(categoryID(r))
		if !ok {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		if cat.UploadedImage == "" {
			http.Redirect(w, r, "/images/"+path.Clean(cat.ImagePath), http.StatusFound)
			return
		}
		contentType, raw, err := catalog.DecodeDataURL(cat.UploadedImage)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(raw)
	}
}

// handlePutImage accepts either raw image bytes or an image data URL.
func (s *GameServer) handlePutImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusRequestEntityTooLarge)
			return
		}
		if text := strings.TrimSpace(string(body)); catalog.IsImageDataURL(text) {
			err = s.admin.UpdateImage(categoryID(r), text)
		} else {
			err = s.admin.UploadImage(categoryID(r), body)
		}
		if err != nil && !errors.Is(err, catalog.ErrStorageUnavailable) {
			writeError(w, err)
			return
		}
		cat, _ := s.store.Category(categoryID(r))
		writeResult(w, cat, err)
	}
}

type labelRequest struct {
	Label string `json:"label"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

func (s *GameServer) handlePutLabel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req labelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		vars := mux.Vars(r)
		index, _ := strconv.Atoi(vars["index"])
		changed, err := s.admin.UpdateLabel(categoryID(r), models.ObjectKind(vars["kind"]), index, req.Label)
		writeResult(w, changedResponse{Changed: changed}, err)
	}
}

type beginEditRequest struct {
	CategoryID int               `json:"category_id"`
	Kind       models.ObjectKind `json:"kind"`
	Index      int               `json:"index"`
}

type commitEditRequest struct {
	Value string `json:"value"`
}

func (s *GameServer) handleBeginEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req beginEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		edit, err := s.admin.BeginEdit(req.CategoryID, req.Kind, req.Index)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(edit)
	}
}

func (s *GameServer) handleCommitEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req commitEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		changed, err := s.admin.CommitEdit(mux.Vars(r)["token"], req.Value)
		writeResult(w, changedResponse{Changed: changed}, err)
	}
}

func (s *GameServer) handleCancelEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.admin.CancelEdit(mux.Vars(r)["token"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
