// services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/monitor"
)

var (
	ErrEditNotFound = errors.New("edit request not found")
)

// DefaultEditTTL bounds how long an open edit request stays valid.
const DefaultEditTTL = 10 * time.Minute

// EditRequest is an open label edit. Current is the label at the time the
// request was opened; the edit is applied only through CommitEdit.
type EditRequest struct {
	Token      string            `json:"token"`
	CategoryID int               `json:"category_id"`
	Kind       models.ObjectKind `json:"kind"`
	Index      int               `json:"index"`
	Current    string            `json:"current"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// AdminService 管理题库内容：导入导出、图片上传、文字编辑
type AdminService struct {
	store   *catalog.Store
	monitor *monitor.Monitor
	ttl     time.Duration
	now     func() time.Time

	edits map[string]EditRequest
	mutex sync.Mutex
}

func NewAdminService(store *catalog.Store, mon *monitor.Monitor) *AdminService {
	return &AdminService{
		store:   store,
		monitor: mon,
		ttl:     DefaultEditTTL,
		now:     time.Now,
		edits:   make(map[string]EditRequest),
	}
}

// observe counts persistence failures and passes err through.
func (s *AdminService) observe(err error) error {
	if err != nil && errors.Is(err, catalog.ErrStorageUnavailable) && s.monitor != nil {
		s.monitor.IncStorageErrors()
	}
	return err
}

func (s *AdminService) Catalog() models.Catalog {
	return s.store.Catalog()
}

func (s *AdminService) Export() ([]byte, error) {
	return s.store.Export()
}

func (s *AdminService) Import(contents []byte) (models.Catalog, error) {
	c, err := s.store.Import(contents)
	if err != nil {
		if s.monitor != nil && errors.Is(err, catalog.ErrMalformedImport) {
			s.monitor.IncImportFailures()
		}
		logger.Log.Warnf("Catalog import rejected: %v", err)
		return c, s.observe(err)
	}
	s.dropEdits()
	return c, nil
}

func (s *AdminService) Reset() (models.Catalog, error) {
	c, err := s.store.Reset()
	s.dropEdits()
	return c, s.observe(err)
}

// UpdateImage stores an already-encoded data URL as the category's image.
func (s *AdminService) UpdateImage(categoryID int, imageData string) error {
	return s.observe(s.store.UpdateCategoryImage(categoryID, imageData))
}

// UploadImage encodes raw file bytes and stores them as the category's image.
func (s *AdminService) UploadImage(categoryID int, raw []byte) error {
	dataURL, err := catalog.ImageDataURL(raw)
	if err != nil {
		return err
	}
	return s.UpdateImage(categoryID, dataURL)
}

// UpdateLabel replaces one label directly, reporting whether it changed.
func (s *AdminService) UpdateLabel(categoryID int, kind models.ObjectKind, index int, label string) (bool, error) {
	changed, err := s.store.UpdateObjectLabel(categoryID, kind, index, label)
	return changed, s.observe(err)
}

// BeginEdit opens an edit request for one label.
func (s *AdminService) BeginEdit(categoryID int, kind models.ObjectKind, index int) (EditRequest, error) {
	if !kind.Valid() {
		return EditRequest{}, fmt.Errorf("%w: unknown list %q", catalog.ErrInvalidEdit, kind)
	}
	cat, ok := s.store.Category(categoryID)
	if !ok {
		return EditRequest{}, fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, categoryID)
	}
	labels := kind.Labels(&cat)
	if index < 0 || index >= len(labels) {
		return EditRequest{}, fmt.Errorf("%w: index %d out of range", catalog.ErrInvalidEdit, index)
	}

	req := EditRequest{
		Token:      uuid.New().String(),
		CategoryID: categoryID,
		Kind:       kind,
		Index:      index,
		Current:    labels[index],
		ExpiresAt:  s.now().Add(s.ttl),
	}

	s.mutex.Lock()
	s.pruneLocked()
	s.edits[req.Token] = req
	s.mutex.Unlock()
	return req, nil
}

// CommitEdit applies the new value of an open request and closes it. A blank
// value closes the request without changing anything, like a cancel.
func (s *AdminService) CommitEdit(token string, value string) (bool, error) {
	req, err := s.take(token)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(value) == "" {
		logger.Log.Infof("Edit %s closed without a value", token)
		return false, nil
	}
	return s.UpdateLabel(req.CategoryID, req.Kind, req.Index, value)
}

// CancelEdit closes an open request.
func (s *AdminService) CancelEdit(token string) error {
	_, err := s.take(token)
	return err
}

// PendingEdits returns the number of open, unexpired requests.
func (s *AdminService) PendingEdits() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pruneLocked()
	return len(s.edits)
}

func (s *AdminService) take(token string) (EditRequest, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pruneLocked()
	req, ok := s.edits[token]
	if !ok {
		return EditRequest{}, ErrEditNotFound
	}
	delete(s.edits, token)
	return req, nil
}

func (s *AdminService) pruneLocked() {
	now := s.now()
	for token, req := range s.edits {
		if now.After(req.ExpiresAt) {
			delete(s.edits, token)
		}
	}
}

// dropEdits invalidates open requests after the whole catalog was replaced.
func (s *AdminService) dropEdits() {
	s.mutex.Lock()
	s.edits = make(map[string]EditRequest)
	s.mutex.Unlock()
}
