package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/persistence"
	"golang.org/x/text/unicode/norm"
)

// DefaultKey is the storage key the catalog blob lives under.
const DefaultKey = "flashFiveFrenzyData"

// ExportFileName is the suggested name for exported snapshots.
const ExportFileName = "flash-five-frenzy-data.json"

var (
	ErrStorageUnavailable = errors.New("catalog storage unavailable")
	ErrMalformedImport    = errors.New("malformed catalog import")
	ErrNothingToExport    = errors.New("no persisted catalog to export")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrInvalidEdit        = errors.New("invalid catalog edit")
	ErrInvalidCatalog     = errors.New("invalid catalog")
	ErrNotAnImage         = errors.New("upload is not an image")
)

// Store owns the catalog: an in-memory copy backed by one storage key.
// Reads always succeed; storage failures only affect persistence.
type Store struct {
	storage  persistence.Storage
	key      string
	catalog  models.Catalog
	onChange []func(models.Catalog)
	mutex    sync.RWMutex
}

func NewStore(storage persistence.Storage, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		storage: storage,
		key:     key,
		catalog: DefaultCatalog(),
	}
}

// OnChange registers fn to receive the new catalog after every successful change.
func (s *Store) OnChange(fn func(models.Catalog)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Load reads the persisted catalog. When the blob is absent, unreadable or
// invalid the built-in defaults are used instead and persisted so later loads
// are stable. Load never fails.
func (s *Store) Load() models.Catalog {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := s.storage.Get(s.key)
	switch {
	case err == nil:
		var c models.Catalog
		if err := json.Unmarshal(data, &c); err != nil {
			logger.Log.Warnf("Stored catalog under %s is unparseable, using defaults: %v", s.key, err)
			break
		}
		if err := Validate(c); err != nil {
			logger.Log.Warnf("Stored catalog under %s is invalid, using defaults: %v", s.key, err)
			break
		}
		s.catalog = c
		return s.catalog.Clone()
	case errors.Is(err, persistence.ErrRecordNotFound):
		logger.Log.Infof("No stored catalog under %s, seeding defaults", s.key)
	default:
		// 存储不可用时直接返回默认数据，不尝试写入
		logger.Log.Errorf("Catalog storage unavailable, using defaults: %v", err)
		s.catalog = DefaultCatalog()
		return s.catalog.Clone()
	}

	s.catalog = DefaultCatalog()
	if err := s.persistLocked(s.catalog); err != nil {
		logger.Log.Errorf("Failed to persist default catalog: %v", err)
	}
	return s.catalog.Clone()
}

// Catalog returns a copy of the current in-memory catalog.
func (s *Store) Catalog() models.Catalog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.catalog.Clone()
}

// DemoCategory returns a copy of the demo category.
func (s *Store) DemoCategory() models.Category {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.catalog.DemoImage.Clone()
}

// GameCategory returns a copy of the game category at index (0-based).
func (s *Store) GameCategory(index int) (models.Category, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if index < 0 || index >= len(s.catalog.GameImages) {
		return models.Category{}, false
	}
	return s.catalog.GameImages[index].Clone(), true
}

// Category returns a copy of the category with the given id.
func (s *Store) Category(id int) (models.Category, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	cat, ok := s.catalog.Find(id)
	if !ok {
		return models.Category{}, false
	}
	return cat.Clone(), true
}

// Save replaces the catalog. An invalid catalog is rejected outright; a storage
// failure still updates the in-memory copy and is reported as ErrStorageUnavailable.
func (s *Store) Save(c models.Catalog) error {
	if err := Validate(c); err != nil {
		return err
	}
	s.mutex.Lock()
	s.catalog = c.Clone()
	err := s.persistLocked(s.catalog)
	s.mutex.Unlock()

	s.notify()
	return err
}

// Export returns the persisted snapshot exactly as stored.
func (s *Store) Export() ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := s.storage.Get(s.key)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return nil, ErrNothingToExport
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Import parses contents as a catalog and, when it is well formed, persists it
// and makes it current. On any failure the previous catalog stays in place.
func (s *Store) Import(contents []byte) (models.Catalog, error) {
	var c models.Catalog
	if err := json.Unmarshal(contents, &c); err != nil {
		return models.Catalog{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if err := Validate(c); err != nil {
		return models.Catalog{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	s.mutex.Lock()
	if err := s.persistLocked(c); err != nil {
		s.mutex.Unlock()
		return models.Catalog{}, err
	}
	s.catalog = c.Clone()
	s.mutex.Unlock()

	logger.Log.Infof("Imported catalog with %d game categories", len(c.GameImages))
	s.notify()
	return c, nil
}

// UpdateCategoryImage sets the uploaded image of category id (0 is the demo).
func (s *Store) UpdateCategoryImage(id int, imageData string) error {
	if _, _, err := DecodeDataURL(imageData); err != nil {
		return err
	}

	s.mutex.Lock()
	cat, ok := s.catalog.Find(id)
	if !ok {
		s.mutex.Unlock()
		return fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
	}
	cat.UploadedImage = imageData
	err := s.persistLocked(s.catalog)
	s.mutex.Unlock()

	s.notify()
	return err
}

// NormalizeLabel trims and NFC-normalizes a label so visually equal labels compare equal.
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// UpdateObjectLabel replaces one label in place. It reports whether anything
// changed: an unchanged label is a no-op, an empty label or one that already
// appears in the category is rejected with ErrInvalidEdit.
func (s *Store) UpdateObjectLabel(id int, kind models.ObjectKind, index int, newLabel string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: unknown list %q", ErrInvalidEdit, kind)
	}
	label := NormalizeLabel(newLabel)
	if label == "" {
		return false, fmt.Errorf("%w: empty label", ErrInvalidEdit)
	}

	s.mutex.Lock()
	cat, ok := s.catalog.Find(id)
	if !ok {
		s.mutex.Unlock()
		return false, fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
	}
	labels := kind.Labels(cat)
	if index < 0 || index >= len(labels) {
		s.mutex.Unlock()
		return false, fmt.Errorf("%w: index %d out of range", ErrInvalidEdit, index)
	}
	if labels[index] == label {
		s.mutex.Unlock()
		return false, nil
	}
	for _, existing := range append(append([]string(nil), cat.CorrectObjects...), cat.IncorrectObjects...) {
		if existing == label {
			s.mutex.Unlock()
			return false, fmt.Errorf("%w: %q already listed", ErrInvalidEdit, label)
		}
	}
	labels[index] = label
	err := s.persistLocked(s.catalog)
	s.mutex.Unlock()

	s.notify()
	return true, err
}

// Reset drops the persisted catalog and re-seeds the defaults.
func (s *Store) Reset() (models.Catalog, error) {
	s.mutex.Lock()
	if err := s.storage.Remove(s.key); err != nil {
		logger.Log.Errorf("Failed to remove stored catalog: %v", err)
	}
	s.catalog = DefaultCatalog()
	err := s.persistLocked(s.catalog)
	c := s.catalog.Clone()
	s.mutex.Unlock()

	s.notify()
	return c, err
}

func (s *Store) persistLocked(c models.Catalog) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := s.storage.Set(s.key, data); err != nil {
		logger.Log.Errorf("Failed to persist catalog under %s: %v", s.key, err)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) notify() {
	s.mutex.RLock()
	listeners := make([]func(models.Catalog), len(s.onChange))
	copy(listeners, s.onChange)
	c := s.catalog.Clone()
	s.mutex.RUnlock()

	for _, fn := range listeners {
		fn(c)
	}
}
