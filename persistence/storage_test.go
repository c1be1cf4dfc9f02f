package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/wfunc/flashfive/config"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	if _, err := s.Get("missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound for a missing key, got: %v", err)
	}

	if err := s.Set("catalog", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	data, err := s.Get("catalog")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Expected stored value, got %s", data)
	}

	if err := s.Set("catalog", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, _ = s.Get("catalog")
	if string(data) != `{"a":2}` {
		t.Errorf("Expected overwritten value, got %s", data)
	}

	if err := s.Remove("catalog"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := s.Get("catalog"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound after Remove, got: %v", err)
	}
	if err := s.Remove("catalog"); err != nil {
		t.Errorf("Removing an absent key should not fail, got: %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestMemoryStorage_CopiesData(t *testing.T) {
	s := NewMemoryStorage()
	buf := []byte("abc")
	s.Set("k", buf)
	buf[0] = 'x'

	data, _ := s.Get("k")
	if string(data) != "abc" {
		t.Errorf("Stored value should not alias the caller's slice, got %s", data)
	}
}

func TestFileStorage(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	exerciseStorage(t, s)
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer s.Close()
	exerciseStorage(t, s)
}

func TestNewByEngine(t *testing.T) {
	s, err := NewByEngine(config.StorageConfig{Engine: "memory"})
	if err != nil {
		t.Fatalf("memory engine failed: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Expected *MemoryStorage, got %T", s)
	}

	s, err = NewByEngine(config.StorageConfig{Engine: "FILE", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("file engine failed: %v", err)
	}
	if _, ok := s.(*FileStorage); !ok {
		t.Errorf("Expected *FileStorage, got %T", s)
	}

	if _, err := NewByEngine(config.StorageConfig{Engine: "redis"}); err == nil {
		t.Error("Expected an error for an unknown engine")
	}
}
