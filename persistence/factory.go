package persistence

import (
	"errors"
	"strings"

	"github.com/wfunc/flashfive/config"
)

const (
	EngineMemory   = "memory"
	EngineFile     = "file"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineGorm     = "gorm"
)

// NewByEngine opens the storage backend named by cfg.Engine.
func NewByEngine(cfg config.StorageConfig) (Storage, error) {
	pg := cfg.Postgres
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case EngineMemory:
		return NewMemoryStorage(), nil
	case EngineFile:
		return NewFileStorage(cfg.Path)
	case "", EngineSQLite:
		return NewSQLite(cfg.Path)
	case EnginePostgres:
		return NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	case EngineGorm:
		return NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return nil, errors.New("unsupported storage engine: " + cfg.Engine)
	}
}
