// persistence/interface.go
package persistence

import (
	"fmt"
)

// Storage 键值存储接口，每个键保存一个完整的文档
type Storage interface {
	// Get returns ErrRecordNotFound when nothing is stored under key.
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
	Remove(key string) error
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
