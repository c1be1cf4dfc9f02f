package game

import (
	"os"
	"path/filepath"
	"strings"
)

// ImageLoader checks that an image source can be shown. done may be called
// synchronously or later from another goroutine, exactly once.
type ImageLoader interface {
	Load(source string, done func(ok bool))
}

// FileImageLoader resolves bundled image paths under Dir. Data URLs from
// uploads are always considered loadable.
type FileImageLoader struct {
	Dir string
}

func (l FileImageLoader) Load(source string, done func(ok bool)) {
	if strings.HasPrefix(source, "data:image/") {
		done(true)
		return
	}
	if source == "" {
		done(false)
		return
	}
	info, err := os.Stat(filepath.Join(l.Dir, filepath.Clean("/"+source)))
	done(err == nil && !info.IsDir())
}
