package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileImageLoader(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "images")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image1.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.jpg"), []byte("jpg"), 0o644))
	loader := FileImageLoader{Dir: dir}

	check := func(source string) bool {
		var got bool
		loader.Load(source, func(ok bool) { got = ok })
		return got
	}

	assert.True(t, check("image1.jpg"))
	assert.True(t, check("data:image/png;base64,AAAA"))
	assert.False(t, check("missing.jpg"))
	assert.False(t, check(""))
	assert.False(t, check("sub"))
	assert.False(t, check("../secret.jpg"), "paths cannot escape the image directory")
}
