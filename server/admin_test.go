package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/flashfive/catalog"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/services"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func (ts *testServer) do(t *testing.T, method, path string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.http.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAdmin_GetCatalog(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var c models.Catalog
	decode(t, resp, &c)
	assert.Equal(t, catalog.DefaultCatalog(), c)
}

func TestAdmin_ExportImport(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/catalog/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), catalog.ExportFileName)
	exported, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var c models.Catalog
	require.NoError(t, json.Unmarshal(exported, &c))
	c.GameImages = c.GameImages[:1]
	modified, err := json.Marshal(c)
	require.NoError(t, err)

	resp = ts.do(t, http.MethodPost, "/api/catalog/import", modified)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, ts.store.Catalog().GameImages, 1)

	resp = ts.do(t, http.MethodPost, "/api/catalog/import", []byte(`{"demo_image": 3}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, ts.store.Catalog().GameImages, 1, "a rejected import keeps the current catalog")

	resp = ts.do(t, http.MethodPost, "/api/catalog/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, catalog.DefaultCatalog(), ts.store.Catalog())
}

func TestAdmin_Images(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/categories/2/image", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/images/image3.jpg", resp.Header.Get("Location"))

	resp = ts.do(t, http.MethodPut, "/api/categories/2/image", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/categories/2/image", pngHeader)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat models.Category
	decode(t, resp, &cat)
	assert.True(t, catalog.IsImageDataURL(cat.UploadedImage))

	resp = ts.do(t, http.MethodGet, "/api/categories/2/image", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)

	resp = ts.do(t, http.MethodPut, "/api/categories/0/image", []byte("data:image/gif;base64,R0lGODlh"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "data:image/gif;base64,R0lGODlh", ts.store.DemoCategory().UploadedImage)

	resp = ts.do(t, http.MethodGet, "/api/categories/77/image", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_PutLabel(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPut, "/api/categories/3/incorrect/1", []byte(`{"label":"Cabriolet"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var changed changedResponse
	decode(t, resp, &changed)
	assert.True(t, changed.Changed)
	cat, _ := ts.store.Category(3)
	assert.Equal(t, "Cabriolet", cat.IncorrectObjects[1])

	resp = ts.do(t, http.MethodPut, "/api/categories/3/incorrect/1", []byte(`{"label":""}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/categories/3/sideways/1", []byte(`{"label":"x"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPut, "/api/categories/9/correct/1", []byte(`{"label":"x"}`))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_StructuredEdit(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/edits", []byte(`{"category_id":4,"kind":"correct","index":2}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var edit services.EditRequest
	decode(t, resp, &edit)
	assert.Equal(t, "Small cylindrical Bluetooth speaker", edit.Current)

	resp = ts.do(t, http.MethodPost, "/api/edits/"+edit.Token, []byte(`{"value":"Smart speaker"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat, _ := ts.store.Category(4)
	assert.Equal(t, "Smart speaker", cat.CorrectObjects[2])

	resp = ts.do(t, http.MethodDelete, "/api/edits/"+edit.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "committed requests are closed")

	resp = ts.do(t, http.MethodPost, "/api/edits", []byte(`{"category_id":4,"kind":"correct","index":0}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &edit)
	resp = ts.do(t, http.MethodDelete, "/api/edits/"+edit.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/edits", []byte(`{"category_id":4,"kind":"correct","index":9}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
