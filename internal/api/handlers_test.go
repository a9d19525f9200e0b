package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"mediagate/internal/api"
	"mediagate/internal/groups"
	"mediagate/internal/media"
	"mediagate/internal/storage"
	"mediagate/internal/streaming"
)

func newTestRouter(t *testing.T) (*chi.Mux, []byte) {
	t.Helper()

	root := t.TempDir()
	data := []byte("fake mp4 payload 0123456789")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "movies"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "movies", "film.mp4"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "movies", "notes.txt"), []byte("plain text notes"), 0644))

	resolver, err := media.NewResolver(root)
	require.NoError(t, err)
	scanner := media.NewScanner(resolver, nil, zerolog.Nop())
	streamer := streaming.NewHandler(resolver, scanner, 60, zerolog.Nop())

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(groups.NewService(store, zerolog.Nop()), scanner, streamer, zerolog.Nop(), "Test Library")

	router := chi.NewRouter()
	router.Get("/stream/{category}/*", handler.StreamMedia)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.Health)
		r.Get("/stats", handler.Stats)
		r.Get("/library/{category}", handler.Browse)
		r.Get("/library/{category}/*", handler.Browse)
		r.Get("/media/{category}/*", handler.MediaInfo)
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", handler.ListGroups)
			r.Post("/", handler.CreateGroup)
			r.Get("/{id}", handler.GetGroup)
			r.Put("/{id}", handler.UpdateGroup)
			r.Delete("/{id}", handler.DeleteGroup)
		})
	})

	return router, data
}

func do(t *testing.T, router http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, body io.Reader) api.ErrorResponse {
	t.Helper()

	var e api.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&e))
	return e
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, api.Version, resp.Version)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Status)
	require.Greater(t, resp.Goroutines, 0)
}

func TestStreamEndpoint(t *testing.T) {
	router, data := newTestRouter(t)

	t.Run("whole file", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/stream/movies/film.mp4", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		require.True(t, bytes.Equal(data, rec.Body.Bytes()))
	})

	t.Run("range request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/movies/film.mp4", nil)
		req.Header.Set("Range", "bytes=5-9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusPartialContent, rec.Code)
		require.Equal(t, fmt.Sprintf("bytes 5-9/%d", len(data)), rec.Header().Get("Content-Range"))
		require.True(t, bytes.Equal(data[5:10], rec.Body.Bytes()))
	})

	t.Run("missing file", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/stream/movies/gone.mp4", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NOT_FOUND", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("traversal", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/stream/movies/..%2F..%2Fetc%2Fpasswd", nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "ACCESS_DENIED", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/stream/movies/notes.txt", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("multi range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/movies/film.mp4", nil)
		req.Header.Set("Range", "bytes=0-1,5-9")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
		require.Equal(t, fmt.Sprintf("bytes */%d", len(data)), rec.Header().Get("Content-Range"))
		require.Equal(t, "RANGE_NOT_SUPPORTED", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/movies/film.mp4", nil)
		req.Header.Set("Range", "bytes=5000-")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
		require.Equal(t, "RANGE_NOT_SATISFIABLE", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("malformed range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stream/movies/film.mp4", nil)
		req.Header.Set("Range", "bytes=abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "INVALID_RANGE", decodeError(t, rec.Body).Error.Code)
	})
}

func TestBrowseEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("category listing", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/library/movies", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.BrowseResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "Test Library", resp.Library)
		require.Equal(t, "movies", resp.Category)
		require.Len(t, resp.Entries, 2)

		require.Equal(t, "film.mp4", resp.Entries[0].Name)
		require.Equal(t, "video", resp.Entries[0].Kind)
		require.Equal(t, "/stream/movies/film.mp4", resp.Entries[0].StreamURL)
		require.Equal(t, "notes.txt", resp.Entries[1].Name)
		require.Equal(t, "other", resp.Entries[1].Kind)
		require.Empty(t, resp.Entries[1].StreamURL)
	})

	t.Run("root listing", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/library/_root", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.BrowseResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Entries, 1)
		require.Equal(t, "movies", resp.Entries[0].Name)
		require.Equal(t, "directory", resp.Entries[0].Kind)
	})

	t.Run("missing directory", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/library/movies/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "NOT_FOUND", decodeError(t, rec.Body).Error.Code)
	})

	t.Run("file target", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/library/movies/film.mp4", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "NOT_A_DIRECTORY", decodeError(t, rec.Body).Error.Code)
	})
}

func TestMediaInfoEndpoint(t *testing.T) {
	router, data := newTestRouter(t)

	t.Run("streamable file", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/media/movies/film.mp4", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.MediaInfoResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "film.mp4", resp.Name)
		require.Equal(t, "movies", resp.Category)
		require.Equal(t, int64(len(data)), resp.Size)
		require.Equal(t, "video/mp4", resp.ContentType)
		require.True(t, resp.Streamable)
		require.Equal(t, "/stream/movies/film.mp4", resp.StreamURL)
	})

	t.Run("non-streamable file is sniffed", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/media/movies/notes.txt", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.MediaInfoResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.False(t, resp.Streamable)
		require.True(t, strings.HasPrefix(resp.ContentType, "text/plain"))
		require.Empty(t, resp.StreamURL)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/media/movies/gone.mp4", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGroupsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/v1/groups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"groups":[]}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/groups", strings.NewReader(`{"name":"Action"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created storage.FolderGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "action", created.Slug)
	require.NotEmpty(t, created.Color)

	rec = do(t, router, http.MethodGet, "/api/v1/groups/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/groups", strings.NewReader(`{"name":"action"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "GROUP_EXISTS", decodeError(t, rec.Body).Error.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/groups", strings.NewReader(`{"name":""}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", decodeError(t, rec.Body).Error.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/groups", strings.NewReader(`{not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", decodeError(t, rec.Body).Error.Code)

	rec = do(t, router, http.MethodPut, "/api/v1/groups/"+created.ID, strings.NewReader(`{"name":"Adventure"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated storage.FolderGroup
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	require.Equal(t, "adventure", updated.Slug)

	rec = do(t, router, http.MethodPut, "/api/v1/groups/nope", strings.NewReader(`{"name":"X"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "GROUP_NOT_FOUND", decodeError(t, rec.Body).Error.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/groups/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/groups/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
