package streaming

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"mediagate/internal/media"
)

// DefaultCacheMaxAge is the Cache-Control max-age applied when the handler
// is constructed without one.
const DefaultCacheMaxAge = 3600

// MediaPolicy decides which files are eligible for streaming.
type MediaPolicy interface {
	IsVideoFile(filename string) bool
	IsImageFile(filename string) bool
}

// Handler serves full and partial file content under HTTP range semantics.
type Handler struct {
	resolver *media.Resolver
	policy   MediaPolicy
	maxAge   int
	logger   zerolog.Logger
}

func NewHandler(resolver *media.Resolver, policy MediaPolicy, maxAge int, logger zerolog.Logger) *Handler {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &Handler{
		resolver: resolver,
		policy:   policy,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// ServeFile resolves (category, relPath) and streams the file, honoring the
// request's Range header. A non-nil return means nothing was written to the
// response yet and the caller still owns the error reply. Once the status
// line has gone out, mid-stream failures are logged and nil is returned.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request, category, relPath string) error {
	resolved, err := h.resolver.Resolve(category, relPath)
	if err != nil {
		return err
	}

	desc, err := media.Describe(resolved)
	if err != nil {
		return err
	}

	if !h.policy.IsVideoFile(resolved) && !h.policy.IsImageFile(resolved) {
		return &media.PathError{Op: "stream", Path: relPath, Err: media.ErrUnsupportedMedia}
	}

	byteRange, partial, err := ParseRange(r.Header.Get("Range"), desc.Size)
	if err != nil {
		if errors.Is(err, ErrRangeNotSatisfiable) || errors.Is(err, ErrMultiRange) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", desc.Size))
		}
		return err
	}

	if !partial {
		return h.serveWhole(w, r, desc)
	}
	h.servePartial(w, r, desc, byteRange)
	return nil
}

// serveWhole delegates the 200 path to http.ServeContent, which also
// answers conditional requests against our ETag.
func (h *Handler) serveWhole(w http.ResponseWriter, r *http.Request, desc media.MediaDescriptor) error {
	file, err := os.Open(desc.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &media.PathError{Op: "stream", Path: desc.Path, Err: media.ErrNotFound}
		}
		return fmt.Errorf("opening %s: %w", desc.Path, err)
	}
	defer file.Close()

	h.setHeaders(w, desc)
	http.ServeContent(w, r, filepath.Base(desc.Path), desc.ModTime, file)
	return nil
}

func (h *Handler) servePartial(w http.ResponseWriter, r *http.Request, desc media.MediaDescriptor, byteRange ByteRange) {
	stream, err := OpenRange(desc.Path, byteRange)
	if err != nil {
		h.logger.Error().Err(err).Str("path", desc.Path).Msg("failed to open range")
		http.Error(w, "cannot read file", http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	h.setHeaders(w, desc)
	w.Header().Set("Content-Range", byteRange.ContentRange(desc.Size))
	w.Header().Set("Content-Length", strconv.FormatInt(byteRange.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)

	flusher, _ := w.(http.Flusher)
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("path", desc.Path).Msg("client cancelled stream")
			return
		default:
		}

		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			h.logger.Warn().Err(err).Str("path", desc.Path).Msg("stream aborted")
			return
		}

		if _, err := w.Write(chunk); err != nil {
			h.logger.Debug().Err(err).Str("path", desc.Path).Msg("client disconnected")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (h *Handler) setHeaders(w http.ResponseWriter, desc media.MediaDescriptor) {
	w.Header().Set("Content-Type", desc.ContentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.maxAge))
	w.Header().Set("ETag", etagFor(desc))
}

// etagFor derives a weak validator from path, size and mtime. Cheap to
// compute per request, changes whenever the file does.
func etagFor(desc media.MediaDescriptor) string {
	sum := xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", desc.Path, desc.Size, desc.ModTime.UnixNano()))
	return fmt.Sprintf("%q", fmt.Sprintf("%016x", sum))
}
