package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shirou/gopsutil/process"

	"mediagate/internal/groups"
	"mediagate/internal/media"
	"mediagate/internal/storage"
	"mediagate/internal/streaming"
)

const Version = "0.1.0"

type Handler struct {
	groups      *groups.Service
	scanner     *media.Scanner
	streamer    *streaming.Handler
	logger      zerolog.Logger
	libraryName string
	started     time.Time
}

func NewHandler(groupService *groups.Service, scanner *media.Scanner, streamer *streaming.Handler, logger zerolog.Logger, libraryName string) *Handler {
	return &Handler{
		groups:      groupService,
		scanner:     scanner,
		streamer:    streamer,
		logger:      logger,
		libraryName: libraryName,
		started:     time.Now(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats reports process-level runtime numbers. Each probe is best-effort:
// a metric that cannot be read stays zero instead of failing the request.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			resp.RSSBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			resp.CPUPercent = cpu
		}
		if fds, err := proc.NumFDs(); err == nil {
			resp.OpenFiles = fds
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) StreamMedia(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	relPath := wildParam(r)

	if err := h.streamer.ServeFile(w, r, category, relPath); err != nil {
		h.writeMediaError(w, category, relPath, err)
	}
}

func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	relPath := wildParam(r)

	entries, err := h.scanner.Browse(category, relPath)
	if err != nil {
		h.writeMediaError(w, category, relPath, err)
		return
	}

	dtos := lo.Map(entries, func(e media.Entry, _ int) EntryDTO {
		dto := EntryDTO{
			Name:        e.Name,
			Path:        e.Path,
			Kind:        e.Kind,
			Size:        e.Size,
			ContentType: e.ContentType,
		}
		if e.Kind == media.KindVideo || e.Kind == media.KindImage {
			dto.StreamURL = "/stream/" + category + "/" + e.Path
		}
		return dto
	})

	writeJSON(w, http.StatusOK, BrowseResponse{
		Library:  h.libraryName,
		Category: category,
		Path:     relPath,
		Entries:  dtos,
	})
}

func (h *Handler) MediaInfo(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	relPath := wildParam(r)

	desc, err := h.scanner.Inspect(category, relPath)
	if err != nil {
		h.writeMediaError(w, category, relPath, err)
		return
	}

	resp := MediaInfoResponse{
		Name:        path.Base(relPath),
		Category:    category,
		Path:        relPath,
		Size:        desc.Size,
		ContentType: desc.ContentType,
		Streamable:  desc.Streamable,
	}
	if desc.Streamable {
		resp.StreamURL = "/stream/" + category + "/" + relPath
	}

	writeJSON(w, http.StatusOK, resp)
}

// Folder group handlers

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	list, err := h.groups.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list groups")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list groups")
		return
	}

	if list == nil {
		list = []storage.FolderGroup{}
	}

	writeJSON(w, http.StatusOK, GroupsResponse{Groups: list})
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeGroupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req SaveGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	group, err := h.groups.Create(groups.CreateParams{Name: req.Name, Color: req.Color})
	if err != nil {
		h.writeGroupError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req SaveGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	group, err := h.groups.Update(chi.URLParam(r, "id"), groups.UpdateParams{Name: req.Name, Color: req.Color})
	if err != nil {
		h.writeGroupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeGroupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeMediaError maps resolver, classifier and range errors onto the error
// envelope. Unrecognized errors are logged and answered with a 500.
func (h *Handler) writeMediaError(w http.ResponseWriter, category, relPath string, err error) {
	switch {
	case errors.Is(err, media.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "ACCESS_DENIED", "Path is outside the library root")
	case errors.Is(err, media.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "File not found")
	case errors.Is(err, media.ErrNotFile):
		writeError(w, http.StatusBadRequest, "NOT_A_FILE", "Path is not a regular file")
	case errors.Is(err, media.ErrNotDirectory):
		writeError(w, http.StatusBadRequest, "NOT_A_DIRECTORY", "Path is not a directory")
	case errors.Is(err, media.ErrUnsupportedMedia):
		writeError(w, http.StatusBadRequest, "UNSUPPORTED_MEDIA_TYPE", "File is not a streamable media type")
	case errors.Is(err, media.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "Invalid path")
	case errors.Is(err, streaming.ErrMultiRange):
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SUPPORTED", "Multi-range requests are not supported")
	case errors.Is(err, streaming.ErrRangeNotSatisfiable):
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "RANGE_NOT_SATISFIABLE", "Range is outside the file")
	case errors.Is(err, streaming.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "INVALID_RANGE", "Malformed Range header")
	default:
		h.logger.Error().Err(err).Str("category", category).Str("path", relPath).Msg("media request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to serve media")
	}
}

func (h *Handler) writeGroupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, groups.ErrInvalidGroup):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid group fields")
	case errors.Is(err, groups.ErrNotFound):
		writeError(w, http.StatusNotFound, "GROUP_NOT_FOUND", "Group not found")
	case errors.Is(err, groups.ErrDuplicate):
		writeError(w, http.StatusConflict, "GROUP_EXISTS", "A group with this name already exists")
	default:
		h.logger.Error().Err(err).Msg("group operation failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Group operation failed")
	}
}

// wildParam returns the decoded wildcard remainder of the matched route.
func wildParam(r *http.Request) string {
	raw := chi.URLParam(r, "*")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
