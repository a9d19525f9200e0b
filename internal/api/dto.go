package api

import "mediagate/internal/storage"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type StatsResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	OpenFiles     int32   `json:"open_files"`
	RSSBytes      uint64  `json:"rss_bytes"`
	CPUPercent    float64 `json:"cpu_percent"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Library DTOs

type BrowseResponse struct {
	Library  string     `json:"library"`
	Category string     `json:"category"`
	Path     string     `json:"path"`
	Entries  []EntryDTO `json:"entries"`
}

type EntryDTO struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	StreamURL   string `json:"stream_url,omitempty"`
}

type MediaInfoResponse struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Streamable  bool   `json:"streamable"`
	StreamURL   string `json:"stream_url,omitempty"`
}

// Folder group DTOs

type GroupsResponse struct {
	Groups []storage.FolderGroup `json:"groups"`
}

type SaveGroupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
