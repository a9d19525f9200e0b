package media

import (
	"path/filepath"
	"strings"
)

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
}

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func IsVideoFile(filename string) bool {
	_, ok := videoContentTypes[lowerExt(filename)]
	return ok
}

func IsImageFile(filename string) bool {
	_, ok := imageContentTypes[lowerExt(filename)]
	return ok
}

// Classify reports whether the file is eligible for range-based delivery and
// the content type to serve it under. Unknown extensions are never
// streamable and fall back to a generic binary type.
func Classify(filename string) (bool, string) {
	ext := lowerExt(filename)
	if ct, ok := videoContentTypes[ext]; ok {
		return true, ct
	}
	if ct, ok := imageContentTypes[ext]; ok {
		return true, ct
	}
	return false, "application/octet-stream"
}

func GetContentType(filename string) string {
	_, ct := Classify(filename)
	return ct
}

func lowerExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
