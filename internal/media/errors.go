package media

import "errors"

// Request-terminal failures of the media layer. Everything returned out of
// this package wraps one of these sentinels so the HTTP layer can map them
// with errors.Is.
var (
	ErrInvalidPath      = errors.New("invalid path")
	ErrAccessDenied     = errors.New("access denied")
	ErrNotFound         = errors.New("file not found")
	ErrNotFile          = errors.New("not a regular file")
	ErrNotDirectory     = errors.New("not a directory")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// PathError attaches the failing operation and path to a sentinel.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}
