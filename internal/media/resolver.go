package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RootCategory is the sentinel category addressing the library root itself.
const RootCategory = "_root"

// Resolver maps logical (category, relative path) pairs onto absolute
// filesystem paths confined to a single library root. The root is
// canonicalized once at construction; resolved paths are computed per
// request and never cached.
type Resolver struct {
	root string
}

// NewResolver canonicalizes root (absolute, symlinks resolved). The root
// directory must exist.
func NewResolver(root string) (*Resolver, error) {
	if root == "" {
		return nil, &PathError{Op: "resolve root", Path: root, Err: ErrInvalidPath}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Op: "resolve root", Path: root, Err: ErrInvalidPath}
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PathError{Op: "resolve root", Path: root, Err: ErrNotFound}
		}
		return nil, &PathError{Op: "resolve root", Path: root, Err: ErrInvalidPath}
	}

	info, err := os.Stat(canonical)
	if err != nil || !info.IsDir() {
		return nil, &PathError{Op: "resolve root", Path: root, Err: ErrNotDirectory}
	}

	return &Resolver{root: canonical}, nil
}

// Root returns the canonical library root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the canonical absolute path for the pair, guaranteeing the
// result is the root or a descendant of it. Traversal segments, absolute
// path injection and symlinks pointing outside the root all fail with
// ErrAccessDenied.
func (r *Resolver) Resolve(category, relPath string) (string, error) {
	base := r.root
	if category != RootCategory {
		base = filepath.Join(r.root, category)
	}

	candidate := filepath.Join(base, filepath.FromSlash(relPath))

	// Join cleans ".." lexically, so an escape surfaces as the candidate no
	// longer sitting under the root.
	if !underRoot(r.root, candidate) {
		return "", &PathError{Op: "resolve", Path: relPath, Err: ErrAccessDenied}
	}

	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &PathError{Op: "resolve", Path: relPath, Err: ErrNotFound}
		}
		return "", &PathError{Op: "resolve", Path: relPath, Err: ErrInvalidPath}
	}

	// A symlink inside the tree may point anywhere; the canonical form must
	// still be under the root.
	if !underRoot(r.root, canonical) {
		return "", &PathError{Op: "resolve", Path: relPath, Err: ErrAccessDenied}
	}

	return canonical, nil
}

// underRoot decides containment by path components, never raw string
// prefixes, so /media2 is not mistaken for a child of /media.
func underRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// MediaDescriptor describes one file for the duration of a single request.
// Descriptors are re-derived on every request: the file may change between
// requests.
type MediaDescriptor struct {
	Path        string
	Size        int64
	ContentType string
	ModTime     time.Time
	Streamable  bool
}

// Describe stats an already-resolved path and classifies it by extension.
func Describe(path string) (MediaDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MediaDescriptor{}, &PathError{Op: "describe", Path: path, Err: ErrNotFound}
		}
		return MediaDescriptor{}, &PathError{Op: "describe", Path: path, Err: ErrInvalidPath}
	}
	if info.IsDir() {
		return MediaDescriptor{}, &PathError{Op: "describe", Path: path, Err: ErrNotFile}
	}

	streamable, contentType := Classify(path)

	return MediaDescriptor{
		Path:        path,
		Size:        info.Size(),
		ContentType: contentType,
		ModTime:     info.ModTime(),
		Streamable:  streamable,
	}, nil
}
