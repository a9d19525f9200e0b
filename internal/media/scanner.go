package media

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"github.com/rs/zerolog"
)

// Entry kinds as reported by Browse.
const (
	KindDirectory = "directory"
	KindVideo     = "video"
	KindImage     = "image"
	KindOther     = "other"
)

// Entry is a single directory listing item. Path is relative to the
// category, always slash-separated.
type Entry struct {
	Name        string
	Path        string
	Kind        string
	Size        int64
	ContentType string
}

// Scanner walks the media library on demand. Listings are computed per
// request, nothing is persisted. Exclude patterns apply to browsing only,
// never to streaming.
type Scanner struct {
	resolver *Resolver
	exclude  []glob.Glob
	logger   zerolog.Logger
}

// NewScanner compiles the exclude patterns up front. Invalid patterns are
// logged and skipped rather than failing startup.
func NewScanner(resolver *Resolver, excludePatterns []string, logger zerolog.Logger) *Scanner {
	compiled := make([]glob.Glob, 0, len(excludePatterns))
	for _, pattern := range excludePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			logger.Warn().Err(err).Str("pattern", pattern).Msg("skipping invalid exclude pattern")
			continue
		}
		compiled = append(compiled, g)
	}

	return &Scanner{
		resolver: resolver,
		exclude:  compiled,
		logger:   logger,
	}
}

// IsVideoFile reports whether the filename has a streamable video extension.
func (s *Scanner) IsVideoFile(filename string) bool {
	return IsVideoFile(filename)
}

// IsImageFile reports whether the filename has a streamable image extension.
func (s *Scanner) IsImageFile(filename string) bool {
	return IsImageFile(filename)
}

// Browse lists the directory addressed by (category, relPath). Hidden
// entries and entries matching an exclude pattern are omitted. Directories
// sort before files, each group alphabetically.
func (s *Scanner) Browse(category, relPath string) ([]Entry, error) {
	dir, err := s.resolver.Resolve(category, relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &PathError{Op: "browse", Path: relPath, Err: ErrNotFound}
	}
	if !info.IsDir() {
		return nil, &PathError{Op: "browse", Path: relPath, Err: ErrNotDirectory}
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, &PathError{Op: "browse", Path: relPath, Err: ErrInvalidPath}
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		name := de.Name()
		entryPath := path.Join(relPath, name)
		if s.excluded(name, entryPath) {
			continue
		}

		entry := Entry{Name: name, Path: entryPath}

		if de.IsDir() {
			entry.Kind = KindDirectory
			entries = append(entries, entry)
			continue
		}

		fi, err := de.Info()
		if err != nil {
			s.logger.Debug().Err(err).Str("name", name).Msg("skipping unreadable entry")
			continue
		}
		entry.Size = fi.Size()

		switch {
		case IsVideoFile(name):
			entry.Kind = KindVideo
			entry.ContentType = GetContentType(name)
		case IsImageFile(name):
			entry.Kind = KindImage
			entry.ContentType = GetContentType(name)
		default:
			entry.Kind = KindOther
		}

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		di := entries[i].Kind == KindDirectory
		dj := entries[j].Kind == KindDirectory
		if di != dj {
			return di
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Inspect describes a single file. For files outside the streamable set the
// content type is sniffed from content instead of the extension tables.
func (s *Scanner) Inspect(category, relPath string) (MediaDescriptor, error) {
	resolved, err := s.resolver.Resolve(category, relPath)
	if err != nil {
		return MediaDescriptor{}, err
	}

	desc, err := Describe(resolved)
	if err != nil {
		return MediaDescriptor{}, err
	}

	if !desc.Streamable {
		if mt, err := mimetype.DetectFile(resolved); err == nil {
			desc.ContentType = mt.String()
		}
	}

	return desc, nil
}

func (s *Scanner) excluded(name, entryPath string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, g := range s.exclude {
		if g.Match(name) || g.Match(entryPath) {
			return true
		}
	}
	return false
}
