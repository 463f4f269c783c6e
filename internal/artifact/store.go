package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// DefaultURLPrefix is the public path under which artifacts are served
const DefaultURLPrefix = "/api/images/"

// root is the store directory inside the afero filesystem
const root = "/"

// Common errors returned by the Store
var (
	// ErrNotFound is returned when a reference does not resolve to a stored artifact
	ErrNotFound = errors.New("artifact not found")

	// ErrStorage is returned when writing or deleting an artifact fails
	ErrStorage = errors.New("artifact storage error")

	// ErrInvalidReference is returned for references that cannot name an artifact
	ErrInvalidReference = errors.New("invalid artifact reference")

	// ErrEmptyArtifact is returned when Save is called without data
	ErrEmptyArtifact = errors.New("artifact data cannot be empty")
)

// Artifact is a resolved stored image
type Artifact struct {
	Name        string
	Data        []byte
	ContentType string
}

// Store is a bounded directory of generated images. It is safe for
// concurrent use by many writers and a concurrent Cleanup.
type Store struct {
	fs        afero.Fs
	urlPrefix string
	logger    *slog.Logger

	// clock state guaranteeing strictly increasing name timestamps
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// Option customises a Store
type Option func(*Store)

// WithClock replaces time.Now, used by tests to control name timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithURLPrefix changes the public path prefix returned by Save.
func WithURLPrefix(prefix string) Option {
	return func(s *Store) {
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		s.urlPrefix = prefix
	}
}

// NewStore creates a Store on top of an arbitrary afero filesystem. The
// filesystem root is the artifact directory.
func NewStore(fsys afero.Fs, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		fs:        fsys,
		urlPrefix: DefaultURLPrefix,
		logger:    logger.With("component", "artifact_store"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDiskStore creates a Store rooted at dir on the OS filesystem, creating
// the directory if needed.
func NewDiskStore(dir string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: directory cannot be empty", ErrStorage)
	}
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory %s: %v", ErrStorage, dir, err)
	}
	return NewStore(afero.NewBasePathFs(osFs, dir), logger, opts...), nil
}

// Save writes data under a freshly generated name and returns the public
// reference for it. The file becomes visible atomically.
func (s *Store) Save(ctx context.Context, taskID string, slot int, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}
	if taskID == "" || strings.ContainsAny(taskID, "/\\_") {
		return "", fmt.Errorf("%w: task id %q", ErrInvalidReference, taskID)
	}

	name := FormatName(taskID, slot, s.timestamp(), extensionFor(data, mimeType))
	final := path.Join(root, name)
	partial := path.Join(root, "."+name+".partial")

	if err := afero.WriteFile(s.fs, partial, data, 0o644); err != nil {
		_ = s.fs.Remove(partial)
		return "", fmt.Errorf("%w: failed to write %s: %v", ErrStorage, name, err)
	}
	if err := s.fs.Rename(partial, final); err != nil {
		_ = s.fs.Remove(partial)
		return "", fmt.Errorf("%w: failed to publish %s: %v", ErrStorage, name, err)
	}

	s.logger.DebugContext(ctx, "artifact saved",
		"name", name,
		"task_id", taskID,
		"slot", slot,
		"bytes", len(data))

	return s.urlPrefix + name, nil
}

// Resolve returns the content of the artifact named by ref, which may be
// either a bare file name or a public reference returned by Save.
func (s *Store) Resolve(ref string) (Artifact, error) {
	name, err := s.nameFromReference(ref)
	if err != nil {
		return Artifact{}, err
	}

	data, err := afero.ReadFile(s.fs, path.Join(root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Artifact{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Artifact{}, fmt.Errorf("%w: failed to read %s: %v", ErrStorage, name, err)
	}

	return Artifact{
		Name:        name,
		Data:        data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}

// Cleanup deletes the oldest artifacts until at most maxCount remain and
// returns how many were deleted. Individual deletion failures are logged
// and skipped; only a failure to list the directory is returned.
func (s *Store) Cleanup(ctx context.Context, maxCount int) (int, error) {
	if maxCount < 0 {
		maxCount = 0
	}

	entries, err := s.list()
	if err != nil {
		return 0, err
	}
	if len(entries) <= maxCount {
		return 0, nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].createdAt.Equal(entries[j].createdAt) {
			return entries[i].createdAt.Before(entries[j].createdAt)
		}
		return entries[i].name < entries[j].name
	})

	excess := len(entries) - maxCount
	deleted := 0
	for _, e := range entries[:excess] {
		if err := ctx.Err(); err != nil {
			s.logger.WarnContext(ctx, "artifact cleanup interrupted",
				"deleted", deleted,
				"error", err)
			return deleted, nil
		}

		if err := s.fs.Remove(path.Join(root, e.name)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			s.logger.ErrorContext(ctx, "failed to delete artifact",
				"name", e.name,
				"error", fmt.Errorf("%w: %v", ErrStorage, err))
			continue
		}
		deleted++
	}

	s.logger.InfoContext(ctx, "artifact cleanup finished",
		"found", len(entries),
		"max_count", maxCount,
		"deleted", deleted)

	return deleted, nil
}

// Count returns the number of stored artifacts.
func (s *Store) Count() (int, error) {
	entries, err := s.list()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

type entry struct {
	name      string
	createdAt time.Time
}

// list returns all published artifacts. Hidden and partial files are skipped.
func (s *Store) list() ([]entry, error) {
	infos, err := afero.ReadDir(s.fs, root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list artifacts: %v", ErrStorage, err)
	}

	entries := make([]entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") || !info.Mode().IsRegular() {
			continue
		}
		createdAt := info.ModTime()
		if parsed, err := ParseName(info.Name()); err == nil {
			createdAt = parsed.CreatedAt
		}
		entries = append(entries, entry{name: info.Name(), createdAt: createdAt})
	}
	return entries, nil
}

// timestamp returns a wall-clock time that is strictly later, at
// microsecond resolution, than every timestamp handed out before.
func (s *Store) timestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) nameFromReference(ref string) (string, error) {
	name := strings.TrimPrefix(ref, s.urlPrefix)
	if name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return name, nil
}

// extensionFor picks a file extension from the declared MIME type, falling
// back to content sniffing.
func extensionFor(data []byte, mimeType string) string {
	if mimeType != "" {
		if m := mimetype.Lookup(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}
