package passwd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/yndnr/sod-go/internal/core/domain"
)

// DefaultPasswdFile is the system account database.
const DefaultPasswdFile = "/etc/passwd"

var _ domain.IdentityLookup = (*FileLookup)(nil)

// FileLookup resolves identities from a passwd(5) file.
type FileLookup struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	size    int64
	byName  map[string]domain.Identity
}

// NewFileLookup returns a lookup over path. An empty path selects
// DefaultPasswdFile. The file is read lazily.
func NewFileLookup(path string) *FileLookup {
	if path == "" {
		path = DefaultPasswdFile
	}
	return &FileLookup{path: path}
}

// Path returns the file the lookup reads.
func (l *FileLookup) Path() string { return l.path }

// Lookup returns the identity for name, or ErrUserUnknown.
func (l *FileLookup) Lookup(ctx context.Context, name string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.ValidateUsername(name); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.refresh(); err != nil {
		return nil, err
	}
	id, ok := l.byName[name]
	if !ok {
		return nil, domain.ErrUserUnknown.WithDetails(name)
	}
	return &id, nil
}

// refresh re-parses the file when its size or modification time changed.
func (l *FileLookup) refresh() error {
	st, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat passwd file: %w", err)
	}
	if l.byName != nil && st.ModTime().Equal(l.modTime) && st.Size() == l.size {
		return nil
	}

	b, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("read passwd file: %w", err)
	}
	entries, err := ParsePasswd(b)
	if err != nil {
		return fmt.Errorf("parse %s: %w", l.path, err)
	}

	byName := make(map[string]domain.Identity, len(entries))
	for _, e := range entries {
		// The first entry for a name wins, as with getpwnam(3).
		if _, dup := byName[e.Name]; !dup {
			byName[e.Name] = e
		}
	}
	l.byName = byName
	l.modTime = st.ModTime()
	l.size = st.Size()
	return nil
}

// ParsePasswd parses passwd(5) content. Records with fewer than seven
// fields are skipped; a non-numeric UID or GID is an error.
func ParsePasswd(b []byte) ([]domain.Identity, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var out []domain.Identity
	for i, line := range lines {
		parts := fields(line)
		if len(parts) < 7 || parts[0] == "" {
			continue
		}
		uid, err := atoi(parts[2], "uid", i+1)
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "gid", i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Identity{
			Name:  parts[0],
			UID:   uid,
			GID:   gid,
			Gecos: parts[4],
			Home:  parts[5],
			Shell: parts[6],
		})
	}
	return out, nil
}
