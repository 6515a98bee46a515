package passwd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// DefaultShadowFile is the system password hash database.
const DefaultShadowFile = "/etc/shadow"

// ShadowEntry is one shadow(5) record. Aging fields are kept verbatim.
type ShadowEntry struct {
	Name       string
	Hash       string
	LastChange string
	Min        string
	Max        string
	Warn       string
	Inactive   string
	Expire     string
}

// Locked reports whether the account cannot log in with a password: an
// empty hash, or one starting with '!' or '*'.
func (e *ShadowEntry) Locked() bool {
	return e.Hash == "" || strings.HasPrefix(e.Hash, "!") || strings.HasPrefix(e.Hash, "*")
}

// ShadowFile is a parsed shadow(5) file.
type ShadowFile struct {
	entries map[string]*ShadowEntry
}

// LoadShadow reads and parses path. An empty path selects
// DefaultShadowFile.
func LoadShadow(path string) (*ShadowFile, error) {
	if path == "" {
		path = DefaultShadowFile
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shadow file: %w", err)
	}
	return ParseShadow(b)
}

// ParseShadow parses shadow(5) content. Missing trailing fields are
// treated as empty.
func ParseShadow(b []byte) (*ShadowFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &ShadowFile{entries: make(map[string]*ShadowEntry)}
	for _, line := range lines {
		parts := fields(line)
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		for len(parts) < 8 {
			parts = append(parts, "")
		}
		if _, dup := f.entries[parts[0]]; dup {
			continue
		}
		f.entries[parts[0]] = &ShadowEntry{
			Name:       parts[0],
			Hash:       parts[1],
			LastChange: parts[2],
			Min:        parts[3],
			Max:        parts[4],
			Warn:       parts[5],
			Inactive:   parts[6],
			Expire:     parts[7],
		}
	}
	return f, nil
}

// Find returns the entry for name, or nil.
func (f *ShadowFile) Find(name string) *ShadowEntry {
	return f.entries[name]
}

// Len returns the number of entries.
func (f *ShadowFile) Len() int { return len(f.entries) }
