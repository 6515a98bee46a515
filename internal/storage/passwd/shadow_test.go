package passwd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseShadow(t *testing.T) {
	content := `root:*:19000:0:99999:7:::
alice:$6$salt$hash:19000:0:99999:7:::
bob:!$6$salt$hash:19000
carol::
# comment
dave
`
	f, err := ParseShadow([]byte(content))
	if err != nil {
		t.Fatalf("ParseShadow: %v", err)
	}
	if f.Len() != 4 {
		t.Fatalf("Len = %d, want 4", f.Len())
	}

	tests := []struct {
		name   string
		locked bool
	}{
		{"root", true},
		{"alice", false},
		{"bob", true},
		{"carol", true},
	}
	for _, tt := range tests {
		e := f.Find(tt.name)
		if e == nil {
			t.Errorf("Find(%q) = nil", tt.name)
			continue
		}
		if e.Locked() != tt.locked {
			t.Errorf("%s Locked() = %v, want %v", tt.name, e.Locked(), tt.locked)
		}
	}
	if e := f.Find("bob"); e.LastChange != "19000" || e.Expire != "" {
		t.Errorf("bob aging = %+v", e)
	}
	if f.Find("dave") != nil {
		t.Error("single-field record should be skipped")
	}
}

func TestLoadShadow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shadow")
	if err := os.WriteFile(path, []byte("alice:$1$x$y:::::::\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := LoadShadow(path)
	if err != nil {
		t.Fatalf("LoadShadow: %v", err)
	}
	if e := f.Find("alice"); e == nil || e.Hash != "$1$x$y" {
		t.Errorf("Find(alice) = %+v", e)
	}

	if _, err := LoadShadow(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("LoadShadow should fail for a missing file")
	}
}
