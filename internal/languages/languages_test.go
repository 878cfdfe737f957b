package languages

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shrutilabs/shruti-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return log
}

func TestScriptLookup(t *testing.T) {
	os.Unsetenv("LANGUAGES_CONFIG_PATH")
	reg, err := NewRegistry(testLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cases := []struct {
		language string
		want     string
	}{
		{"Gujarati", "Gujarati"},
		{"Hindi", "Devanagari"},
		{"Marathi", "Devanagari"},
		{"Urdu", "Arabic"},
		{"Klingon", "Latin"},
	}
	for _, tc := range cases {
		if got := reg.Script(tc.language); got != tc.want {
			t.Errorf("Script(%q) = %q, want %q", tc.language, got, tc.want)
		}
	}

	if reg.Supported("Klingon") {
		t.Error("Supported(Klingon) = true, want false")
	}
	if !reg.Supported("Tamil") {
		t.Error("Supported(Tamil) = false, want true")
	}
}

func TestYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.yaml")
	content := "Hindi: Latin\nKonkani: Devanagari\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LANGUAGES_CONFIG_PATH", path)

	reg, err := NewRegistry(testLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if got := reg.Script("Hindi"); got != "Latin" {
		t.Errorf("override not applied: Script(Hindi) = %q", got)
	}
	if got := reg.Script("Konkani"); got != "Devanagari" {
		t.Errorf("new language not added: Script(Konkani) = %q", got)
	}
	if got := reg.Script("Tamil"); got != "Tamil" {
		t.Errorf("builtin lost after override: Script(Tamil) = %q", got)
	}
}

func TestNamesSorted(t *testing.T) {
	os.Unsetenv("LANGUAGES_CONFIG_PATH")
	reg, err := NewRegistry(testLogger(t))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	names := reg.Names()
	if len(names) == 0 {
		t.Fatal("Names() returned no languages")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("Names() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}
