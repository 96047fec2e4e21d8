package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteStep writes a custom step script named name into dir and returns its
// path.
func WriteStep(t testing.TB, dir, name, body string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AppendStep is a step script that appends marker to the "trace" context
// key.
func AppendStep(marker string) string {
	return `package trace

func Record(ctx map[string]interface{}) error {
	prev, _ := ctx["trace"].([]interface{})
	ctx["trace"] = append(prev, "` + marker + `")
	return nil
}
`
}
