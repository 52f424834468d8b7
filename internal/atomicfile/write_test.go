// write_test.go tests [Write] and [WriteJSON] for basic correctness, overwrite
// semantics, and cleanup of temp files on failure.

package atomicfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	data := []byte(`{"resets":3}`)

	if err := Write(path, data, 0o644); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestWrite_OverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	if err := Write(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := Write(path, []byte("updated"), 0o644); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "updated" {
		t.Errorf("content = %q, want %q", got, "updated")
	}
}

func TestWriteCleanupOnFailure(t *testing.T) {
	badPath := filepath.Join(t.TempDir(), "no-such-dir", "session.json")

	if err := Write(badPath, []byte("data"), 0o644); err == nil {
		t.Fatal("expected error writing to non-existent directory")
	}

	parent := filepath.Dir(filepath.Dir(badPath))
	entries, _ := os.ReadDir(parent)
	for _, e := range entries {
		if matched, _ := filepath.Match("session.json.tmp.*", e.Name()); matched {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteJSONCreatesParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "1700000000000.json")

	if err := WriteJSON(path, map[string]int{"runsWithGold": 2}, 0o644); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["runsWithGold"] != 2 {
		t.Errorf("runsWithGold = %d, want 2", got["runsWithGold"])
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := WriteJSON(path, make(chan int), 0o644); err == nil {
		t.Fatal("expected encode error for channel value")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not exist after encode failure")
	}
}
