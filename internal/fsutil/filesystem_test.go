package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteReadWalk(t *testing.T) {
	osfs := OSFileSystem{}
	root := t.TempDir()

	if err := osfs.MkdirAll(filepath.Join(root, "b", "nested"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, name := range []string{"b/nested/2.csv", "a.csv", "b/1.csv"} {
		if err := osfs.WriteFile(filepath.Join(root, name), []byte(name), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	var got []string
	err := osfs.WalkFiles(root, func(path string) error {
		rel, _ := filepath.Rel(root, path)
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("WalkFiles failed: %v", err)
	}

	want := []string{"a.csv", "b/1.csv", "b/nested/2.csv"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	data, err := osfs.ReadFile(filepath.Join(root, "a.csv"))
	if err != nil || string(data) != "a.csv" {
		t.Errorf("ReadFile returned %q, %v", data, err)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}

	// Mutating the returned slice must not change stored contents.
	data[0] = 'H'
	again, _ := mfs.ReadFile("/test.txt")
	if string(again) != string(testData) {
		t.Errorf("stored data was mutated: %q", again)
	}
}

func TestMemoryFileSystem_WriteRequiresParent(t *testing.T) {
	mfs := NewMemoryFileSystem()

	err := mfs.WriteFile("out/frame.json", []byte("[]"), 0644)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	if err := mfs.MkdirAll("out", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := mfs.WriteFile("out/frame.json", []byte("[]"), 0644); err != nil {
		t.Fatalf("WriteFile after MkdirAll failed: %v", err)
	}
	if !mfs.Exists("out") || !mfs.Exists("out/frame.json") {
		t.Error("expected directory and file to exist")
	}
}

func TestMemoryFileSystem_Open(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("data", 0755)
	_ = mfs.WriteFile("data/f.csv", []byte("X;Y"), os.FileMode(0644))

	f, err := mfs.Open("data/f.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(content) != "X;Y" {
		t.Errorf("expected %q, got %q", "X;Y", content)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "f.csv" || info.Size() != 3 || info.IsDir() {
		t.Errorf("unexpected file info: %s %d %v", info.Name(), info.Size(), info.IsDir())
	}

	if _, err := mfs.Open("data/missing.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_WalkFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("data/b", 0755)
	_ = mfs.MkdirAll("other", 0755)
	_ = mfs.WriteFile("data/b/2.csv", nil, 0644)
	_ = mfs.WriteFile("data/a.csv", nil, 0644)
	_ = mfs.WriteFile("other/x.csv", nil, 0644)

	var got []string
	if err := mfs.WalkFiles("data", func(path string) error {
		got = append(got, path)
		return nil
	}); err != nil {
		t.Fatalf("WalkFiles failed: %v", err)
	}

	if len(got) != 2 || got[0] != "data/a.csv" || got[1] != "data/b/2.csv" {
		t.Errorf("unexpected walk order: %v", got)
	}

	if err := mfs.WalkFiles("missing", func(string) error { return nil }); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist for unknown root, got %v", err)
	}

	_ = mfs.MkdirAll("empty", 0755)
	if err := mfs.WalkFiles("empty", func(string) error { return nil }); err != nil {
		t.Errorf("expected nil error for empty known directory, got %v", err)
	}

	stop := errors.New("stop")
	if err := mfs.WalkFiles("data", func(string) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("expected callback error to propagate, got %v", err)
	}
}
