package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestBuildZipsAssetsInOrder(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := Build([]Asset{
		{Filename: "image-1.jpg", MIME: "image/jpeg", Data: []byte("one")},
		{Filename: "image-1.jpg", MIME: "image/jpeg", Data: []byte("two")},
		{Filename: "../notes.txt", MIME: "text/plain", Data: []byte("three")},
		{Filename: "", MIME: "image/jpeg", Data: []byte("four")},
	}, modified)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	want := []struct {
		name    string
		content string
		method  uint16
	}{
		{"image-1.jpg", "one", zip.Store},
		{"image-1-2.jpg", "two", zip.Store},
		{"notes.txt", "three", zip.Deflate},
		{"image.jpg", "four", zip.Store},
	}
	if len(zr.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i].name {
			t.Fatalf("entry %d: expected name %s, got %s", i, want[i].name, f.Name)
		}
		if f.Method != want[i].method {
			t.Fatalf("entry %d: expected method %d, got %d", i, want[i].method, f.Method)
		}
		if !f.Modified.Equal(modified) {
			t.Fatalf("entry %d: unexpected modified time %v", i, f.Modified)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %d: %v", i, err)
		}
		got, _ := io.ReadAll(rc)
		rc.Close()
		if string(got) != want[i].content {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i].content, got)
		}
	}
}

func TestBuildRejectsEmptyBatch(t *testing.T) {
	if _, err := Build(nil, time.Now()); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestUniqueNameSkipsTakenSuffixes(t *testing.T) {
	used := map[string]int{}
	got := []string{
		uniqueName("a-2.jpg", used),
		uniqueName("a.jpg", used),
		uniqueName("a.jpg", used),
	}
	want := []string{"a-2.jpg", "a.jpg", "a-3.jpg"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("name %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
