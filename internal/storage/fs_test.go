package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanKey(t *testing.T) {
	cases := map[string]string{
		"exams/1/notes.pdf":     "exams/1/notes.pdf",
		"../../etc/passwd":      "etc/passwd",
		"/abs/path":             "abs/path",
		`exams\1\..\2\file.txt`: "exams/2/file.txt",
		"":                      "",
		"..":                    "",
	}
	for in, want := range cases {
		if got := CleanKey(in); got != want {
			t.Errorf("CleanKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	key, err := s.Put(ctx, "../exams/e1/syllabus.txt", strings.NewReader("chapter 1"), -1, "text/plain")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "exams/e1/syllabus.txt" {
		t.Fatalf("key = %q", key)
	}
	if _, err := os.Stat(filepath.Join(base, "exams", "e1", "syllabus.txt")); err != nil {
		t.Fatalf("file not written under base: %v", err)
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "chapter 1" {
		t.Errorf("content = %q", b)
	}
	if u, err := s.SignedURL(ctx, key, 0); err != nil || u != "" {
		t.Errorf("SignedURL = %q, %v", u, err)
	}
	if _, err := s.Get(ctx, "exams/missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key: %v", err)
	}
	if _, err := s.Put(ctx, "..", strings.NewReader("x"), 1, ""); err == nil {
		t.Error("empty key accepted")
	}
}
