package validation_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"playlistdl/internal/models"
	"playlistdl/internal/validation"
)

func TestValidateDirectory_ExistingDirectory(t *testing.T) {
	tmp := t.TempDir()

	info, err := validation.ValidateDirectory(tmp, false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if info == nil {
		t.Fatalf("expected file info, got nil")
	}
}

func TestValidateDirectory_CreateIfMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "new", "nested")

	info, err := validation.ValidateDirectory(missing, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, statErr := os.Stat(missing); statErr != nil {
		t.Fatalf("directory was not created")
	}
	if info == nil || !info.IsDir() {
		t.Fatalf("expected directory info, got %v", info)
	}
}

func TestValidateDirectory_ErrorIfMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	info, err := validation.ValidateDirectory(missing, false)
	if err == nil {
		t.Fatalf("expected error for missing directory, got nil")
	}
	if info != nil {
		t.Fatalf("expected nil os.FileInfo for missing, uncreated directory")
	}
}

func TestValidateDirectory_PathIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := validation.ValidateDirectory(f, true); err == nil {
		t.Fatalf("expected error for file path")
	}
}

func TestValidateDownloadOptions(t *testing.T) {
	got, err := validation.ValidateDownloadOptions(models.DownloadOptions{Format: "MKV", Quality: "720P"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Format != "mkv" || got.Quality != "720p" {
		t.Errorf("normalized = %q/%q", got.Format, got.Quality)
	}
	if got.MaxRetries != models.DefaultMaxRetries || got.MaxConcurrentDownloads != models.DefaultMaxConcurrent {
		t.Errorf("defaults not applied: %+v", got)
	}

	bad := []models.DownloadOptions{
		{Format: "avi"},
		{Quality: "ultra"},
		{MaxRetries: -1},
		{MaxConcurrentDownloads: -2},
	}
	for _, o := range bad {
		if _, err := validation.ValidateDownloadOptions(o); err == nil {
			t.Errorf("expected error for %+v", o)
		}
	}
}

func TestValidateNotifyURLs(t *testing.T) {
	got, err := validation.ValidateNotifyURLs([]string{"https://a.example/hook", " https://a.example/hook", "http://192.168.1.2:8123/x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("dedupe failed: %v", got)
	}

	for _, bad := range []string{"ftp://host/x", "https://", "::::"} {
		if _, err := validation.ValidateNotifyURLs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestDeduplicateSliceEntries(t *testing.T) {
	got := validation.DeduplicateSliceEntries([]string{"a", "b", "a", "", "c", "b"})
	if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidateLoggingLevel(t *testing.T) {
	for in, want := range map[int]int{-1: 0, 3: 3, 9: 5} {
		if got := validation.ValidateLoggingLevel(in); got != want {
			t.Errorf("ValidateLoggingLevel(%d) = %d, want %d", in, got, want)
		}
	}
}
