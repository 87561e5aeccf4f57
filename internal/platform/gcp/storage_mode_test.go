package gcp

import (
	"context"
	"errors"
	"testing"
)

func TestResolveObjectStorageConfig(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		wantMode ObjectStorageMode
		fallback bool
	}{
		{"default gcs", "", "", ObjectStorageModeGCS, false},
		{"explicit gcs ignores host", "gcs", "http://fake-gcs:4443", ObjectStorageModeGCS, false},
		{"explicit emulator", "GCS_EMULATOR", "http://fake-gcs:4443", ObjectStorageModeGCSEmulator, false},
		{"host fallback", "", "http://fake-gcs:4443/", ObjectStorageModeGCSEmulator, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveObjectStorageConfig(tc.mode, tc.host, "assets")
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfig: %v", err)
			}
			if cfg.Mode != tc.wantMode {
				t.Fatalf("mode: want=%q got=%q", tc.wantMode, cfg.Mode)
			}
			if cfg.Fallback != tc.fallback {
				t.Fatalf("fallback: want=%v got=%v", tc.fallback, cfg.Fallback)
			}
		})
	}
}

func TestResolveObjectStorageConfigErrors(t *testing.T) {
	cases := []struct {
		name   string
		mode   string
		host   string
		bucket string
		code   ObjectStorageConfigErrorCode
	}{
		{"invalid mode", "local", "", "assets", ObjectStorageConfigErrorInvalidMode},
		{"missing host", "gcs_emulator", "", "assets", ObjectStorageConfigErrorMissingEmulatorHost},
		{"invalid host", "gcs_emulator", "fake-gcs:4443", "assets", ObjectStorageConfigErrorInvalidEmulatorHost},
		{"missing bucket", "gcs", "", "", ObjectStorageConfigErrorMissingBucket},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveObjectStorageConfig(tc.mode, tc.host, tc.bucket)
			var cfgErr *ObjectStorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want ObjectStorageConfigError, got %v", err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}

func TestResolvePublicBaseURL(t *testing.T) {
	emu := ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}

	base, source, err := resolvePublicBaseURL("", ObjectStorageConfig{Mode: ObjectStorageModeGCS})
	if err != nil || base != "" || source != "gcs_default" {
		t.Fatalf("gcs default: base=%q source=%q err=%v", base, source, err)
	}
	base, source, err = resolvePublicBaseURL("", emu)
	if err != nil || base != "http://fake-gcs:4443" || source != "storage_emulator_host" {
		t.Fatalf("emulator fallback: base=%q source=%q err=%v", base, source, err)
	}
	base, _, err = resolvePublicBaseURL("http://localhost:4443/", emu)
	if err != nil || base != "http://localhost:4443" {
		t.Fatalf("override: base=%q err=%v", base, err)
	}
	if _, _, err := resolvePublicBaseURL("localhost:4443", emu); err == nil {
		t.Fatalf("expected error for relative public base url")
	}
}

func TestEmulatorURLs(t *testing.T) {
	bs := &bucketService{
		mode:          ObjectStorageModeGCSEmulator,
		bucket:        "assets",
		publicBaseURL: "http://localhost:4443",
	}
	up, err := bs.SignedUploadURL(context.Background(), "meetings/m1/a b.wav", "audio/wav", 0)
	if err != nil {
		t.Fatalf("SignedUploadURL: %v", err)
	}
	if up != "http://localhost:4443/assets/meetings/m1/a%20b.wav" {
		t.Fatalf("upload url: got=%q", up)
	}
	read, err := bs.SignedReadURL(context.Background(), "meetings/m1/a.wav", 0)
	if err != nil {
		t.Fatalf("SignedReadURL: %v", err)
	}
	if read != "http://localhost:4443/storage/v1/b/assets/o/meetings%2Fm1%2Fa.wav?alt=media" {
		t.Fatalf("read url: got=%q", read)
	}
	if got := bs.GSURI("/meetings/m1/a.wav"); got != "gs://assets/meetings/m1/a.wav" {
		t.Fatalf("GSURI: got=%q", got)
	}
	if _, err := bs.SignedReadURL(context.Background(), " ", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.WAV":         "audio/wav",
		"x/y.mp3?sig=1": "audio/mpeg",
		"clip.webm":     "video/webm",
		"notes.pdf":     "application/pdf",
		"mystery.bin":   "application/octet-stream",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Fatalf("ContentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}
