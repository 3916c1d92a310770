package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"recruit_backend/internal/config"
	"recruit_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageService_LocalRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: root}}
	s := NewStorageService(cfg)
	ctx := context.Background()

	url, err := s.SaveArtifact(ctx, "reports/job-1/application-2.json", []byte(`{"ok":true}`), util.MimeJSON)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/reports/job-1/application-2.json", url)

	raw, err := os.ReadFile(filepath.Join(root, "reports", "job-1", "application-2.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))

	// 覆盖写
	_, err = s.SaveArtifact(ctx, "reports/job-1/application-2.json", []byte(`{"ok":false}`), util.MimeJSON)
	require.NoError(t, err)
	body, err := s.LoadArtifact(ctx, "reports/job-1/application-2.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":false}`, string(body))
}

func TestStorageService_Prefix(t *testing.T) {
	root := t.TempDir()
	s := &StorageService{Backend: &LocalArtifactBackend{Root: root}, Prefix: "staging"}

	url, err := s.SaveArtifact(context.Background(), "exports/a.xlsx", []byte("xlsx"), util.MimeXLSX)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/staging/exports/a.xlsx", url)
	assert.FileExists(t, filepath.Join(root, "staging", "exports", "a.xlsx"))
}

func TestStorageService_RejectsBadKeysAndTypes(t *testing.T) {
	s := &StorageService{Backend: &LocalArtifactBackend{Root: t.TempDir()}}
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../escape.json", "reports/../../escape.json", `reports\a.json`} {
		_, err := s.SaveArtifact(ctx, key, []byte("{}"), util.MimeJSON)
		assert.ErrorIs(t, err, errInvalidArtifactKey, key)
	}

	_, err := s.SaveArtifact(ctx, "reports/a.html", []byte("<p>"), "text/html")
	assert.Error(t, err)
}
