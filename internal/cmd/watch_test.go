package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harrison/binmeta/internal/config"
	"github.com/harrison/binmeta/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, root string, cfg *config.Config) (*session, *bytes.Buffer, func() error) {
	t.Helper()
	s, err := newSession(context.Background(), root, cfg, io.Discard)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	out := &bytes.Buffer{}
	go func() { done <- runWatch(ctx, s, out, ready) }()

	select {
	case <-ready:
	case err := <-done:
		cancel()
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watch did not start")
	}

	stop := func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop")
			return nil
		}
	}
	return s, out, stop
}

func TestRunWatch(t *testing.T) {
	root := newVault(t, map[string]string{
		".binmeta/binary-file-list.txt": "gone.png\nkept.png",
		"kept.png":                      "",
	})

	s, out, stop := startWatch(t, root, config.DefaultConfig())
	assert.Equal(t, []string{"kept.png"}, s.registry.Keys(), "stale entries are dropped on startup")

	photo := filepath.Join(root, "img", "photo.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(photo), 0755))
	require.NoError(t, os.WriteFile(photo, []byte("binary"), 0644))

	require.Eventually(t, func() bool {
		_, ok := s.vault.FileByPath("INFO_photo_PNG.md")
		return ok && s.registry.Has("img/photo.png")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(photo))
	require.Eventually(t, func() bool {
		return !s.registry.Has("img/photo.png")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, stop())
	assert.Contains(t, out.String(), "auto detection on, 1 registered, 1 stale entries dropped")
	assert.Contains(t, out.String(), "Stopped watching")

	_, err := os.Stat(filepath.Join(root, "INFO_photo_PNG.md"))
	assert.NoError(t, err, "notes survive deletion of their binary")
}

func TestRunWatch_AutoDetectionOff(t *testing.T) {
	root := newVault(t, nil)
	cfg := config.DefaultConfig()
	cfg.AutoDetection = false

	s, out, stop := startWatch(t, root, cfg)

	require.NoError(t, os.WriteFile(filepath.Join(root, "photo.png"), []byte(""), 0644))
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, stop())
	assert.Equal(t, 0, s.registry.Len())
	_, ok := s.vault.FileByPath("INFO_photo_PNG.md")
	assert.False(t, ok)
	assert.Contains(t, out.String(), "auto detection off")
}

func TestHandleWatchError_LostEventsRescan(t *testing.T) {
	root := newVault(t, map[string]string{
		".binmeta/binary-file-list.txt": "gone.png",
		"missed.png":                    "",
	})
	s, err := newSession(context.Background(), root, config.DefaultConfig(), io.Discard)
	require.NoError(t, err)

	handleWatchError(context.Background(), s, errors.New("inotify read failed"))
	assert.Equal(t, []string{"gone.png"}, s.registry.Keys(), "ordinary errors are only logged")

	lost := fmt.Errorf("%w: %w", vault.ErrEventsLost, fsnotify.ErrEventOverflow)
	handleWatchError(context.Background(), s, lost)
	assert.Equal(t, []string{"missed.png"}, s.registry.Keys())
	_, ok := s.vault.FileByPath("INFO_missed_PNG.md")
	assert.True(t, ok)
}

func TestHandleWatchError_AutoDetectionOff(t *testing.T) {
	root := newVault(t, map[string]string{"missed.png": ""})
	cfg := config.DefaultConfig()
	cfg.AutoDetection = false
	s, err := newSession(context.Background(), root, cfg, io.Discard)
	require.NoError(t, err)

	handleWatchError(context.Background(), s, fmt.Errorf("%w: overflow", vault.ErrEventsLost))
	assert.Equal(t, 0, s.registry.Len())
}
