package styles

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestThemeWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTheme(t, dir, "live.yaml", &ThemeFile{Name: "Before", Version: "1", Colors: baseColors()})

	var mu sync.Mutex
	var names []string
	var errs []error
	tw, err := NewThemeWatcher(path, func(p *ColorPalette, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		names = append(names, p.Name)
	})
	if err != nil {
		t.Fatalf("NewThemeWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tw.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := yaml.Marshal(&ThemeFile{Name: "After", Version: "1", Colors: baseColors()})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := len(names)
		mu.Unlock()
		if got > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(names) == 0 {
		t.Fatalf("no reload observed (errors: %v)", errs)
	}
	if names[len(names)-1] != "After" {
		t.Errorf("last reload = %q, want After", names[len(names)-1])
	}
}

func TestThemeWatcher_ReportsInvalidTheme(t *testing.T) {
	dir := t.TempDir()
	path := writeTheme(t, dir, "live.yaml", &ThemeFile{Name: "Ok", Version: "1", Colors: baseColors()})

	errCh := make(chan error, 8)
	tw, err := NewThemeWatcher(path, func(_ *ColorPalette, err error) {
		if err != nil {
			errCh <- err
		}
	})
	if err != nil {
		t.Fatalf("NewThemeWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tw.Run(ctx) }()

	if err := os.WriteFile(path, []byte("name: Broken\nversion: \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected a load error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invalid theme was not reported")
	}
}

func TestNewThemeWatcher_MissingDirectory(t *testing.T) {
	_, err := NewThemeWatcher(filepath.Join(t.TempDir(), "nope", "theme.yaml"), func(*ColorPalette, error) {})
	if err == nil {
		t.Error("watching a file in a missing directory should fail")
	}
}
