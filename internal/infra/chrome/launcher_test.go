package chrome

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docrender/internal/render"
)

func TestCreateProfileDir_DefaultAndCustomBase(t *testing.T) {
	dir1, err := createProfileDir("")
	if err != nil {
		t.Fatalf("createProfileDir default base failed: %v", err)
	}
	defer os.RemoveAll(dir1)
	if _, err := os.Stat(dir1); err != nil {
		t.Fatalf("expected created dir to exist: %v", err)
	}

	customBase := filepath.Join(t.TempDir(), "nested", "profiles")
	dir2, err := createProfileDir(customBase)
	if err != nil {
		t.Fatalf("createProfileDir custom base failed: %v", err)
	}
	if filepath.Dir(dir2) != customBase {
		t.Fatalf("expected profile dir under custom base %q, got %q", customBase, dir2)
	}
}

func TestCreateProfileDir_InvalidBase(t *testing.T) {
	if _, err := createProfileDir("/dev/null/x"); err == nil {
		t.Fatalf("expected error for invalid base dir")
	}
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		arg   string
		name  string
		value any
		ok    bool
	}{
		{arg: "--no-sandbox", name: "no-sandbox", value: true, ok: true},
		{arg: "--use-gl=swiftshader", name: "use-gl", value: "swiftshader", ok: true},
		{arg: "-single-process", name: "single-process", value: true, ok: true},
		{arg: "about:blank", ok: false},
		{arg: "--", ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.arg, func(t *testing.T) {
			name, value, ok := parseFlag(tc.arg)
			if ok != tc.ok {
				t.Fatalf("parseFlag(%q) ok = %v, want %v", tc.arg, ok, tc.ok)
			}
			if ok && (name != tc.name || value != tc.value) {
				t.Fatalf("parseFlag(%q) = %q, %v; want %q, %v", tc.arg, name, value, tc.name, tc.value)
			}
		})
	}
}

func TestAllocatorOptions_AddsProfileSettings(t *testing.T) {
	base := len(allocatorOptions(render.LaunchProfile{Headless: true}, "/tmp/p"))

	p := render.LaunchProfileFor(render.Environment{Local: true}, nil)
	p.ExecutablePath = "/usr/bin/chromium"
	p.Viewport = &render.Viewport{Width: 800, Height: 600}
	got := len(allocatorOptions(p, "/tmp/p"))

	// exec path + one flag per argument + window size
	want := base + 1 + len(p.Arguments) + 1
	if got != want {
		t.Fatalf("expected %d allocator options, got %d", want, got)
	}
}

func TestLaunch_MissingBinaryFailsAndCleansUp(t *testing.T) {
	base := t.TempDir()
	l := &Launcher{UserDataDir: base, StartTimeout: 5 * time.Second}

	s, err := l.Launch(context.Background(), render.LaunchProfile{
		ExecutablePath: "/definitely/missing/chrome",
		Headless:       true,
	})
	if err == nil {
		s.Close()
		t.Fatalf("expected launch error with missing chrome binary")
	}

	entries, _ := os.ReadDir(base)
	if len(entries) != 0 {
		t.Fatalf("expected profile dir removed after failed launch, found %d entries", len(entries))
	}
}

func TestLaunch_InvalidProfileBase(t *testing.T) {
	l := &Launcher{UserDataDir: "/dev/null/not-allowed"}
	if _, err := l.Launch(context.Background(), render.LaunchProfile{Headless: true}); err == nil {
		t.Fatalf("expected launch error for unusable profile base")
	}
}

func TestRunUntil_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A plain context is not a chromedp context; Run fails fast, but either
	// outcome must be an error.
	if err := runUntil(ctx, time.Second, context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProcessManagerRetriesRealLauncher(t *testing.T) {
	l := &Launcher{UserDataDir: t.TempDir(), StartTimeout: 2 * time.Second}
	profile := func() render.LaunchProfile {
		return render.LaunchProfile{ExecutablePath: "/definitely/missing/chrome", Headless: true}
	}
	m := render.NewProcessManager(l, profile, render.WithMaxRetries(2), render.WithBackoff(time.Millisecond))

	_, err := m.Acquire(context.Background())
	var le *render.LaunchError
	if !errors.As(err, &le) || le.Attempts != 2 {
		t.Fatalf("expected LaunchError after 2 attempts, got %v", err)
	}
}
