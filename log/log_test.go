package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("MICCAP_LOG_PATH", "/tmp/miccap-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/miccap-env-log" {
		t.Errorf("got %q, want /tmp/miccap-env-log", got)
	}
}

func TestInitWritesDiagnostics(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hello from test")
	Artifact("recording-x.flac", "audio/flac", 3, 12.5)
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("reading diagnostics: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "hello from test") {
		t.Error("info line missing from diagnostics log")
	}
	if !strings.Contains(text, "artifact") || !strings.Contains(text, "recording-x.flac") {
		t.Error("artifact line missing from diagnostics log")
	}
}

func TestLoggerBeforeInitIsNop(t *testing.T) {
	setupLogDir(t)
	// Must not panic or write anywhere.
	l := Logger()
	l.Info().Msg("discarded")
}
