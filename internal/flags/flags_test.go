package flags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDisabledFlagger(t *testing.T) {
	flagger := NewFlagger(false)

	if _, ok := flagger.Create("test", true); ok {
		t.Fatal("create should report disabled")
	}
	if flagger.Exists("test") {
		t.Fatal("exists should report false when flagging is disabled")
	}
	if flagger.IsEnabled("test", true) {
		t.Fatal("is-enabled should report false when flagging is disabled")
	}
	if _, ok := flagger.Get("test"); ok {
		t.Fatal("get should report absent when flagging is disabled")
	}
	if all := flagger.All(); len(all) != 0 {
		t.Fatalf("all should be empty when flagging is disabled, got %v", all)
	}
}

func TestCreateMissingFlag(t *testing.T) {
	flagger := NewFlagger(true)

	if flagger.Exists("test") {
		t.Fatal("flag should not exist before create")
	}

	flag, ok := flagger.Create("test", false)
	if !ok || flag.Name != "test" {
		t.Fatalf("unexpected created flag: %+v ok=%v", flag, ok)
	}
	if !flagger.Exists("test") {
		t.Fatal("flag should exist after create")
	}
}

func TestCreateDoesNotOverwriteExistingState(t *testing.T) {
	flagger := NewFlagger(true)

	flag, _ := flagger.Create("test", false)
	if flag.Enabled {
		t.Fatal("flag should start disabled")
	}

	// Stored state is canonical; re-creating enabled must not flip it.
	flag, _ = flagger.Create("test", true)
	if flag.Enabled {
		t.Fatal("re-create should not overwrite the stored disabled state")
	}
	if flagger.IsEnabled("test", true) {
		t.Fatal("flag should still report disabled")
	}
}

func TestIsEnabledDefault(t *testing.T) {
	flagger := NewFlagger(true)

	if flagger.IsEnabled("missing", false) {
		t.Fatal("missing flag should report the default")
	}
	if !flagger.IsEnabled("missing", true) {
		t.Fatal("missing flag should report the default")
	}

	flagger.Create("test", true)
	if !flagger.IsEnabled("test", false) {
		t.Fatal("enabled flag should report true regardless of default")
	}
}

func TestAllFlags(t *testing.T) {
	flagger := NewFlagger(true)

	for i := 0; i < 5; i++ {
		flagger.Create(fmt.Sprintf("flag-%d", i), i%2 == 0)
	}

	all := flagger.All()
	if len(all) != 5 {
		t.Fatalf("expected 5 flags, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("flags should be sorted by name: %v", all)
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flags.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSetupRegistersDeclaredFlags(t *testing.T) {
	path := writeConfig(t, `version: 1

flags:
  my-enabled-flag:
    is_enabled: true
  my-disabled-flag:
    is_enabled: false
`)

	flagger, err := Setup(path, true)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !flagger.IsEnabled("my-enabled-flag", false) {
		t.Fatal("my-enabled-flag should be on")
	}
	if flagger.IsEnabled("my-disabled-flag", true) {
		t.Fatal("my-disabled-flag should be off")
	}
}

func TestSetupEmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	_, err := Setup(path, true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a config error, got %v", err)
	}
	if cfgErr.Message != "the file is empty" {
		t.Fatalf("unexpected message %q", cfgErr.Message)
	}
}

func TestSetupInvalidFile(t *testing.T) {
	path := writeConfig(t, "not_yaml\n")

	_, err := Setup(path, true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a config error, got %v", err)
	}
}

func TestSetupMissingVersion(t *testing.T) {
	path := writeConfig(t, "flags:\n  test:\n    is_enabled: true\n")

	_, err := Setup(path, true)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a config error, got %v", err)
	}
	if cfgErr.Field != "version" {
		t.Fatalf("expected the version field to be flagged, got %q", cfgErr.Field)
	}
}
