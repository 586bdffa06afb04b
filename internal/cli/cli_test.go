package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("storefront %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	for _, path := range [][]string{{"start"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "version"}, {"seed"}, {"worker", "run"}} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
}

func TestMigrateAndSeedAgainstSQLite(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "cli.db") + "?_pragma=foreign_keys(1)"
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_WRITER_DSN", dsn)
	t.Setenv("DB_READER_DSN", "")
	t.Setenv("OBS_ENABLE_METRICS", "false")
	t.Setenv("OBS_LOG_LEVEL", "error")

	if out := run(t, "migrate", "up"); !strings.Contains(out, "migrations applied") {
		t.Fatalf("unexpected output %q", out)
	}
	if out := run(t, "migrate", "version"); !strings.Contains(out, "schema version 2") {
		t.Fatalf("unexpected version output %q", out)
	}
	if out := run(t, "seed"); !strings.Contains(out, "seed data applied") {
		t.Fatalf("unexpected seed output %q", out)
	}
	if out := run(t, "migrate", "down", "--all"); !strings.Contains(out, "rolled back") {
		t.Fatalf("unexpected down output %q", out)
	}
	if out := run(t, "migrate", "version"); !strings.Contains(out, "schema version 0") {
		t.Fatalf("unexpected version output %q", out)
	}
}
