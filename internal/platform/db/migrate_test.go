package db

import (
	"context"
	"os"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_indexes.sql":  {Data: []byte("CREATE INDEX i ON t (c);")},
		"001_activity.sql": {Data: []byte("CREATE TABLE t (c INT);")},
		"010_later.sql":    {Data: []byte("SELECT 1;")},
		"README.md":        {Data: []byte("not sql")},
		"notes.sql":        {Data: []byte("no version prefix")},
		"abc_bad.sql":      {Data: []byte("non numeric prefix")},
	}

	migrations, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	wantVersions := []int{1, 2, 10}
	for i, v := range wantVersions {
		if migrations[i].Version != v {
			t.Errorf("migrations[%d].Version = %d, want %d", i, migrations[i].Version, v)
		}
	}
	if migrations[0].SQL != "CREATE TABLE t (c INT);" {
		t.Errorf("unexpected SQL content: %s", migrations[0].SQL)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	m := NewMigrator(nil)
	migrations, err := LoadMigrations(m.fsys)
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}
	if !strings.Contains(migrations[0].SQL, "console_activity") {
		t.Errorf("expected first migration to create console_activity")
	}
}

func TestMigrator_Up(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, url, 2, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	m := NewMigrator(pool)
	if _, err := m.Up(ctx); err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	n, err := m.Up(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected second Up to apply nothing, got %d %v", n, err)
	}

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	for _, st := range statuses {
		if !st.Applied {
			t.Errorf("migration %s not applied", st.Name)
		}
	}
}

func TestNewPool_BadURL(t *testing.T) {
	if _, err := NewPool(context.Background(), "::not-a-url", 1, 1); err == nil {
		t.Fatal("expected parse error")
	}
}
