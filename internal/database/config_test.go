package database

import "testing"

func TestConfigURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "limify", Password: "p@ss word", DBName: "limify", SSLMode: "require"}

	got := cfg.URL()
	want := "postgres://limify:p%40ss%20word@db:5432/limify?sslmode=require"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	dsn := cfg.DSN()
	if dsn != "host=db port=5432 user=limify password=p@ss word dbname=limify sslmode=require" {
		t.Errorf("unexpected DSN %q", dsn)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) == 0 || len(entries)%2 != 0 {
		t.Fatalf("expected paired up/down migrations, got %d files", len(entries))
	}
}
