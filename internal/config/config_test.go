package config

import (
	"flag"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	for _, key := range []string{"ZAIKO_DB", "ZAIKO_ADDR", "ZAIKO_ADMIN", "ZAIKO_LOG", "ZAIKO_SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}
	c := LoadServer()
	if c.DBPath != "zaiko.sqlite3" {
		t.Fatalf("DBPath default = %q", c.DBPath)
	}
	if c.Addr != ":8080" {
		t.Fatalf("Addr default = %q", c.Addr)
	}
	if c.AdminUser != "admin" || c.LogPath != "" {
		t.Fatalf("admin/log defaults = %q, %q", c.AdminUser, c.LogPath)
	}
	if c.ShutdownTimeout != 5*time.Second {
		t.Fatalf("ShutdownTimeout default = %v", c.ShutdownTimeout)
	}
}

func TestLoadServerEnvOverrides(t *testing.T) {
	t.Setenv("ZAIKO_DB", "/tmp/z.db")
	t.Setenv("ZAIKO_ADDR", ":9090")
	t.Setenv("ZAIKO_ADMIN", "root")
	t.Setenv("ZAIKO_LOG", "/tmp/z.log")
	t.Setenv("ZAIKO_SHUTDOWN_TIMEOUT", "12")
	c := LoadServer()
	if c.DBPath != "/tmp/z.db" || c.Addr != ":9090" || c.AdminUser != "root" || c.LogPath != "/tmp/z.log" {
		t.Fatalf("env overrides not applied: %+v", c)
	}
	if c.ShutdownTimeout != 12*time.Second {
		t.Fatalf("ShutdownTimeout env = %v", c.ShutdownTimeout)
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("ZAIKO_SHUTDOWN_TIMEOUT", "soon")
	if c := LoadServer(); c.ShutdownTimeout != 5*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want default", c.ShutdownTimeout)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ZAIKO_ADDR", ":9090")
	t.Setenv("ZAIKO_DB", "env.db")
	c := LoadServer()

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse([]string{"-a", ":7070"}); err != nil {
		t.Fatal(err)
	}
	if c.Addr != ":7070" {
		t.Errorf("Addr = %q, want flag value", c.Addr)
	}
	if c.DBPath != "env.db" {
		t.Errorf("DBPath = %q, want env value", c.DBPath)
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ZAIKO_URL", "")
	t.Setenv("ZAIKO_SESSION", "")
	c := LoadClient()
	if c.URL != "http://localhost:8080" {
		t.Errorf("URL default = %q", c.URL)
	}
	if c.SessionPath != DefaultSessionPath() {
		t.Errorf("SessionPath default = %q", c.SessionPath)
	}

	t.Setenv("ZAIKO_URL", "https://zaiko.example")
	t.Setenv("ZAIKO_SESSION", "/tmp/s.json")
	c = LoadClient()
	if c.URL != "https://zaiko.example" || c.SessionPath != "/tmp/s.json" {
		t.Errorf("env overrides not applied: %+v", c)
	}
}
