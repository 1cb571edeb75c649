// Package config collects runtime settings from the environment, with
// command-line flags taking precedence.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Server holds the settings of the zaiko server.
type Server struct {
	DBPath          string
	Addr            string
	AdminUser       string
	LogPath         string
	ShutdownTimeout time.Duration
}

// Client holds the settings of the terminal client.
type Client struct {
	URL         string
	SessionPath string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// LoadServer reads server settings from the environment with defaults.
func LoadServer() Server {
	return Server{
		DBPath:          getenv("ZAIKO_DB", "zaiko.sqlite3"),
		Addr:            getenv("ZAIKO_ADDR", ":8080"),
		AdminUser:       getenv("ZAIKO_ADMIN", "admin"),
		LogPath:         getenv("ZAIKO_LOG", ""),
		ShutdownTimeout: durenvs("ZAIKO_SHUTDOWN_TIMEOUT", 5),
	}
}

// RegisterFlags binds the settings to fs. The current values become the
// flag defaults, so call it after LoadServer.
func (s *Server) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&s.DBPath, "db", s.DBPath, "")
	fs.StringVar(&s.DBPath, "d", s.DBPath, "")

	fs.StringVar(&s.Addr, "addr", s.Addr, "")
	fs.StringVar(&s.Addr, "a", s.Addr, "")

	fs.StringVar(&s.AdminUser, "user", s.AdminUser, "")
	fs.StringVar(&s.AdminUser, "u", s.AdminUser, "")

	fs.StringVar(&s.LogPath, "log", s.LogPath, "")
	fs.StringVar(&s.LogPath, "l", s.LogPath, "")
}

// LoadClient reads client settings from the environment with defaults.
func LoadClient() Client {
	return Client{
		URL:         getenv("ZAIKO_URL", "http://localhost:8080"),
		SessionPath: getenv("ZAIKO_SESSION", DefaultSessionPath()),
	}
}

// RegisterFlags binds the client settings to fs.
func (c *Client) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "url", c.URL, "")
	fs.StringVar(&c.SessionPath, "session", c.SessionPath, "")
}

// DefaultSessionPath returns the session file under the user's config
// directory, or a file in the working directory when there is none.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".zaiko-session.json"
	}
	return filepath.Join(dir, "zaiko", "session.json")
}
