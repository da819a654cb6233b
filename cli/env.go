// ABOUTME: Shared dependencies handed to every CLI command
// ABOUTME: Bundles the database, user config, logger and output writer
package cli

import (
	"database/sql"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/contactmerge/config"
)

// Env carries what commands need from main.
type Env struct {
	DB     *sql.DB
	Config *config.Config
	Logger *log.Logger
	Out    io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		return config.DefaultConfig()
	}
	return e.Config
}

func (e *Env) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}
