package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithLogOutput redirects the JSON log. The MCP command logs to stderr because
// stdout carries the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
