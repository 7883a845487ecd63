package platform

import (
	"database/sql"

	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/health"
	"github.com/txn2/moodchat/pkg/transcript"
)

// Options configures the platform.
type Options struct {
	// Config is the service configuration.
	Config *Config

	// DB is the exchange log connection (optional, opened from config if not provided).
	DB *sql.DB

	// Gateway replaces the LLM client (optional, created from config if not provided).
	Gateway chatbot.Gateway

	// Recorder replaces the exchange recorder (optional, created from config if not provided).
	Recorder transcript.Recorder

	// Health is the readiness tracker (optional, created if not provided).
	Health *health.Checker
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithGateway sets the LLM gateway.
func WithGateway(gw chatbot.Gateway) Option {
	return func(o *Options) {
		o.Gateway = gw
	}
}

// WithRecorder sets the exchange recorder.
func WithRecorder(r transcript.Recorder) Option {
	return func(o *Options) {
		o.Recorder = r
	}
}

// WithHealth sets the readiness tracker.
func WithHealth(h *health.Checker) Option {
	return func(o *Options) {
		o.Health = h
	}
}
