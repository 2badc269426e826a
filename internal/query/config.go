package query

import (
	"time"

	"github.com/danmuck/manifestd/internal/protocol"
	"github.com/danmuck/manifestd/internal/protocol/frame"
)

// Config defines server session limits and timeouts.
type Config struct {
	// ReadTimeout bounds the wait for the next request in Idle. Zero waits forever.
	ReadTimeout time.Duration
	// AckTimeout bounds the wait for RecvParamsRecvd after a header.
	AckTimeout   time.Duration
	WriteTimeout time.Duration
	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int
	Limits      frame.Limits
	Encoding    protocol.Encoding
}

func DefaultConfig() Config {
	return Config{
		ReadTimeout:  0,
		AckTimeout:   20 * time.Second,
		WriteTimeout: 15 * time.Second,
		MaxSessions:  0,
		Limits:       frame.DefaultLimits(),
		Encoding:     protocol.EncodingSentinel,
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.AckTimeout <= 0 {
		c.AckTimeout = d.AckTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	if c.MaxSessions < 0 {
		c.MaxSessions = 0
	}
	c.Limits = c.Limits.WithDefaults()
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	return c
}

// BackoffConfig defines dial retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// ClientConfig defines client dial and request bounds.
type ClientConfig struct {
	DialTimeout time.Duration
	// Timeout bounds one request round trip when the context has no deadline.
	Timeout  time.Duration
	Limits   frame.Limits
	Encoding protocol.Encoding
	Backoff  BackoffConfig
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout: 5 * time.Second,
		Timeout:     30 * time.Second,
		Limits:      frame.DefaultLimits(),
		Encoding:    protocol.EncodingSentinel,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c ClientConfig) WithDefaults() ClientConfig {
	d := DefaultClientConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
	c.Limits = c.Limits.WithDefaults()
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.Backoff.InitialDelay <= 0 && c.Backoff.MaxDelay <= 0 {
		c.Backoff = d.Backoff
	}
	return c
}
