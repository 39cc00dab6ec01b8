package statuscheck

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Checker reports the readiness of the collaborators a selection request
// depends on. A nil Redis means the fact cache is disabled.
type Checker struct {
	redis    RedisPinger
	backend  string
	lookPath func(string) (string, error)
}

// Options configures the Checker.
type Options struct {
	Redis   RedisPinger
	Backend string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for /health.
type Summary struct {
	FactCache Status `json:"fact_cache"`
	Backend   Status `json:"text_backend"`
}

// Healthy reports whether every subsystem is usable.
func (s Summary) Healthy() bool { return s.FactCache.OK && s.Backend.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{redis: opts.Redis, backend: opts.Backend, lookPath: exec.LookPath}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		FactCache: c.checkRedis(ctx),
		Backend:   c.checkBackend(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: true, Message: "Disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkBackend() Status {
	switch c.backend {
	case "mutool":
		if _, err := c.lookPath("mutool"); err != nil {
			return Status{OK: false, Message: "mutool binary not found"}
		}
		return Status{OK: true, Message: "mutool available"}
	case "", "fitz", "pdflib":
		return Status{OK: true, Message: "Embedded"}
	default:
		return Status{OK: false, Message: "unknown backend " + c.backend}
	}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
