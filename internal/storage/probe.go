package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Drivers.
const (
	DriverAuto   = "auto"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver     string
	Dir        string
	SQLitePath string
	Redis      RedisOptions
}

// Open returns the backend named by opts.Driver. With DriverAuto it probes
// once, in order: Redis when an address is configured and answers PING,
// SQLite when a database path is configured, and the file backend otherwise.
// A failed Redis probe is logged and skipped; explicit drivers fail hard.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Provider, error) {
	switch opts.Driver {
	case DriverFile:
		return NewFS(opts.Dir)
	case DriverSQLite:
		return OpenSQLite(opts.SQLitePath)
	case DriverRedis:
		return OpenRedis(ctx, opts.Redis)
	case DriverAuto, "":
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}

	if opts.Redis.Addr != "" {
		r, err := OpenRedis(ctx, opts.Redis)
		if err == nil {
			return r, nil
		}
		logger.Warn("storage: redis probe failed, falling back",
			slog.String("addr", opts.Redis.Addr),
			slog.String("error", err.Error()))
	}
	if opts.SQLitePath != "" {
		return OpenSQLite(opts.SQLitePath)
	}
	return NewFS(opts.Dir)
}
