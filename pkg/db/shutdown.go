package db

import "context"

// Shutdown returns a hook that closes d. Register it with atelier.ShutdownHook.
func Shutdown(d *DB) func(ctx context.Context) error {
	return func(context.Context) error {
		return d.Close()
	}
}
