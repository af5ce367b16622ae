// Package logging provides the structured logging used across bootmatch.
//
// It is a thin layer over log/slog: every entry carries a subsystem
// attribute, messages are printf-style, and an optional error is attached as
// an "error" attribute.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Store", "Loaded %d profiles from %s", n, dir)
//	logging.Warn("Lock", "waiting for lock %s", path)
//	logging.Error("Allocator", err, "Unable to match requirements")
//
// A Logger binds a subsystem and fixed attributes, which is how a single boot
// request is correlated across log lines:
//
//	log := logging.For("Allocator").With("request", id)
//	log.Info("matched profile %s", name)
//
// # Output
//
// Logs are the operator channel. The allocation commands write the response
// for the booting machine to stdout, so logging is initialised on stderr.
package logging
