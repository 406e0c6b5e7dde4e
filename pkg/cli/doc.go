// Package cli implements the campushub-admin command line tool:
// operational commands that act directly on the database, bypassing
// the HTTP surface. Role changes made here take effect on the user's
// next request because trust durations are recomputed per request.
package cli
