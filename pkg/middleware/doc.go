// Package middleware contains the HTTP glue between the router and
// the auth core: session authentication with sliding renewal, and the
// authorization gate with target-scope extraction from route
// variables.
package middleware
