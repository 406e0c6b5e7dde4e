// Package api wires the HTTP surface of the platform: profile and
// directory reads, scope-guarded media uploads, platform settings and
// role administration. Authorization decisions live in pkg/authz; this
// package only declares which predicate and target guard each route.
package api
