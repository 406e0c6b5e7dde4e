// Package authz implements the scope resolver and the authorization
// gate.
//
// The gate answers one question per request: may this identity perform
// an action against this target scope. It checks, in order,
// authentication presence, the role predicate, scope resolution, and
// the scope match, and returns a typed Decision the routing layer can
// translate. Nothing the gate computes survives the request.
package authz
