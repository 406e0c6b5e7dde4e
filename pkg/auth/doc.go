// Package auth defines the role model, identities, and the session
// lifecycle for the campushub platform.
//
// Roles form a closed, unordered set; scoping requirements (which
// roles must be bound to a college or club) live on the Role type so
// they are checked exhaustively wherever roles branch.
//
// Sessions are opaque random tokens. The plaintext token lives only in
// the user's cookie; stores key sessions by SHA-256 hash. The trust
// window is a pure function of the owner's current role and is
// recomputed on every authenticated request, so a role change tightens
// or widens the window immediately without re-login.
package auth
