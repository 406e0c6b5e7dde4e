// Package async provides safe fire-and-forget execution for background
// tasks spawned from request handlers.
//
// Audit records and analytics events are written off the request path:
// the response must not wait on them and their failures must not fail
// the request. SafeGo wraps such writes with panic recovery, a timeout,
// and detachment from request cancellation, so a completed request does
// not abort an in-flight write.
package async
