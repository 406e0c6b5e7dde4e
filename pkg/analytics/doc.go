// Package analytics collects platform usage events and computes daily
// rollups over them.
//
// Two event streams are tracked: logins (success and failure) and media
// uploads, including which storage backend served the write and whether
// it was a fallback. Raw events land in login_events and upload_events;
// the Aggregator folds them into activity_stats_daily and
// upload_stats_daily, and the Service answers overview queries from the
// rollups so dashboards never scan the raw streams.
//
// Event tracking runs off the request path via async.SafeGo. A lost
// event is acceptable; a slow response is not.
package analytics
