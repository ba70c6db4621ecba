// Package indexnow notifies IndexNow-compatible search engines when site
// content changes.
//
// The submission path is: Normalizer (relative -> absolute against the site
// origin) -> dedupe gate -> PayloadBuilder (one batched payload) -> Client
// (POST to the configured endpoint). Configuration problems surface as
// ErrConfiguration; network problems are logged, recorded, and swallowed so
// that notification never breaks the caller's primary operation.
//
// Receiver adapts the package to a signal.Signal so application code can
// fire change notifications without depending on the submission API.
package indexnow
