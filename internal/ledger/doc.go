// Package ledger persists the running set of discovered repositories.
//
// The ledger is a single JSON document mapping "owner/name" to the
// last-known metadata of every repository ever observed, plus a
// liveness flag. Knowledge is monotonic: once a repository has been
// seen it stays in the ledger, with Valid flipped to false when a scan
// no longer finds it. Only an explicit cleanup pass removes stale
// entries.
//
// Saves go through write-then-rename so the file on disk is always a
// complete, valid document, even if the process dies mid-save. The file
// is not locked; concurrent runs against the same path would race and
// are not supported.
package ledger
