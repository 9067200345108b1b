// Package cas implements a content-addressable file store.
//
// Every upload is streamed into a temp file under <root>/.tmp while a SHA-1
// digest is computed over the same bytes. When the stream ends the digest
// decides the outcome: content seen before resolves to the existing record
// (its UpdatedAt bumped, nothing written), new content is renamed to
// <root>/<hash[0:2]>/<hash><ext> and recorded. Two concurrent uploads of the
// same bytes converge on one record because an insert conflict on the hash is
// treated as "found".
//
// Each upload passes through receiving, hashing and finalizing before it
// resolves exactly once as done or failed. Every failure removes the temp file.
//
//	store, err := cas.New(cfg, records, cas.WithLogger(log))
//	asset, err := store.IngestMultipart(ctx, r, "file")
//	switch {
//	case errors.Is(err, cas.ErrNotMultipart):   // 415
//	case errors.Is(err, cas.ErrFileTooLarge):   // 422
//	}
//
// Metadata persistence is delegated to a Records implementation. An optional
// Mirror receives a copy of each new canonical file, and a Sweeper removes temp
// files orphaned by crashes.
package cas
