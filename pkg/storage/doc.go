// Package storage provides S3-compatible object storage and MIME helpers.
//
// The asset store uses it in two ways: Sniff and ExtFromMIME classify an
// incoming stream, and S3Storage mirrors canonical files into a bucket.
//
//	store, err := storage.New(storage.Config{
//		Bucket:    "assets",
//		AccessKey: os.Getenv("S3_ACCESS_KEY"),
//		SecretKey: os.Getenv("S3_SECRET_KEY"),
//		Endpoint:  "http://localhost:9000",
//		PathStyle: true,
//	})
//	if err != nil {
//		return err
//	}
//
//	f, _ := os.Open(path)
//	defer f.Close()
//	err = store.Upload(ctx, "ab/abcdef.png", f, size, "image/png")
//
// MIME types are detected from magic bytes, not file extensions:
//
//	mimeType, r, err := storage.Sniff(body)
//	// r still yields every byte of body
//
// # Errors
//
// S3 failures surface as ErrUploadFailed or ErrDeleteFailed. Missing keys and
// denied requests additionally match ErrNotFound and ErrAccessDenied.
package storage
