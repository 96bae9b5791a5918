// Package uploader delivers queued captures to the remote analysis service.
//
// A delivery is exactly one multipart POST; the client never retries and
// never mutates the queue. Only an explicit 2xx response with a parseable
// confirmation counts as success.
package uploader
