// Package removebg is the client for the remove.bg background-removal API.
//
// A Client posts one image per call as multipart form data together with the
// size parameter and the X-Api-Key header, bounded by a fixed timeout. It never
// retries. Failures come back as a closed set of errors:
//
//   - ErrNotConfigured: the API key is empty or the placeholder
//   - *UpstreamError: remove.bg answered with a non-200 status
//   - ErrTimeout: the call ran past the timeout
//   - *NetworkError: any other transport failure
//
// Usage:
//
//	client := removebg.NewClient(removebg.Options{APIKey: key})
//	res, err := client.Remove(ctx, removebg.Image{Data: data, Filename: "cat.jpg", ContentType: "image/jpeg"})
package removebg
