// Package http provides the raw HTTP transport used by the Download
// Station client.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - Form-encoded POST requests
//   - Multipart file uploads with progress tracking
//   - Optional TLS trust override for self-signed NAS certificates
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{Timeout: 30 * time.Second})
//
//	body, err := client.PostForm(ctx, "https://nas.local:5001/webapi/entry.cgi", url.Values{
//	    "api":    {"SYNO.API.Auth"},
//	    "method": {"login"},
//	})
//
// # Uploads
//
//	body, err := client.PostFile(ctx, endpoint, fields, "torrent", "/tmp/file.torrent", func(sent, total int64) {
//	    fmt.Printf("%d/%d\n", sent, total)
//	})
//
// Transport errors are returned as-is; this package never retries.
package http
