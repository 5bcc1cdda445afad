package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options configures a Client.
type Options struct {
	// Timeout bounds each request. Zero means 60 seconds.
	Timeout time.Duration

	// Insecure disables TLS certificate verification.
	Insecure bool

	// UserAgent overrides the default "dstask" User-Agent.
	UserAgent string
}

// Client wraps HTTP operations used by the service client.
//
// Example usage:
//
//	client := NewClient(Options{Insecure: true})
//	body, err := client.PostForm(ctx, endpoint, form)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// NewClient creates a new HTTP client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "dstask"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed NAS certificates
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: ua,
	}
}

// ProgressReader wraps a reader to track upload progress.
//
// OnUpdate is called after each Read with the bytes read so far and the
// expected total.
type ProgressReader struct {
	Reader   io.Reader
	Total    int64
	Sent     int64
	OnUpdate func(read, total int64)
}

// Read implements io.Reader, tracking progress and calling OnUpdate.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.Sent += int64(n)
	if n > 0 && pr.OnUpdate != nil {
		pr.OnUpdate(pr.Sent, pr.Total)
	}
	return n, err
}

// PostForm sends form as application/x-www-form-urlencoded and returns
// the response body.
//
// Returns an error if the request fails, the status is not 200 OK or
// reading the body fails.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// PostFile uploads the file at path as a multipart form part named
// fileField, preceded by fields. The body is streamed; the file is never
// loaded into memory. onProgress may be nil.
func (c *Client) PostFile(ctx context.Context, endpoint string, fields url.Values, fileField, path string, onProgress func(sent, total int64)) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	var src io.Reader = file
	if onProgress != nil {
		src = &ProgressReader{Reader: file, Total: info.Size(), OnUpdate: onProgress}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, fileField, filepath.Base(path), src))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	pr.Close()
	return body, err
}

func writeMultipart(mw *multipart.Writer, fields url.Values, fileField, fileName string, src io.Reader) error {
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return err
			}
		}
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}
