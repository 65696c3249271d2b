package removebg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// PlaceholderAPIKey is the value shipped in sample configs.
	PlaceholderAPIKey = "YOUR_API_KEY_HERE"

	DefaultEndpoint = "https://api.remove.bg/v1.0/removebg"
	DefaultSize     = "auto"
	DefaultTimeout  = 30 * time.Second

	apiKeyHeader   = "X-Api-Key"
	imageFileField = "image_file"
	sizeField      = "size"

	fallbackContentType = "image/png"
)

// Image is one uploaded file, held in memory for the duration of a request.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Result is the processed image returned by remove.bg.
type Result struct {
	Body        []byte
	ContentType string
}

type Options struct {
	Endpoint string
	APIKey   string
	Size     string
	Timeout  time.Duration

	// HTTPClient overrides the default client. Its Timeout is replaced by
	// Options.Timeout when that is set.
	HTTPClient *http.Client
}

// Client forwards images to the remove.bg API. It holds no per-request state
// and is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	size       string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Size == "" {
		opts.Size = DefaultSize
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}

	switch {
	case opts.Timeout > 0:
		httpClient.Timeout = opts.Timeout
	case httpClient.Timeout == 0:
		httpClient.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint:   opts.Endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		size:       opts.Size,
		httpClient: httpClient,
	}
}

// Endpoint returns the upstream URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Timeout returns the bound applied to each upstream call.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Configured reports ErrNotConfigured when no usable API key is set.
func (c *Client) Configured() error {
	if c.apiKey == "" || c.apiKey == PlaceholderAPIKey {
		return ErrNotConfigured
	}
	return nil
}

// Remove sends img to remove.bg in a single attempt and returns the processed
// image bytes untouched.
func (c *Client) Remove(ctx context.Context, img Image) (*Result, error) {
	if err := c.Configured(); err != nil {
		return nil, err
	}

	body, contentType, err := c.encode(img)
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(payload),
		}
	}

	return &Result{
		Body:        payload,
		ContentType: imageContentType(payload),
	}, nil
}

func (c *Client) encode(img Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := img.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(img.Data).String()
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		imageFileField, escapeQuotes(img.Filename)))
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(sizeField, c.size); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrTimeout
	}
	return &NetworkError{Err: err}
}

// imageContentType labels the relayed bytes. remove.bg answers with PNG by
// default; anything that does not sniff as an image keeps that label.
func imageContentType(data []byte) string {
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	return fallbackContentType
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
