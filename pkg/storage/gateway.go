package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxGatewayBody caps how much GetGatewayFile reads into memory.
const maxGatewayBody = 256 << 20

// sniffLen is the number of bytes http.DetectContentType looks at.
const sniffLen = 512

// GatewayStatusError is returned when a gateway answers with a non-2xx status.
type GatewayStatusError struct {
	URL    string
	Status int
}

func (e *GatewayStatusError) Error() string {
	return fmt.Sprintf("gateway %s: unexpected status %d", e.URL, e.Status)
}

// GetGatewayFile fetches url from an HTTP gateway.
//
// Parameters:
//   - ctx: parent context; may be nil.
//   - url: full retrieval URL, usually built with ContentURL.
//   - timeout: upper bound for the whole request; zero means no extra bound.
//
// Returns the response body, or a *GatewayStatusError for non-2xx answers.
func GetGatewayFile(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	zap.L().Debug("Getting gateway file", zap.String("url", url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayStatusError{URL: url, Status: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
}

// SniffContentType returns the media type of the content behind url, without
// parameters. Only the first bytes are requested. A specific Content-Type
// header wins; generic ones fall back to http.DetectContentType.
func SniffContentType(ctx context.Context, url string, timeout time.Duration) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", sniffLen-1))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &GatewayStatusError{URL: url, Status: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil && !isGenericType(mt) {
			return mt, nil
		}
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffLen))
	if err != nil {
		return "", err
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	return mt, nil
}

func isGenericType(mt string) bool {
	return mt == "application/octet-stream" || mt == "binary/octet-stream" || strings.HasPrefix(mt, "text/plain")
}

// IsImage reports whether contentType renders as an image preview.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
