// Package storage pins uploaded files to IPFS (through the Pinata HTTP API or
// a Kubo node) and reads pinned content back through a Kubo node or an HTTP
// gateway.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ipfs/kubo/client/rpc"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"go.uber.org/zap"
)

const (
	// IpfsPrefix is the URI scheme prefix recognized for IPFS content.
	IpfsPrefix = "ipfs://"
)

// ProgressFunc receives the number of bytes handed to the transport so far
// and the total size. total is zero when the size is unknown.
type ProgressFunc func(sent, total int64)

// Pinner stores a file on IPFS and keeps it pinned.
type Pinner interface {
	// Pin uploads size bytes from r under name. onProgress may be nil.
	Pin(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*model.PinResult, error)
}

// GatewayFetcher fetches content from an HTTP gateway URL.
type GatewayFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// IPFSFetcher fetches content addressed by CID from IPFS.
type IPFSFetcher interface {
	Fetch(ctx context.Context, hash string) ([]byte, error)
}

// Client aggregates the configured read backends.
type Client struct {
	// HttpApi is a Kubo HTTP API client used for IPFS reads. May be nil.
	*rpc.HttpApi
	// GatewayURL is the prefix content URLs are built from.
	GatewayURL string

	timeout        time.Duration
	gatewayFetcher GatewayFetcher
	ipfsFetcher    IPFSFetcher
}

// NewStorage constructs a read client using the IPFS API endpoint and the
// gateway prefix. An empty ipfsURL disables Kubo reads; a failure to build
// the Kubo client is logged and leaves HttpApi nil.
func NewStorage(ipfsURL, gatewayURL string, timeout time.Duration) *Client {
	s := &Client{GatewayURL: gatewayURL, timeout: timeout}
	if ipfsURL != "" {
		api, err := NewIPFSClient(ipfsURL)
		if err != nil {
			zap.L().Error("IPFS client unavailable, falling back to gateway reads", zap.String("url", ipfsURL), zap.Error(err))
		}
		s.HttpApi = api
	}
	s.gatewayFetcher = httpGatewayFetcher{timeout: timeout}
	if s.HttpApi != nil {
		s.ipfsFetcher = newIPFSFetcher(s.HttpApi)
	}
	return s
}

// ReadFile fetches the content behind a content URL, an ipfs:// URI or a
// bare CID. With a Kubo node configured, anything carrying a CID is read
// through the node, gateway URLs included; HTTP URLs without a CID go to
// their gateway as-is. Without a node, CIDs are read through GatewayURL.
func (s *Client) ReadFile(ctx context.Context, ref string) ([]byte, error) {
	if s.gatewayFetcher == nil {
		s.gatewayFetcher = httpGatewayFetcher{timeout: s.timeout}
	}
	if s.ipfsFetcher == nil && s.HttpApi != nil {
		s.ipfsFetcher = newIPFSFetcher(s.HttpApi)
	}
	if isHTTPURL(ref) {
		if s.ipfsFetcher != nil {
			if c, err := CIDFromURL(ref); err == nil {
				return s.ipfsFetcher.Fetch(ctx, c.String())
			}
		}
		return s.gatewayFetcher.Fetch(ctx, ref)
	}

	hash := formatHash(ref)
	if hash == "" {
		return nil, fmt.Errorf("empty content reference %q", ref)
	}
	if s.ipfsFetcher != nil {
		return s.ipfsFetcher.Fetch(ctx, hash)
	}
	if s.GatewayURL == "" {
		return nil, fmt.Errorf("no IPFS node or gateway configured")
	}
	return s.gatewayFetcher.Fetch(ctx, ContentURL(s.GatewayURL, hash))
}

// Sniff reports the content type behind url. See SniffContentType.
func (s *Client) Sniff(ctx context.Context, url string) (string, error) {
	return SniffContentType(ctx, url, s.timeout)
}

type httpGatewayFetcher struct {
	timeout time.Duration
}

func (f httpGatewayFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return GetGatewayFile(ctx, url, f.timeout)
}

// formatHash removes known URI scheme prefixes, a leading /ipfs/ path and any
// trailing path from ref, leaving the CID.
func formatHash(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimPrefix(ref, IpfsPrefix)
	ref = strings.TrimPrefix(ref, "/ipfs/")
	if i := strings.IndexAny(ref, "/?#"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
