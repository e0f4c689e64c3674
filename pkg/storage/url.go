package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ipfs/go-cid"
)

// ErrNoCID is returned by CIDFromURL when the URL does not carry a CID.
var ErrNoCID = errors.New("no CID in URL")

// ContentURL returns the retrieval URL for c under gateway. A missing
// trailing slash on gateway is added.
func ContentURL(gateway, c string) string {
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + c
}

// CIDFromURL recovers the CID from a gateway URL (".../ipfs/<cid>[/path]"),
// an ipfs:// URI, a subdomain gateway host ("<cid>.ipfs.example") or a bare CID.
func CIDFromURL(raw string) (cid.Cid, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cid.Undef, ErrNoCID
	}
	if !isHTTPURL(raw) {
		return decodeCID(formatHash(raw))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return cid.Undef, fmt.Errorf("parse url: %w", err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "ipfs" && i+1 < len(segments) {
			return decodeCID(segments[i+1])
		}
	}
	if host, _, ok := strings.Cut(u.Hostname(), ".ipfs."); ok {
		return decodeCID(host)
	}
	return cid.Undef, fmt.Errorf("%w: %s", ErrNoCID, raw)
}

func decodeCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: %q: %v", ErrNoCID, s, err)
	}
	return c, nil
}
