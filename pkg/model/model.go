// Package model defines the data structures shared by the SDK packages: the
// pinning service responses, the content records kept by the Upload contract,
// access grants, and the file entries rendered by listings.
package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PinResult is the response of a successful pin. Field names follow the
// Pinata pinFileToIPFS JSON document; the kubo backend fills the same struct.
type PinResult struct {
	IpfsHash    string    `json:"IpfsHash"`
	PinSize     int64     `json:"PinSize"`
	Timestamp   time.Time `json:"Timestamp"`
	IsDuplicate bool      `json:"isDuplicate,omitempty"`
}

// PinMetadata is sent as the pinataMetadata form field.
type PinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

// ContentRecord is an (owner, content URL) pair stored by the contract's add call.
type ContentRecord struct {
	Owner common.Address `json:"owner"`
	URL   string         `json:"url"`
}

// AccessGrant is one entry of the contract's shareAccess list.
// Revoked grants stay in the list with Active == false.
type AccessGrant struct {
	Address common.Address `json:"address"`
	Active  bool           `json:"active"`
}

// ActiveGrants returns the grants whose Active flag is set, preserving order.
func ActiveGrants(grants []AccessGrant) []AccessGrant {
	active := make([]AccessGrant, 0, len(grants))
	for _, g := range grants {
		if g.Active {
			active = append(active, g)
		}
	}
	return active
}

// FileEntry is a content URL prepared for display.
type FileEntry struct {
	// URL is the retrieval link exactly as stored on-chain.
	URL string `json:"url"`
	// Label is the shortened last path segment of URL.
	Label string `json:"label"`
	// PreviewURL is URL when it renders as an image, otherwise a placeholder.
	PreviewURL string `json:"preview_url"`
	// ContentType is the sniffed MIME type, empty when unknown.
	ContentType string `json:"content_type,omitempty"`
}
