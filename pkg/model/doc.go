// Package model defines the plain data structures exchanged between the SDK
// packages.
//
// None of these values are authoritative: content records and access grants
// are owned by the Upload contract, and blobs are owned by the pinning
// service. The SDK treats every instance as a transient copy that is
// re-fetched after each mutation.
//
// # Pinning
//
// PinResult mirrors the JSON returned by Pinata's pinFileToIPFS endpoint:
//
//	{"IpfsHash": "Qm...", "PinSize": 1234, "Timestamp": "2024-01-01T00:00:00Z"}
//
// PinMetadata is attached to uploads as the pinataMetadata form field.
//
// # Contract State
//
// ContentRecord is the (owner, URL) pair written by add. AccessGrant is the
// (address, active) tuple returned by shareAccess; ActiveGrants filters the
// list down to what should be displayed.
//
// # Listings
//
// FileEntry carries a content URL together with its display label and a
// preview URL.
package model
