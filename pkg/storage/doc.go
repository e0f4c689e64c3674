// Package storage pins uploaded files and reads pinned content back.
//
// # Pinning Backends
//
// PinataPinner:
//   - POST {api}/pinning/pinFileToIPFS as a streamed multipart form
//   - Authenticates with pinata_api_key/pinata_secret_api_key headers,
//     or Authorization: Bearer <JWT> when a JWT is configured
//   - Sends the file name as pinataMetadata
//
// KuboPinner:
//   - ipfs add --pin=true against a self-hosted node
//   - Default: http://127.0.0.1:5001
//
// Both implement Pinner and report progress as the number of bytes handed to
// the transport:
//
//	pinner := storage.NewPinataPinner(config.DefaultPinataAPIURL, storage.PinataCredentials{
//		APIKey:    key,
//		APISecret: secret,
//	}, 5*time.Minute)
//
//	res, err := pinner.Pin(ctx, "report.pdf", f, size, func(sent, total int64) {
//		fmt.Printf("\r%d/%d", sent, total)
//	})
//	if err != nil {
//		var perr *storage.PinError
//		if errors.As(err, &perr) {
//			log.Printf("rejected with status %d", perr.Status)
//		}
//		return err
//	}
//	url := storage.ContentURL(config.DefaultPinataGatewayURL, res.IpfsHash)
//
// Every returned IpfsHash is validated as a CID before it is used.
//
// # Reading Content
//
// Client.ReadFile accepts a gateway URL, an ipfs:// URI or a bare CID. HTTP
// URLs are fetched as-is; the rest goes to the Kubo node when one is
// configured, and to the gateway otherwise. Raw-leaf CIDs fetched from the
// node are re-hashed and rejected with ErrCIDMismatch on mismatch.
//
// SniffContentType requests the first 512 bytes of a URL and reports its media
// type, which listings use to decide whether an image preview is possible.
//
// # CID Formats
//
// CIDv0 (legacy):
//   - Starts with "Qm"
//   - 46 characters
//   - Example: QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG
//
// CIDv1 (modern):
//   - Starts with "bafy" or similar
//   - Example: bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi
//
// CIDFromURL recovers either form from path gateways, subdomain gateways and
// ipfs:// URIs.
package storage
