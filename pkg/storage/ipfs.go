package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"go.uber.org/zap"
)

// ErrCIDMismatch is returned when fetched content does not hash to the requested CID.
var ErrCIDMismatch = errors.New("content does not match CID")

// ipfsFetcher is the concrete implementation of IPFSFetcher using Kubo HTTP API.
type ipfsFetcher struct {
	api *rpc.HttpApi
}

// newIPFSFetcher creates a new IPFS fetcher with the given HTTP API client.
func newIPFSFetcher(api *rpc.HttpApi) IPFSFetcher {
	return &ipfsFetcher{api: api}
}

// Fetch content by CID from IPFS using `ipfs cat`. Raw-leaf CIDs are verified
// by re-hashing the content with the CID's own prefix; UnixFS DAG roots can
// not be recomputed from the file bytes alone and are trusted to the node.
func (f *ipfsFetcher) Fetch(ctx context.Context, hash string) (content []byte, err error) {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
	}

	hash = formatHash(hash)
	zap.L().Debug("Hash used to retrieve from IPFS", zap.String("hash", hash))

	if f.api == nil {
		return nil, fmt.Errorf("ipfs client not configured")
	}

	cID, err := cid.Decode(hash)
	if err != nil {
		zap.L().Error("error parsing the ipfs hash", zap.String("hash", hash), zap.Error(err))
		return nil, fmt.Errorf("parse CID %q: %w", hash, err)
	}

	resp, err := f.api.Request("cat", cID.String()).Send(ctx)
	if err != nil {
		zap.L().Error("error executing the cat command in ipfs", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}
	defer func(resp *rpc.Response) {
		if cerr := resp.Close(); cerr != nil {
			zap.L().Error("error closing response in ipfs", zap.String("hash", hash), zap.Error(cerr))
		}
	}(resp)

	if resp.Error != nil {
		zap.L().Error("ipfs cat returned error", zap.String("hash", hash), zap.Error(resp.Error))
		return nil, resp.Error
	}
	content, err = io.ReadAll(resp.Output)
	if err != nil {
		zap.L().Error("error reading ipfs content", zap.String("hash", hash), zap.Error(err))
		return nil, err
	}

	if err := verifyContent(cID, content); err != nil {
		zap.L().Error("IPFS hash verification failed", zap.String("expectedHash", hash), zap.Error(err))
		return nil, err
	}
	return content, nil
}

// verifyContent re-hashes raw-codec content and compares it with c.
func verifyContent(c cid.Cid, content []byte) error {
	if c.Prefix().Codec != cid.Raw {
		return nil
	}
	got, err := c.Prefix().Sum(content)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}
	if !got.Equals(c) {
		return fmt.Errorf("%w: want %s, got %s", ErrCIDMismatch, c, got)
	}
	return nil
}

// KuboPinner pins files on a self-hosted IPFS node with `ipfs add --pin`.
type KuboPinner struct {
	api     *rpc.HttpApi
	timeout time.Duration
}

// NewKuboPinner returns a pinner backed by the Kubo HTTP API at url.
func NewKuboPinner(url string, timeout time.Duration) (*KuboPinner, error) {
	api, err := NewIPFSClient(url)
	if err != nil {
		return nil, err
	}
	return &KuboPinner{api: api, timeout: timeout}, nil
}

type kuboAddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Pin adds r to the node and pins it. The node reports the DAG size, which
// is returned as PinSize.
func (k *KuboPinner) Pin(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*model.PinResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	var out kuboAddResponse
	err := k.api.Request("add").
		Option("pin", true).
		FileBody(newCountingReader(r, size, onProgress)).
		Exec(ctx, &out)
	if err != nil {
		zap.L().Error("ipfs add failed", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("pin %s: %w", name, err)
	}
	if _, err := cid.Decode(out.Hash); err != nil {
		return nil, fmt.Errorf("invalid CID %q from ipfs add: %w", out.Hash, err)
	}

	res := &model.PinResult{IpfsHash: out.Hash, Timestamp: time.Now().UTC()}
	if out.Size != "" {
		if n, perr := strconv.ParseInt(out.Size, 10, 64); perr == nil {
			res.PinSize = n
		}
	}
	zap.L().Info("File pinned on IPFS node", zap.String("name", name), zap.String("cid", out.Hash))
	return res, nil
}

// Ping asks the node for its version.
func (k *KuboPinner) Ping(ctx context.Context) error {
	var out struct {
		Version string `json:"Version"`
	}
	if err := k.api.Request("version").Exec(ctx, &out); err != nil {
		return fmt.Errorf("ipfs node unreachable: %w", err)
	}
	zap.L().Debug("IPFS node is up", zap.String("version", out.Version))
	return nil
}

// NewIPFSClient constructs a Kubo HTTP API client pointed at url.
func NewIPFSClient(url string) (*rpc.HttpApi, error) {
	httpClient := &http.Client{}
	client, err := rpc.NewURLApiWithClient(url, httpClient)
	if err != nil {
		zap.L().Error("Connection failed to IPFS", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	return client, nil
}
