package drive

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
)

var (
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	carol = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
)

var errNoAccess = errors.New("execution reverted: You don't have access")

// fakeChain keeps the state an Upload contract would keep.
type fakeChain struct {
	mu     sync.Mutex
	files  map[common.Address][]string
	grants map[common.Address][]model.AccessGrant
	nonce  uint64
	calls  map[string]int

	addErr      error
	allowErr    error
	disallowErr error
	shareErr    error
	waitErr     error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		files:  make(map[common.Address][]string),
		grants: make(map[common.Address][]model.AccessGrant),
		calls:  make(map[string]int),
	}
}

func (c *fakeChain) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *fakeChain) totalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *fakeChain) tx() *types.Transaction {
	c.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: c.nonce})
}

func (c *fakeChain) bind(from common.Address) *fakeContract {
	return &fakeContract{chain: c, from: from}
}

// fakeContract is the chain seen from one account.
type fakeContract struct {
	chain *fakeChain
	from  common.Address

	lastAllow []common.Address
}

func (f *fakeContract) Add(_ context.Context, owner common.Address, url string) (*types.Transaction, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["add"]++
	if c.addErr != nil {
		return nil, c.addErr
	}
	c.files[owner] = append(c.files[owner], url)
	return c.tx(), nil
}

func (f *fakeContract) Display(_ context.Context, user common.Address) ([]string, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["display"]++
	if user != f.from {
		allowed := false
		for _, g := range c.grants[user] {
			if g.Address == f.from && g.Active {
				allowed = true
			}
		}
		if !allowed {
			return nil, errNoAccess
		}
	}
	return append([]string(nil), c.files[user]...), nil
}

func (f *fakeContract) setAccess(user common.Address, active bool) {
	c := f.chain
	list := c.grants[f.from]
	for i := range list {
		if list[i].Address == user {
			list[i].Active = active
			return
		}
	}
	if active {
		c.grants[f.from] = append(list, model.AccessGrant{Address: user, Active: true})
	}
}

func (f *fakeContract) Allow(_ context.Context, user common.Address) (*types.Transaction, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["allow"]++
	if c.allowErr != nil {
		return nil, c.allowErr
	}
	f.lastAllow = append(f.lastAllow, user)
	f.setAccess(user, true)
	return c.tx(), nil
}

func (f *fakeContract) Disallow(_ context.Context, user common.Address) (*types.Transaction, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["disallow"]++
	if c.disallowErr != nil {
		return nil, c.disallowErr
	}
	f.setAccess(user, false)
	return c.tx(), nil
}

func (f *fakeContract) ShareAccess(context.Context) ([]model.AccessGrant, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["shareAccess"]++
	if c.shareErr != nil {
		return nil, c.shareErr
	}
	return append([]model.AccessGrant(nil), c.grants[f.from]...), nil
}

func (f *fakeContract) WaitMined(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	c := f.chain
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["wait"]++
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash(), BlockNumber: big.NewInt(int64(tx.Nonce()))}, nil
}

// staticSessions always returns the same session (or error).
type staticSessions struct {
	sess *wallet.Session
	err  error
}

func (s staticSessions) Session() (*wallet.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sess, nil
}

func sessionFor(c *fakeContract) staticSessions {
	return staticSessions{sess: &wallet.Session{
		Account:  c.from,
		Signer:   &bind.TransactOpts{From: c.from},
		ChainID:  big.NewInt(31337),
		Contract: c,
	}}
}

type pinFunc func(ctx context.Context, name string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error)

func (f pinFunc) Pin(ctx context.Context, name string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error) {
	return f(ctx, name, r, size, onProgress)
}

// streamingPinner reads the whole file in small chunks, reporting progress.
func streamingPinner(hash string) pinFunc {
	return func(_ context.Context, _ string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error) {
		buf := make([]byte, 7)
		var sent int64
		for {
			n, err := r.Read(buf)
			sent += int64(n)
			if n > 0 && onProgress != nil {
				onProgress(sent, size)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
		}
		return &model.PinResult{IpfsHash: hash, PinSize: sent}, nil
	}
}

type fakeSniffer map[string]string

func (f fakeSniffer) Sniff(_ context.Context, url string) (string, error) {
	ct, ok := f[url]
	if !ok {
		return "", errors.New("gateway timeout")
	}
	return ct, nil
}
