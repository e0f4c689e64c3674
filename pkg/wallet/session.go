package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNoProvider is returned by Connect when no wallet is configured.
	ErrNoProvider = errors.New("no wallet provider available")
	// ErrConnect wraps a refused or failed connection attempt.
	ErrConnect = errors.New("wallet connection failed")
	// ErrNotConnected is returned when an operation needs a session and there is none.
	ErrNotConnected = errors.New("wallet not connected")
)

// Contract is the contract client a session is bound to.
// *blockchain.DriveContract implements it.
type Contract interface {
	Add(ctx context.Context, owner common.Address, url string) (*types.Transaction, error)
	Display(ctx context.Context, user common.Address) ([]string, error)
	Allow(ctx context.Context, user common.Address) (*types.Transaction, error)
	Disallow(ctx context.Context, user common.Address) (*types.Transaction, error)
	ShareAccess(ctx context.Context) ([]model.AccessGrant, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Binder binds the contract client to a signer.
type Binder func(signer *bind.TransactOpts) Contract

// Session is one connected wallet: the active account, its signer and the
// contract client bound to that signer. A Session is immutable; a change of
// account or network produces a new one.
type Session struct {
	Account  common.Address
	Signer   *bind.TransactOpts
	ChainID  *big.Int
	Contract Contract
}

// BalanceReader reports an address balance in wei.
type BalanceReader interface {
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Balance returns the session account's balance in ether.
func (s *Session) Balance(ctx context.Context, r BalanceReader) (decimal.Decimal, error) {
	wei, err := r.Balance(ctx, s.Account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %s: %w", s.Account.Hex(), err)
	}
	return blockchain.WeiToEther(wei), nil
}

// ReloadReason says why a session was dropped by Watch.
type ReloadReason string

const (
	// AccountChanged means the wallet now exposes a different active account.
	AccountChanged ReloadReason = "account changed"
	// NetworkChanged means the wallet switched chains.
	NetworkChanged ReloadReason = "network changed"
)

// Manager owns the current Session. Connect constructs it and Disconnect or a
// wallet change drops it; nothing else mutates it.
type Manager struct {
	provider     Provider
	binder       Binder
	pollInterval time.Duration

	mu       sync.RWMutex
	session  *Session
	onReload []func(ReloadReason)
}

// NewManager returns a disconnected manager. provider may be nil, in which
// case Connect reports ErrNoProvider. pollInterval drives Watch.
func NewManager(provider Provider, binder Binder, pollInterval time.Duration) *Manager {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Manager{provider: provider, binder: binder, pollInterval: pollInterval}
}

// Connect requests account access, obtains the signer for the first account
// and binds the contract client to it. Calling it again replaces the current
// session. On any failure the manager is left disconnected; nothing is retried.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	if m.provider == nil {
		m.drop()
		zap.L().Warn("No wallet provider found. Configure a private key or keystore to connect.")
		return nil, ErrNoProvider
	}

	sess, err := m.connect(ctx)
	if err != nil {
		m.drop()
		zap.L().Error("Wallet connection failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	m.mu.Lock()
	m.session = sess
	m.mu.Unlock()
	zap.L().Info("Wallet connected", zap.String("account", sess.Account.Hex()), zap.String("chainID", sess.ChainID.String()))
	return sess, nil
}

func (m *Manager) connect(ctx context.Context) (*Session, error) {
	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, errors.New("wallet exposed no accounts")
	}
	account := accounts[0]

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	signer, err := m.provider.Signer(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}

	sess := &Session{Account: account, Signer: signer, ChainID: chainID}
	if m.binder != nil {
		sess.Contract = m.binder(signer)
	}
	return sess, nil
}

// Disconnect drops the current session.
func (m *Manager) Disconnect() {
	if m.drop() {
		zap.L().Info("Wallet disconnected")
	}
}

func (m *Manager) drop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.session != nil
	m.session = nil
	return had
}

// Connected reports whether a session is active.
func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session != nil
}

// Account returns the active account, or the zero address when disconnected.
func (m *Manager) Account() common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return common.Address{}
	}
	return m.session.Account
}

// Session returns the active session or ErrNotConnected.
func (m *Manager) Session() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, ErrNotConnected
	}
	return m.session, nil
}

// OnReload registers fn to run after Watch dropped the session because the
// wallet changed. Front-ends use it to discard every view built on the old
// session and start over.
func (m *Manager) OnReload(fn func(ReloadReason)) {
	m.mu.Lock()
	m.onReload = append(m.onReload, fn)
	m.mu.Unlock()
}

// Watch polls the provider until ctx is done and drops the session when the
// active account or the chain differs from the one the session was built for.
func (m *Manager) Watch(ctx context.Context) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Manager) check(ctx context.Context) {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()
	if sess == nil || m.provider == nil {
		return
	}

	reason, changed := m.detectChange(ctx, sess)
	if !changed {
		return
	}

	m.mu.Lock()
	if m.session != sess {
		m.mu.Unlock()
		return
	}
	m.session = nil
	handlers := append([]func(ReloadReason){}, m.onReload...)
	m.mu.Unlock()

	zap.L().Info("Wallet changed, session dropped", zap.String("reason", string(reason)), zap.String("account", sess.Account.Hex()))
	for _, fn := range handlers {
		fn(reason)
	}
}

func (m *Manager) detectChange(ctx context.Context, sess *Session) (ReloadReason, bool) {
	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		zap.L().Debug("wallet account poll failed", zap.Error(err))
		return "", false
	}
	if len(accounts) == 0 || accounts[0] != sess.Account {
		return AccountChanged, true
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		zap.L().Debug("wallet chain poll failed", zap.Error(err))
		return "", false
	}
	if sess.ChainID != nil && chainID.Cmp(sess.ChainID) != 0 {
		return NetworkChanged, true
	}
	return "", false
}
