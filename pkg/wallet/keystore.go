package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// PassphraseFunc supplies the passphrase that unlocks account. Returning an
// error refuses the connection.
type PassphraseFunc func(account accounts.Account) (string, error)

// PromptPassphrase reads the passphrase from the terminal without echo.
func PromptPassphrase(account accounts.Account) (string, error) {
	fmt.Fprintf(os.Stderr, "Passphrase for %s: ", account.Address.Hex())
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// KeystoreProvider is a wallet backed by a go-ethereum keystore directory.
// The selected account is unlocked on RequestAccounts and stays unlocked
// until Lock.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	want       common.Address
	passphrase PassphraseFunc
	chain      ChainIDReader

	mu       sync.Mutex
	unlocked *accounts.Account
}

// NewKeystoreProvider opens the keystore at dir. address selects the account
// and may be empty when the keystore holds exactly one. passphrase defaults
// to PromptPassphrase.
func NewKeystoreProvider(dir, address string, passphrase PassphraseFunc, chain ChainIDReader) (*KeystoreProvider, error) {
	if dir == "" {
		return nil, errors.New("keystore directory is required")
	}
	p := &KeystoreProvider{
		ks:         keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP),
		passphrase: passphrase,
		chain:      chain,
	}
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid keystore address %q", address)
		}
		p.want = common.HexToAddress(address)
	}
	if p.passphrase == nil {
		p.passphrase = PromptPassphrase
	}
	return p, nil
}

func (p *KeystoreProvider) selectAccount() (accounts.Account, error) {
	if p.want != (common.Address{}) {
		return p.ks.Find(accounts.Account{Address: p.want})
	}
	all := p.ks.Accounts()
	switch len(all) {
	case 0:
		return accounts.Account{}, errors.New("keystore holds no accounts")
	case 1:
		return all[0], nil
	default:
		return accounts.Account{}, fmt.Errorf("keystore holds %d accounts; choose one with keystore_address", len(all))
	}
}

// RequestAccounts implements Provider by unlocking the selected account.
func (p *KeystoreProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	acct, err := p.selectAccount()
	if err != nil {
		return nil, err
	}
	pass, err := p.passphrase(acct)
	if err != nil {
		return nil, fmt.Errorf("passphrase: %w", err)
	}
	if err := p.ks.Unlock(acct, pass); err != nil {
		zap.L().Warn("keystore unlock refused", zap.String("account", acct.Address.Hex()), zap.Error(err))
		return nil, err
	}

	p.mu.Lock()
	p.unlocked = &acct
	p.mu.Unlock()
	return []common.Address{acct.Address}, nil
}

// Accounts implements Provider. Only the unlocked account is exposed, and
// only while its key file is still present.
func (p *KeystoreProvider) Accounts(context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unlocked == nil || !p.ks.HasAddress(p.unlocked.Address) {
		return nil, nil
	}
	return []common.Address{p.unlocked.Address}, nil
}

// ChainID implements Provider.
func (p *KeystoreProvider) ChainID(ctx context.Context) (*big.Int, error) {
	if p.chain == nil {
		return nil, errors.New("no chain configured")
	}
	return p.chain.ChainID(ctx)
}

// Signer implements Provider.
func (p *KeystoreProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if !p.ks.HasAddress(account) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyStoreTransactorWithChainID(p.ks, accounts.Account{Address: account}, chainID)
}

// Lock re-locks the unlocked account, if any.
func (p *KeystoreProvider) Lock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unlocked != nil {
		_ = p.ks.Lock(p.unlocked.Address)
		p.unlocked = nil
	}
}
