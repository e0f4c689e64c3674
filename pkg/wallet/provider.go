package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
)

// Provider is the wallet the session draws accounts and signers from.
type Provider interface {
	// RequestAccounts asks for access to the wallet's accounts. The first
	// account is the active one. A refusal is returned as an error.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts lists the currently exposed accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// ChainID reports the network the wallet signs for.
	ChainID(ctx context.Context) (*big.Int, error)
	// Signer returns transaction options that sign as account.
	Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error)
}

// ChainIDReader reports the chain ID of the connected network.
// *blockchain.EVMClient implements it.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// FixedChainID is a ChainIDReader that always reports the same chain.
type FixedChainID int64

// ChainID implements ChainIDReader.
func (f FixedChainID) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(int64(f)), nil
}

// ErrUnknownAccount is returned by Signer for an account the wallet does not hold.
var ErrUnknownAccount = errors.New("account not held by wallet")

// KeyProvider is a wallet holding a single raw private key.
type KeyProvider struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	chain ChainIDReader
}

// NewKeyProvider parses a hex-encoded private key ("0x" optional).
func NewKeyProvider(hexKey string, chain ChainIDReader) (*KeyProvider, error) {
	addr, key, err := blockchain.ParsePrivateKeyECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &KeyProvider{key: key, addr: addr, chain: chain}, nil
}

// RequestAccounts implements Provider. A raw key never refuses access.
func (p *KeyProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.addr}, nil
}

// Accounts implements Provider.
func (p *KeyProvider) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.addr}, nil
}

// ChainID implements Provider.
func (p *KeyProvider) ChainID(ctx context.Context) (*big.Int, error) {
	if p.chain == nil {
		return nil, errors.New("no chain configured")
	}
	return p.chain.ChainID(ctx)
}

// Signer implements Provider.
func (p *KeyProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	if account != p.addr {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return blockchain.GetTransactOpts(chainID, p.key)
}
