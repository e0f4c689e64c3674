//go:generate go run ../../cmd/generate-smart-binds/main.go
package blockchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/securecloud/drive-sdk-go/pkg/config"
	"go.uber.org/zap"
)

// EVMClient holds a connected ethclient.Client and the typed Upload binding.
type EVMClient struct {
	Client       *ethclient.Client
	Upload       *Upload
	ContractAddr common.Address
	timeouts     config.Timeouts
}

// InitEvm dials an Ethereum endpoint and binds the Upload contract deployed
// at contractAddr.
//
// Parameters:
//   - endpoint: RPC/WS endpoint URL to dial.
//   - contractAddr: hex address of the Upload contract.
//   - timeouts: operation deadlines; zero values are defaulted.
//
// Returns a ready-to-use EVMClient or an error.
func InitEvm(endpoint, contractAddr string, timeouts config.Timeouts) (*EVMClient, error) {
	if !IsValidAddress(contractAddr) {
		return nil, fmt.Errorf("%w: contract %q", ErrInvalidAddress, contractAddr)
	}
	timeouts = timeouts.WithDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Dial)
	defer cancel()

	var eth = new(EVMClient)
	var err error

	eth.Client, err = ethclient.DialContext(ctx, endpoint)
	if err != nil {
		zap.L().Error("Failed to ethdial", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	eth.ContractAddr = common.HexToAddress(contractAddr)
	eth.Upload, err = NewUpload(eth.ContractAddr, eth.Client)
	if err != nil {
		zap.L().Error("Failed to bind Upload contract", zap.Error(err))
		eth.Client.Close()
		return nil, err
	}
	eth.timeouts = timeouts

	return eth, nil
}

// Bind returns a contract client whose writes are signed by signer and whose
// reads are issued from the signer's address. The contract authorizes reads
// by msg.sender, so the From field matters for display and shareAccess.
func (eth *EVMClient) Bind(signer *bind.TransactOpts) *DriveContract {
	return &DriveContract{
		caller:     &eth.Upload.UploadCaller,
		transactor: &eth.Upload.UploadTransactor,
		receipts:   eth.Client,
		signer:     signer,
		timeouts:   eth.timeouts,
	}
}

// ChainID returns the chain ID reported by the connected node.
func (eth *EVMClient) ChainID(ctx context.Context) (*big.Int, error) {
	ctx, cancel := withTimeout(ctx, eth.timeouts.ChainRead)
	defer cancel()
	id, err := eth.Client.ChainID(ctx)
	if err != nil {
		zap.L().Error("failed to get chain ID", zap.Error(err))
		return nil, err
	}
	return id, nil
}

// Balance returns the balance of addr in wei at the latest block.
func (eth *EVMClient) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, cancel := withTimeout(ctx, eth.timeouts.ChainRead)
	defer cancel()
	return eth.Client.BalanceAt(ctx, addr, nil)
}

// GetCurrentBlockNumber returns the latest block number.
func (eth *EVMClient) GetCurrentBlockNumber(ctx context.Context) (*big.Int, error) {
	ctx, cancel := withTimeout(ctx, eth.timeouts.ChainRead)
	defer cancel()
	header, err := eth.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		zap.L().Error("failed to get last block number", zap.Error(err))
		return nil, err
	}
	return header.Number, nil
}

// Close shuts down the underlying RPC connection.
func (eth *EVMClient) Close() {
	if eth != nil && eth.Client != nil {
		eth.Client.Close()
	}
}
