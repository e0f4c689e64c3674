//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/config"
)

func contractAddr() string {
	if addr := os.Getenv("SCD_CONTRACT_ADDR"); addr != "" {
		return addr
	}
	return config.DefaultContractAddr
}

func TestETHClientChainID(t *testing.T) {
	rpc := os.Getenv("ETH_RPC_URL")
	if rpc == "" {
		t.Skip("ETH_RPC_URL not set")
	}
	cli, err := blockchain.InitEvm(rpc, contractAddr(), config.Timeouts{})
	if err != nil {
		t.Fatalf("InitEvm error: %v", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := cli.ChainID(ctx)
	if err != nil {
		t.Fatalf("ChainID error: %v", err)
	}
	if id == nil {
		t.Fatal("nil chain id")
	}
}

func TestDisplayOwnFiles(t *testing.T) {
	rpc := os.Getenv("ETH_RPC_URL")
	if rpc == "" {
		t.Skip("ETH_RPC_URL not set")
	}
	cli, err := blockchain.InitEvm(rpc, contractAddr(), config.Timeouts{})
	if err != nil {
		t.Fatalf("InitEvm error: %v", err)
	}
	defer cli.Close()

	// Hardhat account #0; reading one's own list needs no grant.
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	dc := cli.Bind(&bind.TransactOpts{From: owner})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := dc.Display(ctx, owner); err != nil {
		t.Fatalf("Display error: %v", err)
	}
}
