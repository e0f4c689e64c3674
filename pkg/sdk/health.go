package sdk

import (
	"context"
	"fmt"
	"math/big"

	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"go.uber.org/zap"
)

// Healthcheck checks the services the drive depends on.
type Healthcheck interface {
	// Chain returns the latest block number of the RPC endpoint.
	Chain(ctx context.Context) (*big.Int, error)
	// Pinning checks that the pinning backend is reachable and accepts
	// the configured credentials.
	Pinning(ctx context.Context) error
}

type blockNumberReader interface {
	GetCurrentBlockNumber(ctx context.Context) (*big.Int, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthcheckClient is the concrete implementation of Healthcheck.
type healthcheckClient struct {
	chain  blockNumberReader
	pinner storage.Pinner
}

func newHealthcheckClient(chain blockNumberReader, pinner storage.Pinner) Healthcheck {
	return &healthcheckClient{chain: chain, pinner: pinner}
}

// Chain implements Healthcheck.
func (hc *healthcheckClient) Chain(ctx context.Context) (*big.Int, error) {
	n, err := hc.chain.GetCurrentBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain heartbeat failed: %w", err)
	}
	return n, nil
}

// Pinning implements Healthcheck. Backends that cannot be checked pass.
func (hc *healthcheckClient) Pinning(ctx context.Context) error {
	p, ok := hc.pinner.(pinger)
	if !ok {
		zap.L().Debug("pinning backend has no health check")
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("pinning heartbeat failed: %w", err)
	}
	return nil
}
