package blockchain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/securecloud/drive-sdk-go/pkg/config"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"go.uber.org/zap"
)

var (
	// ErrNoSigner is returned by writes on a client bound without a signer.
	ErrNoSigner = errors.New("contract client has no signer")
	// ErrTxReverted is returned by WaitMined when the receipt status is failed.
	ErrTxReverted = errors.New("transaction reverted")
)

// ReceiptReader is the subset of ethclient used to wait for acceptance.
type ReceiptReader = bind.DeployBackend

// DriveContract is the Upload contract bound to one signer. Every method
// suspends on the network; writes return once the node accepted the
// transaction and WaitMined blocks until it is included.
type DriveContract struct {
	caller     *UploadCaller
	transactor *UploadTransactor
	receipts   ReceiptReader
	signer     *bind.TransactOpts
	timeouts   config.Timeouts
}

// NewDriveContract assembles a contract client from its parts. EVMClient.Bind
// is the usual constructor; this one exists for custom backends and tests.
// transactor and signer may be nil for a read-only client.
func NewDriveContract(caller *UploadCaller, transactor *UploadTransactor, receipts ReceiptReader, signer *bind.TransactOpts, timeouts config.Timeouts) *DriveContract {
	return &DriveContract{
		caller:     caller,
		transactor: transactor,
		receipts:   receipts,
		signer:     signer,
		timeouts:   timeouts.WithDefaults(),
	}
}

// From returns the address reads and writes are issued from.
func (d *DriveContract) From() common.Address {
	if d.signer == nil {
		return common.Address{}
	}
	return d.signer.From
}

func (d *DriveContract) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: d.From()}
}

func (d *DriveContract) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if d.signer == nil || d.transactor == nil {
		return nil, ErrNoSigner
	}
	opts := *d.signer
	opts.Context = ctx
	return &opts, nil
}

// Add records url against owner.
func (d *DriveContract) Add(ctx context.Context, owner common.Address, url string) (*types.Transaction, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ChainSubmit)
	defer cancel()
	opts, err := d.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := d.transactor.Add(opts, owner, url)
	if err != nil {
		zap.L().Error("Failed to submit add", zap.String("owner", owner.Hex()), zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("add: %w", err)
	}
	zap.L().Info("add transaction sent", zap.String("owner", owner.Hex()), zap.String("txHash", tx.Hash().Hex()))
	return tx, nil
}

// Display returns the content URLs the contract lets the caller see for user:
// the caller's own files, or user's files when user granted access.
func (d *DriveContract) Display(ctx context.Context, user common.Address) ([]string, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ChainRead)
	defer cancel()
	urls, err := d.caller.Display(d.callOpts(ctx), user)
	if err != nil {
		zap.L().Debug("display call failed", zap.String("user", user.Hex()), zap.String("reason", RevertReason(err)), zap.Error(err))
		return nil, fmt.Errorf("display %s: %w", user.Hex(), err)
	}
	return urls, nil
}

// Allow grants user read access to the caller's files.
func (d *DriveContract) Allow(ctx context.Context, user common.Address) (*types.Transaction, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ChainSubmit)
	defer cancel()
	opts, err := d.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := d.transactor.Allow(opts, user)
	if err != nil {
		zap.L().Error("Failed to submit allow", zap.String("user", user.Hex()), zap.Error(err))
		return nil, fmt.Errorf("allow: %w", err)
	}
	zap.L().Info("allow transaction sent", zap.String("user", user.Hex()), zap.String("txHash", tx.Hash().Hex()))
	return tx, nil
}

// Disallow revokes user's read access.
func (d *DriveContract) Disallow(ctx context.Context, user common.Address) (*types.Transaction, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ChainSubmit)
	defer cancel()
	opts, err := d.transactOpts(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := d.transactor.Disallow(opts, user)
	if err != nil {
		zap.L().Error("Failed to submit disallow", zap.String("user", user.Hex()), zap.Error(err))
		return nil, fmt.Errorf("disallow: %w", err)
	}
	zap.L().Info("disallow transaction sent", zap.String("user", user.Hex()), zap.String("txHash", tx.Hash().Hex()))
	return tx, nil
}

// ShareAccess returns every grant the caller ever made, revoked ones included.
func (d *DriveContract) ShareAccess(ctx context.Context) ([]model.AccessGrant, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ChainRead)
	defer cancel()
	list, err := d.caller.ShareAccess(d.callOpts(ctx))
	if err != nil {
		zap.L().Error("shareAccess call failed", zap.Error(err))
		return nil, fmt.Errorf("shareAccess: %w", err)
	}
	grants := make([]model.AccessGrant, len(list))
	for i, a := range list {
		grants[i] = model.AccessGrant{Address: a.User, Active: a.Access}
	}
	return grants, nil
}

// WaitMined waits for the receipt of tx until ctx is done or the receipt
// wait timeout elapses. A failed receipt yields ErrTxReverted.
func (d *DriveContract) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	ctx, cancel := withTimeout(ctx, d.timeouts.ReceiptWait)
	defer cancel()
	receipt, err := bind.WaitMined(ctx, d.receipts, tx)
	if err == nil && receipt.Status == types.ReceiptStatusFailed {
		err = fmt.Errorf("%w: %s", ErrTxReverted, tx.Hash().Hex())
	}
	if err != nil {
		zap.L().Error("waiting for transaction failed", zap.String("txHash", tx.Hash().Hex()), zap.Error(err))
		return receipt, err
	}
	zap.L().Debug("transaction mined", zap.String("txHash", tx.Hash().Hex()), zap.Uint64("block", receipt.BlockNumber.Uint64()))
	return receipt, nil
}

// RevertReason extracts the Solidity revert string carried by err, if any.
// Nodes report it either as ABI-encoded error data or in the message text
// after "execution reverted: ".
func RevertReason(err error) string {
	if err == nil {
		return ""
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if s, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(s); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}
	const marker = "execution reverted: "
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		return strings.TrimSpace(msg[i+len(marker):])
	}
	return ""
}

// withTimeout returns ctx unchanged if d <= 0, otherwise returns a child context with timeout d.
// The returned cancel function is always non-nil and should be called to release resources.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
