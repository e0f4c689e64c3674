// Package sdk exposes the high-level entry points of the drive. It wires
// together the Upload contract client, the pinning backend, content reads
// and the wallet session, and hands out the drive forms built on them.
package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/config"
	"github.com/securecloud/drive-sdk-go/pkg/drive"
	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DriveSDK is the public interface of an initialized drive.
type DriveSDK interface {
	// Connect opens a wallet session. See wallet.Manager.Connect.
	Connect(ctx context.Context) (*wallet.Session, error)
	// Disconnect drops the wallet session.
	Disconnect()
	// Wallet returns the session manager.
	Wallet() *wallet.Manager

	// NewUploadForm returns an empty upload form.
	NewUploadForm() *drive.UploadForm
	// NewFileList returns an empty file listing in the given mode.
	NewFileList(mode drive.Mode) *drive.FileList
	// NewShareForm returns an empty access sharing form.
	NewShareForm() *drive.ShareForm

	// ReadFile fetches pinned content by URL, ipfs:// URI or CID.
	ReadFile(ctx context.Context, ref string) ([]byte, error)
	// Balance returns the connected account's balance in ether.
	Balance(ctx context.Context) (decimal.Decimal, error)
	// Healthcheck checks the chain endpoint and the pinning backend.
	Healthcheck() Healthcheck

	// Close releases resources associated with the SDK instance.
	Close()
}

// init configures a default global zap logger for the SDK. Applications may
// replace it with zap.ReplaceGlobals(...) if they need custom logging.
func init() {
	zap.ReplaceGlobals(newLogger(zapcore.InfoLevel))
}

func newLogger(level zapcore.Level) *zap.Logger {
	c := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := c.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	passphrase wallet.PassphraseFunc
	pinner     storage.Pinner
}

// WithPassphrase sets how a keystore account is unlocked. The default reads
// the passphrase from the terminal.
func WithPassphrase(fn wallet.PassphraseFunc) Option {
	return func(o *options) { o.passphrase = fn }
}

// WithPinner replaces the pinning backend selected by the configuration.
func WithPinner(p storage.Pinner) Option {
	return func(o *options) { o.pinner = p }
}

// Core is the concrete SDK implementation.
type Core struct {
	*config.Config

	evm       *blockchain.EVMClient
	storage   *storage.Client
	pinner    storage.Pinner
	wallet    *wallet.Manager
	uploader  *drive.Uploader
	previewer *drive.Previewer
}

// GetEvm returns the EVM client for direct contract access.
func (c *Core) GetEvm() *blockchain.EVMClient {
	return c.evm
}

// NewSDK initializes the SDK and aborts the process if the configuration is
// invalid or the Ethereum client cannot be initialized. Use New to handle
// those errors.
func NewSDK(cfg *config.Config, opts ...Option) DriveSDK {
	core, err := New(cfg, opts...)
	if err != nil {
		zap.L().Fatal("Init SDK failed", zap.Error(err))
	}
	return core
}

// New validates cfg, dials the chain endpoint and builds every component.
// A configuration without a private key or keystore is accepted; Connect
// then reports wallet.ErrNoProvider.
func New(cfg *config.Config, opts ...Option) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	if cfg.Debug {
		zap.ReplaceGlobals(newLogger(zapcore.DebugLevel))
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	pinner := o.pinner
	if pinner == nil {
		var err error
		if pinner, err = newPinner(cfg); err != nil {
			return nil, err
		}
	}

	readURL := ""
	if cfg.PinBackend == config.PinBackendKubo {
		readURL = cfg.IpfsURL
	}
	storageClient := storage.NewStorage(readURL, cfg.Pinata.GatewayURL, cfg.Timeouts.GatewayFetch)

	evm, err := blockchain.InitEvm(cfg.RPCAddr, cfg.ContractAddr, cfg.Timeouts)
	if err != nil {
		zap.L().Error("Init ethereum client failed", zap.Error(err))
		return nil, err
	}

	provider, err := newProvider(cfg, evm, o.passphrase)
	if err != nil {
		evm.Close()
		return nil, err
	}

	manager := wallet.NewManager(provider, func(signer *bind.TransactOpts) wallet.Contract {
		return evm.Bind(signer)
	}, cfg.Timeouts.WalletPoll)

	uploader := drive.NewUploader(pinner, cfg.Pinata.GatewayURL)
	uploader.Tick = cfg.Timeouts.ProgressTick
	uploader.SyntheticProgress = cfg.SyntheticProgress

	zap.L().Debug("SDK initialized",
		zap.String("contract", cfg.ContractAddr),
		zap.String("network", cfg.Network.Name),
		zap.String("pinBackend", cfg.PinBackend))

	return &Core{
		Config:    cfg,
		evm:       evm,
		storage:   storageClient,
		pinner:    pinner,
		wallet:    manager,
		uploader:  uploader,
		previewer: drive.NewPreviewer(storageClient),
	}, nil
}

func newPinner(cfg *config.Config) (storage.Pinner, error) {
	switch cfg.PinBackend {
	case config.PinBackendKubo:
		return storage.NewKuboPinner(cfg.IpfsURL, cfg.Timeouts.PinUpload)
	default:
		return storage.NewPinataPinner(cfg.Pinata.APIURL, storage.PinataCredentials{
			APIKey:    cfg.Pinata.APIKey,
			APISecret: cfg.Pinata.APISecret,
			JWT:       cfg.Pinata.JWT,
		}, cfg.Timeouts.PinUpload), nil
	}
}

// newProvider picks the wallet: a raw key wins over a keystore. It returns a
// nil Provider when neither is configured.
func newProvider(cfg *config.Config, chain wallet.ChainIDReader, passphrase wallet.PassphraseFunc) (wallet.Provider, error) {
	switch {
	case cfg.PrivateKey != "":
		p, err := wallet.NewKeyProvider(cfg.PrivateKey, chain)
		if err != nil {
			return nil, err
		}
		return p, nil
	case cfg.KeystorePath != "":
		p, err := wallet.NewKeystoreProvider(cfg.KeystorePath, cfg.KeystoreAddress, passphrase, chain)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, nil
	}
}

// Connect implements DriveSDK.
func (c *Core) Connect(ctx context.Context) (*wallet.Session, error) {
	return c.wallet.Connect(ctx)
}

// Disconnect implements DriveSDK.
func (c *Core) Disconnect() {
	c.wallet.Disconnect()
}

// Wallet implements DriveSDK.
func (c *Core) Wallet() *wallet.Manager {
	return c.wallet
}

// NewUploadForm implements DriveSDK.
func (c *Core) NewUploadForm() *drive.UploadForm {
	return drive.NewUploadForm(c.uploader, c.wallet)
}

// NewFileList implements DriveSDK.
func (c *Core) NewFileList(mode drive.Mode) *drive.FileList {
	return drive.NewFileList(mode, c.wallet, c.previewer)
}

// NewShareForm implements DriveSDK.
func (c *Core) NewShareForm() *drive.ShareForm {
	return drive.NewShareForm(c.wallet)
}

// ReadFile implements DriveSDK.
func (c *Core) ReadFile(ctx context.Context, ref string) ([]byte, error) {
	return c.storage.ReadFile(ctx, ref)
}

// Balance implements DriveSDK.
func (c *Core) Balance(ctx context.Context) (decimal.Decimal, error) {
	sess, err := c.wallet.Session()
	if err != nil {
		return decimal.Zero, err
	}
	return sess.Balance(ctx, c.evm)
}

// Healthcheck implements DriveSDK.
func (c *Core) Healthcheck() Healthcheck {
	return newHealthcheckClient(c.evm, c.pinner)
}

// Close shuts down underlying network clients (e.g., Ethereum RPC).
func (c *Core) Close() {
	c.wallet.Disconnect()
	c.GetEvm().Close()
}
