// Package config defines the runtime configuration for the SDK, including
// Ethereum network settings, RPC endpoint, contract address, pinning service
// credentials, debug mode and operation timeouts. It also provides loading,
// validation and defaulting helpers.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultContractAddr is the address the Upload contract gets on a fresh
	// local Hardhat/Anvil chain when it is the first deployment.
	DefaultContractAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	// DefaultPinataAPIURL is the Pinata REST API base.
	DefaultPinataAPIURL = "https://api.pinata.cloud"
	// DefaultPinataGatewayURL is the gateway prefix used to build content URLs.
	DefaultPinataGatewayURL = "https://gateway.pinata.cloud/ipfs/"
	// DefaultIpfsURL is the Kubo HTTP API of a local IPFS node.
	DefaultIpfsURL = "http://127.0.0.1:5001"
	// DefaultListenAddr is where the local web UI listens.
	DefaultListenAddr = "127.0.0.1:8080"

	// PinBackendPinata pins through the Pinata HTTP API.
	PinBackendPinata = "pinata"
	// PinBackendKubo pins on a self-hosted IPFS node.
	PinBackendKubo = "kubo"
)

var addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Config holds all SDK settings required to initialize the wallet session,
// the contract client and the pinning backend.
// Use Validate to fill implicit defaults and to check for required fields.
type Config struct {
	// Network selects the target chain (chain ID and human-readable name).
	Network Network `json:"network" yaml:"network"`
	// RPCAddr is the Ethereum RPC/WS endpoint URL (required).
	RPCAddr string `json:"rpc_addr" yaml:"rpc_addr"`
	// PrivateKey is the hex-encoded ECDSA private key used as the wallet.
	// Leave empty to use KeystorePath instead.
	PrivateKey string `json:"private_key" yaml:"private_key"`
	// KeystorePath is a go-ethereum keystore directory.
	KeystorePath string `json:"keystore_path" yaml:"keystore_path"`
	// KeystoreAddress picks the account inside KeystorePath. Optional when the
	// keystore holds a single account.
	KeystoreAddress string `json:"keystore_address" yaml:"keystore_address"`
	// ContractAddr is the deployed Upload contract.
	ContractAddr string `json:"contract_addr" yaml:"contract_addr"`
	// PinBackend is either "pinata" (default) or "kubo".
	PinBackend string `json:"pin_backend" yaml:"pin_backend"`
	// Pinata holds the pinning service endpoint and its static credentials.
	Pinata Pinata `json:"pinata" yaml:"pinata"`
	// IpfsURL is the HTTP API endpoint of the IPFS node used by the kubo
	// backend and for verified reads.
	IpfsURL string `json:"ipfs_url" yaml:"ipfs_url"`
	// Web configures the local web UI.
	Web Web `json:"web" yaml:"web"`
	// SyntheticProgress reports upload progress as a fixed ramp, one step per
	// Timeouts.ProgressTick, instead of counting bytes sent.
	SyntheticProgress bool `json:"synthetic_progress" yaml:"synthetic_progress"`
	// Debug enables verbose logging.
	Debug bool `json:"debug" yaml:"debug"`
	// Timeouts configures per-operation timeouts. See Timeouts.WithDefaults for defaults.
	Timeouts Timeouts `json:"timeouts" yaml:"timeouts"`
}

// Pinata describes the pinning service. Either APIKey+APISecret or JWT must be set.
type Pinata struct {
	APIURL     string `json:"api_url" yaml:"api_url"`
	GatewayURL string `json:"gateway_url" yaml:"gateway_url"`
	APIKey     string `json:"api_key" yaml:"api_key"`
	APISecret  string `json:"api_secret" yaml:"api_secret"`
	JWT        string `json:"jwt" yaml:"jwt"`
}

// Web configures the local web UI.
type Web struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// Network describes a blockchain network (chain ID and name). ChainID is used
// for EIP-155 signing; Name is informational.
type Network struct {
	ChainID string `json:"chain_id" yaml:"chain_id"`
	Name    string `json:"network_name" yaml:"network_name"`
}

// Localhost is a Hardhat/Anvil development chain.
var Localhost = Network{
	ChainID: "31337",
	Name:    "localhost",
}

// Sepolia is a predefined Network for Ethereum Sepolia testnet.
var Sepolia = Network{
	ChainID: "11155111",
	Name:    "sepolia",
}

// Main is a predefined Network for Ethereum mainnet.
var Main = Network{
	ChainID: "1",
	Name:    "main",
}

// Timeouts controls SDK operation deadlines.
// Zero values will be replaced by sane defaults in WithDefaults.
type Timeouts struct {
	Dial         time.Duration `json:"dial" yaml:"dial"`                   // Web3 dial/connect
	ChainRead    time.Duration `json:"chain_read" yaml:"chain_read"`       // eth_call
	ChainSubmit  time.Duration `json:"chain_submit" yaml:"chain_submit"`   // send tx
	ReceiptWait  time.Duration `json:"receipt_wait" yaml:"receipt_wait"`   // wait tx
	PinUpload    time.Duration `json:"pin_upload" yaml:"pin_upload"`       // pinning call
	GatewayFetch time.Duration `json:"gateway_fetch" yaml:"gateway_fetch"` // previews and reads
	WalletPoll   time.Duration `json:"wallet_poll" yaml:"wallet_poll"`     // account/network change polling
	ProgressTick time.Duration `json:"progress_tick" yaml:"progress_tick"` // synthetic progress ramp
}

// Validate normalizes the configuration by applying implicit defaults and
// verifies the required fields. Returns an error when RPCAddr is empty, the
// contract address is malformed, or the selected pin backend lacks settings.
func (c *Config) Validate() error {

	if c.Network.ChainID == "" {
		c.Network = Localhost
	}

	if c.ContractAddr == "" {
		c.ContractAddr = DefaultContractAddr
	}

	if c.PinBackend == "" {
		c.PinBackend = PinBackendPinata
	}

	if c.Pinata.APIURL == "" {
		c.Pinata.APIURL = DefaultPinataAPIURL
	}

	if c.Pinata.GatewayURL == "" {
		c.Pinata.GatewayURL = DefaultPinataGatewayURL
	}
	if !strings.HasSuffix(c.Pinata.GatewayURL, "/") {
		c.Pinata.GatewayURL += "/"
	}

	if c.IpfsURL == "" {
		c.IpfsURL = DefaultIpfsURL
	}

	if c.Web.ListenAddr == "" {
		c.Web.ListenAddr = DefaultListenAddr
	}

	if c.RPCAddr == "" {
		return errors.New("RPC address is required")
	}

	if !addressRe.MatchString(c.ContractAddr) {
		return fmt.Errorf("invalid contract address %q", c.ContractAddr)
	}

	if _, err := strconv.ParseInt(c.Network.ChainID, 10, 64); err != nil {
		return fmt.Errorf("invalid chain id %q", c.Network.ChainID)
	}

	switch c.PinBackend {
	case PinBackendPinata:
		if c.Pinata.JWT == "" && (c.Pinata.APIKey == "" || c.Pinata.APISecret == "") {
			return errors.New("pinata credentials are required: set api_key and api_secret, or jwt")
		}
	case PinBackendKubo:
	default:
		return fmt.Errorf("unknown pin backend %q", c.PinBackend)
	}

	return nil
}

// WithDefaults returns a copy of t with zero values replaced by defaults:
//
//	Dial:         5s
//	ChainRead:    12s
//	ChainSubmit:  25s
//	ReceiptWait:  90s
//	PinUpload:    5m
//	GatewayFetch: 10s
//	WalletPoll:   3s
//	ProgressTick: 500ms
func (t Timeouts) WithDefaults() Timeouts {
	tt := t
	if tt.Dial == 0 {
		tt.Dial = 5 * time.Second
	}
	if tt.ChainRead == 0 {
		tt.ChainRead = 12 * time.Second
	}
	if tt.ChainSubmit == 0 {
		tt.ChainSubmit = 25 * time.Second
	}
	if tt.ReceiptWait == 0 {
		tt.ReceiptWait = 90 * time.Second
	}
	if tt.PinUpload == 0 {
		tt.PinUpload = 5 * time.Minute
	}
	if tt.GatewayFetch == 0 {
		tt.GatewayFetch = 10 * time.Second
	}
	if tt.WalletPoll == 0 {
		tt.WalletPoll = 3 * time.Second
	}
	if tt.ProgressTick == 0 {
		tt.ProgressTick = 500 * time.Millisecond
	}
	return tt
}

// Load reads a configuration file. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON. The result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables consulted by ApplyEnv.
const (
	EnvRPCAddr       = "SCD_RPC_ADDR"
	EnvPrivateKey    = "SCD_PRIVATE_KEY"
	EnvKeystorePath  = "SCD_KEYSTORE_PATH"
	EnvContractAddr  = "SCD_CONTRACT_ADDR"
	EnvChainID       = "SCD_CHAIN_ID"
	EnvPinBackend    = "SCD_PIN_BACKEND"
	EnvIpfsURL       = "SCD_IPFS_URL"
	EnvPinataKey     = "PINATA_API_KEY"
	EnvPinataSecret  = "PINATA_API_SECRET"
	EnvPinataJWT     = "PINATA_JWT"
	EnvPinataGateway = "PINATA_GATEWAY_URL"
)

// ApplyEnv loads the given .env files (missing files are skipped) into the
// process environment and overlays every non-empty variable onto c.
// Values already present in the environment win over .env contents.
func (c *Config) ApplyEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
	}

	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.RPCAddr, EnvRPCAddr)
	set(&c.PrivateKey, EnvPrivateKey)
	set(&c.KeystorePath, EnvKeystorePath)
	set(&c.ContractAddr, EnvContractAddr)
	set(&c.Network.ChainID, EnvChainID)
	set(&c.PinBackend, EnvPinBackend)
	set(&c.IpfsURL, EnvIpfsURL)
	set(&c.Pinata.APIKey, EnvPinataKey)
	set(&c.Pinata.APISecret, EnvPinataSecret)
	set(&c.Pinata.JWT, EnvPinataJWT)
	set(&c.Pinata.GatewayURL, EnvPinataGateway)
	return nil
}
