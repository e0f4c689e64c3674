// Package config provides configuration management for the SecureCloud Drive SDK.
//
// This package defines the Config structure that controls all SDK behavior including
// network settings, the RPC endpoint, the Upload contract address, the pinning
// backend and its credentials, and timeouts.
//
// # Basic Configuration
//
// The minimum required configuration needs an RPC endpoint and pinning credentials:
//
//	cfg := &config.Config{
//		RPCAddr:    "http://127.0.0.1:8545",
//		PrivateKey: "YOUR_PRIVATE_KEY",
//		Pinata: config.Pinata{
//			APIKey:    "YOUR_API_KEY",
//			APISecret: "YOUR_API_SECRET",
//		},
//	}
//
// # Files and Environment
//
// Load reads YAML (.yaml, .yml) or JSON files. ApplyEnv overlays variables
// from the process environment and optional .env files, which is how the
// pinning credentials are normally supplied at deploy time:
//
//	cfg, err := config.Load("securecloud.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv(".env"); err != nil {
//		log.Fatal(err)
//	}
//
// Recognized variables: SCD_RPC_ADDR, SCD_PRIVATE_KEY, SCD_KEYSTORE_PATH,
// SCD_CONTRACT_ADDR, SCD_CHAIN_ID, SCD_PIN_BACKEND, SCD_IPFS_URL,
// PINATA_API_KEY, PINATA_API_SECRET, PINATA_JWT, PINATA_GATEWAY_URL.
//
// # Wallet
//
// The wallet is either a hex private key (without "0x") or a go-ethereum
// keystore directory. The keystore passphrase is read from the terminal.
//
// # Pin Backends
//
//	pinata - Pinata HTTP API (default), needs api_key+api_secret or jwt
//	kubo   - a self-hosted IPFS node at IpfsURL
//
// # Validation
//
// Always call Validate() to apply defaults and check required fields.
// Validate() will:
//   - Default the network to Localhost (chain 31337)
//   - Default the contract address, Pinata endpoints, IPFS URL and listen address
//   - Return an error if RPCAddr is empty
//   - Return an error if the contract address is not 0x + 40 hex digits
//   - Return an error if the selected pin backend lacks credentials
//
// Zero timeouts are replaced with defaults via Timeouts.WithDefaults().
//
// # Thread Safety
//
// Config instances should be created once and not modified after passing to sdk.NewSDK().
package config
