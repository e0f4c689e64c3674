// Package sdk provides the high-level entry point of the decentralized drive.
//
// The drive stores files on IPFS and keeps, per account, the list of content
// URLs in the Upload smart contract. Owners grant and revoke read access to
// that list for other addresses.
//
// # Quick Start
//
//	cfg := &config.Config{
//		RPCAddr:    "http://127.0.0.1:8545",
//		PrivateKey: os.Getenv("SCD_PRIVATE_KEY"),
//		Pinata:     config.Pinata{JWT: os.Getenv("PINATA_JWT")},
//	}
//
//	drv := sdk.NewSDK(cfg)
//	defer drv.Close()
//
//	if _, err := drv.Connect(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	form := drv.NewUploadForm()
//	form.OnChange(func(s drive.UploadState) { fmt.Printf("\r%d%%", s.Progress) })
//	file, _ := drive.FileFromPath("photo.jpg")
//	form.Select(file)
//	res, err := form.Submit(ctx)
//
// # Components
//
//   - blockchain: Upload contract binding and EVM client
//   - storage: Pinata and Kubo pinning, gateway and IPFS reads
//   - wallet: key and keystore wallets, the session and change detection
//   - drive: upload, file listing and access sharing forms
//
// # Configuration
//
// Required configuration fields:
//   - RPCAddr: Ethereum RPC endpoint
//   - Pinata.JWT or Pinata.APIKey and Pinata.APISecret, unless PinBackend is "kubo"
//
// A wallet is optional at construction time: without PrivateKey or
// KeystorePath, Connect returns wallet.ErrNoProvider.
//
// # Resource Management
//
// Always call Close to drop the session and release the RPC connection.
package sdk
