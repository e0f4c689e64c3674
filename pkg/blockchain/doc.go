// Package blockchain provides low-level interaction with the Upload contract
// that records which content URLs belong to which wallet and who may read them.
//
// # Architecture
//
// The package is organized around two client types:
//
// EVMClient:
//   - Dialed ethclient.Client and the typed Upload binding
//   - Chain ID, balance and block number queries
//   - Bind, which attaches a signer and returns a DriveContract
//
// DriveContract:
//   - Reads (display, shareAccess) issued from the signer's address
//   - Writes (add, allow, disallow) signed with the signer's key
//   - WaitMined for receipt polling with revert detection
//
// # Smart Contract
//
// The Upload contract exposes five methods:
//
//	add(address user, string url)          // append url to user's list
//	allow(address user)                    // grant user read access
//	disallow(address user)                 // revoke user's access
//	display(address user) returns string[] // own list, or user's list if granted
//	shareAccess() returns Access[]         // every grant the caller made
//
// Authorization is based on msg.sender, so reads must carry the From address
// of the connected wallet. A display call for a wallet that did not grant
// access reverts with "You don't have access".
//
// The binding in upload-contract.go is generated from abi/Upload.json:
//
//	go generate ./pkg/blockchain
//
// # Usage
//
//	evm, err := blockchain.InitEvm("http://127.0.0.1:8545", config.DefaultContractAddr, config.Timeouts{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer evm.Close()
//
//	chainID, err := evm.ChainID(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	opts, err := blockchain.GetTransactOpts(chainID, privateKey)
//	if err != nil {
//		log.Fatal(err)
//	}
//	contract := evm.Bind(opts)
//
//	tx, err := contract.Add(ctx, opts.From, "https://gateway.pinata.cloud/ipfs/Qm...")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if _, err := contract.WaitMined(ctx, tx); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// Writes without a signer fail with ErrNoSigner. WaitMined returns
// ErrTxReverted when the receipt status is failed. RevertReason extracts the
// Solidity revert string from an RPC error:
//
//	urls, err := contract.Display(ctx, owner)
//	if err != nil {
//		if reason := blockchain.RevertReason(err); reason != "" {
//			fmt.Println("contract said:", reason)
//		}
//	}
//
// # Utilities
//
//   - IsValidAddress / ParseAddress: 0x + 40 hex digit check
//   - ShortAddress: 0x1234...abcd rendering for UIs
//   - ParsePrivateKeyECDSA / GetAddressFromPrivateKeyECDSA
//   - WeiToEther: balance formatting with shopspring/decimal
//
// # Thread Safety
//
// EVMClient and DriveContract are safe for concurrent use; each call copies
// the signer options before attaching its context.
package blockchain
