package blockchain

import (
	_ "embed"
)

// UploadABIJSON is the ABI of the Upload contract as shipped with the
// contract artifacts. cmd/generate-smart-binds feeds it to abigen.
//
//go:embed abi/Upload.json
var UploadABIJSON []byte
