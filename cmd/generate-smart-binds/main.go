package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi/abigen"
)

func main() {
	root, err := moduleRoot()
	if err != nil {
		log.Fatalf("Failed to locate module root: %v", err)
	}

	abiPath := filepath.Join(root, "pkg", "blockchain", "abi", "Upload.json")
	abiJSON, err := os.ReadFile(abiPath)
	if err != nil {
		log.Fatalf("Failed to read ABI %s: %v", abiPath, err)
	}

	// No bytecode: the contract is deployed separately, so only the
	// caller/transactor/filterer bindings are generated.
	bindContent, err := abigen.Bind(
		[]string{"Upload"},
		[]string{string(abiJSON)},
		[]string{""},
		nil, "blockchain", nil, nil)
	if err != nil {
		log.Fatalf("Failed to generate binding: %v", err)
	}

	outPath := filepath.Join(root, "pkg", "blockchain", "upload-contract.go")
	if err := os.WriteFile(outPath, []byte(bindContent), 0o600); err != nil {
		log.Fatalf("Failed to write ABI binding: %v", err)
	}
}

func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, statErr := os.Stat(filepath.Join(dir, "go.mod")); statErr == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			return "", fmt.Errorf("go.mod not found from %q", dir)
		}
		dir = next
	}
}
