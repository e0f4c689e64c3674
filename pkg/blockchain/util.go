package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// ErrInvalidAddress reports input that is not 0x followed by 40 hex digits.
var ErrInvalidAddress = errors.New("invalid address")

// addressRe is the accepted address shape. Checksums are not enforced.
var addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// weiPerEther is 10^18.
var weiPerEther = decimal.New(1, 18)

// IsValidAddress reports whether s is exactly "0x" followed by 40 hex digits.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// ParseAddress validates s with IsValidAddress and converts it.
func ParseAddress(s string) (common.Address, error) {
	if !IsValidAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// ShortAddress renders an address as its first six and last four characters,
// e.g. 0x1234...abcd. Inputs shorter than 42 characters are returned as is.
func ShortAddress(s string) string {
	if len(s) < 42 {
		return s
	}
	return s[:6] + "..." + s[38:]
}

// GetAddressFromPrivateKeyECDSA derives the Ethereum address from the given
// ECDSA private key. It returns nil if the key is nil or its public part cannot
// be asserted to *ecdsa.PublicKey.
func GetAddressFromPrivateKeyECDSA(privateKeyECDSA *ecdsa.PrivateKey) *common.Address {
	if privateKeyECDSA == nil {
		return nil
	}
	publicKey := privateKeyECDSA.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)
	return &addr
}

// ParsePrivateKeyECDSA parses a hex-encoded ECDSA private key and returns the
// corresponding Ethereum address together with the private key object.
// An optional 0x prefix is accepted.
func ParsePrivateKeyECDSA(privateKey string) (common.Address, *ecdsa.PrivateKey, error) {
	privateKeyECDSA, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return common.Address{}, nil, err
	}

	address := GetAddressFromPrivateKeyECDSA(privateKeyECDSA)
	if address == nil {
		return common.Address{}, nil, errors.New("failed to get public key")
	}
	return *address, privateKeyECDSA, nil
}

// WeiToEther converts a wei amount to ether with 18 digits of precision.
// A nil value converts to zero.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, 0).DivRound(weiPerEther, 18)
}
