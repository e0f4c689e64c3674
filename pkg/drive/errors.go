package drive

import (
	"errors"

	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
)

var (
	// ErrNoFile is returned by UploadForm.Submit without a selected file.
	ErrNoFile = errors.New("no file selected")
	// ErrBusy is returned when a form already runs an operation.
	ErrBusy = errors.New("operation already in progress")
	// ErrPinFailed wraps failures of the pinning step.
	ErrPinFailed = errors.New("pinning failed")
	// ErrRecordFailed wraps failures of the contract add call or its confirmation.
	ErrRecordFailed = errors.New("recording file on chain failed")
	// ErrNoAccess wraps a refused or failed display call.
	ErrNoAccess = errors.New("no access to files")
	// ErrNoTarget is returned by a shared listing without a target address.
	ErrNoTarget = errors.New("no address to list shared files for")
	// ErrInvalidAddress is returned for input that is not 0x + 40 hex digits.
	ErrInvalidAddress = blockchain.ErrInvalidAddress
)

// User-facing messages shown next to the control that triggered the failure.
const (
	MsgNoAccess       = "Failed to load files. You might not have access."
	MsgNoTarget       = "Please enter an address to view shared files"
	MsgPickerLoad     = "Failed to load files from cloud storage"
	MsgLoadGrants     = "Failed to load shared addresses"
	MsgInvalidAddress = "Please enter a valid Ethereum address"
	MsgGrantFailed    = "Failed to share access. Please try again."
	MsgRevokeFailed   = "Failed to revoke access. Please try again."
	MsgUploadFailed   = "Upload failed. Please try again."
	MsgNotConnected   = "Connect your wallet first"
)
