package drive

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
	"go.uber.org/zap"
)

// ShareForm is the transient state of the access sharing page. The grant
// list it shows is always the result of the latest completed refetch; it is
// never updated optimistically.
type ShareForm struct {
	sessions  SessionSource
	selection *FileSelection

	mu      sync.Mutex
	grants  []model.AccessGrant
	pending int
	message string
	success string
}

// NewShareForm returns an empty form.
func NewShareForm(sessions SessionSource) *ShareForm {
	return &ShareForm{sessions: sessions, selection: NewFileSelection(sessions)}
}

// Selection returns the file picker attached to the grant control.
func (f *ShareForm) Selection() *FileSelection { return f.selection }

// Load fetches the caller's grants and keeps the active ones. On failure the
// previous list stays and MsgLoadGrants is shown.
func (f *ShareForm) Load(ctx context.Context) error {
	f.begin()
	defer f.end()

	sess, err := f.sessions.Session()
	if err != nil {
		f.setMessage(MsgNotConnected, "")
		return err
	}
	return f.refetch(ctx, sess)
}

func (f *ShareForm) refetch(ctx context.Context, sess *wallet.Session) error {
	all, err := sess.Contract.ShareAccess(ctx)
	if err != nil {
		zap.L().Error("Error loading shared accesses", zap.Error(err))
		f.mu.Lock()
		f.message = MsgLoadGrants
		f.mu.Unlock()
		return fmt.Errorf("load grants: %w", err)
	}
	f.mu.Lock()
	f.grants = model.ActiveGrants(all)
	f.mu.Unlock()
	return nil
}

// Grant gives input read access to the caller's files. input must be 0x
// followed by 40 hex digits; anything else is rejected with
// MsgInvalidAddress before any network call. On success the file selection
// is cleared and the grant list refetched.
func (f *ShareForm) Grant(ctx context.Context, input string) error {
	return f.mutate(ctx, input, "allow", MsgGrantFailed, "Successfully shared access with ",
		func(c wallet.Contract, addr common.Address) (*types.Transaction, error) { return c.Allow(ctx, addr) })
}

// Revoke removes input's read access and refetches the grant list. Revoking
// an address without access is left to the contract; the refetched list is
// shown either way.
func (f *ShareForm) Revoke(ctx context.Context, input string) error {
	return f.mutate(ctx, input, "disallow", MsgRevokeFailed, "Access revoked for ",
		func(c wallet.Contract, addr common.Address) (*types.Transaction, error) { return c.Disallow(ctx, addr) })
}

func (f *ShareForm) mutate(ctx context.Context, input, op, failMsg, okPrefix string,
	call func(wallet.Contract, common.Address) (*types.Transaction, error)) error {
	input = strings.TrimSpace(input)
	addr, err := blockchain.ParseAddress(input)
	if err != nil {
		f.setMessage(MsgInvalidAddress, "")
		return err
	}

	f.begin()
	defer f.end()

	sess, err := f.sessions.Session()
	if err != nil {
		f.setMessage(MsgNotConnected, "")
		return err
	}

	tx, err := call(sess.Contract, addr)
	if err == nil {
		_, err = sess.Contract.WaitMined(ctx, tx)
	}
	if err != nil {
		zap.L().Error("Access change failed", zap.String("op", op), zap.String("address", input),
			zap.String("reason", blockchain.RevertReason(err)), zap.Error(err))
		f.setMessage(failMsg, "")
		return fmt.Errorf("%s %s: %w", op, input, err)
	}

	f.setMessage("", okPrefix+blockchain.ShortAddress(input))
	if op == "allow" {
		f.selection.Clear()
	}
	return f.refetch(ctx, sess)
}

func (f *ShareForm) begin() {
	f.mu.Lock()
	f.pending++
	f.message = ""
	f.success = ""
	f.mu.Unlock()
}

func (f *ShareForm) end() {
	f.mu.Lock()
	f.pending--
	f.mu.Unlock()
}

func (f *ShareForm) setMessage(msg, success string) {
	f.mu.Lock()
	f.message = msg
	f.success = success
	f.mu.Unlock()
}

// Grants returns a copy of the displayed active grants.
func (f *ShareForm) Grants() []model.AccessGrant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.AccessGrant(nil), f.grants...)
}

// Busy reports whether any operation is in flight.
func (f *ShareForm) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending > 0
}

// Message returns the error message of the last failed operation.
func (f *ShareForm) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Success returns the confirmation of the last successful grant or revoke.
func (f *ShareForm) Success() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.success
}

// FileSelection is a multi-select over the caller's own files, shown next
// to the grant control. It is advisory: the contract's allow call takes no
// file list, so nothing selected here is sent anywhere.
type FileSelection struct {
	sessions SessionSource

	mu       sync.Mutex
	options  []string
	selected []string
	message  string
}

// NewFileSelection returns an empty selection.
func NewFileSelection(sessions SessionSource) *FileSelection {
	return &FileSelection{sessions: sessions}
}

// Load fetches the caller's own files as options. Selected URLs that are no
// longer offered are dropped.
func (s *FileSelection) Load(ctx context.Context) error {
	urls, err := ownURLs(ctx, s.sessions)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		zap.L().Error("Error loading files", zap.Error(err))
		s.options = nil
		s.message = MsgPickerLoad
		return err
	}
	s.options = urls
	s.message = ""
	kept := s.selected[:0]
	for _, u := range s.selected {
		if slices.Contains(urls, u) {
			kept = append(kept, u)
		}
	}
	s.selected = kept
	return nil
}

// Toggle selects url, or unselects it when already selected, and returns
// the new selection.
func (s *FileSelection) Toggle(url string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.selected {
		if u == url {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return append([]string(nil), s.selected...)
		}
	}
	s.selected = append(s.selected, url)
	return append([]string(nil), s.selected...)
}

// Selected returns the selected URLs in selection order.
func (s *FileSelection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selected...)
}

// IsSelected reports whether url is selected.
func (s *FileSelection) IsSelected(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.selected, url)
}

// Options returns the loaded file URLs.
func (s *FileSelection) Options() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.options...)
}

// Message returns the error message of the last failed Load.
func (s *FileSelection) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Clear unselects everything.
func (s *FileSelection) Clear() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}
