package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
	"go.uber.org/zap"
)

// SessionSource hands out the current wallet session. *wallet.Manager
// implements it.
type SessionSource interface {
	Session() (*wallet.Session, error)
}

// File is a selected file. Open may be called more than once so that a
// failed upload can be retried with the same selection.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileFromPath selects the file at path.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FileFromBytes selects an in-memory file.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// ProgressFunc receives upload progress as a percentage in [0, 100].
type ProgressFunc func(percent int)

// Progress milestones of an upload.
const (
	ProgressPinned = 95
	ProgressDone   = 100
	progressPinCap = 90
	rampStart      = 10
	rampStep       = 10
)

// UploadResult describes a file that was pinned and recorded.
type UploadResult struct {
	ID     uuid.UUID
	Name   string
	CID    string
	URL    string
	TxHash common.Hash
}

// Uploader pins a file and records its content URL on the contract.
type Uploader struct {
	pinner     storage.Pinner
	gatewayURL string

	// SyntheticProgress replaces byte-accurate progress with a fixed ramp
	// (10, +10 every Tick, capped at 90) that does not reflect the transfer.
	SyntheticProgress bool
	// Tick is the ramp interval. Zero means 500ms.
	Tick time.Duration
}

// NewUploader returns an uploader pinning through pinner and building
// content URLs under gatewayURL.
func NewUploader(pinner storage.Pinner, gatewayURL string) *Uploader {
	return &Uploader{pinner: pinner, gatewayURL: gatewayURL}
}

// Upload runs the whole flow for f: pin, build the content URL, add it for
// the session account and wait for the transaction to be mined. The first
// failing step aborts the flow; a pin failure means no contract call is made.
//
// Progress goes from 0 to 90 while bytes are sent to the pinning service,
// then 95 once pinned and 100 once the add call is mined.
func (u *Uploader) Upload(ctx context.Context, sess *wallet.Session, f File, progress ProgressFunc) (*UploadResult, error) {
	if f.Open == nil {
		return nil, ErrNoFile
	}
	if sess == nil || sess.Contract == nil {
		return nil, wallet.ErrNotConnected
	}
	if progress == nil {
		progress = func(int) {}
	}

	res := &UploadResult{ID: uuid.New(), Name: f.Name}
	log := zap.L().With(zap.String("upload", res.ID.String()), zap.String("file", f.Name))

	rc, err := f.Open()
	if err != nil {
		log.Error("Failed to open file", zap.Error(err))
		return nil, fmt.Errorf("%w: open %s: %w", ErrPinFailed, f.Name, err)
	}
	defer rc.Close()

	var onBytes storage.ProgressFunc
	stopRamp := func() {}
	if u.SyntheticProgress {
		stopRamp = RampProgress(u.Tick, progress)
	} else {
		onBytes = byteProgress(progress)
	}
	defer stopRamp()

	log.Debug("Pinning file", zap.Int64("size", f.Size))
	pin, err := u.pinner.Pin(ctx, f.Name, rc, f.Size, onBytes)
	if err != nil {
		log.Error("Pinning failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPinFailed, err)
	}
	res.CID = pin.IpfsHash
	res.URL = storage.ContentURL(u.gatewayURL, pin.IpfsHash)
	stopRamp()
	progress(ProgressPinned)

	tx, err := sess.Contract.Add(ctx, sess.Account, res.URL)
	if err != nil {
		log.Error("Contract add failed", zap.String("url", res.URL), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	res.TxHash = tx.Hash()

	if _, err := sess.Contract.WaitMined(ctx, tx); err != nil {
		log.Error("Add transaction not confirmed", zap.String("txHash", res.TxHash.Hex()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	progress(ProgressDone)
	log.Info("File uploaded", zap.String("cid", res.CID), zap.String("txHash", res.TxHash.Hex()))
	return res, nil
}

// byteProgress maps bytes sent onto 0..90, reporting only increases.
func byteProgress(progress ProgressFunc) storage.ProgressFunc {
	last := -1
	return func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(sent * progressPinCap / total)
		if pct > progressPinCap {
			pct = progressPinCap
		}
		if pct > last {
			last = pct
			progress(pct)
		}
	}
}

// UploadState is a snapshot of an UploadForm.
type UploadState struct {
	ID       string `json:"id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Progress int    `json:"progress"`
	Busy     bool   `json:"busy"`
	Error    string `json:"error,omitempty"`
	URL      string `json:"url,omitempty"`
}

// UploadForm holds the transient state of the upload control: the selected
// file, progress, and the outcome of the last submission.
type UploadForm struct {
	uploader *Uploader
	sessions SessionSource

	mu        sync.Mutex
	file      *File
	progress  int
	busy      bool
	err       error
	last      *UploadResult
	opID      string
	listeners []func(UploadState)
}

// NewUploadForm returns an empty form.
func NewUploadForm(uploader *Uploader, sessions SessionSource) *UploadForm {
	return &UploadForm{uploader: uploader, sessions: sessions}
}

// Select replaces the selected file. It is ignored while an upload runs.
func (f *UploadForm) Select(file File) bool {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return false
	}
	f.file = &file
	f.progress = 0
	f.err = nil
	f.mu.Unlock()
	f.notify()
	return true
}

// Clear drops the selection. It is ignored while an upload runs.
func (f *UploadForm) Clear() bool {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return false
	}
	f.file = nil
	f.progress = 0
	f.mu.Unlock()
	f.notify()
	return true
}

// Submit uploads the selected file. On success the selection is cleared and
// progress stays at 100. On failure progress returns to 0, the error is kept
// for Err, and the selection stays so the user can retry.
func (f *UploadForm) Submit(ctx context.Context) (*UploadResult, error) {
	f.mu.Lock()
	switch {
	case f.busy:
		f.mu.Unlock()
		return nil, ErrBusy
	case f.file == nil:
		f.mu.Unlock()
		return nil, ErrNoFile
	}
	file := *f.file
	f.busy = true
	f.err = nil
	f.progress = 0
	f.opID = uuid.NewString()
	f.mu.Unlock()
	f.notify()

	res, err := f.run(ctx, file)

	f.mu.Lock()
	f.busy = false
	if err != nil {
		f.progress = 0
		f.err = err
	} else {
		f.progress = ProgressDone
		f.file = nil
		f.last = res
	}
	f.mu.Unlock()
	f.notify()
	return res, err
}

func (f *UploadForm) run(ctx context.Context, file File) (*UploadResult, error) {
	sess, err := f.sessions.Session()
	if err != nil {
		return nil, err
	}
	return f.uploader.Upload(ctx, sess, file, f.setProgress)
}

func (f *UploadForm) setProgress(p int) {
	f.mu.Lock()
	if !f.busy {
		f.mu.Unlock()
		return
	}
	f.progress = p
	f.mu.Unlock()
	f.notify()
}

// Progress returns the current percentage.
func (f *UploadForm) Progress() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.progress
}

// Busy reports whether an upload is running.
func (f *UploadForm) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Err returns the error of the last submission, if it failed.
func (f *UploadForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Selected returns the selected file, if any.
func (f *UploadForm) Selected() (File, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return File{}, false
	}
	return *f.file, true
}

// Last returns the result of the last successful submission.
func (f *UploadForm) Last() *UploadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// OnChange registers fn to receive a snapshot after every state change.
func (f *UploadForm) OnChange(fn func(UploadState)) {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// State returns a snapshot of the form.
func (f *UploadForm) State() UploadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *UploadForm) stateLocked() UploadState {
	s := UploadState{ID: f.opID, Progress: f.progress, Busy: f.busy}
	if f.file != nil {
		s.FileName = f.file.Name
		s.FileSize = f.file.Size
	}
	if f.err != nil {
		s.Error = UploadMessage(f.err)
	}
	if f.last != nil && f.file == nil && !f.busy && f.err == nil {
		s.URL = f.last.URL
	}
	return s
}

func (f *UploadForm) notify() {
	f.mu.Lock()
	s := f.stateLocked()
	listeners := append([]func(UploadState){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}
