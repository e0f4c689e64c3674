package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PlaceholderPreview is shown when a file has no image preview.
const PlaceholderPreview = "https://placehold.co/600x400/1f2937/ffffff?text=No+Preview"

// previewConcurrency bounds the content-type lookups one Load runs at once.
const previewConcurrency = 8

// Mode selects whose files a FileList shows.
type Mode int

const (
	// OwnFiles lists the connected account's files.
	OwnFiles Mode = iota
	// SharedFiles lists the files of a target address that granted access.
	SharedFiles
)

func (m Mode) String() string {
	if m == SharedFiles {
		return "shared"
	}
	return "own"
}

// Label derives the short display name of a content URL: its last path
// segment, cut to 15 characters plus "..." when longer than 20.
func Label(url string) string {
	if url == "" {
		return "Unknown"
	}
	name := []rune(url[strings.LastIndex(url, "/")+1:])
	if len(name) > 20 {
		return string(name[:15]) + "..."
	}
	return string(name)
}

// Sniffer reports the content type behind a URL. *storage.Client implements it.
type Sniffer interface {
	Sniff(ctx context.Context, url string) (string, error)
}

// Previewer decides how a content URL is previewed. Results are cached per
// URL; a failed lookup is cached as an empty content type.
type Previewer struct {
	sniffer Sniffer

	mu    sync.Mutex
	cache map[string]string
}

// NewPreviewer returns a previewer. A nil sniffer previews every URL as an image.
func NewPreviewer(sniffer Sniffer) *Previewer {
	return &Previewer{sniffer: sniffer, cache: make(map[string]string)}
}

// Entry builds the display entry for url. Previews that cannot be resolved,
// or that are not images, fall back to PlaceholderPreview.
func (p *Previewer) Entry(ctx context.Context, url string) model.FileEntry {
	e := model.FileEntry{URL: url, Label: Label(url), PreviewURL: url}
	if p == nil || p.sniffer == nil {
		return e
	}

	p.mu.Lock()
	ct, ok := p.cache[url]
	p.mu.Unlock()
	if !ok {
		var err error
		ct, err = p.sniffer.Sniff(ctx, url)
		if err != nil {
			zap.L().Debug("preview unavailable", zap.String("url", url), zap.Error(err))
			ct = ""
			if ctx.Err() != nil {
				e.PreviewURL = PlaceholderPreview
				return e
			}
		}
		p.mu.Lock()
		p.cache[url] = ct
		p.mu.Unlock()
	}

	e.ContentType = ct
	if !storage.IsImage(ct) {
		e.PreviewURL = PlaceholderPreview
	}
	return e
}

// Entries builds the entries for urls, in order, resolving previews
// concurrently.
func (p *Previewer) Entries(ctx context.Context, urls []string) []model.FileEntry {
	entries := make([]model.FileEntry, len(urls))
	var g errgroup.Group
	g.SetLimit(previewConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			entries[i] = p.Entry(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return entries
}

// FileList is the transient state of a file listing.
type FileList struct {
	mode      Mode
	sessions  SessionSource
	previewer *Previewer

	mu      sync.Mutex
	target  string
	entries []model.FileEntry
	loading bool
	err     error
	message string
}

// NewFileList returns an empty listing. previewer may be nil.
func NewFileList(mode Mode, sessions SessionSource, previewer *Previewer) *FileList {
	return &FileList{mode: mode, sessions: sessions, previewer: previewer}
}

// Mode returns the listing mode.
func (l *FileList) Mode() Mode { return l.mode }

// SetTarget sets the address whose shared files Load queries.
func (l *FileList) SetTarget(address string) {
	l.mu.Lock()
	l.target = strings.TrimSpace(address)
	l.mu.Unlock()
}

// Target returns the address set with SetTarget.
func (l *FileList) Target() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.target
}

// AutoLoad loads an own-files listing when a session is available. It does
// nothing for shared listings, which only load on an explicit Load.
func (l *FileList) AutoLoad(ctx context.Context) error {
	if l.mode != OwnFiles {
		return nil
	}
	if _, err := l.sessions.Session(); err != nil {
		return nil
	}
	return l.Load(ctx)
}

// Load queries the contract and replaces the entries. A refused or failed
// query leaves the listing empty with MsgNoAccess and returns an error
// wrapping ErrNoAccess. A missing or malformed shared target is rejected
// before any contract call.
func (l *FileList) Load(ctx context.Context) error {
	sess, err := l.sessions.Session()
	if err != nil {
		l.fail(nil, MsgNotConnected, err, false)
		return err
	}

	addr := sess.Account
	if l.mode == SharedFiles {
		target := l.Target()
		if target == "" {
			l.fail(nil, MsgNoTarget, ErrNoTarget, false)
			return ErrNoTarget
		}
		addr, err = blockchain.ParseAddress(target)
		if err != nil {
			l.fail(nil, MsgInvalidAddress, err, false)
			return err
		}
	}

	l.mu.Lock()
	l.loading = true
	l.err = nil
	l.message = ""
	l.mu.Unlock()

	urls, err := sess.Contract.Display(ctx, addr)
	if err != nil {
		zap.L().Error("Error loading files", zap.String("mode", l.mode.String()), zap.String("address", addr.Hex()),
			zap.String("reason", blockchain.RevertReason(err)), zap.Error(err))
		err = fmt.Errorf("%w: %w", ErrNoAccess, err)
		l.fail([]model.FileEntry{}, MsgNoAccess, err, true)
		return err
	}

	entries := l.previewer.Entries(ctx, urls)

	l.mu.Lock()
	l.entries = entries
	l.loading = false
	l.mu.Unlock()
	return nil
}

// fail records a failed load. entries replaces the list when replace is set.
func (l *FileList) fail(entries []model.FileEntry, msg string, err error, replace bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if replace {
		l.entries = entries
	}
	l.loading = false
	l.err = err
	l.message = msg
}

// Entries returns a copy of the loaded entries.
func (l *FileList) Entries() []model.FileEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.FileEntry(nil), l.entries...)
}

// Loading reports whether a Load is in flight.
func (l *FileList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Err returns the error of the last Load, if it failed.
func (l *FileList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Message returns the user-facing message of the last failed Load.
func (l *FileList) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.message
}

// IsNoAccess reports whether err comes from a refused display call.
func IsNoAccess(err error) bool {
	return errors.Is(err, ErrNoAccess)
}

// ownURLs lists the session account's content URLs.
func ownURLs(ctx context.Context, sessions SessionSource) ([]string, error) {
	sess, err := sessions.Session()
	if err != nil {
		return nil, err
	}
	return sess.Contract.Display(ctx, sess.Account)
}
