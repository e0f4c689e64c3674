// Package web serves the drive as a local web application: a home page with
// the wallet banner, the upload form and the user's files, and a sharing page
// with the access grants and the shared-file lookup.
package web

import (
	"bufio"
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/drive"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
	"go.uber.org/zap"
)

// MaxUploadSize caps the multipart body of POST /upload.
const MaxUploadSize = 64 << 20

const (
	msgNoWallet      = "No wallet found. Configure a private key or keystore to connect."
	msgConnectFailed = "Failed to connect wallet"
	msgFileTooLarge  = "File is too large"
)

//go:embed templates/*.html
var templateFS embed.FS

// Drive is what the server needs from the SDK. *sdk.Core implements it.
type Drive interface {
	Connect(ctx context.Context) (*wallet.Session, error)
	Wallet() *wallet.Manager
	NewUploadForm() *drive.UploadForm
	NewFileList(mode drive.Mode) *drive.FileList
	NewShareForm() *drive.ShareForm
}

// Server holds one set of forms for the single local user. The forms are
// rebuilt whenever a wallet session is created or dropped.
type Server struct {
	drv       Drive
	tmpl      *template.Template
	hub       *progressHub
	mux       *http.ServeMux
	maxUpload int64

	mu         sync.Mutex
	connectErr string
	upload     *drive.UploadForm
	own        *drive.FileList
	shared     *drive.FileList
	share      *drive.ShareForm
}

// NewServer parses the embedded templates and registers the routes.
func NewServer(drv Drive) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"short": blockchain.ShortAddress,
		"size":  drive.FormatSize,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{drv: drv, tmpl: tmpl, hub: newProgressHub(), mux: http.NewServeMux(), maxUpload: MaxUploadSize}
	s.reset()
	drv.Wallet().OnReload(func(reason wallet.ReloadReason) {
		zap.L().Info("Rebuilding views", zap.String("reason", string(reason)))
		s.connect(context.Background())
	})

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /share", s.handleShare)
	s.mux.HandleFunc("GET /files/shared", s.handleSharedFiles)
	s.mux.HandleFunc("POST /connect", s.handleConnect)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /share/grant", s.handleGrant)
	s.mux.HandleFunc("POST /share/revoke", s.handleRevoke)
	s.mux.Handle("GET /ws/progress", s.hub)
	s.mux.HandleFunc("/", s.handleNotFound)
	return s, nil
}

// reset discards every form and starts over with empty ones.
func (s *Server) reset() {
	upload := s.drv.NewUploadForm()
	upload.OnChange(s.hub.publish)

	s.mu.Lock()
	s.connectErr = ""
	s.upload = upload
	s.own = s.drv.NewFileList(drive.OwnFiles)
	s.shared = s.drv.NewFileList(drive.SharedFiles)
	s.share = s.drv.NewShareForm()
	s.mu.Unlock()
}

type formSet struct {
	upload *drive.UploadForm
	own    *drive.FileList
	shared *drive.FileList
	share  *drive.ShareForm
}

func (s *Server) forms() formSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return formSet{upload: s.upload, own: s.own, shared: s.shared, share: s.share}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	zap.L().Debug("request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("took", time.Since(start)))
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	zap.L().Info("Web UI listening", zap.String("addr", "http://"+addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type pageData struct {
	Title        string
	Connected    bool
	Account      string
	ConnectError string

	Upload       drive.UploadState
	Files        []model.FileEntry
	FilesMessage string

	Grants        []model.AccessGrant
	ShareMessage  string
	ShareSuccess  string
	Options       []model.FileEntry
	Selected      map[string]bool
	PickerMessage string

	SharedTarget  string
	SharedLoaded  bool
	SharedFiles   []model.FileEntry
	SharedMessage string
}

func (s *Server) basePage(title string) pageData {
	m := s.drv.Wallet()
	s.mu.Lock()
	connectErr := s.connectErr
	s.mu.Unlock()
	d := pageData{Title: title, Connected: m.Connected(), ConnectError: connectErr}
	if d.Connected {
		d.Account = m.Account().Hex()
	}
	return d
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	f := s.forms()
	if err := f.own.AutoLoad(r.Context()); err != nil {
		zap.L().Debug("own files unavailable", zap.Error(err))
	}

	d := s.basePage("My Files")
	d.Upload = f.upload.State()
	d.Files = f.own.Entries()
	d.FilesMessage = f.own.Message()
	s.render(w, http.StatusOK, "home.html", d)
}

func (s *Server) sharePage(ctx context.Context, f formSet) pageData {
	d := s.basePage("Share Access")
	if d.Connected {
		if err := f.share.Load(ctx); err != nil {
			zap.L().Debug("grants unavailable", zap.Error(err))
		}
		if err := f.share.Selection().Load(ctx); err != nil {
			zap.L().Debug("file picker unavailable", zap.Error(err))
		}
	}
	d.Grants = f.share.Grants()
	d.ShareMessage = f.share.Message()
	d.ShareSuccess = f.share.Success()

	sel := f.share.Selection()
	for _, u := range sel.Options() {
		d.Options = append(d.Options, model.FileEntry{URL: u, Label: drive.Label(u)})
	}
	d.Selected = make(map[string]bool)
	for _, u := range sel.Selected() {
		d.Selected[u] = true
	}
	d.PickerMessage = sel.Message()

	d.SharedTarget = f.shared.Target()
	d.SharedFiles = f.shared.Entries()
	d.SharedMessage = f.shared.Message()
	return d
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "share.html", s.sharePage(r.Context(), s.forms()))
}

func (s *Server) handleSharedFiles(w http.ResponseWriter, r *http.Request) {
	f := s.forms()
	f.shared.SetTarget(r.URL.Query().Get("address"))
	status := http.StatusOK
	if err := f.shared.Load(r.Context()); err != nil {
		zap.L().Debug("shared files unavailable", zap.String("target", f.shared.Target()), zap.Error(err))
		if !drive.IsNoAccess(err) {
			status = http.StatusBadRequest
		}
	}
	d := s.sharePage(r.Context(), f)
	d.SharedLoaded = true
	s.render(w, status, "share.html", d)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	s.connect(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// connect starts a new session and rebuilds every form on top of it.
func (s *Server) connect(ctx context.Context) {
	_, err := s.drv.Connect(ctx)
	s.reset()
	if err != nil {
		msg := msgConnectFailed
		if errors.Is(err, wallet.ErrNoProvider) {
			msg = msgNoWallet
		}
		s.mu.Lock()
		s.connectErr = msg
		s.mu.Unlock()
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	form := s.forms().upload
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.uploadError(w, r, http.StatusRequestEntityTooLarge, msgFileTooLarge)
			return
		}
		s.uploadError(w, r, http.StatusBadRequest, drive.UploadMessage(drive.ErrNoFile))
		return
	}
	data, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil {
		s.uploadError(w, r, http.StatusBadRequest, drive.UploadMessage(drive.ErrNoFile))
		return
	}

	if !form.Select(drive.FileFromBytes(header.Filename, data)) {
		s.uploadError(w, r, http.StatusConflict, drive.UploadMessage(drive.ErrBusy))
		return
	}
	// Mutations outlive the request: a closed tab must not abort them.
	_, err = form.Submit(context.WithoutCancel(r.Context()))

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, wallet.ErrNotConnected):
		status = http.StatusUnauthorized
	case errors.Is(err, drive.ErrBusy):
		status = http.StatusConflict
	default:
		status = http.StatusBadGateway
	}
	if wantsJSON(r) {
		writeJSON(w, status, form.State())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) uploadError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if wantsJSON(r) {
		writeJSON(w, status, drive.UploadState{Error: msg})
		return
	}
	http.Error(w, msg, status)
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	share := s.forms().share
	sel := share.Selection()
	for _, u := range r.PostForm["files"] {
		if !sel.IsSelected(u) {
			sel.Toggle(u)
		}
	}
	if err := share.Grant(context.WithoutCancel(r.Context()), r.PostForm.Get("address")); err != nil {
		zap.L().Debug("grant failed", zap.Error(err))
	}
	http.Redirect(w, r, "/share", http.StatusSeeOther)
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := s.forms().share.Revoke(context.WithoutCancel(r.Context()), r.PostForm.Get("address")); err != nil {
		zap.L().Debug("revoke failed", zap.Error(err))
	}
	http.Redirect(w, r, "/share", http.StatusSeeOther)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	d := s.basePage("Page Not Found")
	s.render(w, http.StatusNotFound, "notfound.html", d)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, d pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, d); err != nil {
		zap.L().Error("failed to render page", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to write JSON response", zap.Error(err))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the WebSocket upgrade reach the underlying connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
