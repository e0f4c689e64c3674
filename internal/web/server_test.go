package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"
	"github.com/securecloud/drive-sdk-go/pkg/drive"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/storage"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
)

const (
	ownerKey    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	aliceKey    = "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	testGateway = "https://gateway.pinata.cloud/ipfs/"
	testCID     = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
)

var (
	owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

// memChain is an in-memory Upload contract.
type memChain struct {
	mu     sync.Mutex
	files  map[common.Address][]string
	grants map[common.Address][]model.AccessGrant
	calls  int
}

func newMemChain() *memChain {
	return &memChain{files: make(map[common.Address][]string), grants: make(map[common.Address][]model.AccessGrant)}
}

type memContract struct {
	chain *memChain
	from  common.Address
}

func (c *memContract) Add(_ context.Context, owner common.Address, url string) (*types.Transaction, error) {
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	c.chain.calls++
	c.chain.files[owner] = append(c.chain.files[owner], url)
	return types.NewTx(&types.LegacyTx{}), nil
}

func (c *memContract) Display(_ context.Context, user common.Address) ([]string, error) {
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	c.chain.calls++
	if user != c.from {
		ok := false
		for _, g := range c.chain.grants[user] {
			ok = ok || (g.Address == c.from && g.Active)
		}
		if !ok {
			return nil, errors.New("execution reverted: You don't have access")
		}
	}
	return append([]string(nil), c.chain.files[user]...), nil
}

func (c *memContract) set(user common.Address, active bool) (*types.Transaction, error) {
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	c.chain.calls++
	list := c.chain.grants[c.from]
	for i := range list {
		if list[i].Address == user {
			list[i].Active = active
			return types.NewTx(&types.LegacyTx{}), nil
		}
	}
	if active {
		c.chain.grants[c.from] = append(list, model.AccessGrant{Address: user, Active: true})
	}
	return types.NewTx(&types.LegacyTx{}), nil
}

func (c *memContract) Allow(_ context.Context, user common.Address) (*types.Transaction, error) {
	return c.set(user, true)
}

func (c *memContract) Disallow(_ context.Context, user common.Address) (*types.Transaction, error) {
	return c.set(user, false)
}

func (c *memContract) ShareAccess(context.Context) ([]model.AccessGrant, error) {
	c.chain.mu.Lock()
	defer c.chain.mu.Unlock()
	c.chain.calls++
	return append([]model.AccessGrant(nil), c.chain.grants[c.from]...), nil
}

func (c *memContract) WaitMined(ctx context.Context, _ *types.Transaction) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)}, nil
}

type pinFunc func(ctx context.Context, name string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error)

func (f pinFunc) Pin(ctx context.Context, name string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error) {
	return f(ctx, name, r, size, onProgress)
}

func okPinner(_ context.Context, _ string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(n, size)
	}
	return &model.PinResult{IpfsHash: testCID, PinSize: n}, nil
}

// testDrive wires real forms and a real session manager to memChain.
type testDrive struct {
	chain    *memChain
	manager  *wallet.Manager
	uploader *drive.Uploader
}

func newTestDrive(t *testing.T, withWallet bool, pin pinFunc) *testDrive {
	t.Helper()
	var provider wallet.Provider
	if withWallet {
		provider = keyProvider(t, ownerKey)
	}
	return newTestDriveWith(provider, time.Hour, pin)
}

func newTestDriveWith(provider wallet.Provider, poll time.Duration, pin pinFunc) *testDrive {
	chain := newMemChain()
	m := wallet.NewManager(provider, func(s *bind.TransactOpts) wallet.Contract {
		return &memContract{chain: chain, from: s.From}
	}, poll)
	return &testDrive{chain: chain, manager: m, uploader: drive.NewUploader(pin, testGateway)}
}

func keyProvider(t *testing.T, key string) *wallet.KeyProvider {
	t.Helper()
	p, err := wallet.NewKeyProvider(key, wallet.FixedChainID(31337))
	if err != nil {
		t.Fatalf("NewKeyProvider: %v", err)
	}
	return p
}

// switchingProvider delegates to one of several key wallets; use switches
// the active one, like picking another account in a browser wallet.
type switchingProvider struct {
	mu      sync.Mutex
	wallets []*wallet.KeyProvider
	active  int
}

func (p *switchingProvider) current() *wallet.KeyProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wallets[p.active]
}

func (p *switchingProvider) use(i int) {
	p.mu.Lock()
	p.active = i
	p.mu.Unlock()
}

func (p *switchingProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return p.current().RequestAccounts(ctx)
}

func (p *switchingProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return p.current().Accounts(ctx)
}

func (p *switchingProvider) ChainID(ctx context.Context) (*big.Int, error) {
	return p.current().ChainID(ctx)
}

func (p *switchingProvider) Signer(ctx context.Context, account common.Address) (*bind.TransactOpts, error) {
	return p.current().Signer(ctx, account)
}

func (d *testDrive) Connect(ctx context.Context) (*wallet.Session, error) { return d.manager.Connect(ctx) }
func (d *testDrive) Wallet() *wallet.Manager                             { return d.manager }
func (d *testDrive) NewUploadForm() *drive.UploadForm {
	return drive.NewUploadForm(d.uploader, d.manager)
}
func (d *testDrive) NewFileList(mode drive.Mode) *drive.FileList {
	return drive.NewFileList(mode, d.manager, nil)
}
func (d *testDrive) NewShareForm() *drive.ShareForm { return drive.NewShareForm(d.manager) }

func newTestServer(t *testing.T, d *testDrive) *Server {
	t.Helper()
	s, err := NewServer(d)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	return do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, h, req)
}

func uploadRequest(t *testing.T, target, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()
	req, err := http.NewRequest(http.MethodPost, target, &body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req
}

func connect(t *testing.T, s *Server) {
	t.Helper()
	if rec := postForm(t, s, "/connect", nil); rec.Code != http.StatusSeeOther {
		t.Fatalf("connect status %d", rec.Code)
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, true, okPinner))
	rec := get(t, s, "/does/not/exist")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Page not found.") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHomeDisconnected(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	s := newTestServer(t, d)
	rec := get(t, s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Connect Wallet") {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
	if d.chain.calls != 0 {
		t.Fatal("no contract call expected without a session")
	}
}

func TestConnectWithoutWallet(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, false, okPinner))
	connect(t, s)
	body := get(t, s, "/").Body.String()
	if !strings.Contains(body, msgNoWallet) || !strings.Contains(body, "Connect Wallet") {
		t.Fatalf("expected no-wallet banner, got %s", body)
	}
}

func TestConnectListsOwnFiles(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	d.chain.files[owner] = []string{testGateway + testCID}
	s := newTestServer(t, d)
	connect(t, s)

	body := get(t, s, "/").Body.String()
	if !strings.Contains(body, "0xf39F...2266") {
		t.Fatalf("account not shown: %s", body)
	}
	if !strings.Contains(body, "QmYwAPJzv5CZsnA...") {
		t.Fatalf("file label not shown: %s", body)
	}
}

func TestUpload(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	s := newTestServer(t, d)
	connect(t, s)

	rec := do(t, s, uploadRequest(t, "/upload", "notes.txt", []byte("hello")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var state drive.UploadState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Progress != drive.ProgressDone || state.URL != testGateway+testCID || state.Busy {
		t.Fatalf("unexpected state %+v", state)
	}
	if got := d.chain.files[owner]; len(got) != 1 || got[0] != testGateway+testCID {
		t.Fatalf("contract holds %v", got)
	}
}

func TestUploadSurvivesClosedTab(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	d := newTestDrive(t, true, func(ctx context.Context, name string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*model.PinResult, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return okPinner(ctx, name, r, size, onProgress)
	})
	s := newTestServer(t, d)
	connect(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	req := uploadRequest(t, "/upload", "notes.txt", []byte("hello")).WithContext(ctx)
	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- do(t, s, req) }()

	<-started
	cancel()
	close(release)

	var rec *httptest.ResponseRecorder
	select {
	case rec = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("upload did not finish")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	d.chain.mu.Lock()
	defer d.chain.mu.Unlock()
	if got := d.chain.files[owner]; len(got) != 1 {
		t.Fatalf("upload aborted by the client, contract holds %v", got)
	}
}

func TestGrantSurvivesClosedTab(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	s := newTestServer(t, d)
	connect(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	form := url.Values{"address": {bob.Hex()}}
	req := httptest.NewRequest(http.MethodPost, "/share/grant", strings.NewReader(form.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	do(t, s, req)

	body := get(t, s, "/share").Body.String()
	if strings.Contains(body, drive.MsgGrantFailed) || !strings.Contains(body, "Successfully shared access with 0x3C44...93BC") {
		t.Fatalf("grant reported as failed: %s", body)
	}
}

func TestAccountChangeReconnects(t *testing.T) {
	provider := &switchingProvider{wallets: []*wallet.KeyProvider{keyProvider(t, ownerKey), keyProvider(t, aliceKey)}}
	d := newTestDriveWith(provider, 10*time.Millisecond, okPinner)
	d.chain.files[alice] = []string{"https://gw/ipfs/alices-file"}
	s := newTestServer(t, d)
	connect(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.manager.Watch(ctx) }()

	provider.use(1)
	deadline := time.Now().Add(2 * time.Second)
	for {
		body := get(t, s, "/").Body.String()
		if strings.Contains(body, "0x7099...79C8") && strings.Contains(body, "alices-file") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("views not rebuilt for the new account %s: %s", d.manager.Account().Hex(), body)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUploadPinFailure(t *testing.T) {
	d := newTestDrive(t, true, func(context.Context, string, io.Reader, int64, storage.ProgressFunc) (*model.PinResult, error) {
		return nil, &storage.PinError{Status: 401}
	})
	s := newTestServer(t, d)
	connect(t, s)
	calls := d.chain.calls

	rec := do(t, s, uploadRequest(t, "/upload", "notes.txt", []byte("hello")))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	var state drive.UploadState
	_ = json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Error != drive.MsgUploadFailed || state.Progress != 0 || state.FileName != "notes.txt" {
		t.Fatalf("unexpected state %+v", state)
	}
	if d.chain.calls != calls {
		t.Fatal("no contract call expected after a pin failure")
	}
}

func TestUploadNotConnected(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, true, okPinner))
	rec := do(t, s, uploadRequest(t, "/upload", "a.txt", []byte("a")))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, true, okPinner))
	s.maxUpload = 512
	connect(t, s)
	rec := do(t, s, uploadRequest(t, "/upload", "big.bin", bytes.Repeat([]byte("x"), 4096)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, true, okPinner))
	connect(t, s)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	if rec := do(t, s, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestGrantInvalidAddress(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	s := newTestServer(t, d)
	connect(t, s)
	calls := d.chain.calls

	rec := postForm(t, s, "/share/grant", url.Values{"address": {"not-an-address"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	if d.chain.calls != calls {
		t.Fatal("invalid input must not reach the contract")
	}
	if body := get(t, s, "/share").Body.String(); !strings.Contains(body, drive.MsgInvalidAddress) {
		t.Fatalf("message not shown: %s", body)
	}
}

func TestGrantAndRevoke(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	d.chain.files[owner] = []string{"https://gw/ipfs/a"}
	s := newTestServer(t, d)
	connect(t, s)

	postForm(t, s, "/share/grant", url.Values{"address": {bob.Hex()}, "files": {"https://gw/ipfs/a"}})
	body := get(t, s, "/share").Body.String()
	if !strings.Contains(body, "Successfully shared access with 0x3C44...93BC") {
		t.Fatalf("success not shown: %s", body)
	}
	if !strings.Contains(body, `value="`+bob.Hex()+`"`) {
		t.Fatalf("grant not listed: %s", body)
	}
	if strings.Contains(body, "checked") {
		t.Fatal("selection must be cleared after a grant")
	}

	postForm(t, s, "/share/revoke", url.Values{"address": {bob.Hex()}})
	body = get(t, s, "/share").Body.String()
	if !strings.Contains(body, "Access revoked for 0x3C44...93BC") {
		t.Fatalf("revoke message not shown: %s", body)
	}
	if strings.Contains(body, `value="`+bob.Hex()+`"`) {
		t.Fatalf("revoked grant still listed: %s", body)
	}
}

func TestSharedFiles(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	d.chain.files[bob] = []string{"https://gw/ipfs/from-bob"}
	s := newTestServer(t, d)
	connect(t, s)

	rec := get(t, s, "/files/shared?address="+bob.Hex())
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), drive.MsgNoAccess) {
		t.Fatalf("expected denial message, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "from-bob") {
		t.Fatal("denied listing must be empty")
	}

	(&memContract{chain: d.chain, from: bob}).set(owner, true)
	rec = get(t, s, "/files/shared?address="+bob.Hex())
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "from-bob") {
		t.Fatalf("expected shared file, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSharedFilesWithoutTarget(t *testing.T) {
	s := newTestServer(t, newTestDrive(t, true, okPinner))
	connect(t, s)
	rec := get(t, s, "/files/shared?address=")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), drive.MsgNoTarget) {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProgressWebSocket(t *testing.T) {
	d := newTestDrive(t, true, okPinner)
	s := newTestServer(t, d)
	connect(t, s)
	srv := startHTTPServer(t, s)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/progress", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.clientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.DefaultClient.Do(uploadRequest(t, srv.URL+"/upload", "a.txt", []byte("hello")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	_ = resp.Body.Close()

	var seen []int
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var state drive.UploadState
		if err := conn.ReadJSON(&state); err != nil {
			t.Fatalf("read after %v: %v", seen, err)
		}
		seen = append(seen, state.Progress)
		if state.Progress == drive.ProgressDone && !state.Busy {
			break
		}
	}
	if len(seen) < 3 {
		t.Fatalf("expected intermediate progress, got %v", seen)
	}
}

func startHTTPServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			if strings.Contains(msg, "operation not permitted") {
				t.Skip("network operations not permitted in sandbox")
			}
			panic(r)
		}
	}()
	return httptest.NewServer(handler)
}
