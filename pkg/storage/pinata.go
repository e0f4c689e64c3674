package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"go.uber.org/zap"
)

const (
	pinFilePath  = "/pinning/pinFileToIPFS"
	testAuthPath = "/data/testAuthentication"
)

// maxErrorBody caps how much of an error response is kept in PinError.
const maxErrorBody = 4 << 10

// PinError is returned when the pinning service rejects an upload.
type PinError struct {
	Status int
	Body   string
}

func (e *PinError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pinning service returned status %d", e.Status)
	}
	return fmt.Sprintf("pinning service returned status %d: %s", e.Status, e.Body)
}

// PinataCredentials authenticate against the Pinata API. JWT takes precedence
// over the key/secret pair.
type PinataCredentials struct {
	APIKey    string
	APISecret string
	JWT       string
}

// PinataPinner pins files through the Pinata pinFileToIPFS endpoint.
type PinataPinner struct {
	apiURL  string
	creds   PinataCredentials
	client  *http.Client
	timeout time.Duration
}

// NewPinataPinner returns a pinner for the Pinata API rooted at apiURL
// (e.g. "https://api.pinata.cloud"). timeout bounds a whole upload; zero
// means only ctx bounds it.
func NewPinataPinner(apiURL string, creds PinataCredentials, timeout time.Duration) *PinataPinner {
	return &PinataPinner{
		apiURL:  strings.TrimSuffix(apiURL, "/"),
		creds:   creds,
		client:  &http.Client{},
		timeout: timeout,
	}
}

// Pin streams r as a multipart form to Pinata and returns the pin result.
// The body is produced while it is sent, so onProgress reflects bytes
// actually handed to the connection.
func (p *PinataPinner) Pin(ctx context.Context, name string, r io.Reader, size int64, onProgress ProgressFunc) (*model.PinResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writePinForm(mw, name, newCountingReader(r, size, onProgress)))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+pinFilePath, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	p.authorize(req)

	zap.L().Debug("Pinning file", zap.String("name", name), zap.Int64("size", size))
	resp, err := p.client.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		zap.L().Error("Pin request failed", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("pin %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		perr := &PinError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		zap.L().Error("Pinning service rejected upload", zap.String("name", name), zap.Int("status", perr.Status), zap.String("body", perr.Body))
		return nil, perr
	}

	var res model.PinResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		zap.L().Error("Failed to decode pin response", zap.Error(err))
		return nil, fmt.Errorf("decode pin response: %w", err)
	}
	if _, err := cid.Decode(res.IpfsHash); err != nil {
		zap.L().Error("Pinning service returned an invalid CID", zap.String("IpfsHash", res.IpfsHash), zap.Error(err))
		return nil, fmt.Errorf("invalid CID %q in pin response: %w", res.IpfsHash, err)
	}
	zap.L().Info("File pinned", zap.String("name", name), zap.String("cid", res.IpfsHash), zap.Int64("pinSize", res.PinSize))
	return &res, nil
}

// Ping checks that the credentials are accepted by the pinning service.
func (p *PinataPinner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+testAuthPath, nil)
	if err != nil {
		return err
	}
	p.authorize(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinning service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &PinError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

func (p *PinataPinner) authorize(req *http.Request) {
	if p.creds.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+p.creds.JWT)
		return
	}
	req.Header.Set("pinata_api_key", p.creds.APIKey)
	req.Header.Set("pinata_secret_api_key", p.creds.APISecret)
}

func writePinForm(mw *multipart.Writer, name string, r io.Reader) error {
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	meta, err := json.Marshal(model.PinMetadata{Name: name})
	if err != nil {
		return err
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return err
	}
	return mw.Close()
}

// countingReader reports read progress to a ProgressFunc.
type countingReader struct {
	r          io.Reader
	total      int64
	sent       int64
	onProgress ProgressFunc
}

func newCountingReader(r io.Reader, total int64, onProgress ProgressFunc) io.Reader {
	if onProgress == nil {
		return r
	}
	return &countingReader{r: r, total: total, onProgress: onProgress}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.onProgress(c.sent, c.total)
	}
	return n, err
}
