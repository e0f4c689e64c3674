package drive

import (
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/securecloud/drive-sdk-go/pkg/wallet"
)

// RampProgress reports a synthetic progress ramp: 10 at once, then +10 every
// tick up to 90. It does not track the transfer. The returned stop function
// ends the ramp; after it returns no further values are reported. It is safe
// to call more than once.
func RampProgress(tick time.Duration, progress ProgressFunc) (stop func()) {
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	done := make(chan struct{})
	exited := make(chan struct{})

	progress(rampStart)
	go func() {
		defer close(exited)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		p := rampStart
		for p < progressPinCap {
			select {
			case <-done:
				return
			case <-ticker.C:
				p += rampStep
				if p > progressPinCap {
					p = progressPinCap
				}
				progress(p)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}

// UploadMessage turns an upload error into the short text shown to the user.
func UploadMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, wallet.ErrNotConnected):
		return MsgNotConnected
	case errors.Is(err, ErrNoFile):
		return "Please select a file"
	case errors.Is(err, ErrBusy):
		return "An upload is already in progress"
	default:
		return MsgUploadFailed
	}
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with a binary unit and at most two
// decimals, e.g. "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
