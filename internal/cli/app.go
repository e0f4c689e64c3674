// Package cli implements the securecloud command line: wallet connection,
// uploads, file listings, access sharing and the local web UI.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/pkg/browser"
	"github.com/securecloud/drive-sdk-go/pkg/config"
	"github.com/securecloud/drive-sdk-go/pkg/sdk"
	"go.uber.org/zap"
)

// Test seams.
var (
	openURL        = browser.OpenURL
	writeClipboard = clipboard.WriteAll
	newDrive       = func(cfg *config.Config) (sdk.DriveSDK, error) { return sdk.New(cfg) }
)

// errUsage marks a command line the user has to fix.
var errUsage = errors.New("usage error")

const usage = `Usage: securecloud [-config file] [-env file] [-debug] <command> [args]

Commands:
  connect                     connect the wallet and show the account
  upload <file>               pin a file and record it on the contract
  ls [-shared <address>]      list your files, or files shared by address
  get [-o file] <url|cid>     download pinned content
  share list                  list addresses with access to your files
  share grant <address>       give address read access
  share revoke <address>      remove read access
  open <url>                  open a file in the browser
  copy <url>                  copy a file link to the clipboard
  health                      check the chain endpoint and the pinning service
  serve [-addr host:port]     run the web UI
`

// App runs one command line.
type App struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	envFile    string
	debug      bool
}

// NewApp returns an app writing to stdout and stderr.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{stdout: stdout, stderr: stderr}
}

// Run parses args (without the program name) and runs the command. It returns
// the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("securecloud", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() { fmt.Fprint(a.stderr, usage) }
	fs.StringVar(&a.configPath, "config", "", "YAML or JSON config file")
	fs.StringVar(&a.envFile, "env", ".env", "dotenv file with credentials")
	fs.BoolVar(&a.debug, "debug", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	err := a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(a.stderr, "%v\n\n%s", err, usage)
		return 2
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return 1
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "open":
		return a.open(args)
	case "copy":
		return a.copy(args)
	case "help", "-h", "--help":
		fmt.Fprint(a.stdout, usage)
		return nil
	}

	handlers := map[string]func(context.Context, *env, []string) error{
		"connect": a.connect,
		"upload":  a.upload,
		"ls":      a.list,
		"get":     a.get,
		"share":   a.share,
		"health":  a.health,
		"serve":   a.serve,
	}
	h, ok := handlers[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	e, err := a.load()
	if err != nil {
		return err
	}
	defer e.drv.Close()
	return h(ctx, e, args)
}

// env is what a command runs against.
type env struct {
	drv sdk.DriveSDK
	cfg *config.Config
}

// load reads the configuration and builds the SDK.
func (a *App) load() (*env, error) {
	cfg := &config.Config{}
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(a.envFile); err != nil {
		return nil, err
	}
	if a.debug {
		cfg.Debug = true
	}
	drv, err := newDrive(cfg)
	if err != nil {
		return nil, err
	}
	return &env{drv: drv, cfg: cfg}, nil
}

func (a *App) open(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: open takes one URL", errUsage)
	}
	if !isWebURL(args[0]) {
		return fmt.Errorf("%w: %q is not an http(s) URL", errUsage, args[0])
	}
	if err := openURL(args[0]); err != nil {
		zap.L().Error("failed to open browser", zap.String("url", args[0]), zap.Error(err))
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	return nil
}

func (a *App) copy(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: copy takes one URL", errUsage)
	}
	if err := writeClipboard(args[0]); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Fprintln(a.stdout, "Link copied to clipboard")
	return nil
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
