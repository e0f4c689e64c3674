package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/securecloud/drive-sdk-go/internal/web"
	"github.com/securecloud/drive-sdk-go/pkg/blockchain"
	"github.com/securecloud/drive-sdk-go/pkg/drive"
	"go.uber.org/zap"
)

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *App) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func (a *App) connect(ctx context.Context, e *env, _ []string) error {
	sess, err := e.drv.Connect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Connected: %s (chain %s)\n", sess.Account.Hex(), sess.ChainID)
	bal, err := e.drv.Balance(ctx)
	if err != nil {
		zap.L().Warn("balance unavailable", zap.Error(err))
		return nil
	}
	fmt.Fprintf(a.stdout, "Balance: %s ETH\n", bal.StringFixed(4))
	return nil
}

func (a *App) upload(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: upload takes one file", errUsage)
	}
	file, err := drive.FileFromPath(args[0])
	if err != nil {
		return err
	}
	if _, err := e.drv.Connect(ctx); err != nil {
		return err
	}

	form := e.drv.NewUploadForm()
	last := -1
	form.OnChange(func(s drive.UploadState) {
		if s.Busy && s.Progress != last {
			last = s.Progress
			fmt.Fprintf(a.stdout, "\rUploading %s (%s): %3d%%", s.FileName, drive.FormatSize(s.FileSize), s.Progress)
		}
	})
	form.Select(file)
	res, err := form.Submit(ctx)
	fmt.Fprintln(a.stdout)
	if err != nil {
		fmt.Fprintln(a.stderr, drive.UploadMessage(err))
		return err
	}
	fmt.Fprintf(a.stdout, "URL: %s\nCID: %s\nTx:  %s\n", res.URL, res.CID, res.TxHash.Hex())
	return nil
}

func (a *App) list(ctx context.Context, e *env, args []string) error {
	fs := a.flags("ls")
	shared := fs.String("shared", "", "owner address whose shared files to list")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if _, err := e.drv.Connect(ctx); err != nil {
		return err
	}

	mode := drive.OwnFiles
	if *shared != "" {
		mode = drive.SharedFiles
	}
	l := e.drv.NewFileList(mode)
	l.SetTarget(*shared)
	if err := l.Load(ctx); err != nil {
		fmt.Fprintln(a.stderr, l.Message())
		return err
	}

	entries := l.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No files found")
		return nil
	}
	for _, f := range entries {
		fmt.Fprintf(a.stdout, "%-20s %s\n", f.Label, f.URL)
	}
	return nil
}

func (a *App) get(ctx context.Context, e *env, args []string) error {
	fs := a.flags("get")
	out := fs.String("o", "", "write to file instead of stdout")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: get takes one URL or CID", errUsage)
	}
	data, err := e.drv.ReadFile(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = a.stdout.Write(data)
		return err
	}
	if err := writeFile(*out, data); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Saved %s to %s\n", drive.FormatSize(int64(len(data))), *out)
	return nil
}

func (a *App) share(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: share needs list, grant or revoke", errUsage)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		if len(rest) != 0 {
			return fmt.Errorf("%w: share list takes no arguments", errUsage)
		}
	case "grant", "revoke":
		if len(rest) != 1 {
			return fmt.Errorf("%w: share %s takes one address", errUsage, sub)
		}
	default:
		return fmt.Errorf("%w: unknown share command %q", errUsage, sub)
	}

	if _, err := e.drv.Connect(ctx); err != nil {
		return err
	}
	form := e.drv.NewShareForm()

	var err error
	switch sub {
	case "list":
		err = form.Load(ctx)
	case "grant":
		err = form.Grant(ctx, rest[0])
	case "revoke":
		err = form.Revoke(ctx, rest[0])
	}
	if err != nil {
		fmt.Fprintln(a.stderr, form.Message())
		return err
	}
	if msg := form.Success(); msg != "" {
		fmt.Fprintln(a.stdout, msg)
	}

	grants := form.Grants()
	if len(grants) == 0 {
		fmt.Fprintln(a.stdout, "You have not shared access with anyone")
		return nil
	}
	for _, g := range grants {
		fmt.Fprintf(a.stdout, "%s  %s\n", blockchain.ShortAddress(g.Address.Hex()), g.Address.Hex())
	}
	return nil
}

func (a *App) health(ctx context.Context, e *env, _ []string) error {
	hc := e.drv.Healthcheck()
	var failed []error

	if n, err := hc.Chain(ctx); err != nil {
		fmt.Fprintf(a.stdout, "chain:   FAIL %v\n", err)
		failed = append(failed, err)
	} else {
		fmt.Fprintf(a.stdout, "chain:   ok (block %s)\n", n)
	}
	if err := hc.Pinning(ctx); err != nil {
		fmt.Fprintf(a.stdout, "pinning: FAIL %v\n", err)
		failed = append(failed, err)
	} else {
		fmt.Fprintln(a.stdout, "pinning: ok")
	}
	return errors.Join(failed...)
}

func (a *App) serve(ctx context.Context, e *env, args []string) error {
	fs := a.flags("serve")
	addr := fs.String("addr", e.cfg.Web.ListenAddr, "listen address")
	openUI := fs.Bool("open", false, "open the UI in the browser")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	srv, err := web.NewServer(e.drv)
	if err != nil {
		return err
	}
	if _, err := e.drv.Connect(ctx); err != nil {
		zap.L().Info("Starting without a wallet session", zap.Error(err))
	}
	go func() {
		if err := e.drv.Wallet().Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("wallet watcher stopped", zap.Error(err))
		}
	}()
	if *openUI {
		go func() {
			if err := openURL("http://" + *addr); err != nil {
				zap.L().Warn("failed to open browser", zap.Error(err))
			}
		}()
	}
	return srv.ListenAndServe(ctx, *addr)
}
