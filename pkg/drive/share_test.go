package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/securecloud/drive-sdk-go/pkg/model"
	"github.com/securecloud/drive-sdk-go/pkg/wallet"
)

func TestGrantRejectsInvalidAddress(t *testing.T) {
	for _, input := range []string{"not-an-address", "", "0x123", "0xZZ9970C51812dc3A010C7d01b50e0d17dc79C8aa", "70997970C51812dc3A010C7d01b50e0d17dc79C8"} {
		chain := newFakeChain()
		f := NewShareForm(sessionFor(chain.bind(alice)))

		if err := f.Grant(context.Background(), input); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("Grant(%q): expected ErrInvalidAddress, got %v", input, err)
		}
		if err := f.Revoke(context.Background(), input); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("Revoke(%q): expected ErrInvalidAddress, got %v", input, err)
		}
		if f.Message() != MsgInvalidAddress {
			t.Fatalf("unexpected message %q", f.Message())
		}
		if chain.totalCalls() != 0 {
			t.Fatalf("%q: expected no contract calls, got %d", input, chain.totalCalls())
		}
	}
}

func TestGrantPassesAddressThrough(t *testing.T) {
	chain := newFakeChain()
	c := chain.bind(alice)
	f := NewShareForm(sessionFor(c))
	input := "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"

	if err := f.Grant(context.Background(), input); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if len(c.lastAllow) != 1 || c.lastAllow[0] != common.HexToAddress(input) {
		t.Fatalf("allow called with %v", c.lastAllow)
	}
	if chain.count("wait") != 1 {
		t.Fatal("expected the allow transaction to be awaited")
	}
	if f.Success() != "Successfully shared access with 0x3C44...93BC" {
		t.Fatalf("unexpected success %q", f.Success())
	}
	grants := f.Grants()
	if len(grants) != 1 || grants[0].Address != bob || !grants[0].Active {
		t.Fatalf("unexpected grants %+v", grants)
	}
	if f.Busy() || f.Message() != "" {
		t.Fatalf("unexpected state busy=%v msg=%q", f.Busy(), f.Message())
	}
}

func TestGrantClearsSelection(t *testing.T) {
	chain := newFakeChain()
	chain.files[alice] = []string{"https://gw/ipfs/a"}
	f := NewShareForm(sessionFor(chain.bind(alice)))
	sel := f.Selection()
	if err := sel.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sel.Toggle("https://gw/ipfs/a")

	if err := f.Grant(context.Background(), bob.Hex()); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if len(sel.Selected()) != 0 {
		t.Fatalf("selection not cleared: %v", sel.Selected())
	}
}

func TestGrantFailure(t *testing.T) {
	chain := newFakeChain()
	chain.allowErr = errors.New("user rejected transaction")
	f := NewShareForm(sessionFor(chain.bind(alice)))

	if err := f.Grant(context.Background(), bob.Hex()); err == nil {
		t.Fatal("expected error")
	}
	if f.Message() != MsgGrantFailed || f.Success() != "" {
		t.Fatalf("unexpected messages %q / %q", f.Message(), f.Success())
	}
	if chain.count("shareAccess") != 0 {
		t.Fatal("no refetch expected after a failed grant")
	}
}

func TestRevokeFailureWhileMining(t *testing.T) {
	chain := newFakeChain()
	c := chain.bind(alice)
	c.setAccess(bob, true)
	f := NewShareForm(sessionFor(c))
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	chain.waitErr = errors.New("transaction reverted")
	if err := f.Revoke(context.Background(), bob.Hex()); err == nil {
		t.Fatal("expected error")
	}
	if f.Message() != MsgRevokeFailed {
		t.Fatalf("unexpected message %q", f.Message())
	}
	if len(f.Grants()) != 1 {
		t.Fatalf("grant list must not change on failure: %+v", f.Grants())
	}
}

func TestRevokeTwice(t *testing.T) {
	chain := newFakeChain()
	c := chain.bind(alice)
	c.setAccess(bob, true)
	c.setAccess(carol, true)
	f := NewShareForm(sessionFor(c))

	for i := 0; i < 2; i++ {
		if err := f.Revoke(context.Background(), bob.Hex()); err != nil {
			t.Fatalf("Revoke #%d: %v", i+1, err)
		}
		grants := f.Grants()
		if len(grants) != 1 || grants[0].Address != carol {
			t.Fatalf("after revoke #%d: unexpected grants %+v", i+1, grants)
		}
		if f.Success() != "Access revoked for 0x3C44...93BC" {
			t.Fatalf("unexpected success %q", f.Success())
		}
	}
	if chain.count("disallow") != 2 || chain.count("shareAccess") != 2 {
		t.Fatalf("unexpected calls %v", chain.calls)
	}
}

func TestRevokeKeepsOrder(t *testing.T) {
	chain := newFakeChain()
	c := chain.bind(alice)
	dave := common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")
	for _, a := range []common.Address{bob, carol, dave} {
		c.setAccess(a, true)
	}
	f := NewShareForm(sessionFor(c))
	if err := f.Revoke(context.Background(), carol.Hex()); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	want := []model.AccessGrant{{Address: bob, Active: true}, {Address: dave, Active: true}}
	got := f.Grants()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("grants = %+v, want %+v", got, want)
	}

	// regrant reactivates the existing entry in place
	if err := f.Grant(context.Background(), carol.Hex()); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	got = f.Grants()
	if len(got) != 3 || got[1].Address != carol {
		t.Fatalf("unexpected grants after regrant %+v", got)
	}
}

func TestLoadFailureKeepsGrants(t *testing.T) {
	chain := newFakeChain()
	c := chain.bind(alice)
	c.setAccess(bob, true)
	f := NewShareForm(sessionFor(c))
	if err := f.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	chain.shareErr = errors.New("rpc unavailable")
	if err := f.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.Message() != MsgLoadGrants {
		t.Fatalf("unexpected message %q", f.Message())
	}
	if grants := f.Grants(); len(grants) != 1 || grants[0].Address != bob {
		t.Fatalf("previous grants lost: %+v", grants)
	}
}

func TestShareFormNotConnected(t *testing.T) {
	f := NewShareForm(staticSessions{err: wallet.ErrNotConnected})
	if err := f.Load(context.Background()); !errors.Is(err, wallet.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := f.Grant(context.Background(), bob.Hex()); !errors.Is(err, wallet.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if f.Message() != MsgNotConnected {
		t.Fatalf("unexpected message %q", f.Message())
	}
}

func TestFileSelection(t *testing.T) {
	chain := newFakeChain()
	chain.files[alice] = []string{"a", "b", "c"}
	s := NewFileSelection(sessionFor(chain.bind(alice)))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opts := s.Options(); len(opts) != 3 {
		t.Fatalf("unexpected options %v", opts)
	}

	s.Toggle("c")
	s.Toggle("a")
	if got := s.Toggle("b"); len(got) != 3 || got[0] != "c" || got[2] != "b" {
		t.Fatalf("unexpected selection %v", got)
	}
	if got := s.Toggle("a"); len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Fatalf("unexpected selection after unselect %v", got)
	}
	if s.IsSelected("a") || !s.IsSelected("b") {
		t.Fatal("IsSelected disagrees with Toggle")
	}

	chain.files[alice] = []string{"b"}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Selected(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("stale selection kept: %v", got)
	}

	s.Clear()
	if len(s.Selected()) != 0 {
		t.Fatal("Clear left a selection")
	}
}

func TestFileSelectionLoadFailure(t *testing.T) {
	s := NewFileSelection(staticSessions{err: wallet.ErrNotConnected})
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Message() != MsgPickerLoad || len(s.Options()) != 0 {
		t.Fatalf("unexpected state %q %v", s.Message(), s.Options())
	}
}
