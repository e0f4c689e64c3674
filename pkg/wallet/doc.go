// Package wallet connects a signing wallet and keeps the resulting session.
//
// A Provider is the wallet itself. Two are included:
//
//   - KeyProvider holds one raw private key.
//   - KeystoreProvider opens a go-ethereum keystore directory and unlocks the
//     selected account with a passphrase read from the terminal.
//
// Manager turns a Provider into a Session:
//
//	m := wallet.NewManager(provider, func(s *bind.TransactOpts) wallet.Contract {
//		return evm.Bind(s)
//	}, cfg.Timeouts.WalletPoll)
//
//	sess, err := m.Connect(ctx)
//	switch {
//	case errors.Is(err, wallet.ErrNoProvider):
//		// nothing to connect to; a warning was logged
//	case errors.Is(err, wallet.ErrConnect):
//		// refused or failed; the manager stays disconnected
//	}
//
// A Session is built on connect and dropped on disconnect. Watch polls the
// provider and drops the session when the account or the chain changes,
// then runs the OnReload handlers so that views holding the old session can
// be rebuilt from scratch.
package wallet
