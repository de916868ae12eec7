package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/config"
	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/client/repositories/sessions"
)

// ClientFactory connects to the account service at addr.
type ClientFactory func(addr string) (client.Client, error)

// SessionOpener opens the local session store at path.
type SessionOpener func(ctx context.Context, path string) (sessions.Repository, io.Closer, error)

// App carries the state shared by the CLI commands of one invocation.
type App struct {
	cfg      *config.Config
	in       *bufio.Reader
	out      io.Writer
	environ  map[string]string
	now      func() time.Time
	dial     ClientFactory
	openRepo SessionOpener

	client   client.Client
	sessions sessions.Repository
	closers  []io.Closer

	// flag values
	configPath string
	addr       string
	timeout    time.Duration
	sessionDB  string
	token      string
}

type Option func(*App)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

// WithClientFactory replaces the gRPC connection factory.
func WithClientFactory(f ClientFactory) Option {
	return func(a *App) { a.dial = f }
}

// WithSessionOpener replaces the SQLite session store.
func WithSessionOpener(f SessionOpener) Option {
	return func(a *App) { a.openRepo = f }
}

// WithEnvironment replaces the process environment used for configuration.
func WithEnvironment(environ map[string]string) Option {
	return func(a *App) { a.environ = environ }
}

func newApp(opts ...Option) *App {
	a := &App{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		now: time.Now,
		dial: func(addr string) (client.Client, error) {
			return client.NewAccountsClient(addr)
		},
		openRepo: openSQLiteSessions,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func openSQLiteSessions(ctx context.Context, path string) (sessions.Repository, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create session dir: %w", err)
	}
	repos, err := client.InitDatabase(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session db: %w", err)
	}
	return repos.Sessions, repos, nil
}

// setup resolves the configuration and opens the client. Flag values passed
// explicitly win over the file and the environment.
func (a *App) setup(ctx context.Context, changed func(string) bool) error {
	cfg, err := config.LoadConfig(a.configPath, a.environ)
	if err != nil {
		return err
	}
	if changed("addr") {
		cfg.ServerEndpointAddr = a.addr
	}
	if changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if changed("session-db") {
		cfg.SessionDBPath = a.sessionDB
	}
	a.cfg = cfg

	if cfg.SessionDBPath != "" {
		repo, closer, err := a.openRepo(ctx, cfg.SessionDBPath)
		if err != nil {
			return err
		}
		a.sessions = repo
		a.closers = append(a.closers, closer)
	}

	c, err := a.dial(cfg.ServerEndpointAddr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.ServerEndpointAddr, err)
	}
	a.client = c
	a.closers = append(a.closers, c)

	token := a.token
	if token == "" && a.sessions != nil {
		s, err := a.sessions.Get(ctx, cfg.ServerEndpointAddr)
		if err != nil {
			return err
		}
		if s != nil {
			token = s.Token
		}
	}
	c.SetToken(token)
	return nil
}

func (a *App) teardown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg == nil || a.cfg.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.RequestTimeout)
}

// remember stores token as the session for the current server. An empty
// account keeps the one already stored.
func (a *App) remember(ctx context.Context, account, token string) error {
	if a.sessions == nil {
		return nil
	}
	if account == "" {
		prev, err := a.sessions.Get(ctx, a.cfg.ServerEndpointAddr)
		if err != nil {
			return err
		}
		if prev != nil {
			account = prev.Account
		}
	}
	return a.sessions.Save(ctx, &models.Session{
		Server:  a.cfg.ServerEndpointAddr,
		Account: account,
		Token:   token,
		SavedAt: a.now(),
	})
}

func (a *App) forget(ctx context.Context) error {
	if a.sessions == nil {
		return nil
	}
	return a.sessions.Delete(ctx, a.cfg.ServerEndpointAddr)
}
