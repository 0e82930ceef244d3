package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fiattoken/cmd/internal/passphrase"
	"fiattoken/config"
	"fiattoken/core"
	"fiattoken/core/events"
	"fiattoken/crypto"
	"fiattoken/integrations/addressbook"
	"fiattoken/integrations/audit"
	"fiattoken/integrations/webhooks"
	"fiattoken/observability"
	"fiattoken/observability/logging"
	"fiattoken/observability/metrics"
	ftotel "fiattoken/observability/otel"
	"fiattoken/storage"
)

const (
	programName   = "fiattokenctl"
	defaultConfig = "./fiattoken.toml"
)

// app carries the resources shared by every subcommand. Resources are opened
// lazily and released by close.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	logger   *slog.Logger
	closers  []func() error
	db       storage.Database
	runtime  *core.Runtime
	audit    *audit.Store
	book     *addressbook.Store
	webhook  *webhooks.Dispatcher
	secrets  *passphrase.Source
	now      func() time.Time
	setupRun bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and releases every resource it opened, even
// when the command fails.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp()
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil {
		fmt.Fprintln(stderr, "close:", cerr)
	}
	if err != nil {
		return 1
	}
	return 0
}

func newApp() *app {
	return &app{now: func() time.Time { return time.Now().UTC() }}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Operate the fiat token governance ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfig, "path to the TOML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		initCommand(a),
		callCommand(a),
		viewCommand(a),
		requestCommand(a),
		methodsCommand(),
		headCommand(a),
		keysCommand(a),
		aliasCommand(a),
		auditCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.setupRun {
		return nil
	}
	a.setupRun = true
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level := cfg.Logging.Level
	if strings.TrimSpace(a.logLevel) != "" {
		level = a.logLevel
	}
	logFile := cfg.Logging.File
	if logFile != "" {
		logFile = config.ResolvePath(a.configPath, logFile)
	}
	logger, closer, err := logging.Setup(logging.Options{
		Service:    programName,
		Env:        cfg.Logging.Env,
		Level:      level,
		Output:     cmd.ErrOrStderr(),
		File:       logFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer.Close)

	if cfg.Telemetry.Metrics || cfg.Telemetry.Traces {
		shutdown, err := ftotel.Init(cmd.Context(), ftotel.Config{
			ServiceName: programName,
			Environment: cfg.Logging.Env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     ftotel.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(ctx)
		})
	}
	a.secrets = passphrase.NewSource(cfg.Keystore.PassphraseEnv)
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) dataDir() string {
	return config.ResolvePath(a.configPath, a.cfg.DataDir)
}

// ledger opens the state database and the runtime with every configured
// event sink attached.
func (a *app) ledger() (*core.Runtime, error) {
	if a.runtime != nil {
		return a.runtime, nil
	}
	dir := filepath.Join(a.dataDir(), "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := storage.NewLevelDB(dir, storage.LevelDBOptions{
		CacheMB: a.cfg.Storage.CacheMB,
		Handles: a.cfg.Storage.Handles,
	})
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() error { db.Close(); return nil })

	sinks := []events.Emitter{events.LogEmitter{Logger: a.logger}, observability.Events()}
	if url := strings.TrimSpace(a.cfg.Webhook.URL); url != "" {
		secret := os.Getenv(a.cfg.Webhook.SecretEnv)
		dispatcher, err := webhooks.NewDispatcher(url, []byte(secret),
			webhooks.WithLogger(a.logger),
			webhooks.WithRetryPolicy(a.cfg.Webhook.MaxAttempts, 0, 0),
			webhooks.WithRateLimit(a.cfg.Webhook.RatePerSecond, a.cfg.Webhook.Burst))
		if err != nil {
			return nil, fmt.Errorf("webhook (secret from %s): %w", a.cfg.Webhook.SecretEnv, err)
		}
		a.logger.Info("webhook delivery enabled",
			logging.MaskURL("webhook_url", url),
			slog.String("secret_env", a.cfg.Webhook.SecretEnv))
		a.webhook = dispatcher
		a.closers = append(a.closers, func() error { dispatcher.Close(); return nil })
		sinks = append(sinks, dispatcher)
	}

	rt, err := core.Open(db, core.Options{
		Logger:  a.logger,
		Sink:    events.Multi(sinks...),
		Now:     a.now,
		Metrics: metrics.Governance(),
	})
	if err != nil {
		return nil, err
	}
	a.runtime = rt
	return rt, nil
}

func (a *app) auditStore() (*audit.Store, error) {
	if a.audit != nil {
		return a.audit, nil
	}
	dsn := strings.TrimSpace(a.cfg.Audit.DSN)
	if dsn == "" {
		return nil, nil
	}
	store, err := audit.Open(dsn)
	if err != nil {
		return nil, err
	}
	a.logger.Info("audit store opened", logging.MaskURL("dsn", dsn))
	a.audit = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *app) addressBook() (*addressbook.Store, error) {
	if a.book != nil {
		return a.book, nil
	}
	path := config.ResolvePath(a.configPath, a.cfg.AddressBook)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	book, err := addressbook.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open address book: %w", err)
	}
	a.book = book
	a.closers = append(a.closers, book.Close)
	return book, nil
}

// resolveAccount accepts an account or an alias from the address book.
func (a *app) resolveAccount(value string) ([20]byte, error) {
	if account, err := crypto.ParseAccount(value); err == nil {
		return account, nil
	}
	book, err := a.addressBook()
	if err != nil {
		return [20]byte{}, err
	}
	account, err := book.Resolve(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("resolve %q: %w", value, err)
	}
	return account, nil
}

func (a *app) keystorePath(name string) string {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return filepath.Join(a.cfg.Keystore.Dir, name)
}

// signer resolves the calling account from --key or --from.
func (a *app) signer(keyName, from string) (string, error) {
	switch {
	case keyName != "" && from != "":
		return "", errors.New("use either --key or --from, not both")
	case keyName != "":
		secret, err := a.secrets.Get()
		if err != nil {
			return "", err
		}
		key, err := crypto.LoadFromKeystore(a.keystorePath(keyName), secret)
		if err != nil {
			return "", fmt.Errorf("load key %s: %w", keyName, err)
		}
		return key.PubKey().Address().String(), nil
	case from != "":
		account, err := a.resolveAccount(from)
		if err != nil {
			return "", err
		}
		return crypto.AccountString(account), nil
	default:
		return "", errors.New("caller required: pass --key or --from")
	}
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
