package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fiattoken/config"
	"fiattoken/core"
	"fiattoken/crypto"
	"fiattoken/integrations/audit"
)

const journalTTL = 24 * time.Hour

type argFlags struct {
	strings []string
	raw     []string
}

func (f *argFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.strings, "arg", nil, "string argument as key=value; *_id, to and from accept aliases")
	cmd.Flags().StringArrayVar(&f.raw, "arg-json", nil, "raw JSON argument as key=value")
}

// build merges the optional positional JSON object with --arg and --arg-json
// pairs.
func (f *argFlags) build(a *app, positional []string) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(positional) > 0 && strings.TrimSpace(positional[0]) != "" {
		if err := json.Unmarshal([]byte(positional[0]), &fields); err != nil {
			return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	for _, pair := range f.strings {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--arg %q must be key=value", pair)
		}
		if accountField(key) {
			account, err := a.resolveAccount(value)
			if err != nil {
				return nil, err
			}
			value = crypto.AccountString(account)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = encoded
	}
	for _, pair := range f.raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--arg-json %q must be key=value", pair)
		}
		if !json.Valid([]byte(value)) {
			return nil, fmt.Errorf("--arg-json %s: invalid JSON", key)
		}
		fields[key] = json.RawMessage(value)
	}
	return json.Marshal(fields)
}

func accountField(key string) bool {
	return strings.HasSuffix(key, "_id") || key == "to" || key == "from"
}

type signerFlags struct {
	key  string
	from string
}

func (f *signerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.key, "key", "", "keystore name or path identifying the caller")
	cmd.Flags().StringVar(&f.from, "from", "", "caller account or alias")
}

func initCommand(a *app) *cobra.Command {
	var genesisPath string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the ledger from the genesis document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := genesisPath
			if path == "" {
				path = config.ResolvePath(a.configPath, a.cfg.GenesisFile)
			}
			genesis, err := config.LoadGenesis(path)
			if err != nil {
				return err
			}
			policy, err := a.cfg.Multisig.Policy()
			if err != nil {
				return err
			}
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			receipt, err := rt.Init(cmd.Context(), genesis, policy)
			if err != nil {
				return err
			}
			a.recordAudit(cmd, receipt, "")
			return printJSON(cmd.OutOrStdout(), receipt)
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "genesis YAML (defaults to GenesisFile from the config)")
	return cmd
}

func callCommand(a *app) *cobra.Command {
	var (
		args        argFlags
		signer      signerFlags
		idempotency string
	)
	cmd := &cobra.Command{
		Use:   "call <method> [json-args]",
		Short: "Execute a state-changing method",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			caller, err := a.signer(signer.key, signer.from)
			if err != nil {
				return err
			}
			raw, err := args.build(a, positional[1:])
			if err != nil {
				return err
			}
			return a.execute(cmd, core.Call{Method: positional[0], Caller: caller, Args: raw}, idempotency)
		},
	}
	args.register(cmd)
	signer.register(cmd)
	cmd.Flags().StringVar(&idempotency, "idempotency-key", "", "replay the stored receipt when this key was already used")
	return cmd
}

func viewCommand(a *app) *cobra.Command {
	var args argFlags
	cmd := &cobra.Command{
		Use:   "view <method> [json-args]",
		Short: "Run a read-only method",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			raw, err := args.build(a, positional[1:])
			if err != nil {
				return err
			}
			return a.view(cmd, core.Call{Method: positional[0], Args: raw})
		},
	}
	args.register(cmd)
	return cmd
}

func requestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Create, approve, execute and inspect multisig requests",
	}

	var createSigner signerFlags
	create := &cobra.Command{
		Use:   "create <action-json>",
		Short: "Propose a privileged action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			caller, err := a.signer(createSigner.key, createSigner.from)
			if err != nil {
				return err
			}
			if !json.Valid([]byte(positional[0])) {
				return fmt.Errorf("action must be JSON, e.g. '\"Pause\"' or '{\"RemoveMinter\":{\"controller_id\":\"...\"}}'")
			}
			raw, err := json.Marshal(map[string]json.RawMessage{"action": json.RawMessage(positional[0])})
			if err != nil {
				return err
			}
			return a.execute(cmd, core.Call{Method: "create_multisig_request", Caller: caller, Args: raw}, "")
		},
	}
	createSigner.register(create)
	cmd.AddCommand(create)

	for _, step := range []struct{ use, method, short string }{
		{"approve", "approve_multisig_request", "Approve a request"},
		{"execute", "execute_multisig_request", "Execute an approved request"},
		{"remove", "remove_multisig_request", "Remove an expired request"},
	} {
		step := step
		var signer signerFlags
		sub := &cobra.Command{
			Use:   step.use + " <request-id>",
			Short: step.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, positional []string) error {
				caller, err := a.signer(signer.key, signer.from)
				if err != nil {
					return err
				}
				raw, err := requestIDArgs(positional[0])
				if err != nil {
					return err
				}
				return a.execute(cmd, core.Call{Method: step.method, Caller: caller, Args: raw}, "")
			},
		}
		signer.register(sub)
		cmd.AddCommand(sub)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <request-id>",
		Short: "Show a stored request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			raw, err := requestIDArgs(positional[0])
			if err != nil {
				return err
			}
			return a.view(cmd, core.Call{Method: "get_multisig_request", Args: raw})
		},
	}, &cobra.Command{
		Use:   "list",
		Short: "List stored requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.view(cmd, core.Call{Method: "list_multisig_requests"})
		},
	})
	return cmd
}

func requestIDArgs(value string) (json.RawMessage, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid request id %q: %w", value, err)
	}
	return json.Marshal(map[string]uint32{"request_id": uint32(id)})
}

func methodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List callable methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), core.Methods())
		},
	}
}

func headCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "head",
		Short: "Print the last committed root and sequence number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.ledger()
			if err != nil {
				return err
			}
			head := rt.Head()
			return printJSON(cmd.OutOrStdout(), map[string]any{"root": head.Root, "seq": head.Seq})
		},
	}
}

func (a *app) execute(cmd *cobra.Command, call core.Call, idempotency string) error {
	if idempotency != "" {
		book, err := a.addressBook()
		if err != nil {
			return err
		}
		entry, ok, err := book.Journal(idempotency, a.now())
		if err != nil {
			return err
		}
		if ok {
			if entry.Method != call.Method {
				return fmt.Errorf("idempotency key %q was used for %s", idempotency, entry.Method)
			}
			a.logger.Info("replaying stored receipt", slog.String("method", call.Method), slog.String("request", idempotency))
			_, err := cmd.OutOrStdout().Write(append(entry.Receipt, '\n'))
			return err
		}
	}
	rt, err := a.ledger()
	if err != nil {
		return err
	}
	receipt, err := rt.Execute(cmd.Context(), call)
	if err != nil {
		return err
	}
	a.recordAudit(cmd, receipt, call.Caller)
	encoded, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return err
	}
	if idempotency != "" {
		if err := a.book.PutJournal(idempotency, call.Method, encoded, a.now(), journalTTL); err != nil {
			a.logger.Warn("store receipt", slog.String("request", idempotency), slog.Any("error", err))
		}
	}
	_, err = cmd.OutOrStdout().Write(append(encoded, '\n'))
	return err
}

func (a *app) view(cmd *cobra.Command, call core.Call) error {
	rt, err := a.ledger()
	if err != nil {
		return err
	}
	result, err := rt.View(cmd.Context(), call)
	if err != nil {
		return err
	}
	var decoded any
	if len(result) > 0 {
		if err := json.Unmarshal(result, &decoded); err != nil {
			return err
		}
	}
	return printJSON(cmd.OutOrStdout(), decoded)
}

// recordAudit mirrors committed events into the audit store. The ledger has
// already committed, so failures are logged rather than returned.
func (a *app) recordAudit(cmd *cobra.Command, receipt *core.Receipt, caller string) {
	store, err := a.auditStore()
	if err != nil {
		a.logger.Error("open audit store", slog.Any("error", err))
		return
	}
	if store == nil || receipt == nil {
		return
	}
	if _, err := store.Append(cmd.Context(), audit.Entry{
		Seq:    receipt.Seq,
		Method: receipt.Method,
		Caller: caller,
		Events: receipt.Events,
	}); err != nil {
		a.logger.Error("append audit records", slog.Uint64("seq", receipt.Seq), slog.Any("error", err))
	}
}
