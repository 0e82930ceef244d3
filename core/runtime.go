package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	"fiattoken/core/state"
	"fiattoken/core/types"
	"fiattoken/crypto"
	"fiattoken/native/bank"
	"fiattoken/native/fiattoken"
	"fiattoken/native/multisig"
	"fiattoken/observability/metrics"
	ftotel "fiattoken/observability/otel"
	"fiattoken/storage"
	"fiattoken/storage/trie"
)

var headKey = []byte("fiattoken/head")

// Head identifies the last committed state.
type Head struct {
	Root common.Hash
	Seq  uint64
}

// Call is a single method invocation.
type Call struct {
	Method string          `json:"method"`
	Caller string          `json:"caller,omitempty"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Receipt describes the outcome of a committed call.
type Receipt struct {
	Method string          `json:"method"`
	Seq    uint64          `json:"seq"`
	Root   common.Hash     `json:"root"`
	Result json.RawMessage `json:"result,omitempty"`
	Events []*types.Event  `json:"events"`
}

// Options configures a Runtime. Zero values select sensible defaults.
type Options struct {
	Logger  *slog.Logger
	Sink    events.Emitter
	Now     func() time.Time
	Metrics *metrics.GovernanceMetrics
	Tracer  trace.Tracer
}

// Runtime serialises calls against the token engine. Every mutating call
// either commits a new state root or leaves state untouched.
type Runtime struct {
	mu sync.Mutex

	db       storage.Database
	trie     *trie.Trie
	state    *state.Manager
	engine   *fiattoken.Engine
	recorder *events.Recorder
	head     Head

	logger  *slog.Logger
	sink    events.Emitter
	metrics *metrics.GovernanceMetrics
	tracer  trace.Tracer
}

// Open restores the runtime from db.
func Open(db storage.Database, opts Options) (*Runtime, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	head, err := loadHead(db)
	if err != nil {
		return nil, err
	}
	var root []byte
	if head.Seq > 0 {
		root = head.Root.Bytes()
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("core: open state: %w", err)
	}
	rt := &Runtime{
		db:       db,
		trie:     tr,
		state:    state.NewManager(tr),
		recorder: &events.Recorder{},
		head:     head,
		logger:   opts.Logger,
		sink:     opts.Sink,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
	}
	if rt.logger == nil {
		rt.logger = slog.Default()
	}
	if rt.sink == nil {
		rt.sink = events.NoopEmitter{}
	}
	if rt.metrics == nil {
		rt.metrics = metrics.Governance()
	}
	if rt.tracer == nil {
		rt.tracer = ftotel.Tracer()
	}
	rt.engine = fiattoken.NewEngine()
	rt.engine.SetState(rt.state)
	rt.engine.SetBank(bank.NewLedger(rt.state))
	rt.engine.SetEmitter(rt.recorder)
	if opts.Now != nil {
		rt.engine.SetNowFunc(opts.Now)
	}

	initialized, err := rt.engine.Initialized()
	if err != nil {
		return nil, err
	}
	if initialized {
		if err := rt.engine.EnsureRoleCatalog(); err != nil {
			_ = rt.state.Discard()
			return nil, fmt.Errorf("core: role catalog: %w", err)
		}
		if rt.state.PendingRoot() != rt.state.Root() {
			if _, err := rt.commitLocked(); err != nil {
				return nil, err
			}
			rt.logger.Info("role catalog migrated", slog.Uint64("seq", rt.head.Seq))
		}
		rt.refreshPendingLocked()
	}
	return rt, nil
}

func loadHead(db storage.Database) (Head, error) {
	raw, err := db.Get(headKey)
	if errors.Is(err, storage.ErrNotFound) {
		return Head{}, nil
	}
	if err != nil {
		return Head{}, fmt.Errorf("core: load head: %w", err)
	}
	var head Head
	if err := rlp.DecodeBytes(raw, &head); err != nil {
		return Head{}, fmt.Errorf("core: decode head: %w", err)
	}
	return head, nil
}

// Head returns the last committed root and sequence number.
func (rt *Runtime) Head() Head {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.head
}

// Engine exposes the underlying engine. Callers must not mutate state
// through it while the runtime is serving calls.
func (rt *Runtime) Engine() *fiattoken.Engine {
	return rt.engine
}

func (rt *Runtime) commitLocked() (Head, error) {
	seq := rt.head.Seq + 1
	root, err := rt.state.Commit(seq)
	if err != nil {
		return Head{}, fmt.Errorf("core: commit state: %w", err)
	}
	head := Head{Root: root, Seq: seq}
	encoded, err := rlp.EncodeToBytes(head)
	if err != nil {
		return Head{}, fmt.Errorf("core: encode head: %w", err)
	}
	if err := rt.db.Put(headKey, encoded); err != nil {
		return Head{}, fmt.Errorf("core: persist head: %w", err)
	}
	rt.head = head
	return head, nil
}

func (rt *Runtime) rollbackLocked() {
	if err := rt.state.Discard(); err != nil {
		rt.logger.Error("discard state", slog.Any("error", err))
	}
	rt.recorder.Reset()
}

func (rt *Runtime) refreshPendingLocked() {
	pending, err := rt.engine.PendingRequests()
	if err != nil {
		return
	}
	rt.metrics.SetPending(len(pending))
}

// Init seeds the ledger from genesis and commits the first state root.
func (rt *Runtime) Init(ctx context.Context, genesis fiattoken.Genesis, cfg multisig.Config) (*Receipt, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	_, span := rt.tracer.Start(ctx, "fiattoken.init")
	defer span.End()

	start := time.Now()
	rt.recorder.Reset()
	if err := rt.engine.Init(genesis, cfg); err != nil {
		rt.rollbackLocked()
		rt.finish(span, "init", err, start)
		return nil, err
	}
	head, err := rt.commitLocked()
	if err != nil {
		rt.rollbackLocked()
		rt.finish(span, "init", err, start)
		return nil, err
	}
	receipt := &Receipt{Method: "init", Seq: head.Seq, Root: head.Root, Events: rt.flushLocked()}
	rt.refreshPendingLocked()
	rt.finish(span, "init", nil, start)
	rt.logger.Info("ledger initialised",
		slog.Uint64("seq", head.Seq),
		slog.String("root", head.Root.Hex()),
		slog.Int("admins", len(genesis.Admins)),
		slog.Int("owners", len(genesis.Owners)))
	return receipt, nil
}

// Execute runs a mutating call as caller and commits its effects. Failed
// calls leave state and the event sink untouched.
func (rt *Runtime) Execute(ctx context.Context, call Call) (*Receipt, error) {
	h, ok := changeMethods[call.Method]
	if !ok {
		if _, isView := viewMethods[call.Method]; isView {
			return nil, fmt.Errorf("%w: %s is a view", fterrors.ErrUnknownMethod, call.Method)
		}
		return nil, fmt.Errorf("%w: %s", fterrors.ErrUnknownMethod, call.Method)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	_, span := rt.tracer.Start(ctx, "fiattoken.execute", trace.WithAttributes(
		attribute.String("fiattoken.method", call.Method),
		attribute.String("fiattoken.caller", call.Caller),
	))
	defer span.End()

	start := time.Now()
	caller, err := crypto.ParseAccount(call.Caller)
	if err != nil {
		err = fmt.Errorf("%w: caller: %v", fterrors.ErrInvalidArguments, err)
		rt.finish(span, call.Method, err, start)
		return nil, err
	}
	if err := rt.requireInitializedLocked(); err != nil {
		rt.finish(span, call.Method, err, start)
		return nil, err
	}

	rt.recorder.Reset()
	result, err := h(rt.engine, caller, call.Args)
	if err != nil {
		rt.rollbackLocked()
		rt.finish(span, call.Method, err, start)
		rt.logger.Warn("call rejected",
			slog.String("method", call.Method),
			slog.String("caller", crypto.AccountString(caller)),
			slog.String("kind", fterrors.Kind(err)),
			slog.Any("error", err))
		return nil, err
	}
	encoded, err := encodeResult(result)
	if err != nil {
		rt.rollbackLocked()
		rt.finish(span, call.Method, err, start)
		return nil, err
	}
	head, err := rt.commitLocked()
	if err != nil {
		rt.rollbackLocked()
		rt.finish(span, call.Method, err, start)
		return nil, err
	}
	receipt := &Receipt{
		Method: call.Method,
		Seq:    head.Seq,
		Root:   head.Root,
		Result: encoded,
		Events: rt.flushLocked(),
	}
	rt.refreshPendingLocked()
	rt.finish(span, call.Method, nil, start)
	span.SetAttributes(attribute.Int64("fiattoken.seq", int64(head.Seq)))
	rt.logger.Info("call committed",
		slog.String("method", call.Method),
		slog.String("caller", crypto.AccountString(caller)),
		slog.Uint64("seq", head.Seq),
		slog.String("root", head.Root.Hex()),
		slog.Int("events", len(receipt.Events)))
	return receipt, nil
}

// View runs a read-only method and returns its JSON result. Any writes a
// view attempts are discarded.
func (rt *Runtime) View(ctx context.Context, call Call) (json.RawMessage, error) {
	h, ok := viewMethods[call.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", fterrors.ErrUnknownMethod, call.Method)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	_, span := rt.tracer.Start(ctx, "fiattoken.view", trace.WithAttributes(
		attribute.String("fiattoken.method", call.Method),
	))
	defer span.End()

	start := time.Now()
	if err := rt.requireInitializedLocked(); err != nil {
		rt.finish(span, call.Method, err, start)
		return nil, err
	}
	var caller [20]byte
	if call.Caller != "" {
		parsed, err := crypto.ParseAccount(call.Caller)
		if err != nil {
			err = fmt.Errorf("%w: caller: %v", fterrors.ErrInvalidArguments, err)
			rt.finish(span, call.Method, err, start)
			return nil, err
		}
		caller = parsed
	}
	result, err := h(rt.engine, caller, call.Args)
	rt.rollbackLocked()
	if err == nil {
		var encoded json.RawMessage
		encoded, err = encodeResult(result)
		if err == nil {
			rt.finish(span, call.Method, nil, start)
			return encoded, nil
		}
	}
	rt.finish(span, call.Method, err, start)
	return nil, err
}

func (rt *Runtime) requireInitializedLocked() error {
	initialized, err := rt.engine.Initialized()
	if err != nil {
		return err
	}
	if !initialized {
		return fterrors.ErrNotInitialized
	}
	return nil
}

func (rt *Runtime) flushLocked() []*types.Event {
	recorded := rt.recorder.Events()
	rendered := make([]*types.Event, 0, len(recorded))
	for _, evt := range recorded {
		rendered = append(rendered, events.Render(evt))
		switch e := evt.(type) {
		case events.MultisigRequestCreated:
			rt.metrics.RecordRequest(e.Action, "created")
		case events.MultisigRequestApproved:
			rt.metrics.RecordRequest(e.Action, "approved")
		case events.MultisigRequestExecuted:
			rt.metrics.RecordRequest(e.Action, "executed")
		case events.MultisigRequestRemoved:
			rt.metrics.RecordRequest(e.Action, "removed")
		}
	}
	rt.recorder.Flush(rt.sink)
	return rendered
}

func (rt *Runtime) finish(span trace.Span, method string, err error, start time.Time) {
	kind := fterrors.Kind(err)
	rt.metrics.ObserveCall(method, kind, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		return
	}
	span.SetStatus(codes.Ok, "")
}

func encodeResult(result any) (json.RawMessage, error) {
	if result == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("core: encode result: %w", err)
	}
	return encoded, nil
}
