package events

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"fiattoken/core/types"
)

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }

func TestRecorderFlushPreservesOrder(t *testing.T) {
	var rec Recorder
	rec.Emit(Paused{})
	rec.Emit(Unpaused{})
	rec.Emit(nil)
	require.Equal(t, []string{TypePaused, TypeUnpaused}, rec.Types())

	var sink Recorder
	rec.Flush(&sink)
	require.Empty(t, rec.Events())
	require.Equal(t, []string{TypePaused, TypeUnpaused}, sink.Types())
}

func TestMultiSkipsNil(t *testing.T) {
	var a, b Recorder
	m := Multi(&a, nil, &b)
	m.Emit(Paused{})
	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)

	_, ok := Multi(nil).(NoopEmitter)
	require.True(t, ok)
}

func TestRenderFallsBackToType(t *testing.T) {
	rendered := Render(bareEvent{})
	require.Equal(t, "bare", rendered.Type)
	require.Empty(t, rendered.Attributes)
	require.Nil(t, Render(nil))
}

func TestMinterConfiguredAttributes(t *testing.T) {
	var minter [20]byte
	minter[19] = 9
	evt := MinterConfigured{Minter: minter, Allowance: uint256.NewInt(250)}.Event()
	require.Equal(t, TypeMinterConfigured, evt.Type)
	require.Equal(t, "250", evt.Attributes["minter_allowance"])
	require.True(t, strings.HasPrefix(evt.Attributes["minter_id"], "fiat1"))
}

func TestLogEmitterWritesEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	LogEmitter{Logger: logger}.Emit(RoleConfigured{Role: "Admin"})
	require.Contains(t, buf.String(), types.EventLogPrefix)
	require.Contains(t, buf.String(), `\"event\":\"role_configured\"`)
}
