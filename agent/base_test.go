package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsneha-blip/procuremesh/core"
)

// captureBus records sent envelopes without delivering them.
type captureBus struct {
	sent []core.Envelope
}

func (b *captureBus) Register(core.Agent) {}

func (b *captureBus) Send(env core.Envelope) error {
	b.sent = append(b.sent, env)
	return nil
}

func (b *captureBus) Conversation(string) []core.Envelope { return nil }

func (b *captureBus) last(t *testing.T) core.Envelope {
	t.Helper()
	require.NotEmpty(t, b.sent)
	return b.sent[len(b.sent)-1]
}

func TestHandleRejectsUnknownAndDuplicateOps(t *testing.T) {
	a := NewBaseAgent("test_agent", "test", &captureBus{})

	assert.Error(t, a.Handle(core.Op("not_an_op"), func(core.Envelope) error { return nil }))

	require.NoError(t, a.Handle(core.OpFindSuppliers, func(core.Envelope) error { return nil }))
	assert.Error(t, a.Handle(core.OpFindSuppliers, func(core.Envelope) error { return nil }))
}

func TestReceiveDispatchesRequestByOperation(t *testing.T) {
	a := NewBaseAgent("test_agent", "test", &captureBus{})

	var got core.Envelope
	require.NoError(t, a.Handle(core.OpFindSuppliers, func(env core.Envelope) error {
		got = env
		return nil
	}))

	env := core.NewEnvelope("caller", "test_agent", core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpFindSuppliers),
	})
	require.NoError(t, a.Receive(env))
	assert.Equal(t, env.ID, got.ID)
}

func TestReceiveWithoutHandlersReportsNotImplemented(t *testing.T) {
	b := &captureBus{}
	a := NewBaseAgent("test_agent", "test", b)

	env := core.NewEnvelope("caller", "test_agent", core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpFindSuppliers),
	})
	require.NoError(t, a.Receive(env))

	errEnv := b.last(t)
	assert.Equal(t, core.KindError, errEnv.Kind)
	assert.Contains(t, errEnv.Content.String(core.ContentKeyError), "does not implement")
}

func TestReceiveUnknownRequestTypeSendsErrorEnvelope(t *testing.T) {
	b := &captureBus{}
	a := NewBaseAgent("test_agent", "test", b)
	require.NoError(t, a.Handle(core.OpFindSuppliers, func(core.Envelope) error { return nil }))

	env := core.NewEnvelope("caller", "test_agent", core.KindRequest, core.Content{
		core.ContentKeyRequestType: "bogus_operation",
	})
	require.NoError(t, a.Receive(env))

	errEnv := b.last(t)
	assert.Equal(t, core.KindError, errEnv.Kind)
	assert.Equal(t, "caller", errEnv.To)
	assert.Equal(t, env.ConversationID, errEnv.ConversationID)
	assert.Equal(t, env.ID, errEnv.Content.String(core.ContentKeyOriginalMessageID))
	assert.Contains(t, errEnv.Content.String(core.ContentKeyError), "unknown request type")
}

func TestReceiveHandlerFaultSendsErrorEnvelope(t *testing.T) {
	b := &captureBus{}
	a := NewBaseAgent("test_agent", "test", b)
	require.NoError(t, a.Handle(core.OpFindSuppliers, func(core.Envelope) error {
		return errors.New("catalog unavailable")
	}))

	env := core.NewEnvelope("caller", "test_agent", core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpFindSuppliers),
	})
	require.NoError(t, a.Receive(env))

	errEnv := b.last(t)
	assert.Equal(t, core.KindError, errEnv.Kind)
	assert.Equal(t, "catalog unavailable", errEnv.Content.String(core.ContentKeyError))
}

func TestReceiveRecoversHandlerPanic(t *testing.T) {
	b := &captureBus{}
	a := NewBaseAgent("test_agent", "test", b)
	require.NoError(t, a.Handle(core.OpFindSuppliers, func(core.Envelope) error {
		panic("boom")
	}))

	env := core.NewEnvelope("caller", "test_agent", core.KindRequest, core.Content{
		core.ContentKeyRequestType: string(core.OpFindSuppliers),
	})
	require.NoError(t, a.Receive(env))

	errEnv := b.last(t)
	assert.Equal(t, core.KindError, errEnv.Kind)
	assert.Contains(t, errEnv.Content.String(core.ContentKeyError), "internal fault")
}

func TestReceiveResponseFallsBackToHook(t *testing.T) {
	a := NewBaseAgent("test_agent", "test", &captureBus{})

	var hookCalled bool
	a.OnResponse(func(core.Envelope) error {
		hookCalled = true
		return nil
	})

	env := core.NewEnvelope("caller", "test_agent", core.KindResponse, core.Content{
		core.ContentKeyRequestType: string(core.OpEscalationGuidance),
	})
	require.NoError(t, a.Receive(env))
	assert.True(t, hookCalled)
}

func TestReceiveInvalidKindReturnsError(t *testing.T) {
	a := NewBaseAgent("test_agent", "test", &captureBus{})

	env := core.NewEnvelope("caller", "test_agent", core.Kind("telegram"), nil)
	assert.Error(t, a.Receive(env))
}
