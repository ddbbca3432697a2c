package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/contractor-sms-triage/internal/triage"
)

type stubCompleter struct {
	raw   string
	err   error
	calls int
	last  CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.calls++
	s.last = req
	return s.raw, s.err
}

func testSnapshot() triage.ProjectSnapshot {
	return triage.ProjectSnapshot{Business: "Reyes Builders", Name: "Kitchen remodel", Client: "Dana", IncomeCollected: 20000, Profit: 15000}
}

func TestRespondParsesAndPromptsWithSnapshot(t *testing.T) {
	completer := &stubCompleter{raw: `{"text":"You've paid $20,000.","confidence":0.9}`}
	r := New(completer, Options{})

	reply, err := r.Respond(context.Background(), "What's my balance?", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "You've paid $20,000.", reply.Text)
	assert.Equal(t, 0.9, reply.Confidence)

	assert.Contains(t, completer.last.System, `"incomeCollected":20000`)
	assert.Contains(t, completer.last.System, "assistant for Reyes Builders,")
	assert.Contains(t, completer.last.System, "2-3")
	assert.Contains(t, completer.last.System, "0.5 or lower")
	assert.True(t, strings.HasSuffix(completer.last.User, "What's my balance?"))
}

func TestRespondPropagatesCompleterError(t *testing.T) {
	r := New(&stubCompleter{err: errors.New("timeout")}, Options{})
	_, err := r.Respond(context.Background(), "What's my balance?", testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestRespondMalformedIsError(t *testing.T) {
	r := New(&stubCompleter{raw: "Sure thing!"}, Options{})
	_, err := r.Respond(context.Background(), "What's my balance?", testSnapshot())
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestRespondLenientFlagsDegraded(t *testing.T) {
	cache := NewMemoryReplyCache(0)
	r := New(&stubCompleter{raw: "Sure thing!"}, Options{Lenient: true, Cache: cache})
	reply, err := r.Respond(context.Background(), "What's my balance?", testSnapshot())
	require.NoError(t, err)
	assert.True(t, reply.Degraded)
	assert.Empty(t, cache.entries)
}

func TestRespondUsesCache(t *testing.T) {
	completer := &stubCompleter{raw: `{"text":"Blue subway tile.","confidence":0.85}`}
	r := New(completer, Options{Cache: NewMemoryReplyCache(0)})
	ctx := context.Background()

	first, err := r.Respond(ctx, "Which tile did we pick?", testSnapshot())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := r.Respond(ctx, "which tile did we pick?", testSnapshot())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, completer.calls)

	changed := testSnapshot()
	changed.Profit = 1
	_, err = r.Respond(ctx, "Which tile did we pick?", changed)
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls)
}

func TestRespondSkipsCachingLowConfidence(t *testing.T) {
	cache := NewMemoryReplyCache(0)
	completer := &stubCompleter{raw: `{"text":"Let me check with them.","confidence":0.4}`}
	r := New(completer, Options{Cache: cache, MinConfidence: 0.7})
	ctx := context.Background()

	reply, err := r.Respond(ctx, "Why is the invoice higher?", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 0.4, reply.Confidence)
	assert.Empty(t, cache.entries)

	_, err = r.Respond(ctx, "Why is the invoice higher?", testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls)
}

func TestRespondExpiresCachedReplyBelowThreshold(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryReplyCache(0)
	key := CacheKey("Which tile did we pick?", testSnapshot())
	require.NoError(t, cache.Put(ctx, key, triage.AIReply{Text: "Stale answer.", Confidence: 0.75}))

	completer := &stubCompleter{raw: `{"text":"Blue subway tile.","confidence":0.95}`}
	r := New(completer, Options{Cache: cache, MinConfidence: 0.8})

	reply, err := r.Respond(ctx, "Which tile did we pick?", testSnapshot())
	require.NoError(t, err)
	assert.False(t, reply.Cached)
	assert.Equal(t, "Blue subway tile.", reply.Text)
	assert.Equal(t, 1, completer.calls)

	stored, hit, _ := cache.Get(ctx, key)
	require.True(t, hit)
	assert.Equal(t, 0.95, stored.Confidence)
}

func TestBuildSystemPromptWithoutBusinessName(t *testing.T) {
	prompt := BuildSystemPrompt(triage.ProjectSnapshot{Name: "Deck"})
	assert.Contains(t, prompt, "assistant for a contractor,")
	assert.NotContains(t, prompt, `"business"`)
}
