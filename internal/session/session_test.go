package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/generation"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator records prompts and answers from a queue of replies.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	reply := f.reply
	f.mu.Unlock()
	if reply == nil {
		return "generated", nil
	}
	return reply(p)
}

func (f *fakeGenerator) Close() error { return nil }

func (f *fakeGenerator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func newSession(gen *fakeGenerator, opts ...Option) *Session {
	return New(extract.NewOrchestrator(), gen, opts...)
}

func TestSubmit_PlainTextVerbatim(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(gen)

	di, err := s.Submit(context.Background(), "notes.txt", []byte("short"))
	require.NoError(t, err)
	assert.Equal(t, "short", s.Text())
	assert.Equal(t, models.MethodPlain, di.Method)
	assert.Equal(t, models.FormatPlainText, di.Format)
	assert.Equal(t, 5, di.Characters)
	assert.NotEmpty(t, di.ID)
	assert.Empty(t, gen.calls(), "submission alone must not call the generation service")
}

func TestSubmit_ClearsHistory(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(gen)
	ctx := context.Background()

	_, err := s.Submit(ctx, "a.txt", []byte("first document text"))
	require.NoError(t, err)
	_, asked := s.Ask(ctx, "q1")
	require.True(t, asked)
	require.Len(t, s.History(), 1)

	_, err = s.Submit(ctx, "b.txt", []byte("second document text"))
	require.NoError(t, err)
	assert.Empty(t, s.History())
	assert.Equal(t, "second document text", s.Text())

	_, _ = s.Ask(ctx, "q2")
	calls := gen.calls()
	last := calls[len(calls)-1]
	assert.NotContains(t, last, "q1", "history of the previous document leaked into the prompt")
	assert.Contains(t, last, "second document text")
}

func TestSubmit_FailureKeepsState(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(gen)
	ctx := context.Background()

	_, err := s.Submit(ctx, "a.txt", []byte("kept document"))
	require.NoError(t, err)
	_, _ = s.Ask(ctx, "kept question")
	before := s.Document()

	_, err = s.Submit(ctx, "sheet.xlsx", []byte("whatever"))
	var unsupported *extract.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))

	_, err = s.Submit(ctx, "broken.docx", []byte("not a zip"))
	var ee *extract.ExtractionError
	require.True(t, errors.As(err, &ee))

	assert.Equal(t, before.ID, s.Document().ID)
	assert.Equal(t, "kept document", s.Text())
	require.Len(t, s.History(), 1)
	assert.Equal(t, "kept question", s.History()[0].Question)
}

func TestAsk_NoOpWithoutDocumentOrQuery(t *testing.T) {
	gen := &fakeGenerator{}
	s := newSession(gen)
	ctx := context.Background()

	resp, asked := s.Ask(ctx, "anything?")
	assert.False(t, asked)
	assert.Nil(t, resp)

	_, err := s.Submit(ctx, "a.txt", []byte("some text"))
	require.NoError(t, err)
	_, asked = s.Ask(ctx, "   ")
	assert.False(t, asked)

	_, err = s.Submit(ctx, "empty.txt", nil)
	require.NoError(t, err)
	_, asked = s.Ask(ctx, "anything?")
	assert.False(t, asked)

	assert.Empty(t, gen.calls())
	assert.Empty(t, s.History())
}

func TestAsk_AppendsTurnsAndBuildsPrompt(t *testing.T) {
	n := 0
	gen := &fakeGenerator{reply: func(string) (string, error) {
		n++
		return fmt.Sprintf("answer %d", n), nil
	}}
	s := newSession(gen)
	ctx := context.Background()
	_, err := s.Submit(ctx, "a.txt", []byte("The cat sat on the mat."))
	require.NoError(t, err)

	r1, asked := s.Ask(ctx, "Where did the cat sit?")
	require.True(t, asked)
	assert.Equal(t, "answer 1", r1.Answer)
	assert.Equal(t, 1, r1.Turns)
	r2, _ := s.Ask(ctx, "  And then?  ")
	assert.Equal(t, "answer 2", r2.Answer)
	assert.Equal(t, "And then?", r2.Query)
	assert.Equal(t, 2, r2.Turns)

	calls := gen.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "Based on this context:\nThe cat sat on the mat.\n\nQ: Where did the cat sit?", calls[0])
	assert.Equal(t, "Based on this context:\nThe cat sat on the mat.\nQ: Where did the cat sit?\nA: answer 1\nQ: And then?", calls[1])

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, "Where did the cat sit?", h[0].Question)
	assert.Equal(t, "And then?", h[1].Question)
	assert.Equal(t, "answer 2", h[1].Answer)
}

func TestAsk_FallbackAnswerIsRecorded(t *testing.T) {
	gen := &fakeGenerator{reply: func(string) (string, error) { return "", nil }}
	s := newSession(gen)
	ctx := context.Background()
	_, err := s.Submit(ctx, "a.txt", []byte("text"))
	require.NoError(t, err)

	resp, asked := s.Ask(ctx, "q")
	assert.True(t, asked)
	assert.Equal(t, prompt.FallbackAnswer, resp.Answer)
	require.Len(t, s.History(), 1)
	assert.Equal(t, prompt.FallbackAnswer, s.History()[0].Answer)
}

func TestAsk_ServiceErrorIsNotRecorded(t *testing.T) {
	fail := false
	gen := &fakeGenerator{reply: func(string) (string, error) {
		if fail {
			return "", &generation.ServiceError{Backend: "rest", Err: errors.New("connection refused")}
		}
		return "ok", nil
	}}
	s := newSession(gen)
	ctx := context.Background()
	_, err := s.Submit(ctx, "a.txt", []byte("text"))
	require.NoError(t, err)
	_, _ = s.Ask(ctx, "first")

	fail = true
	resp, asked := s.Ask(ctx, "second")
	assert.True(t, asked)
	assert.Equal(t, "⚠️ Error: connection refused", resp.Answer)
	assert.Equal(t, 1, resp.Turns)
	require.Len(t, s.History(), 1)
	assert.Equal(t, "text", s.Text())
}

func TestSummarize(t *testing.T) {
	gen := &fakeGenerator{reply: func(string) (string, error) { return "a summary", nil }}
	s := newSession(gen)
	ctx := context.Background()

	_, err := s.Summarize(ctx)
	assert.ErrorIs(t, err, ErrNoDocument)

	long := strings.Repeat("ab", 5000)
	_, err = s.Submit(ctx, "long.txt", []byte(long))
	require.NoError(t, err)
	summary, err := s.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a summary", summary)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Summarize this:\n\n"+long[:8000], calls[0])
	assert.Empty(t, s.History(), "summaries are not conversation turns")
}

func TestSummarize_FallbackAndDiagnostic(t *testing.T) {
	gen := &fakeGenerator{reply: func(string) (string, error) { return "", nil }}
	s := newSession(gen)
	ctx := context.Background()
	_, err := s.Submit(ctx, "a.txt", []byte("text"))
	require.NoError(t, err)

	summary, err := s.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No summary found.", summary)

	gen.reply = func(string) (string, error) {
		return "", &generation.ServiceError{Backend: "rest", Err: errors.New("status 500: boom")}
	}
	summary, err = s.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "⚠️ Error: status 500: boom", summary)
}

func TestProcess(t *testing.T) {
	gen := &fakeGenerator{reply: func(string) (string, error) { return "summary", nil }}
	s := newSession(gen)

	out, err := s.Process(context.Background(), "/tmp/inbox/a.txt", []byte("process me"))
	require.NoError(t, err)
	assert.Equal(t, "summary", out.Summary)
	assert.Equal(t, "a.txt", out.Document.Name)
	assert.Equal(t, 10, out.Document.Characters)

	_, err = s.Process(context.Background(), "x.pptx", []byte("x"))
	assert.Equal(t, MsgUnsupported, Diagnostic(err))
	assert.Len(t, gen.calls(), 1, "unsupported files never reach the generation service")
}

// blockingGenerator holds every call until release is closed.
func blockingGenerator() (*fakeGenerator, chan struct{}, chan struct{}) {
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	gen := &fakeGenerator{reply: func(string) (string, error) {
		started <- struct{}{}
		<-release
		return "done", nil
	}}
	return gen, started, release
}

func TestSubmit_RejectsWhileBusy(t *testing.T) {
	gen, started, release := blockingGenerator()
	s := newSession(gen, WithRejectConcurrent(true))
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := s.Process(ctx, "a.txt", []byte("first"))
		errc <- err
	}()
	<-started
	assert.True(t, s.Busy())

	_, err := s.Submit(ctx, "b.txt", []byte("second"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, MsgBusy, Diagnostic(err))

	close(release)
	require.NoError(t, <-errc)
	assert.Equal(t, "first", s.Text())
	assert.False(t, s.Busy())
}

func TestSubmit_QueuesBehindQuestion(t *testing.T) {
	gen, started, release := blockingGenerator()
	s := newSession(gen)
	ctx := context.Background()
	_, err := s.Submit(ctx, "a.txt", []byte("first"))
	require.NoError(t, err)

	askDone := make(chan *models.AnswerResponse, 1)
	go func() {
		resp, _ := s.Ask(ctx, "q")
		askDone <- resp
	}()
	<-started

	submitDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, "b.txt", []byte("second"))
		submitDone <- err
	}()

	select {
	case <-submitDone:
		t.Fatal("submission overtook an in-flight question")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, "first", s.Text())

	close(release)
	resp := <-askDone
	require.NoError(t, <-submitDone)
	require.NotNil(t, resp)
	assert.Equal(t, "done", resp.Answer)
	assert.Equal(t, 1, resp.Turns, "turn count must be taken before the queued submission clears it")
	assert.Equal(t, "second", s.Text())
	assert.Empty(t, s.History(), "the turn answered against the old document must be cleared")
}

func TestSubmit_QueuedContextCancelled(t *testing.T) {
	gen, started, release := blockingGenerator()
	defer close(release)
	s := newSession(gen)
	_, err := s.Submit(context.Background(), "a.txt", []byte("first"))
	require.NoError(t, err)

	go func() { _, _ = s.Summarize(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Submit(ctx, "b.txt", []byte("second"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "first", s.Text())
}

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&extract.UnsupportedFormatError{Name: "a.xlsx", Ext: ".xlsx"}, "❌ Unsupported file type."},
		{&extract.ExtractionError{Method: models.MethodOCR, Err: errors.New("no pages")}, "⚠️ Extraction failed: no pages"},
		{fmt.Errorf("wrapped: %w", &generation.ServiceError{Backend: "sdk", Err: errors.New("quota")}), "⚠️ Error: quota"},
		{ErrBusy, "⏳ Another document is being processed."},
		{ErrNoDocument, MsgNoDocument},
		{errors.New("other"), "⚠️ Error: other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Diagnostic(tt.err))
	}
}
