package chat

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatwidget/internal/domain/entity"
)

type stubWebhook struct {
	got   any
	reply json.RawMessage
	err   error
	calls int
}

func (s *stubWebhook) Send(_ context.Context, payload any) (json.RawMessage, error) {
	s.calls++
	s.got = payload
	return s.reply, s.err
}

func TestService_Send(t *testing.T) {
	hook := &stubWebhook{reply: json.RawMessage(`[{"output":"hello"}]`)}
	svc := &Service{Webhook: hook}

	req := entity.ChatRequest{Message: "hi", SessionID: "session_1_abc", Domain: "fab.city"}
	reply, err := svc.Send(context.Background(), req)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"output":"hello"}]`, string(reply))
	assert.Equal(t, req, hook.got, "request is forwarded verbatim")
}

func TestService_Send_ValidationStopsBeforeWebhook(t *testing.T) {
	hook := &stubWebhook{}
	svc := &Service{Webhook: hook}

	_, err := svc.Send(context.Background(), entity.ChatRequest{Message: "hi", Domain: "fab.city"})

	var ve *entity.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Session ID is required", ve.Message)
	assert.Zero(t, hook.calls)
}

func TestService_Send_UpstreamFailure(t *testing.T) {
	upstream := errors.New("webhook responded with status 502")
	svc := &Service{Webhook: &stubWebhook{err: upstream}}

	_, err := svc.Send(context.Background(), entity.ChatRequest{Message: "hi", SessionID: "s", Domain: "d"})

	assert.ErrorIs(t, err, ErrUpstreamFailed)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "status 502")
}

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "array output", raw: `[{"output":"from output"}]`, want: "from output"},
		{name: "array response", raw: `[{"response":"from response"}]`, want: "from response"},
		{name: "array first element only", raw: `[{"foo":1},{"output":"second"}]`, want: FallbackReply},
		{name: "object prefers output", raw: `{"message":"m","response":"r","output":"o"}`, want: "o"},
		{name: "object response before message", raw: `{"message":"m","response":"r"}`, want: "r"},
		{name: "object message", raw: `{"message":"m"}`, want: "m"},
		{name: "empty output falls through", raw: `{"output":"","message":"m"}`, want: "m"},
		{name: "non string field ignored", raw: `{"output":42,"response":"r"}`, want: "r"},
		{name: "plain string", raw: `"just text"`, want: "just text"},
		{name: "empty string", raw: `""`, want: FallbackReply},
		{name: "empty array", raw: `[]`, want: FallbackReply},
		{name: "empty object", raw: `{}`, want: FallbackReply},
		{name: "number", raw: `42`, want: FallbackReply},
		{name: "null", raw: `null`, want: FallbackReply},
		{name: "invalid json", raw: `{oops`, want: FallbackReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeReply(json.RawMessage(tt.raw)))
		})
	}
}

func TestNewSessionID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := newSessionID(now)

	assert.Regexp(t, regexp.MustCompile(`^session_1700000000123_[0-9a-z]{9}$`), id)
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}

func TestExtractLinks(t *testing.T) {
	reply := "See [Fab City](https://fab.city/about) and the [report](https://example.com/report.pdf).\n\n" +
		"Also https://www.youtube.com/watch?v=dQw4w9WgXcQ or <https://vimeo.com/76979871>.\n" +
		"Again [Fab City](https://fab.city/about), mail <hello@fab.city> and [local](/relative)."

	got := ExtractLinks(reply)
	want := []Link{
		{Text: "Fab City", URL: "https://fab.city/about"},
		{Text: "report", URL: "https://example.com/report.pdf"},
		{Text: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{Text: "https://vimeo.com/76979871", URL: "https://vimeo.com/76979871"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractLinks mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractLinks_Empty(t *testing.T) {
	assert.Empty(t, ExtractLinks(""))
	assert.Empty(t, ExtractLinks("no links here"))
}

func TestExtractLinks_EmphasisInLabel(t *testing.T) {
	got := ExtractLinks("[the **maker** map](https://fab.city/map)")
	require.Len(t, got, 1)
	assert.Equal(t, "the maker map", got[0].Text)
}
