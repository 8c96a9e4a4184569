package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

type countingDoer struct {
	calls atomic.Int32
	resp  func(*http.Request) (*http.Response, error)
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	if d.resp == nil {
		return nil, errors.New("unexpected call")
	}
	return d.resp(req)
}

func newGatewayConfig(mode Mode, endpoint string) GatewayConfig {
	return GatewayConfig{
		Mode:     mode,
		Endpoint: endpoint,
		From:     "Fitness Questionnaire <onboarding@resend.dev>",
		To:       []string{"coach@example.com"},
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("LIVE")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSimulated, m)

	_, err = ParseMode("dry-run")
	assert.Error(t, err)
}

func TestGateway_SimulatedNeverTouchesNetwork(t *testing.T) {
	doer := &countingDoer{}
	reg := prometheus.NewRegistry()
	cfg := newGatewayConfig(ModeSimulated, "http://127.0.0.1:1/unused")
	cfg.SimulatedDelay = 10 * time.Millisecond
	gw := NewGateway(cfg, testFormatter(), doer, logging.Discard(), metrics.NewGatewayMetrics(reg))

	for i := 0; i < 3; i++ {
		out := gw.Send(context.Background(), sampleRecord())
		assert.True(t, out.Success)
		assert.Empty(t, out.Error)
	}
	assert.Equal(t, int32(0), doer.calls.Load())
	assert.Equal(t, int64(3), metrics.Snapshot(reg).Submissions["success"])
}

func TestGateway_SimulatedReturnsEarlyOnCancel(t *testing.T) {
	cfg := newGatewayConfig(ModeSimulated, "")
	cfg.SimulatedDelay = time.Hour
	gw := NewGateway(cfg, testFormatter(), &countingDoer{}, logging.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := gw.Send(ctx, sampleRecord())
	assert.True(t, out.Success)
}

func TestGateway_LivePostsEmail(t *testing.T) {
	var got Email
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"id":"msg_123"}`))
	}))
	defer srv.Close()

	cfg := newGatewayConfig(ModeLive, srv.URL)
	cfg.APIKey = "re_test"
	gw := NewGateway(cfg, testFormatter(), srv.Client(), logging.Discard(), nil)

	out := gw.Send(context.Background(), sampleRecord())
	require.True(t, out.Success, out.Error)

	assert.Equal(t, "Bearer re_test", auth)
	assert.Equal(t, "Fitness Questionnaire <onboarding@resend.dev>", got.From)
	assert.Equal(t, []string{"coach@example.com"}, got.To)
	assert.Equal(t, DefaultSubject, got.Subject)
	assert.Equal(t, testFormatter().FormatText(sampleRecord()), got.Text)
	assert.Equal(t, testFormatter().FormatHTML(sampleRecord()), got.HTML)
}

func TestGateway_StatusCodesMapToDistinctCategories(t *testing.T) {
	statuses := []int{
		http.StatusUnauthorized,
		http.StatusUnprocessableEntity,
		http.StatusTooManyRequests,
		http.StatusServiceUnavailable,
	}

	seenMsgs := map[string]int{}
	seenKinds := map[funnel.Failure]int{}
	for _, status := range statuses {
		status := status
		doer := &countingDoer{resp: func(*http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(`{"message":"upstream unavailable"}`)),
				Header:     http.Header{},
			}, nil
		}}
		gw := NewGateway(newGatewayConfig(ModeLive, "http://relay.test/submit-email"), testFormatter(), doer, logging.Discard(), nil)

		out := gw.Send(context.Background(), sampleRecord())
		assert.False(t, out.Success)
		assert.Equal(t, int32(1), doer.calls.Load(), "exactly one call for %d", status)
		seenMsgs[out.Error] = status
		seenKinds[out.Failure] = status
	}

	assert.Len(t, seenMsgs, 4)
	assert.Len(t, seenKinds, 4)

	gw := NewGateway(newGatewayConfig(ModeLive, "http://relay.test/submit-email"), testFormatter(), &countingDoer{resp: func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: 503, Body: io.NopCloser(strings.NewReader(`{"message":"upstream unavailable"}`))}, nil
	}}, logging.Discard(), nil)
	out := gw.Send(context.Background(), sampleRecord())
	assert.Equal(t, "delivery rejected: email service error 503: upstream unavailable", out.Error)
	assert.Equal(t, funnel.FailureRejected, out.Failure)
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, funnel.Failed(funnel.FailureAuth, MsgAuth), classifyStatus(401, nil))
	assert.Equal(t, funnel.Failed(funnel.FailureValidation, MsgValidation), classifyStatus(422, nil))
	assert.Equal(t, funnel.Failed(funnel.FailureRateLimited, MsgRateLimited), classifyStatus(429, nil))
	assert.Equal(t, "delivery rejected: email service error 500: boom", classifyStatus(500, []byte(`{"error":"boom"}`)).Error)
	assert.Equal(t, "delivery rejected: email service error 502: bad gateway", classifyStatus(502, []byte("bad gateway")).Error)
}

func TestGateway_TransportFailureIsDistinct(t *testing.T) {
	doer := &countingDoer{resp: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: lookup relay.test: no such host")
	}}
	reg := prometheus.NewRegistry()
	gw := NewGateway(newGatewayConfig(ModeLive, "http://relay.test/submit-email"), testFormatter(), doer, logging.Discard(), metrics.NewGatewayMetrics(reg))

	out := gw.Send(context.Background(), sampleRecord())
	assert.False(t, out.Success)
	assert.Equal(t, funnel.FailureTransport, out.Failure)
	assert.Equal(t, MsgNetwork, out.Error)
	assert.NotContains(t, out.Error, "delivery rejected")
	assert.Equal(t, int32(1), doer.calls.Load())
	assert.Equal(t, int64(1), metrics.Snapshot(reg).Submissions["transport"])
}

func TestGateway_MessageCopiesRecipients(t *testing.T) {
	gw := NewGateway(newGatewayConfig(ModeSimulated, ""), testFormatter(), nil, nil, nil)
	msg := gw.Message(sampleRecord())
	msg.To[0] = "someone@else.com"
	assert.Equal(t, []string{"coach@example.com"}, gw.Message(sampleRecord()).To)
	assert.Equal(t, ModeSimulated, gw.Mode())
}
