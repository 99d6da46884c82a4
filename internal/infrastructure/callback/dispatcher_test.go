package callback

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agent-evaluator/internal/domain/entity"
	"agent-evaluator/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingMetrics struct {
	delivered []bool
}

func (m *recordingMetrics) EvaluationStarted() {}
func (m *recordingMetrics) EvaluationFinished(*entity.EvaluationResult, time.Duration) {}
func (m *recordingMetrics) CallbackDelivered(ok bool) { m.delivered = append(m.delivered, ok) }

func completedResult() *entity.EvaluationResult {
	r := entity.NewEvaluationResult("eval-7")
	r.AppendLog("click [1]")
	r.Screenshot = []byte{0x89, 'P', 'N', 'G'}
	r.Complete(true, 1, &entity.Observation{Text: "Welcome", URL: "http://challenge.local/", Image: []byte{1, 2}}, "Success criteria met")
	return r
}

func TestDispatcher_Deliver(t *testing.T) {
	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		received <- body
		w.WriteHeader(http.StatusOK)
	}))

	metrics := &recordingMetrics{}
	d := NewDispatcher(DefaultConfig(), metrics, logger.NewNop())
	d.Deliver(context.Background(), srv.URL, completedResult())

	body := <-received
	assert.Equal(t, "eval-7", body["evaluation_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 100, body["score"])
	assert.EqualValues(t, 1, body["steps_taken"])
	assert.Equal(t, "Success criteria met", body["message"])
	assert.Nil(t, body["error"])
	assert.Equal(t, []any{"click [1]"}, body["logs"])
	assert.NotContains(t, body, "screenshot")

	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Welcome", result["text"])
	assert.NotContains(t, result, "image")

	assert.Equal(t, []bool{true}, metrics.delivered)

	srv.Close()
	d.Close()
	goleak.VerifyNone(t)
}

func TestDispatcher_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(DefaultConfig(), nil, logger.NewNop())
	defer d.Close()

	err := d.Send(context.Background(), srv.URL, completedResult())
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrCallbackDelivery)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "backend down")
}

func TestDispatcher_Deliver_UnreachableIsSwallowed(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	metrics := &recordingMetrics{}
	d := NewDispatcher(Config{Timeout: 2 * time.Second}, metrics, logger.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Deliver(context.Background(), "http://"+addr+"/callback", completedResult())
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Deliver blocked on an unreachable callback")
	}
	assert.Equal(t, []bool{false}, metrics.delivered)

	d.Close()
	goleak.VerifyNone(t)
}

func TestDispatcher_Send_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := NewDispatcher(Config{Timeout: 50 * time.Millisecond}, nil, logger.NewNop())
	defer d.Close()

	err := d.Send(context.Background(), srv.URL, completedResult())
	assert.ErrorIs(t, err, entity.ErrCallbackDelivery)
}

func TestNewPayload_FailedResult(t *testing.T) {
	r := entity.NewEvaluationResult("eval-8")
	r.Fail(0, nil, assert.AnError)

	p := NewPayload(r)
	require.NotNil(t, p.Error)
	assert.Equal(t, assert.AnError.Error(), *p.Error)
	assert.Equal(t, entity.StatusFailed, p.Status)
	assert.Nil(t, p.Result)
	assert.NotNil(t, p.Logs)
}
