package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.ObserveSend(bridge.DirectionToTelegram, nil)
	r.ObserveSend(bridge.DirectionToTelegram, nil)
	r.ObserveSend(bridge.DirectionToTelegram, errors.New("blocked"))
	r.ObserveSend(bridge.DirectionToOwner, bridge.ErrSendTimeout)
	r.ObserveCommand(bridge.Ready)
	r.ObserveCommand(bridge.EmptyPayload)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Sends.WithLabelValues(bridge.DirectionToTelegram, "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Sends.WithLabelValues(bridge.DirectionToTelegram, "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Sends.WithLabelValues(bridge.DirectionToOwner, "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Commands.WithLabelValues("ready")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Commands.WithLabelValues("empty-payload")))
}

type fakeStatus struct {
	loggedIn bool
	qr       string
}

func (f fakeStatus) LoggedIn() bool { return f.loggedIn }
func (f fakeStatus) QRCode() string { return f.qr }

func TestHandlerStatus(t *testing.T) {
	h := Handler(NewRecorder(), fakeStatus{qr: "2@abc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "disconnected", body["status"])
	assert.Equal(t, "2@abc", body["qr"])

	h = Handler(NewRecorder(), fakeStatus{loggedIn: true})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "connected", body["status"])
}

func TestHandlerMetrics(t *testing.T) {
	r := NewRecorder()
	r.ObserveSend(bridge.DirectionReply, nil)

	rec := httptest.NewRecorder()
	Handler(r, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `watg_bridge_sends_total{direction="reply",outcome="delivered"} 1`))
}
