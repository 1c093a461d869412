package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vhalmd/wa-tg-bridge/internal/bridge"
)

// Recorder counts bridge traffic. It implements bridge.Observer.
type Recorder struct {
	registry *prometheus.Registry

	Sends    *prometheus.CounterVec
	Commands *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "watg",
				Subsystem: "bridge",
				Name:      "sends_total",
				Help:      "Send attempts by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "watg",
				Subsystem: "bridge",
				Name:      "commands_total",
				Help:      "Owner commands by parse outcome",
			},
			[]string{"outcome"},
		),
	}
	r.registry.MustRegister(r.Sends, r.Commands)
	return r
}

func (r *Recorder) ObserveSend(direction string, err error) {
	outcome := "delivered"
	switch {
	case errors.Is(err, bridge.ErrSendTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "failed"
	}
	r.Sends.WithLabelValues(direction, outcome).Inc()
}

func (r *Recorder) ObserveCommand(o bridge.Outcome) {
	r.Commands.WithLabelValues(o.String()).Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// StatusProvider reports the WhatsApp login state.
type StatusProvider interface {
	LoggedIn() bool
	QRCode() string
}

// Handler serves /metrics and /status.
func Handler(r *Recorder, status StatusProvider) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		response := map[string]string{"status": "disconnected", "qr": ""}
		if status != nil {
			if status.LoggedIn() {
				response["status"] = "connected"
			}
			response["qr"] = status.QRCode()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
	return mux
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
