package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultSendTimeout bounds a single transport send.
const DefaultSendTimeout = 5 * time.Second

var ErrSendTimeout = errors.New("timeout")

// Sender delivers text to a friend on the outbound transport.
type Sender interface {
	Send(ctx context.Context, to ID, text string) error
}

// Result is the outcome of one send attempt.
type Result struct {
	Destination ID
	Err         error
}

func (r Result) Delivered() bool { return r.Err == nil }

type Summary struct {
	Delivered int
	Failed    int
}

// Dispatch sends payload to every destination in order, once each. A failed
// send never stops the remaining ones.
func Dispatch(ctx context.Context, sender Sender, destinations []ID, payload string, timeout time.Duration) []Result {
	results := make([]Result, 0, len(destinations))
	for _, id := range destinations {
		err := sendWithTimeout(ctx, timeout, func(ctx context.Context) error {
			return sender.Send(ctx, id, payload)
		})
		results = append(results, Result{Destination: id, Err: err})
	}
	return results
}

func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Delivered() {
			s.Delivered++
		} else {
			s.Failed++
		}
	}
	return s
}

// sendWithTimeout runs send on its own goroutine so a transport that ignores
// ctx still cannot block the caller past the deadline.
func sendWithTimeout(ctx context.Context, timeout time.Duration, send func(context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("send panicked: %v", r)
			}
		}()
		done <- send(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			return ErrSendTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrSendTimeout
		}
		return ctx.Err()
	}
}
