package bridge

import (
	"context"
	"errors"
	"sync"
)

var errBlocked = errors.New("bot was blocked by the user")

// fakeSender records every send and fails for the IDs in fail.
type fakeSender struct {
	mu    sync.Mutex
	calls []ID
	texts []string
	fail  map[ID]error
	// hang blocks sends to these IDs until release is closed, ignoring ctx.
	hang    map[ID]bool
	release chan struct{}
}

func (f *fakeSender) Send(_ context.Context, to ID, text string) error {
	f.mu.Lock()
	f.calls = append(f.calls, to)
	f.texts = append(f.texts, text)
	hang := f.hang[to]
	err := f.fail[to]
	f.mu.Unlock()

	if hang {
		<-f.release
	}
	return err
}

func (f *fakeSender) Calls() []ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ID(nil), f.calls...)
}

type fakeOwner struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeOwner) NotifyOwner(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeOwner) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type sendObservation struct {
	direction string
	err       error
}

type fakeObserver struct {
	mu       sync.Mutex
	sends    []sendObservation
	commands []Outcome
}

func (f *fakeObserver) ObserveSend(direction string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sendObservation{direction, err})
}

func (f *fakeObserver) ObserveCommand(o Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, o)
}
