package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name     string
		body     string
		outcome  Outcome
		selector string
		payload  string
	}{
		{name: "tagged", body: "tg:john Hello there", outcome: Ready, selector: "john", payload: "Hello there"},
		{name: "default all", body: "tg: Hi everyone", outcome: Ready, selector: "all", payload: "Hi everyone"},
		{name: "explicit all", body: "tg:all  see you ", outcome: Ready, selector: "all", payload: "see you"},
		{name: "tag is case-insensitive", body: "tg:JOHN Hey", outcome: Ready, selector: "john", payload: "Hey"},
		{name: "unknown first word stays in payload", body: "tg:Lunch at noon?", outcome: Ready, selector: "all", payload: "Lunch at noon?"},
		{name: "single unknown word", body: "tg:hello", outcome: Ready, selector: "all", payload: "hello"},
		{name: "payload casing kept", body: "tg:mary  HeLLo\nWorld", outcome: Ready, selector: "mary", payload: "HeLLo\nWorld"},
		{name: "tag without text", body: "tg:john", outcome: MissingPayload, selector: "john"},
		{name: "tag with trailing space", body: "tg:john   ", outcome: MissingPayload, selector: "john"},
		{name: "all without text", body: "tg:all", outcome: MissingPayload, selector: "all"},
		{name: "empty", body: "tg:", outcome: EmptyPayload},
		{name: "blank", body: "tg:   ", outcome: EmptyPayload},
		{name: "no prefix", body: "hello tg: john", outcome: NotACommand},
		{name: "shorter than prefix", body: "tg", outcome: NotACommand},
		{name: "empty body", body: "", outcome: NotACommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.body, "tg:", reg)
			assert.Equal(t, tt.outcome, cmd.Outcome)
			assert.Equal(t, tt.selector, cmd.Selector)
			assert.Equal(t, tt.payload, cmd.Payload)
			assert.Equal(t, tt.body, cmd.Raw)
		})
	}
}

func TestParseCommandPrefixCaseInsensitive(t *testing.T) {
	reg := testRegistry(t)
	upper := ParseCommand("TG: hello", "tg:", reg)
	lower := ParseCommand("tg: hello", "tg:", reg)
	mixed := ParseCommand("Tg: hello", "TG:", reg)

	for _, cmd := range []Command{upper, lower, mixed} {
		assert.Equal(t, Ready, cmd.Outcome)
		assert.Equal(t, "all", cmd.Selector)
		assert.Equal(t, "hello", cmd.Payload)
	}
}

func TestParseCommandCustomPrefix(t *testing.T) {
	reg := testRegistry(t)
	cmd := ParseCommand("!Telegram mary ok", "!telegram", reg)
	assert.Equal(t, Ready, cmd.Outcome)
	assert.Equal(t, "mary", cmd.Selector)
	assert.Equal(t, "ok", cmd.Payload)

	assert.Equal(t, NotACommand, ParseCommand("tg:mary ok", "!telegram", reg).Outcome)
}

func TestParseCommandNonPrefixedNeverCommands(t *testing.T) {
	reg := testRegistry(t)
	for _, body := range []string{"hi", " tg:john hi", "t g:", "tgx", "ťg:hi", "[TG] john: hi"} {
		assert.Equal(t, NotACommand, ParseCommand(body, "tg:", reg).Outcome, "body %q", body)
	}
}
