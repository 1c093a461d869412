// Package logging backs whatsmeow's waLog.Logger with zerolog so the
// WhatsApp client, the Telegram bot and the bridge share one log stream.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"
)

type zeroLogger struct {
	base   zerolog.Logger
	log    zerolog.Logger
	module string
}

// New returns a root logger writing to w. format is "json" or "console".
func New(w io.Writer, level zerolog.Level, format string) waLog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return Wrap(zerolog.New(w).Level(level).With().Timestamp().Logger())
}

func Wrap(log zerolog.Logger) waLog.Logger {
	return &zeroLogger{base: log, log: log}
}

func (z *zeroLogger) Errorf(msg string, args ...interface{}) {
	z.log.Error().Msg(fmt.Sprintf(msg, args...))
}

func (z *zeroLogger) Warnf(msg string, args ...interface{}) {
	z.log.Warn().Msg(fmt.Sprintf(msg, args...))
}

func (z *zeroLogger) Infof(msg string, args ...interface{}) {
	z.log.Info().Msg(fmt.Sprintf(msg, args...))
}

func (z *zeroLogger) Debugf(msg string, args ...interface{}) {
	z.log.Debug().Msg(fmt.Sprintf(msg, args...))
}

// Sub nests module names: Sub("Client").Sub("Socket") logs "Client/Socket".
func (z *zeroLogger) Sub(module string) waLog.Logger {
	if z.module != "" {
		module = z.module + "/" + module
	}
	return &zeroLogger{
		base:   z.base,
		log:    z.base.With().Str("module", module).Logger(),
		module: module,
	}
}
