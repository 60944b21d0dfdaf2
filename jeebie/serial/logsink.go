package serial

import (
	"log/slog"

	"github.com/valerio/jeebie-color/jeebie/addr"
	"github.com/valerio/jeebie-color/jeebie/bit"
)

const (
	// cycles to shift out one byte with the internal clock
	normalTransferCycles = 4096
	// CGB fast clock (SC bit 1)
	fastTransferCycles = 128

	// bits 1-6 of SC do not exist on DMG
	scUnusedDMG = 0x7E
	scUnusedCGB = 0x7C
)

// LogSink is a serial port with nothing plugged in: outgoing bytes are
// logged line by line and kept, incoming bytes are always 0xFF.
// Handy for test roms that report over serial.
type LogSink struct {
	onComplete func()
	logger     *slog.Logger

	sb, sc    uint8
	scUnused  uint8
	busy      bool
	countdown int
	immediate bool

	line []byte
	sent []byte
}

type LogSinkOption func(*LogSink)

// WithFixedTiming completes transfers after the hardware shift time
// instead of immediately.
func WithFixedTiming() LogSinkOption { return func(s *LogSink) { s.immediate = false } }

// WithLogger sets the logger used for completed lines.
func WithLogger(l *slog.Logger) LogSinkOption { return func(s *LogSink) { s.logger = l } }

// WithCGB exposes the CGB fast clock bit of SC.
func WithCGB() LogSinkOption { return func(s *LogSink) { s.scUnused = scUnusedCGB } }

// NewLogSink creates a new logging serial device. onComplete is called when a
// transfer finishes and should request the Serial interrupt.
func NewLogSink(onComplete func(), opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		onComplete: onComplete,
		logger:     slog.Default(),
		scUnused:   scUnusedDMG,
		immediate:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

func (s *LogSink) Write(address uint16, value byte) {
	switch address {
	case addr.SB:
		s.sb = value
	case addr.SC:
		s.sc = value &^ s.scUnused
		s.start()
	default:
		panic("serial.LogSink: invalid write address")
	}
}

func (s *LogSink) Read(address uint16) byte {
	switch address {
	case addr.SB:
		return s.sb
	case addr.SC:
		return s.sc | s.scUnused
	default:
		panic("serial.LogSink: invalid read address")
	}
}

func (s *LogSink) Tick(cycles int) {
	if !s.busy {
		return
	}
	s.countdown -= cycles
	if s.countdown <= 0 {
		s.complete()
	}
}

func (s *LogSink) Reset() {
	s.sb = 0x00
	s.sc = 0x00
	s.busy = false
	s.countdown = 0
	s.line = s.line[:0]
}

// Output returns every byte sent so far.
func (s *LogSink) Output() []byte {
	return s.sent
}

func (s *LogSink) start() {
	// only the internal clock can drive a transfer with nothing attached
	if s.busy || !bit.IsSet(7, s.sc) || !bit.IsSet(0, s.sc) {
		return
	}

	b := s.sb
	s.sent = append(s.sent, b)
	if b == 0 || b == '\n' || b == '\r' {
		s.flush()
	} else {
		s.line = append(s.line, b)
	}

	if s.immediate {
		s.complete()
		return
	}

	s.busy = true
	s.countdown = normalTransferCycles
	if s.scUnused == scUnusedCGB && bit.IsSet(1, s.sc) {
		s.countdown = fastTransferCycles
	}
}

func (s *LogSink) flush() {
	if len(s.line) > 0 {
		s.logger.Info("serial", "line", string(s.line))
		s.line = s.line[:0]
	}
}

func (s *LogSink) complete() {
	s.sb = 0xFF
	s.sc = bit.Clear(7, s.sc)
	s.busy = false
	s.countdown = 0
	if s.onComplete != nil {
		s.onComplete()
	}
}
