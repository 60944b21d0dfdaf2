package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/jeebie-color/jeebie/backend"
	"github.com/valerio/jeebie-color/jeebie/backend/terminal/render"
	"github.com/valerio/jeebie-color/jeebie/input"
	"github.com/valerio/jeebie-color/jeebie/input/action"
	"github.com/valerio/jeebie-color/jeebie/input/event"
	"github.com/valerio/jeebie-color/jeebie/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// the frame is drawn with half blocks, two pixel rows per cell, inside a
	// one cell border
	gameOriginX   = 1
	gameOriginY   = 1
	gameCellsWide = width
	gameCellsHigh = height / 2

	minTermWidth  = gameCellsWide + 2
	minTermHeight = gameCellsHigh + 2

	logPanelMinWidth = 20
	logCapacity      = 200
)

// Key expiry timeout - slightly longer than typical key repeat interval.
// Terminals only report presses, a key is held as long as repeats arrive.
const keyTimeout = 100 * time.Millisecond

// Backend renders to a terminal with tcell, using true color half blocks.
type Backend struct {
	screen     tcell.Screen
	running    bool
	logBuffer  *render.LogBuffer
	config     backend.BackendConfig
	bindings   map[string]action.Action
	eventQueue []backend.InputEvent // emulator actions waiting for Update

	keyStates  map[action.Action]time.Time // Last time each button was seen
	activeKeys map[action.Action]bool      // Buttons active in previous frame

	signals chan os.Signal
	now     func() time.Time
}

// New creates a new terminal backend on the real terminal.
func New() *Backend {
	return &Backend{now: time.Now}
}

// NewWithScreen creates a backend drawing on screen, which Init will
// initialize.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{screen: screen, now: time.Now}
}

// Init initializes the terminal and redirects logging into the side panel.
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.bindings = config.Bindings
	if t.bindings == nil {
		t.bindings = input.DefaultKeyMap
	}
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	t.running = true

	// the terminal is ours now, logs go to the panel
	t.logBuffer = render.NewLogBuffer(logCapacity)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelInfo)))
	slog.Info("Terminal backend initialized", "title", config.Title)

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	return nil
}

// Update renders a frame and returns the input collected since last call.
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := t.now()

	select {
	case sig := <-t.signals:
		slog.Info("Received signal", "signal", sig)
		t.queue(action.EmulatorQuit)
	default:
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.buttonEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	if t.running && frame != nil {
		t.render(frame)
		t.screen.Show()
	}
	return events, nil
}

// buttonEvents turns the key timestamps into Press, Hold and Release.
func (t *Backend) buttonEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	active := make(map[action.Action]bool)

	for act, lastPressed := range t.keyStates {
		if now.Sub(lastPressed) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		active[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}

	for act := range t.activeKeys {
		if !active[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = active
	return events
}

// Cleanup restores the terminal.
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	return nil
}

// Logs returns the most recent log entries, newest first.
func (t *Backend) Logs(n int) []render.LogEntry {
	return t.logBuffer.GetRecent(n)
}

func (t *Backend) queue(act action.Action) {
	t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyCtrlC {
		t.queue(action.EmulatorQuit)
		return
	}

	act, ok := t.bindings[keyName(ev)]
	if !ok {
		return
	}
	if !act.IsButton() {
		if act == action.EmulatorQuit {
			t.running = false
		}
		t.queue(act)
		return
	}

	if isDPad(act) {
		// opposite directions can't be held together on the real pad, and
		// terminals only repeat the last key anyway
		for _, dir := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			delete(t.keyStates, dir)
		}
	}
	t.keyStates[act] = now
}

func isDPad(act action.Action) bool {
	return act >= action.GBDPadUp && act <= action.GBDPadRight
}

// keyNames converts tcell keys to key names used in the bindings.
var keyNames = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyTab:        "Tab",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyEscape:     "Escape",
	tcell.KeyF1:         "F1",
	tcell.KeyF2:         "F2",
	tcell.KeyF3:         "F3",
	tcell.KeyF4:         "F4",
	tcell.KeyF5:         "F5",
	tcell.KeyF6:         "F6",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF9:         "F9",
	tcell.KeyF10:        "F10",
	tcell.KeyF11:        "F11",
	tcell.KeyF12:        "F12",
}

// keyName returns the binding name of a key: named keys as listed in
// keyNames, printable runes as typed and space as "Space".
func keyName(ev *tcell.EventKey) string {
	if ev.Key() != tcell.KeyRune {
		return keyNames[ev.Key()]
	}
	if ev.Rune() == ' ' {
		return "Space"
	}
	return string(ev.Rune())
}

func (t *Backend) render(frame *video.FrameBuffer) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, style)
		return
	}

	dividerX := gameOriginX + gameCellsWide
	t.drawBorders(termWidth, termHeight, dividerX)
	t.drawGameBoy(frame)

	if panelWidth := termWidth - dividerX - 2; panelWidth >= logPanelMinWidth {
		t.drawLogs(dividerX+2, 1, panelWidth, termHeight-2)
	}
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	if dividerX < termWidth {
		for y := 0; y < termHeight; y++ {
			t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
		}
	}

	title := " Game Boy "
	if t.config.Title != "" {
		title = " " + t.config.Title + " "
	}
	t.drawText(1, 0, dividerX-1, title, titleStyle)
	if dividerX+2 < termWidth {
		t.drawText(dividerX+2, 0, termWidth-dividerX-2, " Logs ", titleStyle)
	}

	help := " Z/X=A/B Enter=Start Backspace=Select P=pause O=step F9=snapshot Q=quit "
	t.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

// drawGameBoy draws two pixel rows per cell: the upper half block takes the
// top pixel as foreground and the bottom pixel as background.
func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	pixels := frame.ToSlice()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := pixels[y*width+x]
			bottom := pixels[(y+1)*width+x]
			style := tcell.StyleDefault.Foreground(toColor(top)).Background(toColor(bottom))
			t.screen.SetContent(gameOriginX+x, gameOriginY+y/2, '▀', nil, style)
		}
	}
}

// toColor converts a 0xRRGGBBAA pixel.
func toColor(px uint32) tcell.Color {
	return tcell.NewRGBColor(int32(px>>24&0xFF), int32(px>>16&0xFF), int32(px>>8&0xFF))
}

func (t *Backend) drawLogs(startX, startY, width, rows int) {
	if rows <= 0 {
		return
	}

	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.GetRecent(rows) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		t.drawText(startX, startY+i, width, render.FormatLogEntry(entry), style)
	}
}

// drawText writes s from (x, y), cutting it with an ellipsis past width cells.
func (t *Backend) drawText(x, y, width int, s string, style tcell.Style) {
	runes := []rune(s)
	if len(runes) > width {
		if width > 3 {
			runes = append(runes[:width-3], '.', '.', '.')
		} else if width > 0 {
			runes = runes[:width]
		} else {
			return
		}
	}
	for i, r := range runes {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
