// Package render draws the emulator's frame buffer and handles keyboard
// input for an interactive terminal session, backed by tcell.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/castlerock/dmgcore/dmg"
	"github.com/castlerock/dmgcore/dmg/input"
	"github.com/castlerock/dmgcore/dmg/input/action"
	"github.com/castlerock/dmgcore/dmg/input/event"
	"github.com/castlerock/dmgcore/dmg/timing"
)

const (
	width  = 160
	height = 144

	gameAreaWidth  = width
	gameAreaHeight = height
	registerHeight = 2
	minTermWidth   = gameAreaWidth + 24
	minTermHeight  = gameAreaHeight/2 + registerHeight + 3

	// releaseDelay approximates a held key's release: tcell delivers key-down
	// events only, so a pressed joypad button is released shortly after if no
	// repeat arrives to refresh it.
	releaseDelay = 100 * time.Millisecond
)

var shadeChars = []rune{'█', '▓', '▒', '░'}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// TerminalRenderer drives the emulator interactively: it paces emulation to
// the real DMG frame rate, draws the frame buffer as block glyphs and routes
// keystrokes through the shared input manager.
type TerminalRenderer struct {
	screen   tcell.Screen
	emulator *jeebie.Emulator
	manager  *input.Manager
	limiter  timing.Limiter
	running  bool
}

// NewTerminalRenderer initializes a tcell screen and wires the emulator's
// joypad/audio controls behind the shared input manager.
func NewTerminalRenderer(emu *jeebie.Emulator) (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("render: failed to initialize terminal: %w", err)
	}

	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("render: failed to initialize terminal: %w", err)
	}

	t := &TerminalRenderer{
		screen:   screen,
		emulator: emu,
		manager:  input.NewManager(emu.GetMMU()),
		limiter:  timing.NewAdaptiveLimiter(),
		running:  true,
	}

	t.manager.On(action.EmulatorQuit, event.Press, func() { t.running = false })
	apu := emu.GetMMU().APU
	if apu != nil {
		t.manager.On(action.AudioToggleChannel1, event.Press, func() { apu.ToggleChannel(0) })
		t.manager.On(action.AudioToggleChannel2, event.Press, func() { apu.ToggleChannel(1) })
		t.manager.On(action.AudioToggleChannel3, event.Press, func() { apu.ToggleChannel(2) })
		t.manager.On(action.AudioToggleChannel4, event.Press, func() { apu.ToggleChannel(3) })
		t.manager.On(action.AudioSoloChannel1, event.Press, func() { apu.SoloChannel(0) })
		t.manager.On(action.AudioSoloChannel2, event.Press, func() { apu.SoloChannel(1) })
		t.manager.On(action.AudioSoloChannel3, event.Press, func() { apu.SoloChannel(2) })
		t.manager.On(action.AudioSoloChannel4, event.Press, func() { apu.SoloChannel(3) })
	}

	slog.Info("terminal renderer initialized")

	return t, nil
}

// Run paces the emulator at the real DMG frame rate, redrawing the screen
// after each frame, until a quit action or termination signal is received.
func (t *TerminalRenderer) Run() error {
	defer func() {
		slog.Info("closing terminal")
		t.screen.Fini()
	}()

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	go t.handleInput()

	for t.running {
		select {
		case <-signals:
			slog.Info("received signal to stop")
			return nil
		default:
		}

		t.emulator.RunFrame()
		t.limiter.WaitForNextFrame()
		t.render()
		t.screen.Show()
	}

	return nil
}

func (t *TerminalRenderer) handleInput() {
	for t.running {
		ev := t.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				t.running = false
				return
			}
			name, ok := keyName(ev)
			if !ok {
				continue
			}
			act, ok := input.GetDefaultMapping(name)
			if !ok {
				continue
			}
			t.manager.Trigger(act, event.Press)
			if info := action.GetInfo(act); info.Category == action.CategoryGameInput {
				time.AfterFunc(releaseDelay, func() { t.manager.Trigger(act, event.Release) })
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

// keyName turns a tcell key event into the string vocabulary used by
// input.DefaultKeyMap. Built by hand rather than derived from tcell's own
// Name(), so both sides of the mapping are defined together in this module.
func keyName(ev *tcell.EventKey) (string, bool) {
	switch ev.Key() {
	case tcell.KeyEnter:
		return "Enter", true
	case tcell.KeyEscape:
		return "Escape", true
	case tcell.KeyUp:
		return "Up", true
	case tcell.KeyDown:
		return "Down", true
	case tcell.KeyLeft:
		return "Left", true
	case tcell.KeyRight:
		return "Right", true
	case tcell.KeyF1:
		return "F1", true
	case tcell.KeyF2:
		return "F2", true
	case tcell.KeyF3:
		return "F3", true
	case tcell.KeyF4:
		return "F4", true
	case tcell.KeyF5:
		return "F5", true
	case tcell.KeyF9:
		return "F9", true
	case tcell.KeyF10:
		return "F10", true
	case tcell.KeyF11:
		return "F11", true
	case tcell.KeyF12:
		return "F12", true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			return "Space", true
		}
		return string(ev.Rune()), true
	}
	return "", false
}

func (t *TerminalRenderer) render() {
	termWidth, termHeight := t.screen.Size()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		for i, ch := range msg {
			t.screen.SetContent(i, termHeight/2, ch, nil, style)
		}
		return
	}

	t.screen.Clear()
	t.drawBorders(termWidth, termHeight)
	t.drawGameBoy()
	t.drawRegisters(termWidth, termHeight)
}

func (t *TerminalRenderer) drawBorders(termWidth, termHeight int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	borderX := min(gameAreaWidth+1, termWidth/2)

	for y := 0; y < termHeight; y++ {
		if borderX < termWidth {
			t.screen.SetContent(borderX, y, '│', nil, borderStyle)
		}
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	title := " Game Boy "
	for i, ch := range title {
		t.screen.SetContent(1+i, 0, ch, nil, titleStyle)
	}
	title = " Status "
	for i, ch := range title {
		if borderX+2+i < termWidth {
			t.screen.SetContent(borderX+2+i, 0, ch, nil, titleStyle)
		}
	}
}

// drawGameBoy renders the frame buffer at half the vertical resolution
// (two DMG scanlines per terminal row) using the shade glyphs, since
// terminal cells are roughly twice as tall as they are wide.
func (t *TerminalRenderer) drawGameBoy() {
	fb := t.emulator.GetCurrentFrame()
	frame := fb.ToSlice()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			pixel := frame[y*width+x]
			char := shadeChars[shadeOf(pixel)]
			t.screen.SetContent(x, y/2+1, char, nil, style)
		}
	}
}

func shadeOf(pixel uint32) int {
	switch pixel {
	case 0xFFFFFFFF: // WhiteColor
		return 3
	case 0x989898FF: // LightGreyColor
		return 2
	case 0x4C4C4CFF: // DarkGreyColor
		return 1
	case 0x000000FF: // BlackColor
		return 0
	}
	return 3
}

func (t *TerminalRenderer) drawRegisters(termWidth, termHeight int) {
	startX := min(gameAreaWidth+1, termWidth/2) + 2
	regStyle := tcell.StyleDefault.Foreground(tcell.ColorGreen)

	lines := []string{
		t.emulator.GetCPU().String(),
		fmt.Sprintf("Frame: %d", t.emulator.FrameCount()),
	}

	for i, line := range lines {
		if startX >= termWidth || 1+i >= termHeight {
			break
		}
		x := startX
		for _, ch := range line {
			if x >= termWidth {
				break
			}
			t.screen.SetContent(x, 1+i, ch, nil, regStyle)
			x++
		}
	}
}
