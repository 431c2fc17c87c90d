package render

import (
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/castlerock/dmgcore/dmg/video"
)

const (
	testPatternCount = 4
	targetFPS        = 60
	animationFrames  = 30

	checkerTile  = 8
	stripeWidth  = 4
	diagonalTile = 8
)

// RunTestPattern displays synthetic frames to exercise the rendering
// pipeline without a ROM loaded, for checking a terminal's block-glyph
// display independent of emulation correctness.
func RunTestPattern() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()

	slog.Info("starting test pattern display")

	fb := video.NewFrameBuffer()
	patternType := 0
	fillPattern(fb, patternType)

	running := true
	go func() {
		for running {
			ev := screen.PollEvent()
			switch ev := ev.(type) {
			case *tcell.EventKey:
				switch ev.Key() {
				case tcell.KeyEscape, tcell.KeyCtrlC:
					running = false
					return
				case tcell.KeyRune:
					if ev.Rune() == ' ' {
						patternType = (patternType + 1) % testPatternCount
						fillPattern(fb, patternType)
					}
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(time.Second / targetFPS)
	defer ticker.Stop()

	frameCount := 0
	patternNames := []string{"Checkerboard", "Gradient", "Stripes", "Diagonal"}

	for running {
		<-ticker.C
		frameCount++

		if frameCount%animationFrames == 0 {
			animatePattern(fb, patternType, frameCount/animationFrames)
		}

		drawTestFrame(screen, fb)

		termWidth, termHeight := screen.Size()
		status := "Pattern: " + patternNames[patternType] + " (SPACE to cycle, ESC to exit)"
		for i, ch := range status {
			if i < termWidth {
				screen.SetContent(i, termHeight-1, ch, nil, tcell.StyleDefault.Foreground(tcell.ColorYellow))
			}
		}

		screen.Show()
	}

	return nil
}

func drawTestFrame(screen tcell.Screen, fb *video.FrameBuffer) {
	frame := fb.ToSlice()
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for y := 0; y < video.FramebufferHeight; y += 2 {
		for x := 0; x < video.FramebufferWidth; x++ {
			shade := shadeOf(frame[y*video.FramebufferWidth+x])
			screen.SetContent(x, y/2+1, shadeChars[shade], nil, style)
		}
	}
}

func fillPattern(fb *video.FrameBuffer, patternType int) {
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			var color video.GBColor
			switch patternType {
			case 0:
				if ((x/checkerTile)+(y/checkerTile))%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.BlackColor
				}
			case 1:
				gray := uint32(x * 255 / video.FramebufferWidth)
				color = video.GBColor((gray << 24) | (gray << 16) | (gray << 8) | 0xFF)
			case 2:
				if (x/stripeWidth)%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.DarkGreyColor
				}
			case 3:
				if ((x+y)/diagonalTile)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
			}
			fb.SetPixel(uint(x), uint(y), color)
		}
	}
}

func animatePattern(fb *video.FrameBuffer, patternType, frame int) {
	switch patternType {
	case 2:
		for y := 0; y < video.FramebufferHeight; y++ {
			for x := 0; x < video.FramebufferWidth; x++ {
				var color video.GBColor
				if ((x+frame*2)/stripeWidth)%2 == 0 {
					color = video.WhiteColor
				} else {
					color = video.DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	case 3:
		for y := 0; y < video.FramebufferHeight; y++ {
			for x := 0; x < video.FramebufferWidth; x++ {
				var color video.GBColor
				if ((x+y+frame*4)/diagonalTile)%2 == 0 {
					color = video.LightGreyColor
				} else {
					color = video.DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	}
}
