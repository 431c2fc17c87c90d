package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/castlerock/dmgcore/dmg/video"
)

// RGBA pixel-format and grayscale-mapping constants used when converting a
// Game Boy frame buffer to a PNG image.
const (
	rgbaBytesPerPixel = 4
	rgbaRShift        = 24
	rgbaColorMask     = 0xFF

	grayscaleWhite     = 255
	grayscaleLightGray = 170
	grayscaleDarkGray  = 85
	grayscaleBlack     = 0
	fullAlpha          = 255
)

// TakeSnapshot handles the snapshot hotkey for backends: pick a filename
// based on whether a test pattern or real emulation is on screen, and save.
func TakeSnapshot(frame *video.FrameBuffer, isTestPattern bool, testPatternType int) {
	if frame == nil {
		slog.Warn("no frame data available for snapshot")
		return
	}

	var baseName string
	if isTestPattern {
		patternNames := []string{"checkerboard", "gradient", "stripes", "diagonal"}
		name := "test-pattern"
		if testPatternType >= 0 && testPatternType < len(patternNames) {
			name = patternNames[testPatternType]
		}
		baseName = fmt.Sprintf("jeebie_snapshot_%s", name)
	} else {
		baseName = "jeebie_snapshot"
	}

	if err := SaveFramePNGToDir(frame, baseName, ""); err != nil {
		slog.Error("failed to save snapshot", "error", err)
	}
}

// SaveFramePNGToDir saves a framebuffer as a timestamped PNG in directory
// (the current working directory if empty).
func SaveFramePNGToDir(frame *video.FrameBuffer, baseName, directory string) error {
	frameData := frame.ToSlice()

	pixels := make([]byte, video.FramebufferWidth*video.FramebufferHeight*rgbaBytesPerPixel)
	for i, gbPixel := range frameData {
		idx := i * rgbaBytesPerPixel
		r, g, b, a := gbPixelToRGBA(gbPixel)
		pixels[idx] = byte(r)
		pixels[idx+1] = byte(g)
		pixels[idx+2] = byte(b)
		pixels[idx+3] = byte(a)
	}

	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	copy(img.Pix, pixels)

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.png", baseName, timestamp)

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		outputDir = cwd
	}

	filePath := filepath.Join(outputDir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	slog.Info("snapshot saved", "path", filePath, "size", fmt.Sprintf("%dx%d", video.FramebufferWidth, video.FramebufferHeight))
	return nil
}

// SaveFrameGrayPNG saves a framebuffer as a grayscale PNG, used by
// integration-style tests that compare frames against golden images.
func SaveFrameGrayPNG(frame *video.FrameBuffer, path string) error {
	img := image.NewGray(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))

	frameData := frame.ToSlice()
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			pixel := frameData[y*video.FramebufferWidth+x]

			var gray uint8
			switch pixel {
			case uint32(video.BlackColor):
				gray = grayscaleBlack
			case uint32(video.DarkGreyColor):
				gray = grayscaleDarkGray
			case uint32(video.LightGreyColor):
				gray = grayscaleLightGray
			case uint32(video.WhiteColor):
				gray = grayscaleWhite
			default:
				gray = grayscaleBlack
			}

			img.SetGray(x, y, color.Gray{Y: gray})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

func gbPixelToRGBA(gbPixel uint32) (r, g, b, a uint32) {
	switch gbPixel {
	case uint32(video.WhiteColor):
		return grayscaleWhite, grayscaleWhite, grayscaleWhite, fullAlpha
	case uint32(video.LightGreyColor):
		return grayscaleLightGray, grayscaleLightGray, grayscaleLightGray, fullAlpha
	case uint32(video.DarkGreyColor):
		return grayscaleDarkGray, grayscaleDarkGray, grayscaleDarkGray, fullAlpha
	case uint32(video.BlackColor):
		return grayscaleBlack, grayscaleBlack, grayscaleBlack, fullAlpha
	default:
		red := (gbPixel >> rgbaRShift) & rgbaColorMask
		return red, red, red, fullAlpha
	}
}
