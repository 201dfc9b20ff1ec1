package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
)

const (
	storyboardCell   = 512
	storyboardGutter = 16
	storyboardHeader = 64
)

// StoryboardComposer lays the four shots of a variant out as a labelled 2x2 sheet.
type StoryboardComposer struct {
	titleFace font.Face
	labelFace font.Face
}

func NewStoryboardComposer() (*StoryboardComposer, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse storyboard font: %w", err)
	}
	return &StoryboardComposer{
		titleFace: truetype.NewFace(parsed, &truetype.Options{Size: 28, DPI: 72, Hinting: font.HintingNone}),
		labelFace: truetype.NewFace(parsed, &truetype.Options{Size: 20, DPI: 72, Hinting: font.HintingNone}),
	}, nil
}

// Compose returns a PNG. Every required shot must have image bytes.
func (c *StoryboardComposer) Compose(title string, shots map[adpack.ShotType][]byte) ([]byte, error) {
	width := 2*storyboardCell + 3*storyboardGutter
	height := storyboardHeader + 2*storyboardCell + 3*storyboardGutter

	dc := gg.NewContext(width, height)
	dc.SetColor(color.NRGBA{R: 18, G: 18, B: 20, A: 255})
	dc.Clear()

	dc.SetFontFace(c.titleFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(strings.TrimSpace(title), float64(width)/2, storyboardHeader/2+storyboardGutter/2, 0.5, 0.5)

	for i, st := range adpack.RequiredShots {
		raw, ok := shots[st]
		if !ok || len(raw) == 0 {
			return nil, fmt.Errorf("storyboard missing %s shot", st)
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("decode %s shot: %w", st, err)
		}
		x := storyboardGutter + (i%2)*(storyboardCell+storyboardGutter)
		y := storyboardHeader + storyboardGutter + (i/2)*(storyboardCell+storyboardGutter)
		dc.DrawImage(fitCell(img, storyboardCell), x, y)

		dc.SetColor(color.NRGBA{A: 170})
		dc.DrawRectangle(float64(x), float64(y+storyboardCell-36), storyboardCell, 36)
		dc.Fill()
		dc.SetFontFace(c.labelFace)
		dc.SetColor(color.White)
		dc.DrawString(fmt.Sprintf("%d. %s", i+1, strings.ToUpper(string(st))), float64(x+12), float64(y+storyboardCell-12))
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode storyboard: %w", err)
	}
	return buf.Bytes(), nil
}

// fitCell center-crops img to a square and scales it to size.
func fitCell(img image.Image, size int) image.Image {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	src := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}
