package services

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
)

func TestComposeStoryboard(t *testing.T) {
	c, err := NewStoryboardComposer()
	if err != nil {
		t.Fatalf("NewStoryboardComposer: %v", err)
	}
	shots := map[adpack.ShotType][]byte{}
	for i, st := range adpack.RequiredShots {
		shots[st] = testPNG(t, color.NRGBA{R: uint8(60 * i), G: 120, B: 200, A: 255})
	}
	out, err := c.Compose("Cloud Hoodie / hook", shots)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantW := 2*storyboardCell + 3*storyboardGutter
	wantH := storyboardHeader + 2*storyboardCell + 3*storyboardGutter
	if b := img.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("bounds: want=%dx%d got=%dx%d", wantW, wantH, b.Dx(), b.Dy())
	}
}

func TestComposeStoryboardMissingShot(t *testing.T) {
	c, err := NewStoryboardComposer()
	if err != nil {
		t.Fatalf("NewStoryboardComposer: %v", err)
	}
	shots := map[adpack.ShotType][]byte{adpack.ShotTypeHook: testPNG(t, color.White)}
	if _, err := c.Compose("x", shots); err == nil {
		t.Fatalf("expected error for missing shots")
	}
	shots = map[adpack.ShotType][]byte{}
	for _, st := range adpack.RequiredShots {
		shots[st] = []byte("not an image")
	}
	if _, err := c.Compose("x", shots); err == nil {
		t.Fatalf("expected decode error")
	}
}
