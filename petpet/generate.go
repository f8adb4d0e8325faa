package petpet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"math"

	// decoders accepted from the image source
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	DefaultFrames = 10
	DefaultSize   = 112
	DefaultDelay  = 2 // hundredths of a second

	// maxSquish is the largest vertical compression applied at the bottom
	// of the press, as a fraction of the resting height.
	maxSquish = 0.25
)

// ErrEmptyImage is returned when the input decodes to a zero-sized image.
var ErrEmptyImage = errors.New("image has no pixels")

// Pipeline renders animations. It holds only settings and is safe for
// concurrent use.
type Pipeline struct {
	frames int
	size   int
	delay  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFrames sets the number of frames per loop.
func WithFrames(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.frames = n
		}
	}
}

// WithSize sets the square canvas edge in pixels.
func WithSize(px int) Option {
	return func(p *Pipeline) {
		if px > 0 {
			p.size = px
		}
	}
}

// WithDelay sets the per-frame delay in hundredths of a second.
func WithDelay(cs int) Option {
	return func(p *Pipeline) {
		if cs > 0 {
			p.delay = cs
		}
	}
}

// New creates a Pipeline with the defaults above.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{frames: DefaultFrames, size: DefaultSize, delay: DefaultDelay}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Transform decodes raw, animates it with filter and returns the encoded GIF.
// ctx is checked between frames.
func (p *Pipeline) Transform(ctx context.Context, raw []byte, filter Filter) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	pal := transparentPalette()
	anim := &gif.GIF{LoopCount: 0}
	canvas := image.Rect(0, 0, p.size, p.size)

	for i := 0; i < p.frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rgba := image.NewRGBA(canvas) // starts fully transparent
		filter.interpolator().Scale(rgba, p.frameRect(i), src, src.Bounds(), draw.Over, nil)

		frame := image.NewPaletted(canvas, pal)
		draw.FloydSteinberg.Draw(frame, canvas, rgba, image.Point{})

		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, p.delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}
	return buf.Bytes(), nil
}

// frameRect returns where the image lands in frame i. The image rests at 80%
// of the canvas, gets squashed down and widened toward the middle of the
// loop, and stays anchored to the bottom center.
func (p *Pipeline) frameRect(i int) image.Rectangle {
	phase := float64(i) / float64(p.frames)
	squish := maxSquish * (1 - math.Cos(2*math.Pi*phase)) / 2

	base := float64(p.size) * 0.8
	w := int(math.Round(base * (1 + squish/2)))
	h := int(math.Round(base * (1 - squish)))
	if w > p.size {
		w = p.size
	}
	if h < 1 {
		h = 1
	}

	x0 := (p.size - w) / 2
	y1 := p.size
	return image.Rect(x0, y1-h, x0+w, y1)
}

// transparentPalette is Plan9 with index 0 replaced by full transparency.
func transparentPalette() color.Palette {
	pal := make(color.Palette, len(palette.Plan9))
	copy(pal, palette.Plan9)
	pal[0] = color.Transparent
	return pal
}
