package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/system"
)

// Options controls the overlay of a canvas.
type Options struct {
	Background color.RGBA
	Margin     float64
	HUD        bool
	// QRSize is the side of the QR stamp in pixels; 0 disables it.
	QRSize int
	Title  string
}

// DefaultOptions is a light background with the text overlay on.
func DefaultOptions() Options {
	return Options{
		Background: color.RGBA{R: 0xf4, G: 0xf1, B: 0xea, A: 0xff},
		Margin:     0.08,
		HUD:        true,
	}
}

// Canvas renders snapshots of one scene into RGBA frames.
type Canvas struct {
	width, height int
	scene         Scene
	proj          Projector
	opts          Options
	pool          *system.ImagePool
}

func NewCanvas(w, h int, scene Scene, opts Options, pool *system.ImagePool) *Canvas {
	if pool == nil {
		pool = system.NewImagePool()
	}
	return &Canvas{
		width:  w,
		height: h,
		scene:  scene,
		proj:   NewProjector(scene.Bounds, w, h, opts.Margin),
		opts:   opts,
		pool:   pool,
	}
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

// Release hands a frame back to the canvas pool.
func (c *Canvas) Release(img *image.RGBA) { c.pool.Put(img) }

type quad struct {
	rect    image.Rectangle
	depth   float64
	color   color.RGBA
	alpha   uint8
	outline bool
}

// Render draws one snapshot. Invisible states are skipped; opacity maps to
// the fill alpha. The returned frame belongs to the caller until Release.
func (c *Canvas) Render(s driver.Snapshot) (*image.RGBA, error) {
	img := c.pool.Get(c.width, c.height)
	draw.Draw(img, img.Bounds(), image.NewUniform(c.opts.Background), image.Point{}, draw.Src)

	var quads []quad
	for _, sh := range c.scene.Static {
		quads = append(quads, c.quad(sh, corners(sh.Box), 1))
	}
	for _, st := range s.States {
		if !st.Visible || st.Opacity <= 0 {
			continue
		}
		sh, ok := c.scene.Shapes[st.ID]
		if !ok {
			continue
		}
		quads = append(quads, c.quad(sh, placed(sh.Box, st), st.Opacity))
	}
	sort.SliceStable(quads, func(i, j int) bool { return quads[i].depth > quads[j].depth })

	for _, q := range quads {
		fillQuad(img, q)
	}

	if c.opts.HUD {
		c.drawHUD(img, s)
	}
	if c.opts.QRSize > 0 {
		if err := c.stampQR(img, s); err != nil {
			c.pool.Put(img)
			return nil, err
		}
	}
	return img, nil
}

func (c *Canvas) quad(sh Shape, pts [8]pose.Vec3, opacity float64) quad {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	depth := 0.0
	for _, p := range pts {
		x, y, d := c.proj.Project(p)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		depth += d
	}
	a := math.Round(math.Max(0, math.Min(1, opacity)) * 255)
	return quad{
		rect:    image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY))),
		depth:   depth / 8,
		color:   sh.Color,
		alpha:   uint8(a),
		outline: sh.Outline,
	}
}

func fillQuad(img *image.RGBA, q quad) {
	src := image.NewUniform(q.color)
	mask := image.NewUniform(color.Alpha{A: q.alpha})
	if !q.outline {
		draw.DrawMask(img, q.rect, src, image.Point{}, mask, image.Point{}, draw.Over)
		return
	}
	r := q.rect
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+2),
		image.Rect(r.Min.X, r.Max.Y-2, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+2, r.Max.Y),
		image.Rect(r.Max.X-2, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.DrawMask(img, e, src, image.Point{}, mask, image.Point{}, draw.Over)
	}
}

var hudColor = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}

// HUDLines formats the text overlay of a snapshot.
func HUDLines(title string, s driver.Snapshot) []string {
	var lines []string
	if title != "" {
		lines = append(lines, title)
	}
	lines = append(lines, fmt.Sprintf("frame %d", s.Index))
	for _, st := range s.Stages {
		if !st.Ready && st.Phase == "" {
			lines = append(lines, fmt.Sprintf("%s: not ready", st.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s t=%.2f p=%.3f", st.Name, st.Phase, st.LocalT, st.Progress))
	}
	return lines
}

func (c *Canvas) drawHUD(img *image.RGBA, s driver.Snapshot) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(hudColor), Face: face}
	lineHeight := face.Metrics().Height.Ceil() + 2
	y := 8 + face.Metrics().Ascent.Ceil()
	for _, line := range HUDLines(c.opts.Title, s) {
		d.Dot = fixed.P(10, y)
		d.DrawString(line)
		y += lineHeight
	}
}

// QRPayload is the text encoded into the QR stamp.
func QRPayload(s driver.Snapshot) string {
	payload := fmt.Sprintf("f=%d", s.Index)
	for _, st := range s.Stages {
		payload += fmt.Sprintf(";%s=%s@%.4f", st.Name, st.Phase, st.LocalT)
	}
	return payload
}

func (c *Canvas) stampQR(img *image.RGBA, s driver.Snapshot) error {
	q, err := qrcode.New(QRPayload(s), qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr encode: %w", err)
	}
	code := q.Image(256)

	size := c.opts.QRSize
	b := img.Bounds()
	dst := image.Rect(b.Max.X-size-10, b.Max.Y-size-10, b.Max.X-10, b.Max.Y-10)
	xdraw.NearestNeighbor.Scale(img, dst, code, code.Bounds(), xdraw.Src, nil)
	return nil
}
