package pdfdoc

import (
	"image"
	"image/draw"
)

const (
	// AnalysisDPI is the resolution pages are rendered at for graphics detection.
	AnalysisDPI = 150.0

	// MinGraphicsSizeCM is the minimum width and height of a region counted as an image.
	MinGraphicsSizeCM = 2.0

	// binaryThreshold separates content from background; higher keeps more pixels.
	binaryThreshold = 200

	// minComponentPixels filters specks.
	minComponentPixels = 100
)

// region is a connected block of dark pixels.
type region struct {
	MinX, MinY, MaxX, MaxY int
	Pixels                 int
}

func (r region) width() int  { return r.MaxX - r.MinX + 1 }
func (r region) height() int { return r.MaxY - r.MinY + 1 }

// largeGraphics returns the dark regions of img whose width and height both
// reach minSizeCM at the given rendering resolution.
func largeGraphics(img image.Image, dpi, minSizeCM float64) []region {
	cmPerPixel := 2.54 / dpi
	var out []region
	for _, r := range darkRegions(img, binaryThreshold, minComponentPixels) {
		if float64(r.width())*cmPerPixel >= minSizeCM && float64(r.height())*cmPerPixel >= minSizeCM {
			out = append(out, r)
		}
	}
	return out
}

// darkRegions thresholds img and collects 4-connected components of at
// least minPixels dark pixels.
func darkRegions(img image.Image, threshold uint8, minPixels int) []region {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	dark := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dark[y*w+x] = gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y < threshold
		}
	}

	visited := make([]bool, w*h)
	var out []region
	var stack []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !dark[y*w+x] {
				continue
			}
			r := region{MinX: x, MinY: y, MaxX: x, MaxY: y}
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
					continue
				}
				i := p.Y*w + p.X
				if visited[i] || !dark[i] {
					continue
				}
				visited[i] = true
				r.Pixels++
				r.MinX, r.MaxX = min(r.MinX, p.X), max(r.MaxX, p.X)
				r.MinY, r.MaxY = min(r.MinY, p.Y), max(r.MaxY, p.Y)
				stack = append(stack,
					image.Point{X: p.X + 1, Y: p.Y},
					image.Point{X: p.X - 1, Y: p.Y},
					image.Point{X: p.X, Y: p.Y + 1},
					image.Point{X: p.X, Y: p.Y - 1},
				)
			}
			if r.Pixels >= minPixels {
				out = append(out, r)
			}
		}
	}
	return out
}
