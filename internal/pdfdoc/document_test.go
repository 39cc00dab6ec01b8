package pdfdoc

import (
	"context"
	"errors"
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"
)

type fakeBackend struct {
	pages map[int]string
	calls int
}

func (f *fakeBackend) PageText(_ context.Context, page int) (string, error) {
	f.calls++
	t, ok := f.pages[page]
	if !ok {
		return "", errors.New("no such page")
	}
	return t, nil
}

func (f *fakeBackend) Close() error { return nil }

type fakeRenderer struct {
	img  image.Image
	err  error
	pngs int
}

func (r *fakeRenderer) Image(context.Context, int, float64) (image.Image, error) {
	return r.img, r.err
}

func (r *fakeRenderer) PNG(context.Context, int) ([]byte, error) {
	r.pngs++
	return []byte("png"), r.err
}

func (r *fakeRenderer) Close() error { return nil }

type fakeOCR struct{ text string }

func (o fakeOCR) Recognize([]byte) (string, error) { return o.text, nil }
func (o fakeOCR) Close() error                     { return nil }

func testDoc(pages map[int]string, images []int) (*Document, *fakeRenderer) {
	r := &fakeRenderer{img: image.NewGray(image.Rect(0, 0, 10, 10))}
	return &Document{
		path:     "test.pdf",
		pages:    len(pages),
		text:     &fakeBackend{pages: pages},
		probe:    &structureProbe{path: "test.pdf", loaded: true, images: images, sizes: map[int]int64{}},
		renderer: r,
	}, r
}

func TestPageText_NormalizesToNFC(t *testing.T) {
	d, _ := testDoc(map[int]string{1: "Cafe\u0301"}, []int{0})
	got, err := d.PageText(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Caf\u00e9" {
		t.Errorf("got %q, want composed form", got)
	}
}

func TestPageText_OutOfRange(t *testing.T) {
	d, _ := testDoc(map[int]string{1: "a", 2: "b"}, []int{0, 0})
	for _, p := range []int{0, 3} {
		if _, err := d.PageText(context.Background(), p); err == nil {
			t.Errorf("page %d: expected error", p)
		}
	}
}

func TestPageText_CanceledContext(t *testing.T) {
	d, _ := testDoc(map[int]string{1: "a"}, []int{0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.PageText(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestPageText_OCR(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		images []int
		ocr    bool
		want   string
		pngs   int
	}{
		{"text layer present", "Invoice", []int{2}, true, "Invoice", 0},
		{"blank page with image", "  \n", []int{1}, true, "scanned words", 1},
		{"blank page without image", "", []int{0}, true, "", 0},
		{"image count unknown", "", nil, true, "scanned words", 1},
		{"ocr disabled", "", []int{1}, false, "", 0},
	}
	for _, tt := range tests {
		d, r := testDoc(map[int]string{1: tt.text}, tt.images)
		if tt.ocr {
			d.ocr = fakeOCR{text: "scanned words"}
		}
		got, err := d.PageText(context.Background(), 1)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if strings.TrimSpace(got) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		if r.pngs != tt.pngs {
			t.Errorf("%s: rendered %d times, want %d", tt.name, r.pngs, tt.pngs)
		}
	}
}

func TestPageText_StripFurniture(t *testing.T) {
	d, _ := testDoc(map[int]string{1: "x", 2: "Report\n2\n---\nTotal due"}, []int{0, 0})
	d.opts.StripFurniture = true
	got, err := d.PageText(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Report\nTotal due" {
		t.Errorf("got %q", got)
	}
}

func TestPageImageCount(t *testing.T) {
	d, _ := testDoc(map[int]string{1: "", 2: ""}, []int{0, 3})
	n, err := d.PageImageCount(context.Background(), 2)
	if err != nil || n != 3 {
		t.Fatalf("got %d, %v; want 3", n, err)
	}
}

func TestPageImageCount_RenderFallback(t *testing.T) {
	d, r := testDoc(map[int]string{1: ""}, nil)
	// two 2.5cm squares at analysis resolution
	side := int(2.5 / 2.54 * AnalysisDPI)
	img := image.NewGray(image.Rect(0, 0, 4*side, 2*side))
	fill(img, color.Gray{Y: 255}, img.Bounds())
	fill(img, color.Gray{Y: 0}, image.Rect(0, 0, side, side))
	fill(img, color.Gray{Y: 0}, image.Rect(2*side, 0, 3*side, side))
	r.img = img

	n, err := d.PageImageCount(context.Background(), 1)
	if err != nil || n != 2 {
		t.Fatalf("got %d, %v; want 2", n, err)
	}

	r.err = errors.New("render failed")
	n, err = d.PageImageCount(context.Background(), 1)
	if err != nil || n != -1 {
		t.Fatalf("got %d, %v; want -1 when rendering fails", n, err)
	}
}

func TestSamplePages(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{0, []int{}},
		{1, []int{1}},
		{5, []int{1, 2, 3, 4, 5}},
		{6, []int{1, 2, 4, 5, 6}},
		{100, []int{1, 26, 51, 76, 100}},
	}
	for _, tt := range tests {
		if got := samplePages(tt.total); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("samplePages(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestTextLayer(t *testing.T) {
	long := strings.Repeat("word ", 100)
	d, _ := testDoc(map[int]string{1: long, 2: "", 3: ""}, []int{0, 0, 0})
	rep, err := d.TextLayer(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.HasTextLayer || rep.Threshold != DefaultTextThreshold {
		t.Errorf("unexpected report %+v", rep)
	}
	if len(rep.Probes) != 1 || rep.Probes[0].CharCount != 400 {
		t.Errorf("expected early exit after first page, got %+v", rep.Probes)
	}

	d, _ = testDoc(map[int]string{1: " ", 2: "short"}, []int{0, 0})
	rep, err = d.TextLayer(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if rep.HasTextLayer || rep.SampledChars != 5 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func fill(img *image.Gray, c color.Gray, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, c)
		}
	}
}
