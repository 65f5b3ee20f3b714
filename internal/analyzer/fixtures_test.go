package analyzer

import (
	"context"
	"image"
	"image/color"

	"github.com/ivlev/screenlens/internal/geometry"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/structure"
)

// whiteImage returns a white grayscale canvas.
func whiteImage(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// gridImage draws a 5x6 ruled table with 2px black lines spanning
// (20,20)-(382,272) on a white 400x300 canvas.
func gridImage() *image.Gray {
	img := whiteImage(400, 300)
	black := color.Gray{Y: 0}
	for _, y := range []int{20, 70, 120, 170, 220, 270} {
		for x := 20; x < 382; x++ {
			img.SetGray(x, y, black)
			img.SetGray(x, y+1, black)
		}
	}
	for _, x := range []int{20, 110, 200, 290, 380} {
		for y := 20; y < 272; y++ {
			img.SetGray(x, y, black)
			img.SetGray(x+1, y, black)
		}
	}
	return img
}

// linesAt builds an OCR result with one short line per left edge, stacked
// vertically.
func linesAt(lefts ...int) *ocr.Result {
	res := &ocr.Result{}
	for i, x := range lefts {
		res.Lines = append(res.Lines, ocr.Line{
			Text: "cell value",
			BBox: geometry.NewBox(x, 20*i, 60, 14),
		})
	}
	return res
}

func textLines(texts ...string) *ocr.Result {
	res := &ocr.Result{}
	for i, t := range texts {
		res.Lines = append(res.Lines, ocr.Line{Text: t, BBox: geometry.NewBox(0, 20*i, 100, 14)})
	}
	return res
}

type fakeModel struct {
	results []structure.Detection
	err     error
	calls   int
}

func (m *fakeModel) Detect(_ context.Context, _ image.Image) ([]structure.Detection, error) {
	m.calls++
	return m.results, m.err
}

func modelInit(m structure.Model) structure.Initializer {
	return func() (structure.Model, error) { return m, nil }
}

func score(v float64) *float64 { return &v }
