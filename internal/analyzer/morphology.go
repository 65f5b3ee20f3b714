package analyzer

import (
	"image"
	"image/color"

	"github.com/ivlev/screenlens/internal/geometry"
)

// toGrayscale writes img into dst, an origin-anchored buffer of the same size.
func toGrayscale(img image.Image, dst *image.Gray) {
	b := img.Bounds()

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			src := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src[:b.Dx()])
		}
		return
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
		}
	}
}

// adaptiveThreshold marks a pixel foreground (255) when it is at least c
// levels darker than the mean of the block×block window around it. The
// window is clipped at the image border.
func adaptiveThreshold(src, dst *image.Gray, block, c int) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	stride := w + 1
	integral := make([]int64, stride*(h+1))

	for y := 0; y < h; y++ {
		var row int64
		for x := 0; x < w; x++ {
			row += int64(src.Pix[y*src.Stride+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + row
		}
	}

	half := block / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h, y+half+1)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w, x+half+1)
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			n := int64((x1 - x0) * (y1 - y0))

			// src <= sum/n - c, kept in integers
			if int64(src.Pix[y*src.Stride+x])*n <= sum-int64(c)*n {
				dst.Pix[y*dst.Stride+x] = 255
			} else {
				dst.Pix[y*dst.Stride+x] = 0
			}
		}
	}
}

// slide applies a 1-D rectangular erosion (erode) or dilation along rows
// (horizontal) or columns. src and dst must share the same rectangle.
func slide(src, dst *image.Gray, half int, horizontal, erode bool) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	count, length := h, w
	if !horizontal {
		count, length = w, h
	}

	prefix := make([]int, length+1)
	offset := func(line, i int) int {
		if horizontal {
			return line*src.Stride + i
		}
		return i*src.Stride + line
	}

	for line := 0; line < count; line++ {
		for i := 0; i < length; i++ {
			prefix[i+1] = prefix[i]
			if src.Pix[offset(line, i)] != 0 {
				prefix[i+1]++
			}
		}
		for i := 0; i < length; i++ {
			lo, hi := max(0, i-half), min(length, i+half+1)
			n := prefix[hi] - prefix[lo]
			on := n > 0
			if erode {
				on = n == hi-lo
			}
			if on {
				dst.Pix[offset(line, i)] = 255
			} else {
				dst.Pix[offset(line, i)] = 0
			}
		}
	}
}

// open performs a morphological opening with a size×1 (horizontal) or
// 1×size kernel. The result ends up in mask; scratch is clobbered.
func open(mask, scratch *image.Gray, size, iterations int, horizontal bool) {
	half := size / 2
	a, b := mask, scratch
	for i := 0; i < iterations; i++ {
		slide(a, b, half, horizontal, true)
		a, b = b, a
	}
	for i := 0; i < iterations; i++ {
		slide(a, b, half, horizontal, false)
		a, b = b, a
	}
	// 2*iterations swaps leave the result in mask
}

// union ORs src into dst and returns the foreground fraction of dst.
func union(dst, src *image.Gray) float64 {
	on := 0
	for i, v := range src.Pix {
		if v != 0 {
			dst.Pix[i] = 255
		}
		if dst.Pix[i] != 0 {
			on++
		}
	}
	if len(dst.Pix) == 0 {
		return 0
	}
	return float64(on) / float64(len(dst.Pix))
}

// findContours returns the bounding boxes of 8-connected foreground
// components, dropping those enclosed by another component's box.
func findContours(img *image.Gray) []geometry.Box {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	visited := make([]bool, w*h)

	contours := []geometry.Box{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[y*img.Stride+x] != 0 && !visited[y*w+x] {
				contours = append(contours, floodFill(img, visited, x, y))
			}
		}
	}
	return external(contours)
}

// floodFill marks one component and returns its bounding box.
func floodFill(img *image.Gray, visited []bool, startX, startY int) geometry.Box {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := p.X, p.Y
		if x < 0 || x >= w || y < 0 || y >= h {
			continue
		}
		if visited[y*w+x] || img.Pix[y*img.Stride+x] == 0 {
			continue
		}
		visited[y*w+x] = true

		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, image.Point{X: x + dx, Y: y + dy})
				}
			}
		}
	}

	return geometry.FromCorners(minX, minY, maxX+1, maxY+1)
}

func external(boxes []geometry.Box) []geometry.Box {
	out := make([]geometry.Box, 0, len(boxes))
	for i, b := range boxes {
		enclosed := false
		for j, o := range boxes {
			if i == j || !o.Contains(b) {
				continue
			}
			// identical boxes: keep the first
			if o != b || j < i {
				enclosed = true
				break
			}
		}
		if !enclosed {
			out = append(out, b)
		}
	}
	return out
}
