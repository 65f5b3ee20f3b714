package engine

import "image"

// ColorMode names the pixel layout of img.
func ColorMode(img image.Image) string {
	switch img.(type) {
	case *image.Gray:
		return "L"
	case *image.Gray16:
		return "I;16"
	case *image.Paletted:
		return "P"
	case *image.YCbCr:
		return "RGB"
	case *image.CMYK:
		return "CMYK"
	default:
		return "RGBA"
	}
}
