package imaging

import (
	"image"
	"image/color"
)

// Binarize prepares label photos for OCR: luminance conversion, a linear
// contrast stretch, then a global Otsu threshold.
func Binarize(img image.Image) *image.Gray {
	gray := toGray(img)
	stretchContrast(gray)
	threshold := otsuThreshold(histogram(gray))

	for i, v := range gray.Pix {
		if v > threshold {
			gray.Pix[i] = 0xff
		} else {
			gray.Pix[i] = 0
		}
	}
	return gray
}

func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.GrayModel.Convert(img.At(x, y)).(color.Gray))
		}
	}
	return out
}

func stretchContrast(gray *image.Gray) {
	if len(gray.Pix) == 0 {
		return
	}
	lo, hi := uint8(0xff), uint8(0)
	for _, v := range gray.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return
	}
	span := float64(hi - lo)
	for i, v := range gray.Pix {
		gray.Pix[i] = uint8(float64(v-lo) * 255.0 / span)
	}
}

func histogram(gray *image.Gray) [256]int {
	var hist [256]int
	for _, v := range gray.Pix {
		hist[v]++
	}
	return hist
}

// otsuThreshold picks the level maximizing between-class variance.
func otsuThreshold(hist [256]int) uint8 {
	total := 0
	var sum float64
	for level, count := range hist {
		total += count
		sum += float64(level * count)
	}
	if total == 0 {
		return 127
	}

	var sumBackground, best float64
	weightBackground := 0
	threshold := 0
	for level := 0; level < 256; level++ {
		weightBackground += hist[level]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}
		sumBackground += float64(level * hist[level])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (sum - sumBackground) / float64(weightForeground)
		diff := meanBackground - meanForeground
		between := float64(weightBackground) * float64(weightForeground) * diff * diff
		if between > best {
			best = between
			threshold = level
		}
	}
	return uint8(threshold)
}
