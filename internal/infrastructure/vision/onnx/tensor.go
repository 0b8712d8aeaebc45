package onnx

import (
	"image"
	"math"
	"sort"

	"github.com/nfnt/resize"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ImageTensor resizes img to the model's square input and lays out
// normalized RGB values in the model's channel order.
func ImageTensor(img image.Image, meta Metadata) []float32 {
	size := uint(meta.ImageSize)
	resized := resize.Resize(size, size, img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			channels := [3]float32{float32(r >> 8), float32(g >> 8), float32(b >> 8)}
			pixel := y*width + x
			for c, v := range channels {
				value := normalize(v, c, meta.Normalization)
				if meta.Layout == LayoutNCHW {
					data[c*plane+pixel] = value
				} else {
					data[pixel*3+c] = value
				}
			}
		}
	}
	return data
}

func normalize(v float32, channel int, mode string) float32 {
	switch mode {
	case NormalizeUnit:
		return v / 255
	case NormalizeImageNet:
		return (v/255 - imageNetMean[channel]) / imageNetStd[channel]
	default:
		return v/127.5 - 1
	}
}

// Softmax converts logits to probabilities.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	peak := logits[0]
	for _, v := range logits[1:] {
		if v > peak {
			peak = v
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, v := range logits {
		e := math.Exp(float64(v - peak))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// Rank pairs scores with class names, highest first. Ties keep class order.
func Rank(classes []string, scores []float32) []domain.Prediction {
	n := len(classes)
	if len(scores) < n {
		n = len(scores)
	}
	predictions := make([]domain.Prediction, 0, n)
	for i := 0; i < n; i++ {
		predictions = append(predictions, domain.Prediction{Label: classes[i], Confidence: float64(scores[i])})
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Confidence > predictions[j].Confidence
	})
	return predictions
}
