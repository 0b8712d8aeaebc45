package onnx

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"

	// NormalizeMobileNet scales pixels to [-1,1].
	NormalizeMobileNet = "mobilenet"
	// NormalizeUnit scales pixels to [0,1].
	NormalizeUnit = "unit"
	// NormalizeImageNet applies per-channel ImageNet mean/std after unit scaling.
	NormalizeImageNet = "imagenet"
)

// Metadata describes how to feed a model and read its output. It is stored
// next to the .onnx file.
type Metadata struct {
	InputName     string   `json:"input_name"`
	OutputName    string   `json:"output_name"`
	InputShape    []int64  `json:"input_shape"`
	OutputShape   []int64  `json:"output_shape"`
	Classes       []string `json:"classes"`
	ImageSize     int      `json:"image_size"`
	Layout        string   `json:"layout"`
	Normalization string   `json:"normalization"`
	// ApplySoftmax is set for models that emit logits.
	ApplySoftmax bool `json:"apply_softmax"`
}

func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read model metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse model metadata: %w", err)
	}
	meta.applyDefaults()
	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.ImageSize == 0 {
		m.ImageSize = 224
	}
	if m.Layout == "" {
		m.Layout = LayoutNHWC
	}
	if m.Normalization == "" {
		m.Normalization = NormalizeMobileNet
	}
	if len(m.InputShape) == 0 {
		size := int64(m.ImageSize)
		if m.Layout == LayoutNCHW {
			m.InputShape = []int64{1, 3, size, size}
		} else {
			m.InputShape = []int64{1, size, size, 3}
		}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
}

func (m Metadata) Validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("model metadata: classes are empty")
	}
	switch m.Layout {
	case LayoutNHWC, LayoutNCHW:
	default:
		return fmt.Errorf("model metadata: unsupported layout %q", m.Layout)
	}
	switch m.Normalization {
	case NormalizeMobileNet, NormalizeUnit, NormalizeImageNet:
	default:
		return fmt.Errorf("model metadata: unsupported normalization %q", m.Normalization)
	}
	if got, want := elementCount(m.InputShape), int64(3*m.ImageSize*m.ImageSize); got != want {
		return fmt.Errorf("model metadata: input shape %v holds %d values, image needs %d", m.InputShape, got, want)
	}
	if got := elementCount(m.OutputShape); got != int64(len(m.Classes)) {
		return fmt.Errorf("model metadata: output shape %v does not match %d classes", m.OutputShape, len(m.Classes))
	}
	return nil
}

func elementCount(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
