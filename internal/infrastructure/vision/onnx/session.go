package onnx

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitEnvironment loads the ONNX Runtime shared library once per process.
// An empty libraryPath uses the runtime's default lookup.
func InitEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("initialize onnx environment: %w", err)
		}
	})
	return envErr
}

// DestroyEnvironment releases the runtime after every Model is closed.
func DestroyEnvironment() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// Model is one loaded network with pre-bound tensors. Run calls are
// serialized because the bound tensors are shared between calls.
type Model struct {
	name    string
	meta    Metadata
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	lock    chan struct{}
}

func NewModel(name, modelPath string, meta Metadata) (*Model, error) {
	if !ort.IsInitialized() {
		return nil, fmt.Errorf("load model %s: onnx environment is not initialized", name)
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("load model %s: create input tensor: %w", name, err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("load model %s: create output tensor: %w", name, err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.Value{input}, []ort.Value{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("load model %s: create session: %w", name, err)
	}

	return &Model{
		name:    name,
		meta:    meta,
		session: session,
		input:   input,
		output:  output,
		lock:    make(chan struct{}, 1),
	}, nil
}

func (m *Model) Name() string { return m.name }

func (m *Model) Metadata() Metadata { return m.meta }

// Scores runs the model on img and returns one score per class, passed
// through softmax when the model emits logits.
func (m *Model) Scores(ctx context.Context, img image.Image) ([]float32, error) {
	data := ImageTensor(img, m.meta)

	select {
	case m.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("model %s: wait for session: %w", m.name, ctx.Err())
	}
	defer func() { <-m.lock }()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("model %s: %w", m.name, err)
	}

	copy(m.input.GetData(), data)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("model %s: inference failed: %w", m.name, err)
	}

	raw := m.output.GetData()
	scores := make([]float32, len(m.meta.Classes))
	copy(scores, raw)
	if m.meta.ApplySoftmax {
		scores = Softmax(scores)
	}
	return scores, nil
}

func (m *Model) Close() {
	if m.session != nil {
		m.session.Destroy()
	}
	if m.input != nil {
		m.input.Destroy()
	}
	if m.output != nil {
		m.output.Destroy()
	}
}
