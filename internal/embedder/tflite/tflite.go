// Package tflite runs a pretrained image-embedding model through the
// TensorFlow Lite C API. It is the only package in the tree that links the
// TFLite library; the pure image and vector helpers live in
// internal/embedder so the rest of the code builds without the toolkit.
package tflite

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/mattn/go-tflite"
	"github.com/timmy/imagesim/internal/embedder"
	"github.com/timmy/imagesim/internal/logger"
	"golang.org/x/image/draw"
)

// Options configures the embedder. The production configuration is
// {l2_normalize: true, quantize: true}.
type Options struct {
	L2Normalize bool
	Quantize    bool
	Threads     int
}

// Embedder runs inference on a loaded model. The interpreter is not safe for
// concurrent invocation, so EmbedFile serializes inference behind a mutex.
type Embedder struct {
	mu          sync.Mutex
	model       *tflite.Model
	interpreter *tflite.Interpreter
	interpOpts  *tflite.InterpreterOptions
	opts        Options

	inputWidth  int
	inputHeight int
	dimensions  int
}

// New loads the model asset at modelPath and prepares an interpreter.
// Parameters:
//   - modelPath: path of the .tflite model asset; must exist and be readable.
//   - opts: embedder options.
// Returns:
//   - *Embedder: ready embedder instance.
//   - error: non-nil if the model cannot be loaded or its tensors do not look
//     like an image-embedding model.
func New(modelPath string, opts Options) (*Embedder, error) {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return nil, fmt.Errorf("failed to load model from %s", modelPath)
	}

	interpOpts := tflite.NewInterpreterOptions()
	if opts.Threads > 0 {
		interpOpts.SetNumThread(opts.Threads)
	}

	interpreter := tflite.NewInterpreter(model, interpOpts)
	if interpreter == nil {
		interpOpts.Delete()
		model.Delete()
		return nil, fmt.Errorf("failed to create interpreter for %s", modelPath)
	}

	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		interpOpts.Delete()
		model.Delete()
		return nil, fmt.Errorf("failed to allocate tensors for %s: status %v", modelPath, status)
	}

	input := interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() != 4 {
		interpreter.Delete()
		interpOpts.Delete()
		model.Delete()
		return nil, fmt.Errorf("model %s does not take a single image input", modelPath)
	}
	if input.Type() != tflite.Float32 {
		interpreter.Delete()
		interpOpts.Delete()
		model.Delete()
		return nil, fmt.Errorf("model %s input type is not float32", modelPath)
	}

	output := interpreter.GetOutputTensor(0)
	if output == nil {
		interpreter.Delete()
		interpOpts.Delete()
		model.Delete()
		return nil, fmt.Errorf("model %s has no output tensor", modelPath)
	}

	// Dimensionality comes from the model, never hard-coded.
	dims := 1
	for i := 0; i < output.NumDims(); i++ {
		dims *= output.Dim(i)
	}

	return &Embedder{
		model:       model,
		interpreter: interpreter,
		interpOpts:  interpOpts,
		opts:        opts,
		inputHeight: input.Dim(1),
		inputWidth:  input.Dim(2),
		dimensions:  dims,
	}, nil
}

// Dimensions returns the length of the embedding vectors this model produces.
func (t *Embedder) Dimensions() int {
	return t.dimensions
}

// EmbedFile decodes the image at path, runs it through the model, and returns
// the embedding vector post-processed per the configured options. Repeated
// calls on the same path recompute; nothing is cached.
// Parameters:
//   - ctx: context for cancellation checks between stages.
//   - path: image file to embed.
// Returns:
//   - []float32: the embedding vector.
//   - error: non-nil if decoding or inference fails.
func (t *Embedder) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	img, _, err := embedder.DecodeImage(path)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pixels := t.preprocess(img)

	start := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	input := t.interpreter.GetInputTensor(0)
	copy(input.Float32s(), pixels)

	if status := t.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("inference failed for %s: status %v", path, status)
	}

	output := t.interpreter.GetOutputTensor(0)
	vec := make([]float32, t.dimensions)
	copy(vec, output.Float32s())

	if t.opts.L2Normalize {
		embedder.L2Normalize(vec)
	}
	if t.opts.Quantize {
		embedder.Quantize(vec)
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Debug(ctx, "Image embedded: path=%s, dimensions=%d", path, t.dimensions)

	return vec, nil
}

// preprocess scales the image to the model input size and converts it to a
// normalized float32 tensor in [-1, 1], NHWC layout.
func (t *Embedder) preprocess(img image.Image) []float32 {
	scaled := image.NewRGBA(image.Rect(0, 0, t.inputWidth, t.inputHeight))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	pixels := make([]float32, t.inputWidth*t.inputHeight*3)
	i := 0
	for y := 0; y < t.inputHeight; y++ {
		for x := 0; x < t.inputWidth; x++ {
			off := scaled.PixOffset(x, y)
			pixels[i] = (float32(scaled.Pix[off]) - 127.5) / 127.5
			pixels[i+1] = (float32(scaled.Pix[off+1]) - 127.5) / 127.5
			pixels[i+2] = (float32(scaled.Pix[off+2]) - 127.5) / 127.5
			i += 3
		}
	}
	return pixels
}

// Close releases the interpreter and model resources.
func (t *Embedder) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interpreter != nil {
		t.interpreter.Delete()
		t.interpreter = nil
	}
	if t.interpOpts != nil {
		t.interpOpts.Delete()
		t.interpOpts = nil
	}
	if t.model != nil {
		t.model.Delete()
		t.model = nil
	}
}
