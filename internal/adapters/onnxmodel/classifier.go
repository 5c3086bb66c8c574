// Package onnxmodel implements ports.Classifier on an exported ONNX model.
// The model takes the 13-value market feature vector and produces two class
// probabilities (down, up).
package onnxmodel

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"aurumbot/internal/ports"
)

const featureCount = 13

var initOnce sync.Once

// initializeORT points the runtime at the platform shared library. Called
// once per process.
func initializeORT() error {
	var err error
	initOnce.Do(func() {
		libPath := "/usr/lib/libonnxruntime.so"
		if runtime.GOOS == "windows" {
			libPath = "onnxruntime.dll"
		} else if runtime.GOOS == "darwin" {
			libPath = "libonnxruntime.dylib"
		}
		if env := os.Getenv("ONNXRUNTIME_LIB"); env != "" {
			libPath = env
		}
		ort.SetSharedLibraryPath(libPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

// Classifier wraps an ONNX session. Safe for use from one decision cycle at
// a time; Reload may race only with itself, guarded by mu.
type Classifier struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	logger  ports.Logger
}

// New loads the model at path. A missing file yields a classifier that
// reports not ready rather than an error, so the bot can start without a
// trained model and load one later.
func New(ctx context.Context, path string, logger ports.Logger) (*Classifier, error) {
	c := &Classifier{logger: logger}

	if path == "" {
		logger.Warn(ctx, "no model path configured, classifier disabled")
		return c, nil
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn(ctx, "model file not found, classifier disabled", map[string]interface{}{"path": path})
		return c, nil
	}

	if err := c.load(path); err != nil {
		return nil, err
	}
	logger.Info(ctx, "classifier model loaded", map[string]interface{}{"path": path})
	return c, nil
}

func (c *Classifier) load(path string) error {
	if err := initializeORT(); err != nil {
		return fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, featureCount), make([]float32, featureCount))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		inputTensor.Destroy()
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{"input"}, []string{"probabilities"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return fmt.Errorf("failed to create session: %w", err)
	}

	c.mu.Lock()
	c.destroyLocked()
	c.session = session
	c.input = inputTensor
	c.output = outputTensor
	c.mu.Unlock()
	return nil
}

// Ready reports whether a model is loaded and usable.
func (c *Classifier) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Predict scores the feature vector.
func (c *Classifier) Predict(ctx context.Context, features []float64) (ports.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ports.Prediction{}, ports.ErrModelNotReady
	}
	if len(features) != featureCount {
		return ports.Prediction{}, fmt.Errorf("%w: expected %d features, got %d", ports.ErrInvalidRequest, featureCount, len(features))
	}

	data := c.input.GetData()
	for i, f := range features {
		data[i] = float32(f)
	}

	if err := c.session.Run(); err != nil {
		return ports.Prediction{}, fmt.Errorf("%w: %v", ports.ErrInferenceFailed, err)
	}

	out := c.output.GetData()
	return ports.Prediction{
		DownProbability: float64(out[0]),
		UpProbability:   float64(out[1]),
	}, nil
}

// Reload replaces the loaded model from the given path.
func (c *Classifier) Reload(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ports.ErrNotFound, path)
	}
	if err := c.load(path); err != nil {
		return err
	}
	c.logger.Info(ctx, "classifier model reloaded", map[string]interface{}{"path": path})
	return nil
}

// Close releases model resources.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyLocked()
	return nil
}

func (c *Classifier) destroyLocked() {
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}
	if c.input != nil {
		c.input.Destroy()
		c.input = nil
	}
	if c.output != nil {
		c.output.Destroy()
		c.output = nil
	}
}
