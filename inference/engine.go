package inference

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/nitro-neal/toonout-docker/mask"
)

// Engine wraps the matting model behind a session pool. It is the only
// component that touches ONNX Runtime; everything above it deals in images
// and alpha masks.
type Engine struct {
	pool   *SessionPool
	device string
	size   int
	logger *zap.Logger
}

func NewEngine(opts Options, logger *zap.Logger) (*Engine, error) {
	opts.applyDefaults()

	device, err := resolveDevice(opts.Device)
	if err != nil {
		return nil, err
	}
	opts.Device = device

	start := time.Now()
	pool, err := NewSessionPool(opts)
	if err != nil {
		return nil, err
	}
	logger.Info("model loaded",
		zap.String("path", opts.ModelPath),
		zap.String("device", device),
		zap.Int("pool_size", opts.PoolSize),
		zap.Duration("elapsed", time.Since(start)))

	return &Engine{
		pool:   pool,
		device: device,
		size:   opts.InputSize,
		logger: logger,
	}, nil
}

// Device returns the resolved execution provider, "cpu" or "cuda".
func (e *Engine) Device() string {
	return e.device
}

func (e *Engine) PoolMetrics() PoolMetrics {
	return e.pool.Metrics()
}

func (e *Engine) Close() {
	e.pool.Destroy()
}

// Infer runs a forward pass and returns a soft alpha mask with the same
// dimensions as the input image. No retries: a malformed input will not
// succeed on a second attempt, and the caller isolates failures per entry.
func (e *Engine) Infer(ctx context.Context, img image.Image) (mask.Alpha, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return mask.Alpha{}, fmt.Errorf("inference: empty image %dx%d", width, height)
	}

	session, err := e.pool.Acquire(ctx)
	if err != nil {
		return mask.Alpha{}, fmt.Errorf("acquire session: %w", err)
	}
	defer e.pool.Release(session)

	resized := imaging.Resize(img, e.size, e.size, imaging.Linear)
	tensorize(resized, e.size, session.Input.GetData())

	if err := session.Session.Run(); err != nil {
		return mask.Alpha{}, fmt.Errorf("model inference: %w", err)
	}

	pred := sigmoidMask(session.Output.GetData(), e.size)

	// Smooth interpolation back to source dimensions; nearest-neighbor
	// would leave blocky mask edges.
	full := imaging.Resize(pred.ToGray(), width, height, imaging.Linear)
	return mask.FromNRGBA(full), nil
}

// sigmoidMask applies a sigmoid over the raw model output, yielding a soft
// alpha mask at model resolution.
func sigmoidMask(logits []float32, size int) mask.Alpha {
	m := mask.New(size, size)
	for i := 0; i < len(m.Pix) && i < len(logits); i++ {
		m.Pix[i] = float32(1.0 / (1.0 + math.Exp(-float64(logits[i]))))
	}
	return m
}
