package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nitro-neal/toonout-docker/imgio"
	"github.com/nitro-neal/toonout-docker/inference"
	"github.com/nitro-neal/toonout-docker/mask"
	"github.com/nitro-neal/toonout-docker/models"
)

// Masker produces a soft alpha mask for an image. The production
// implementation is inference.Engine; tests inject a stub.
type Masker interface {
	Infer(ctx context.Context, img image.Image) (mask.Alpha, error)
}

// Result is the outcome for one archive entry: either encoded PNG bytes or
// the error that stopped it. Exactly one Result is produced per supported
// input entry, in archive order.
type Result struct {
	Source string // input entry name
	Output string // entry name in the result archive
	Data   []byte
	Err    error
}

// Pipeline drives decode, inference, post-processing, compositing and
// encoding for every image in an uploaded archive. A failing entry becomes
// an error marker in the output archive; it never aborts the batch.
type Pipeline struct {
	masker Masker
	logger *zap.Logger
}

func New(masker Masker, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		masker: masker,
		logger: logger,
	}
}

// Process unpacks archiveBytes, runs every supported image through the
// cutout stages and returns the packed result archive. threshold, when
// non-nil, hard-edges each mask and must lie in [0, 1].
func (p *Pipeline) Process(ctx context.Context, archiveBytes []byte, threshold *float64) ([]byte, error) {
	if threshold != nil && (*threshold < 0 || *threshold > 1) {
		return nil, validationErrorf("threshold must be between 0.0 and 1.0, got %g", *threshold)
	}

	zr, err := zip.NewReader(bytes.NewReader(archiveBytes), int64(len(archiveBytes)))
	if err != nil {
		return nil, validationErrorf("invalid ZIP file")
	}

	members := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !imgio.SupportedExt(f.Name) {
			continue
		}
		members = append(members, f)
	}
	if len(members) == 0 {
		return nil, validationErrorf("ZIP contains no supported images")
	}

	p.logger.Info("processing batch",
		zap.Int("entries", len(members)),
		zap.Bool("thresholded", threshold != nil))

	used := make(map[string]bool, len(members))
	results := make([]Result, 0, len(members))
	for _, f := range members {
		data, err := p.processEntry(ctx, f, threshold)
		if errors.Is(err, inference.ErrSessionUnavailable) {
			// Not an entry problem: the model is unavailable to the whole
			// batch, so the request fails instead of emitting a ZIP full
			// of error markers.
			return nil, fmt.Errorf("model unavailable: %w", err)
		}
		res := Result{Source: f.Name, Data: data, Err: err}
		if err != nil {
			res.Output = outputName(f.Name, ".ERROR.txt", used)
			p.logger.Warn("entry failed",
				zap.String("entry", f.Name),
				zap.Error(err))
		} else {
			res.Output = outputName(f.Name, "_cutout.png", used)
		}
		results = append(results, res)
	}

	return packArchive(results)
}

func (p *Pipeline) processEntry(ctx context.Context, f *zip.File, threshold *float64) ([]byte, error) {
	timings := models.EntryTimings{Entry: f.Name}
	start := time.Now()

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		// Also catches per-member CRC failures on corrupt archives.
		return nil, fmt.Errorf("read entry: %w", err)
	}

	decodeStart := time.Now()
	img, format, err := imgio.Decode(raw)
	timings.Decode = time.Since(decodeStart)
	if err != nil {
		return nil, err
	}

	inferStart := time.Now()
	m, err := p.masker.Infer(ctx, img)
	timings.Inference = time.Since(inferStart)
	if err != nil {
		return nil, err
	}

	if threshold != nil {
		m = m.Threshold(*threshold)
	}

	compositeStart := time.Now()
	out, err := mask.Compose(img, m)
	timings.Composite = time.Since(compositeStart)
	if err != nil {
		return nil, fmt.Errorf("composite: %w", err)
	}

	encodeStart := time.Now()
	data, err := imgio.EncodePNG(out)
	timings.Encode = time.Since(encodeStart)
	if err != nil {
		return nil, err
	}

	timings.Total = time.Since(start)
	p.logger.Info("entry processed",
		zap.String("entry", f.Name),
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Duration("decode", timings.Decode),
		zap.Duration("inference", timings.Inference),
		zap.Duration("composite", timings.Composite),
		zap.Duration("encode", timings.Encode),
		zap.Duration("total", timings.Total))

	return data, nil
}

// outputName derives the result entry name from the source entry. The first
// entry to claim a basename gets the short form; later entries whose
// basenames collide keep their relative path, flattened, instead of
// silently overwriting the earlier result.
func outputName(source, suffix string, used map[string]bool) string {
	stem := strings.TrimSuffix(path.Base(source), path.Ext(source))
	name := stem + suffix
	if used[name] {
		flat := strings.ReplaceAll(strings.TrimSuffix(source, path.Ext(source)), "/", "_")
		name = flat + suffix
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s-%d%s", flat, i, suffix)
		}
	}
	used[name] = true
	return name
}

func packArchive(results []Result) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, res := range results {
		w, err := zw.Create(res.Output)
		if err != nil {
			return nil, fmt.Errorf("create archive entry %s: %w", res.Output, err)
		}
		payload := res.Data
		if res.Err != nil {
			payload = []byte(res.Err.Error())
		}
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", res.Output, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
