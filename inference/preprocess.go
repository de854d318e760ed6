package inference

import (
	"image"
	"runtime"
	"sync"
)

// tensorize writes an NRGBA image of exactly size x size pixels into dst as
// a normalized NCHW float32 tensor. Rows are sliced across workers; each
// worker owns disjoint regions of dst, so no synchronization beyond the
// WaitGroup is needed.
func tensorize(img *image.NRGBA, size int, dst []float32) {
	channelSize := size * size
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > size {
		numWorkers = size
	}
	rowsPerWorker := size / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := (w + 1) * rowsPerWorker
		if w == numWorkers-1 {
			endRow = size
		}

		go func(start, end int) {
			defer wg.Done()
			for y := start; y < end; y++ {
				row := img.Pix[y*img.Stride:]
				offset := y * size
				for x := 0; x < size; x++ {
					i := offset + x
					r := float32(row[x*4]) / 255.0
					g := float32(row[x*4+1]) / 255.0
					b := float32(row[x*4+2]) / 255.0
					dst[i] = (r - normMean[0]) / normStd[0]
					dst[channelSize+i] = (g - normMean[1]) / normStd[1]
					dst[channelSize*2+i] = (b - normMean[2]) / normStd[2]
				}
			}
		}(startRow, endRow)
	}

	wg.Wait()
}
