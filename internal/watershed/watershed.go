// Package watershed segments a gray-level raster into regions by flooding
// it level by level from its darkest pixels, and reports the watershed
// lines where independently grown regions meet.
//
// # Algorithm
//
// Every gray level owns a FIFO queue of pixels waiting to be explored. For
// each level, from 0 to 255:
//
//  1. Extend: pop pixels from the queues of the next step levels, lowest
//     first. An unassigned 8-neighbor inherits the popped region and is
//     queued at its own gray level. A neighbor of another region becomes a
//     permanent boundary pixel.
//  2. Seed: once extension is exhausted, scan for an unassigned pixel at the
//     current level, give it a new region and extend again. The scan resumes
//     where the previous one stopped within the same level.
//
// When the last level is exhausted every pixel is either in a region or on
// a boundary, and no two 8-adjacent region pixels belong to different
// regions.
//
// # Memory
//
// The region map and the queues are proportional to the image size. They
// live only for the duration of Process; the result is a compact boolean
// BoundaryMap.
package watershed

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/omr-match-mcp/internal/table"
)

const levels = 256

// boundary marks a watershed pixel in the region map.
const boundary = math.MaxInt32

var neighbors = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Watershed runs the segmentation. A Watershed is not safe for concurrent
// use: RegionCount reports the last Process call.
type Watershed struct {
	step        int
	logger      zerolog.Logger
	regionCount int
}

// New creates a segmenter exploring step gray levels per extension.
func New(step int, logger zerolog.Logger) (*Watershed, error) {
	if step < 1 || step > levels {
		return nil, fmt.Errorf("watershed step must be in 1..%d, got %d", levels, step)
	}
	return &Watershed{
		step:   step,
		logger: logger.With().Str("component", "watershed").Logger(),
	}, nil
}

// RegionCount returns the number of regions created by the last Process
// call.
func (w *Watershed) RegionCount() int { return w.regionCount }

// fifo is a queue of linear pixel indices.
type fifo struct {
	items []int32
	head  int
}

func (q *fifo) push(i int32) { q.items = append(q.items, i) }

func (q *fifo) pop() (int32, bool) {
	if q.head == len(q.items) {
		if q.head > 0 {
			q.items, q.head = q.items[:0], 0
		}
		return 0, false
	}
	i := q.items[q.head]
	q.head++
	return i, true
}

// Process segments gray and returns its watershed lines. With brightOnDark
// the pixels of gray are inverted in place first, so that bright objects
// become the flooded minima.
func (w *Watershed) Process(gray *table.Grid[uint8], brightOnDark bool) (*BoundaryMap, error) {
	if gray == nil {
		return nil, errors.New("watershed needs a gray table")
	}
	start := time.Now()

	pixels := gray.Data()
	if brightOnDark {
		for i, v := range pixels {
			pixels[i] = 255 - v
		}
	}

	width, height := gray.Width(), gray.Height()
	regions, err := table.NewInt(width, height)
	if err != nil {
		return nil, err
	}
	ids := regions.Data()
	var queues [levels]fifo
	maxRegion := int32(0)

	extend := func(level int) {
		top := min(level+w.step-1, levels-1)
		for {
			idx, ok := int32(0), false
			for l := level; l <= top && !ok; l++ {
				idx, ok = queues[l].pop()
			}
			if !ok {
				return
			}

			id := ids[idx]
			if id == boundary {
				continue
			}
			x, y := int(idx)%width, int(idx)/width
			for _, n := range neighbors {
				nx, ny := x+n[0], y+n[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				ni := ny*width + nx
				switch nid := ids[ni]; {
				case nid == 0:
					ids[ni] = id
					queues[pixels[ni]].push(int32(ni))
				case nid != id && nid != boundary:
					ids[ni] = boundary
				}
			}
		}
	}

	for level := 0; level < levels; level++ {
		offset := 0
		for {
			extend(level)

			seed := -1
			for ; offset < len(pixels); offset++ {
				if ids[offset] == 0 && int(pixels[offset]) == level {
					seed = offset
					break
				}
			}
			if seed < 0 {
				break
			}

			maxRegion++
			ids[seed] = maxRegion
			queues[level].push(int32(seed))
		}
	}

	result := newBoundaryMap(width, height, ids)
	w.regionCount = int(maxRegion)

	w.logger.Debug().
		Int("width", width).
		Int("height", height).
		Int("regions", w.regionCount).
		Int("boundary_pixels", result.Count()).
		Dur("elapsed", time.Since(start)).
		Msg("watershed done")

	return result, nil
}
