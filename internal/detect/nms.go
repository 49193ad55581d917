// Package detect provides post-processing for detector outputs: non-maximum
// suppression, soft-NMS rescoring, and ranked-detection quality metrics.
//
// Suppression operates on LTRB boxes given as flat float64 slices of length
// 4*N. The overlap measure inside suppression uses the detector-pixel
// convention (areas and extents count an inclusive +1 per axis), while the
// metrics use continuous-coordinate IoU from the boxes package.
package detect

import (
	"fmt"
	"math"
	"sort"
)

// pixelIoU returns the overlap of two LTRB boxes under the inclusive pixel
// convention: a box covering columns x1..x2 is x2-x1+1 pixels wide.
func pixelIoU(a, b [4]float64) float64 {
	xx1 := math.Max(a[0], b[0])
	yy1 := math.Max(a[1], b[1])
	xx2 := math.Min(a[2], b[2])
	yy2 := math.Min(a[3], b[3])

	w := math.Max(0, xx2-xx1+1)
	h := math.Max(0, yy2-yy1+1)
	inter := w * h

	areaA := (a[2] - a[0] + 1) * (a[3] - a[1] + 1)
	areaB := (b[2] - b[0] + 1) * (b[3] - b[1] + 1)
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func boxAt(boxes []float64, i int) [4]float64 {
	o := i * 4
	return [4]float64{boxes[o], boxes[o+1], boxes[o+2], boxes[o+3]}
}

func validateBoxes(boxes, scores []float64) {
	if len(boxes) != 4*len(scores) {
		panic(fmt.Sprintf("detect: %d boxes values for %d scores", len(boxes), len(scores)))
	}
}

// scoreOrder returns box indices sorted by descending score. Ties keep input
// order so suppression is deterministic.
func scoreOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	return order
}

// NMS performs greedy non-maximum suppression: walk boxes in descending
// score order, keep each box not yet suppressed, and suppress every
// lower-scored box overlapping it by more than iouThreshold.
//
// Returns the kept indices into boxes/scores, highest score first.
func NMS(boxes, scores []float64, iouThreshold float64) []int {
	validateBoxes(boxes, scores)

	order := scoreOrder(scores)
	suppressed := make([]bool, len(order))
	kept := make([]int, 0, len(order))

	for a, i := range order {
		if suppressed[a] {
			continue
		}
		kept = append(kept, i)
		ref := boxAt(boxes, i)
		for b := a + 1; b < len(order); b++ {
			if suppressed[b] {
				continue
			}
			if pixelIoU(ref, boxAt(boxes, order[b])) > iouThreshold {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// SoftMethod selects the score-decay rule for SoftNMS.
type SoftMethod int

// Soft-NMS decay rules.
const (
	// SoftLinear multiplies overlapping scores by (1 - iou) once the
	// overlap reaches the threshold.
	SoftLinear SoftMethod = iota
	// SoftGaussian multiplies every score by exp(-iou^2 / sigma).
	SoftGaussian
)

// SoftNMS rescores boxes instead of dropping them outright: the best
// remaining box is selected, every other remaining box's score decays by its
// overlap with the selection, and boxes falling below scoreFloor leave the
// candidate set. Selection repeats until no candidate reaches the floor.
//
// sigma is only used by SoftGaussian and must be positive. Returns the
// selected indices in selection order and their rescored values; the input
// scores are not modified.
func SoftNMS(boxes, scores []float64, iouThreshold, sigma, scoreFloor float64, method SoftMethod) ([]int, []float64) {
	validateBoxes(boxes, scores)
	if method == SoftGaussian && sigma <= 0 {
		panic(fmt.Sprintf("detect: gaussian soft-nms needs sigma > 0, got %v", sigma))
	}

	work := append([]float64(nil), scores...)
	alive := make([]bool, len(work))
	for i := range alive {
		alive[i] = true
	}

	var kept []int
	var keptScores []float64
	for {
		best := -1
		for i, ok := range alive {
			if ok && (best == -1 || work[i] > work[best]) {
				best = i
			}
		}
		if best == -1 || work[best] < scoreFloor {
			break
		}
		alive[best] = false
		kept = append(kept, best)
		keptScores = append(keptScores, work[best])

		ref := boxAt(boxes, best)
		for i, ok := range alive {
			if !ok {
				continue
			}
			iou := pixelIoU(ref, boxAt(boxes, i))
			switch method {
			case SoftLinear:
				if iou >= iouThreshold {
					work[i] *= 1 - iou
				}
			case SoftGaussian:
				work[i] *= math.Exp(-iou * iou / sigma)
			}
			if work[i] < scoreFloor {
				alive[i] = false
			}
		}
	}
	return kept, keptScores
}
