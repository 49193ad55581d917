package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchDetections_DuplicateIsFalsePositive(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
	}
	dets := []Detection{
		{ImageID: 0, ClassID: 1, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 0, ClassID: 1, Score: 0.8, Box: [4]float64{1, 1, 10, 10}},
	}

	flags := MatchDetections(dets, gts, 0.5)
	assert.Equal(t, []bool{true, false}, flags)
}

func TestMatchDetections_ScoreOrderDecidesClaim(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
	}
	// The higher-scored detection appears second in the input but claims
	// the ground truth first; flags follow descending score order.
	dets := []Detection{
		{ImageID: 0, ClassID: 1, Score: 0.6, Box: [4]float64{1, 1, 10, 10}},
		{ImageID: 0, ClassID: 1, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
	}

	flags := MatchDetections(dets, gts, 0.5)
	assert.Equal(t, []bool{true, false}, flags)
}

func TestMatchDetections_ImageAndClassBound(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 1, ClassID: 2, Box: [4]float64{0, 0, 10, 10}},
	}
	dets := []Detection{
		// Right box, wrong image.
		{ImageID: 2, ClassID: 1, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
		// Right box and image, wrong class.
		{ImageID: 1, ClassID: 1, Score: 0.8, Box: [4]float64{0, 0, 10, 10}},
		// Exact match.
		{ImageID: 1, ClassID: 2, Score: 0.7, Box: [4]float64{0, 0, 10, 10}},
	}

	flags := MatchDetections(dets, gts, 0.5)
	assert.Equal(t, []bool{false, false, true}, flags)
}

func TestMatchDetections_BelowThreshold(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
	}
	dets := []Detection{
		{ImageID: 0, ClassID: 1, Score: 0.9, Box: [4]float64{8, 8, 18, 18}},
	}

	flags := MatchDetections(dets, gts, 0.5)
	assert.Equal(t, []bool{false}, flags)
}

func TestAveragePrecision(t *testing.T) {
	// TP, FP, TP with two ground truths:
	//   recall    0.5, 0.5, 1.0
	//   precision 1.0, 0.5, 2/3
	// Envelope integration gives 0.5*1 + 0.5*(2/3).
	ap := AveragePrecision([]bool{true, false, true}, 2)
	assert.InDelta(t, 0.5+0.5*(2.0/3.0), ap, 1e-12)
}

func TestAveragePrecision_PerfectDetector(t *testing.T) {
	ap := AveragePrecision([]bool{true, true, true}, 3)
	assert.InDelta(t, 1.0, ap, 1e-12)
}

func TestAveragePrecision_AllMisses(t *testing.T) {
	ap := AveragePrecision([]bool{false, false}, 2)
	assert.Equal(t, 0.0, ap)
}

func TestAveragePrecision_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, AveragePrecision(nil, 3))
	assert.Equal(t, 0.0, AveragePrecision([]bool{true}, 0))
}

func TestAveragePrecision_MissedGroundTruthCapsRecall(t *testing.T) {
	// One TP out of two ground truths: recall never reaches 1, so AP loses
	// the unreached half.
	ap := AveragePrecision([]bool{true}, 2)
	assert.InDelta(t, 0.5, ap, 1e-12)
}

func TestMeanAveragePrecision(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 0, ClassID: 2, Box: [4]float64{20, 20, 30, 30}},
	}
	dets := []Detection{
		// Class 1 matched perfectly; class 2 has no detection.
		{ImageID: 0, ClassID: 1, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
		// A class absent from the ground truths is ignored entirely.
		{ImageID: 0, ClassID: 7, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
	}

	mAP := MeanAveragePrecision(dets, gts, 0.5)
	assert.InDelta(t, 0.5, mAP, 1e-12)
}

func TestMeanAveragePrecision_PerfectAcrossClasses(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 1, ClassID: 2, Box: [4]float64{5, 5, 9, 9}},
	}
	dets := []Detection{
		{ImageID: 0, ClassID: 1, Score: 0.8, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 1, ClassID: 2, Score: 0.9, Box: [4]float64{5, 5, 9, 9}},
	}

	mAP := MeanAveragePrecision(dets, gts, 0.5)
	assert.InDelta(t, 1.0, mAP, 1e-12)
}

func TestMeanAveragePrecision_NoGroundTruth(t *testing.T) {
	dets := []Detection{
		{ImageID: 0, ClassID: 1, Score: 0.9, Box: [4]float64{0, 0, 10, 10}},
	}
	assert.Equal(t, 0.0, MeanAveragePrecision(dets, nil, 0.5))
}

// End-to-end: suppress raw detections, then score the survivors.
func TestSuppressionIntoMetrics(t *testing.T) {
	gts := []GroundTruth{
		{ImageID: 0, ClassID: 1, Box: [4]float64{0, 0, 10, 10}},
		{ImageID: 0, ClassID: 1, Box: [4]float64{20, 20, 30, 30}},
	}

	rawBoxes := []float64{
		0, 0, 10, 10,
		1, 1, 11, 11,
		20, 20, 30, 30,
	}
	rawScores := []float64{0.9, 0.85, 0.8}

	kept := NMS(rawBoxes, rawScores, 0.5)
	require.Equal(t, []int{0, 2}, kept)

	dets := make([]Detection, 0, len(kept))
	for _, i := range kept {
		dets = append(dets, Detection{
			ImageID: 0,
			ClassID: 1,
			Score:   rawScores[i],
			Box:     boxAt(rawBoxes, i),
		})
	}

	mAP := MeanAveragePrecision(dets, gts, 0.5)
	assert.InDelta(t, 1.0, mAP, 1e-12)
}
