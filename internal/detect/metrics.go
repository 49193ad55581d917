package detect

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/fovea-ml/fovea/internal/boxes"
)

// Detection is one scored prediction attributed to an image and a class.
// Box is LTRB in continuous coordinates.
type Detection struct {
	ImageID int
	ClassID int
	Score   float64
	Box     [4]float64
}

// GroundTruth is one annotated object.
type GroundTruth struct {
	ImageID int
	ClassID int
	Box     [4]float64
}

// MatchDetections flags each detection as true positive or false positive.
// Detections are processed in descending score order; a detection is a true
// positive when its best-overlapping ground truth of the same image and
// class clears iouThreshold and was not already claimed by a higher-scored
// detection. Every other detection, duplicates included, is a false
// positive.
//
// The returned flags follow descending score order, ready for
// AveragePrecision.
func MatchDetections(dets []Detection, gts []GroundTruth, iouThreshold float64) []bool {
	gtByImage := make(map[int][]int)
	for i, gt := range gts {
		gtByImage[gt.ImageID] = append(gtByImage[gt.ImageID], i)
	}

	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dets[order[a]].Score > dets[order[b]].Score
	})

	claimed := make([]bool, len(gts))
	flags := make([]bool, len(dets))
	for k, di := range order {
		d := dets[di]
		best := -1
		bestIoU := 0.0
		for _, gi := range gtByImage[d.ImageID] {
			if gts[gi].ClassID != d.ClassID {
				continue
			}
			if iou := boxes.IoU(d.Box, gts[gi].Box); iou > bestIoU {
				bestIoU = iou
				best = gi
			}
		}
		if best >= 0 && bestIoU > iouThreshold && !claimed[best] {
			flags[k] = true
			claimed[best] = true
		}
	}
	return flags
}

// AveragePrecision computes all-points interpolated average precision from
// per-detection true-positive flags in descending score order.
//
// Precision is walked under its right-to-left envelope and integrated over
// recall deltas. numGroundTruth fixes the recall denominator; zero ground
// truths or zero detections give 0.
func AveragePrecision(matches []bool, numGroundTruth int) float64 {
	if len(matches) == 0 || numGroundTruth <= 0 {
		return 0
	}

	tp := make([]float64, len(matches))
	fp := make([]float64, len(matches))
	for i, m := range matches {
		if m {
			tp[i] = 1
		} else {
			fp[i] = 1
		}
	}
	accTP := floats.CumSum(make([]float64, len(tp)), tp)
	accFP := floats.CumSum(make([]float64, len(fp)), fp)

	// Sentinels pin the envelope at recall 0 and 1.
	mrec := make([]float64, 0, len(matches)+2)
	mpre := make([]float64, 0, len(matches)+2)
	mrec = append(mrec, 0)
	mpre = append(mpre, 0)
	for i := range matches {
		mrec = append(mrec, accTP[i]/float64(numGroundTruth))
		mpre = append(mpre, accTP[i]/(accTP[i]+accFP[i]))
	}
	mrec = append(mrec, 1)
	mpre = append(mpre, 0)

	for i := len(mpre) - 1; i > 0; i-- {
		if mpre[i] > mpre[i-1] {
			mpre[i-1] = mpre[i]
		}
	}

	ap := 0.0
	for i := 1; i < len(mrec); i++ {
		if mrec[i] != mrec[i-1] {
			ap += (mrec[i] - mrec[i-1]) * mpre[i]
		}
	}
	return ap
}

// MeanAveragePrecision averages per-class AP at the given IoU threshold.
// Classes are taken from the ground truths; a class without any detection
// contributes 0. No ground truths at all give 0.
func MeanAveragePrecision(dets []Detection, gts []GroundTruth, iouThreshold float64) float64 {
	classDets := make(map[int][]Detection)
	for _, d := range dets {
		classDets[d.ClassID] = append(classDets[d.ClassID], d)
	}
	classGts := make(map[int][]GroundTruth)
	for _, gt := range gts {
		classGts[gt.ClassID] = append(classGts[gt.ClassID], gt)
	}
	if len(classGts) == 0 {
		return 0
	}

	classes := make([]int, 0, len(classGts))
	for c := range classGts {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	sum := 0.0
	for _, c := range classes {
		ds := classDets[c]
		if len(ds) == 0 {
			continue
		}
		flags := MatchDetections(ds, classGts[c], iouThreshold)
		sum += AveragePrecision(flags, len(classGts[c]))
	}
	return sum / float64(len(classes))
}
