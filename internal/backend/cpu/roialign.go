package cpu

import (
	"fmt"
	"math"

	"github.com/fovea-ml/fovea/internal/parallel"
	"github.com/fovea-ml/fovea/internal/tensor"
)

// RoIAlign pools each region of interest into a fixed pooledHeight x
// pooledWidth grid of bilinearly sampled averages.
//
// Input shape:  [batch, channels, height, width]
// RoIs shape:   [numRois, 5], each row (batchIndex, x1, y1, x2, y2)
//
// Region coordinates are given in image space and converted to feature space
// by (scaleW, scaleH). Each output bin averages samplingRatio^2 bilinear
// samples laid out on a regular sub-grid inside the bin; a non-positive
// samplingRatio switches to an adaptive count of ceil(binSize) per axis.
//
// Output shape: [numRois, channels, pooledHeight, pooledWidth]
//
// Regions reaching outside the feature map are clamped at the sampling rule
// level: samples beyond [-1, dim] contribute zero, so a fully off-map region
// pools to zeros. Inverted boxes (x1 > x2) are handled by the minimum box
// clamp, never rejected. A batch index outside [0, batch) is caller error.
func (cpu *CPUBackend) RoIAlign(input, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, samplingRatio int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("roialign: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}

	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		panic(fmt.Sprintf("roialign: expected rois [R,5], got %v", roisShape))
	}
	if rois.DType() != input.DType() {
		panic(fmt.Sprintf("roialign: rois dtype %s does not match input dtype %s", rois.DType(), input.DType()))
	}

	if pooledHeight <= 0 || pooledWidth <= 0 {
		panic(fmt.Sprintf("roialign: invalid pooled size %dx%d", pooledHeight, pooledWidth))
	}

	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	R := roisShape[0]

	outputShape := tensor.Shape{R, C, pooledHeight, pooledWidth}
	output, err := tensor.NewRaw(outputShape, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("roialign: failed to create output: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		roiAlignFloat32(output, input, rois, scaleH, scaleW, R, C, H, W, pooledHeight, pooledWidth, samplingRatio, cpu.pool)
	case tensor.Float64:
		roiAlignFloat64(output, input, rois, scaleH, scaleW, R, C, H, W, pooledHeight, pooledWidth, samplingRatio, cpu.pool)
	default:
		panic(fmt.Sprintf("roialign: unsupported dtype %v", input.DType()))
	}

	return output
}

// roiGridFloat32 is the sampling geometry of one region: feature-space
// origin, bin size, and per-bin sample counts. Forward and backward derive it
// through the same constructor so their sample coordinates match bit for bit.
type roiGridFloat32 struct {
	startH, startW float32
	binH, binW     float32
	gridH, gridW   int
}

// newRoiGridFloat32 scales roi = (batch, x1, y1, x2, y2) into feature space
// and fixes the sampling grid. Box width and height are clamped to a minimum
// of 1.0 so no bin degenerates to zero size.
func newRoiGridFloat32(roi []float32, scaleH, scaleW float32, pooledH, pooledW, samplingRatio int) roiGridFloat32 {
	startW := roi[1] * scaleW
	startH := roi[2] * scaleH
	endW := roi[3] * scaleW
	endH := roi[4] * scaleH

	roiW := endW - startW
	roiH := endH - startH
	if roiW < 1 {
		roiW = 1
	}
	if roiH < 1 {
		roiH = 1
	}

	g := roiGridFloat32{
		startH: startH,
		startW: startW,
		binH:   roiH / float32(pooledH),
		binW:   roiW / float32(pooledW),
	}

	if samplingRatio > 0 {
		g.gridH = samplingRatio
		g.gridW = samplingRatio
	} else {
		// Adaptive: one sample per feature-space unit of bin extent.
		g.gridH = int(math.Ceil(float64(g.binH)))
		g.gridW = int(math.Ceil(float64(g.binW)))
		if g.gridH < 1 {
			g.gridH = 1
		}
		if g.gridW < 1 {
			g.gridW = 1
		}
	}
	return g
}

// sampleY returns the feature-space y of grid row iy inside output bin ph.
// Offsets sit at (iy+0.5)/gridH fractions of the bin, strictly inside it.
func (g roiGridFloat32) sampleY(ph, iy int) float32 {
	return g.startH + float32(ph)*g.binH + (float32(iy)+0.5)*g.binH/float32(g.gridH)
}

// sampleX returns the feature-space x of grid column ix inside output bin pw.
func (g roiGridFloat32) sampleX(pw, ix int) float32 {
	return g.startW + float32(pw)*g.binW + (float32(ix)+0.5)*g.binW/float32(g.gridW)
}

// roiAlignFloat32 pools all regions for float32 tensors.
// Every (region, channel) task writes a disjoint output plane, so the grid
// parallelizes without synchronization.
func roiAlignFloat32(output, input, rois *tensor.RawTensor, scaleH, scaleW float64, R, C, H, W, pooledH, pooledW, samplingRatio int, pool parallel.Config) {
	inputData := input.AsFloat32()
	outputData := output.AsFloat32()
	roisData := rois.AsFloat32()

	parallel.ForGrid(R, C, func(r, c int) {
		roi := roisData[r*5 : r*5+5]
		batch := int(roi[0])
		g := newRoiGridFloat32(roi, float32(scaleH), float32(scaleW), pooledH, pooledW, samplingRatio)
		count := float32(g.gridH * g.gridW)

		// Pre-slice planes: single bounds check per task.
		planeOffset := (batch*C + c) * H * W
		plane := inputData[planeOffset : planeOffset+H*W]
		outOffset := (r*C + c) * pooledH * pooledW
		outPlane := outputData[outOffset : outOffset+pooledH*pooledW]

		for ph := 0; ph < pooledH; ph++ {
			for pw := 0; pw < pooledW; pw++ {
				var sum float32
				for iy := 0; iy < g.gridH; iy++ {
					y := g.sampleY(ph, iy)
					for ix := 0; ix < g.gridW; ix++ {
						x := g.sampleX(pw, ix)
						sum += bilinearSampleFloat32(plane, H, W, y, x)
					}
				}
				outPlane[ph*pooledW+pw] = sum / count
			}
		}
	}, pool)
}

// roiGridFloat64 is the float64 sampling geometry of one region.
type roiGridFloat64 struct {
	startH, startW float64
	binH, binW     float64
	gridH, gridW   int
}

// newRoiGridFloat64 mirrors newRoiGridFloat32 in float64 precision.
func newRoiGridFloat64(roi []float64, scaleH, scaleW float64, pooledH, pooledW, samplingRatio int) roiGridFloat64 {
	startW := roi[1] * scaleW
	startH := roi[2] * scaleH
	endW := roi[3] * scaleW
	endH := roi[4] * scaleH

	roiW := endW - startW
	roiH := endH - startH
	if roiW < 1 {
		roiW = 1
	}
	if roiH < 1 {
		roiH = 1
	}

	g := roiGridFloat64{
		startH: startH,
		startW: startW,
		binH:   roiH / float64(pooledH),
		binW:   roiW / float64(pooledW),
	}

	if samplingRatio > 0 {
		g.gridH = samplingRatio
		g.gridW = samplingRatio
	} else {
		g.gridH = int(math.Ceil(g.binH))
		g.gridW = int(math.Ceil(g.binW))
		if g.gridH < 1 {
			g.gridH = 1
		}
		if g.gridW < 1 {
			g.gridW = 1
		}
	}
	return g
}

func (g roiGridFloat64) sampleY(ph, iy int) float64 {
	return g.startH + float64(ph)*g.binH + (float64(iy)+0.5)*g.binH/float64(g.gridH)
}

func (g roiGridFloat64) sampleX(pw, ix int) float64 {
	return g.startW + float64(pw)*g.binW + (float64(ix)+0.5)*g.binW/float64(g.gridW)
}

// roiAlignFloat64 pools all regions for float64 tensors.
func roiAlignFloat64(output, input, rois *tensor.RawTensor, scaleH, scaleW float64, R, C, H, W, pooledH, pooledW, samplingRatio int, pool parallel.Config) {
	inputData := input.AsFloat64()
	outputData := output.AsFloat64()
	roisData := rois.AsFloat64()

	parallel.ForGrid(R, C, func(r, c int) {
		roi := roisData[r*5 : r*5+5]
		batch := int(roi[0])
		g := newRoiGridFloat64(roi, scaleH, scaleW, pooledH, pooledW, samplingRatio)
		count := float64(g.gridH * g.gridW)

		planeOffset := (batch*C + c) * H * W
		plane := inputData[planeOffset : planeOffset+H*W]
		outOffset := (r*C + c) * pooledH * pooledW
		outPlane := outputData[outOffset : outOffset+pooledH*pooledW]

		for ph := 0; ph < pooledH; ph++ {
			for pw := 0; pw < pooledW; pw++ {
				var sum float64
				for iy := 0; iy < g.gridH; iy++ {
					y := g.sampleY(ph, iy)
					for ix := 0; ix < g.gridW; ix++ {
						x := g.sampleX(pw, ix)
						sum += bilinearSampleFloat64(plane, H, W, y, x)
					}
				}
				outPlane[ph*pooledW+pw] = sum / count
			}
		}
	}, pool)
}
