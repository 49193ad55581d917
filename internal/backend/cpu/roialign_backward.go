package cpu

import (
	"fmt"

	"github.com/fovea-ml/fovea/internal/parallel"
	"github.com/fovea-ml/fovea/internal/tensor"
)

// RoIAlignBackward computes the gradient w.r.t. the feature map for RoIAlign.
//
// gradOutput shape: [numRois, channels, pooledHeight, pooledWidth]
// RoIs shape:       [numRois, 5], same rows as the forward call
// Result shape:     [batchSize, channels, height, width]
//
// The feature-map dimensions are passed explicitly because backward never
// touches the feature-map values: bilinear weights depend only on sample
// coordinates, which are rederived exactly as in the forward pass. Each bin's
// incoming gradient is split evenly across its sample grid and scattered into
// the four lattice neighbors of every sample point.
//
// Overlapping regions scatter into shared cells. Tasks are therefore
// partitioned by channel: all writes of one task land in channel-c planes,
// so goroutines never share a cell and accumulation order stays fixed.
func (cpu *CPUBackend) RoIAlignBackward(gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, pooledHeight, pooledWidth, batchSize, channels, height, width, samplingRatio int) *tensor.RawTensor {
	gradShape := gradOutput.Shape()
	if len(gradShape) != 4 {
		panic(fmt.Sprintf("roialign backward: expected 4D gradOutput [R,C,PH,PW], got %dD", len(gradShape)))
	}

	roisShape := rois.Shape()
	if len(roisShape) != 2 || roisShape[1] != 5 {
		panic(fmt.Sprintf("roialign backward: expected rois [R,5], got %v", roisShape))
	}
	if rois.DType() != gradOutput.DType() {
		panic(fmt.Sprintf("roialign backward: rois dtype %s does not match gradOutput dtype %s", rois.DType(), gradOutput.DType()))
	}

	R := roisShape[0]
	expected := tensor.Shape{R, channels, pooledHeight, pooledWidth}
	if !gradShape.Equal(expected) {
		panic(fmt.Sprintf("roialign backward: gradOutput shape %v does not match %v", gradShape, expected))
	}

	gradInputShape := tensor.Shape{batchSize, channels, height, width}
	gradInput, err := tensor.NewRaw(gradInputShape, gradOutput.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("roialign backward: failed to create gradient tensor: %v", err))
	}

	switch gradOutput.DType() {
	case tensor.Float32:
		roiAlignBackwardFloat32(gradInput, gradOutput, rois, scaleH, scaleW, R, channels, height, width, pooledHeight, pooledWidth, samplingRatio, cpu.pool)
	case tensor.Float64:
		roiAlignBackwardFloat64(gradInput, gradOutput, rois, scaleH, scaleW, R, channels, height, width, pooledHeight, pooledWidth, samplingRatio, cpu.pool)
	default:
		panic(fmt.Sprintf("roialign backward: unsupported dtype %v", gradOutput.DType()))
	}

	return gradInput
}

// roiAlignBackwardFloat32 scatters gradients for float32 tensors.
func roiAlignBackwardFloat32(gradInput, gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, R, C, H, W, pooledH, pooledW, samplingRatio int, pool parallel.Config) {
	gradInputData := gradInput.AsFloat32()
	gradOutputData := gradOutput.AsFloat32()
	roisData := rois.AsFloat32()

	// Channel partitioning keeps concurrent scatter-adds disjoint: regions
	// overlap spatially, but a worker for channel c only ever writes
	// channel-c planes.
	parallel.For(C, func(c int) {
		for r := 0; r < R; r++ {
			roi := roisData[r*5 : r*5+5]
			batch := int(roi[0])
			g := newRoiGridFloat32(roi, float32(scaleH), float32(scaleW), pooledH, pooledW, samplingRatio)
			count := float32(g.gridH * g.gridW)

			planeOffset := (batch*C + c) * H * W
			gradPlane := gradInputData[planeOffset : planeOffset+H*W]
			outOffset := (r*C + c) * pooledH * pooledW
			gradOutPlane := gradOutputData[outOffset : outOffset+pooledH*pooledW]

			for ph := 0; ph < pooledH; ph++ {
				for pw := 0; pw < pooledW; pw++ {
					gradBin := gradOutPlane[ph*pooledW+pw] / count
					for iy := 0; iy < g.gridH; iy++ {
						y := g.sampleY(ph, iy)
						for ix := 0; ix < g.gridW; ix++ {
							x := g.sampleX(pw, ix)
							bilinearScatterFloat32(gradPlane, H, W, y, x, gradBin)
						}
					}
				}
			}
		}
	}, pool)
}

// roiAlignBackwardFloat64 scatters gradients for float64 tensors.
func roiAlignBackwardFloat64(gradInput, gradOutput, rois *tensor.RawTensor, scaleH, scaleW float64, R, C, H, W, pooledH, pooledW, samplingRatio int, pool parallel.Config) {
	gradInputData := gradInput.AsFloat64()
	gradOutputData := gradOutput.AsFloat64()
	roisData := rois.AsFloat64()

	parallel.For(C, func(c int) {
		for r := 0; r < R; r++ {
			roi := roisData[r*5 : r*5+5]
			batch := int(roi[0])
			g := newRoiGridFloat64(roi, scaleH, scaleW, pooledH, pooledW, samplingRatio)
			count := float64(g.gridH * g.gridW)

			planeOffset := (batch*C + c) * H * W
			gradPlane := gradInputData[planeOffset : planeOffset+H*W]
			outOffset := (r*C + c) * pooledH * pooledW
			gradOutPlane := gradOutputData[outOffset : outOffset+pooledH*pooledW]

			for ph := 0; ph < pooledH; ph++ {
				for pw := 0; pw < pooledW; pw++ {
					gradBin := gradOutPlane[ph*pooledW+pw] / count
					for iy := 0; iy < g.gridH; iy++ {
						y := g.sampleY(ph, iy)
						for ix := 0; ix < g.gridW; ix++ {
							x := g.sampleX(pw, ix)
							bilinearScatterFloat64(gradPlane, H, W, y, x, gradBin)
						}
					}
				}
			}
		}
	}, pool)
}
