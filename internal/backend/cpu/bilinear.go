package cpu

// Bilinear interpolation over one [H, W] plane. The forward direction reads
// the four lattice neighbors of a fractional position; the backward direction
// accumulates a gradient into them with the same weights. Both directions
// resolve coordinates through one coefficient helper per dtype so their
// geometry matches bit for bit.

// bilinearCoefFloat32 holds the four lattice offsets and weights for one
// fractional sample position. valid is false when the position lies outside
// the sampling range and contributes nothing.
type bilinearCoefFloat32 struct {
	p1, p2, p3, p4 int
	w1, w2, w3, w4 float32
	valid          bool
}

// bilinearCoefsFloat32 resolves (y, x) against a height x width plane.
// Positions with either coordinate outside [-1, dim] are rejected; in-range
// coordinates are clamped into [0, dim-1] and matched to their four
// surrounding lattice points, collapsing to the boundary pixel at the edges.
func bilinearCoefsFloat32(height, width int, y, x float32) bilinearCoefFloat32 {
	var c bilinearCoefFloat32

	if y < -1.0 || y > float32(height) || x < -1.0 || x > float32(width) {
		return c
	}

	if y <= 0 {
		y = 0
	}
	if x <= 0 {
		x = 0
	}

	yLow := int(y)
	xLow := int(x)
	var yHigh, xHigh int

	if yLow >= height-1 {
		yLow = height - 1
		yHigh = yLow
		y = float32(yLow)
	} else {
		yHigh = yLow + 1
	}
	if xLow >= width-1 {
		xLow = width - 1
		xHigh = xLow
		x = float32(xLow)
	} else {
		xHigh = xLow + 1
	}

	ly := y - float32(yLow)
	lx := x - float32(xLow)
	hy := 1 - ly
	hx := 1 - lx

	c.p1 = yLow*width + xLow
	c.p2 = yLow*width + xHigh
	c.p3 = yHigh*width + xLow
	c.p4 = yHigh*width + xHigh
	c.w1 = hy * hx
	c.w2 = hy * lx
	c.w3 = ly * hx
	c.w4 = ly * lx
	c.valid = true
	return c
}

// bilinearSampleFloat32 returns the interpolated value of plane at (y, x).
func bilinearSampleFloat32(plane []float32, height, width int, y, x float32) float32 {
	c := bilinearCoefsFloat32(height, width, y, x)
	if !c.valid {
		return 0
	}
	return c.w1*plane[c.p1] + c.w2*plane[c.p2] + c.w3*plane[c.p3] + c.w4*plane[c.p4]
}

// bilinearScatterFloat32 accumulates grad into the four lattice neighbors of
// (y, x) with the interpolation weights. Callers writing concurrently must
// hold disjoint planes.
func bilinearScatterFloat32(plane []float32, height, width int, y, x, grad float32) {
	c := bilinearCoefsFloat32(height, width, y, x)
	if !c.valid {
		return
	}
	plane[c.p1] += c.w1 * grad
	plane[c.p2] += c.w2 * grad
	plane[c.p3] += c.w3 * grad
	plane[c.p4] += c.w4 * grad
}

// bilinearCoefFloat64 holds the four lattice offsets and weights for one
// fractional sample position. valid is false when the position lies outside
// the sampling range and contributes nothing.
type bilinearCoefFloat64 struct {
	p1, p2, p3, p4 int
	w1, w2, w3, w4 float64
	valid          bool
}

// bilinearCoefsFloat64 resolves (y, x) against a height x width plane.
// Same rules as the float32 variant.
func bilinearCoefsFloat64(height, width int, y, x float64) bilinearCoefFloat64 {
	var c bilinearCoefFloat64

	if y < -1.0 || y > float64(height) || x < -1.0 || x > float64(width) {
		return c
	}

	if y <= 0 {
		y = 0
	}
	if x <= 0 {
		x = 0
	}

	yLow := int(y)
	xLow := int(x)
	var yHigh, xHigh int

	if yLow >= height-1 {
		yLow = height - 1
		yHigh = yLow
		y = float64(yLow)
	} else {
		yHigh = yLow + 1
	}
	if xLow >= width-1 {
		xLow = width - 1
		xHigh = xLow
		x = float64(xLow)
	} else {
		xHigh = xLow + 1
	}

	ly := y - float64(yLow)
	lx := x - float64(xLow)
	hy := 1 - ly
	hx := 1 - lx

	c.p1 = yLow*width + xLow
	c.p2 = yLow*width + xHigh
	c.p3 = yHigh*width + xLow
	c.p4 = yHigh*width + xHigh
	c.w1 = hy * hx
	c.w2 = hy * lx
	c.w3 = ly * hx
	c.w4 = ly * lx
	c.valid = true
	return c
}

// bilinearSampleFloat64 returns the interpolated value of plane at (y, x).
func bilinearSampleFloat64(plane []float64, height, width int, y, x float64) float64 {
	c := bilinearCoefsFloat64(height, width, y, x)
	if !c.valid {
		return 0
	}
	return c.w1*plane[c.p1] + c.w2*plane[c.p2] + c.w3*plane[c.p3] + c.w4*plane[c.p4]
}

// bilinearScatterFloat64 accumulates grad into the four lattice neighbors of
// (y, x) with the interpolation weights. Callers writing concurrently must
// hold disjoint planes.
func bilinearScatterFloat64(plane []float64, height, width int, y, x, grad float64) {
	c := bilinearCoefsFloat64(height, width, y, x)
	if !c.valid {
		return
	}
	plane[c.p1] += c.w1 * grad
	plane[c.p2] += c.w2 * grad
	plane[c.p3] += c.w3 * grad
	plane[c.p4] += c.w4 * grad
}
