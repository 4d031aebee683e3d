package calculator

import "errors"

var ErrTooFewPoints = errors.New("need at least two points for a linear fit")

// LinearFit fits y = slope*x + intercept by least squares with x = 0..n-1.
func LinearFit(y []float64) (slope, intercept float64, err error) {
	n := len(y)
	if n < 2 {
		return 0, 0, ErrTooFewPoints
	}
	meanX := float64(n-1) / 2
	var meanY float64
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(n)

	var sxy, sxx float64
	for i, v := range y {
		dx := float64(i) - meanX
		sxy += dx * (v - meanY)
		sxx += dx * dx
	}
	slope = sxy / sxx
	intercept = meanY - slope*meanX
	return slope, intercept, nil
}
