//go:build !cgo
// +build !cgo

// TEMPORARY VALIDATION STUB: lets the rest of the module type-check under
// CGO_ENABLED=0 during build validation. REMOVE BEFORE FINISHING.

package utils

import "time"

type LineChart struct{}

func NewLineChart(width, height int, xmin, xmax, fmin, fmax float64) (lc *LineChart) {
	return &LineChart{}
}

func (lc *LineChart) Plot(graphDelay time.Duration, x, f []float64, lineColor float64, lineName string) {
}
