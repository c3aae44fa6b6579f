package hilbert

import (
	"fmt"
	"math"
)

// NumCoefficients is the number of allpass coefficients in the network.
const NumCoefficients = 12

// GroupDelay is the approximate group delay of the network in samples.
const GroupDelay = 12

// coefficients interleaves the two chains: even indices feed the in-phase
// path, odd indices the one-sample-delayed quadrature path.
var coefficients = [NumCoefficients]float64{
	0.1684919243525,
	0.4021921162426,
	0.7024051466406,
	0.8561710882420,
	0.9351665954634,
	0.9722909545651,
	0.9862259517082,
	0.9952884791278,
	0.9979710606470,
	0.9990657381831,
	0.9997089053332,
	0.9998766533010,
}

// Quadrature is a stateful half-pi phase splitter. Each section computes
// y[n] = a*(x[n] + y[n-2]) - x[n-2]; the two sample memories alternate on
// every call. Use one Quadrature per channel.
type Quadrature struct {
	xMem  [2][NumCoefficients]float64
	yMem  [2][NumCoefficients]float64
	prev  float64
	phase int
}

// NewQuadrature returns a Quadrature with cleared state.
func NewQuadrature() *Quadrature {
	return &Quadrature{}
}

// ProcessSample processes one sample and returns the in-phase and
// quadrature outputs. For positive frequencies q lags i by about 90 degrees.
func (p *Quadrature) ProcessSample(input float64) (i, q float64) {
	y := &p.yMem[p.phase]
	x := &p.xMem[p.phase]

	y[0] = (input+y[0])*coefficients[0] - x[0]
	x[0] = input
	y[1] = (p.prev+y[1])*coefficients[1] - x[1]
	x[1] = p.prev

	for k := 2; k < NumCoefficients; k++ {
		y[k] = (y[k-2]+y[k])*coefficients[k] - x[k]
		x[k] = y[k-2]
	}

	p.prev = input
	p.phase = 1 - p.phase

	return y[NumCoefficients-2], y[NumCoefficients-1]
}

// ProcessEnvelopeSample processes one sample and returns the analytic
// magnitude sqrt(i^2 + q^2).
func (p *Quadrature) ProcessEnvelopeSample(input float64) float64 {
	i, q := p.ProcessSample(input)
	return math.Hypot(i, q)
}

// ProcessBlock processes input into outI/outQ. All slices must have the
// same length.
func (p *Quadrature) ProcessBlock(input, outI, outQ []float64) error {
	if len(input) != len(outI) || len(input) != len(outQ) {
		return fmt.Errorf("hilbert: ProcessBlock slice length mismatch: in=%d i=%d q=%d",
			len(input), len(outI), len(outQ))
	}

	for n, x := range input {
		outI[n], outQ[n] = p.ProcessSample(x)
	}

	return nil
}

// Reset clears all filter memories.
func (p *Quadrature) Reset() {
	*p = Quadrature{}
}
