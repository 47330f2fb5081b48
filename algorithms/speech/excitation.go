package speech

// ExcitationFilter runs the LPC inverse filter across frame boundaries and
// adds a first-order emphasis of the previous residual sample.
type ExcitationFilter struct {
	mem      []float64
	filt     float64
	emphasis float64
}

// NewExcitationFilter creates a filter for coefficients of the given order
// with the default emphasis weight of 0.7
func NewExcitationFilter(order int) *ExcitationFilter {
	return &ExcitationFilter{
		mem:      make([]float64, order),
		emphasis: 0.7,
	}
}

// Process writes the emphasized residual of in to out:
//
//	e[n]   = x[n] + sum_j lpc[j]*x[n-1-j]
//	out[n] = e[n] + 0.7*e[n-1]
//
// The input history and the last residual carry over to the next call.
func (f *ExcitationFilter) Process(lpc, in, out []float64) {
	order := len(f.mem)
	for i, x := range in {
		sum := x
		for j := 0; j < order; j++ {
			sum += lpc[j] * f.mem[j]
		}
		copy(f.mem[1:], f.mem[:order-1])
		f.mem[0] = x
		out[i] = sum + f.emphasis*f.filt
		f.filt = sum
	}
}

// Reset clears the filter memory
func (f *ExcitationFilter) Reset() {
	clear(f.mem)
	f.filt = 0
}
