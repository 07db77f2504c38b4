package score

import "github.com/rs/zerolog"

// Step is one entry of a calculation trace: what was computed, from which inputs,
// and the running score after the step.
type Step struct {
	Step   string             `json:"step"`
	Inputs map[string]float64 `json:"inputs,omitempty"`
	Output float64            `json:"output"`
}

// Trace is the ordered record of how a score was assembled. Score functions build
// it alongside the score; rendering belongs to the observer, not the computation.
type Trace []Step

func (t *Trace) add(step string, output float64, inputs map[string]float64) {
	*t = append(*t, Step{Step: step, Inputs: inputs, Output: output})
}

// MarshalZerologArray renders the trace as a structured log array, so callers can
// attach it with Array("trace", outcome.Trace) at debug level.
func (t Trace) MarshalZerologArray(a *zerolog.Array) {
	for _, s := range t {
		d := zerolog.Dict().Str("step", s.Step).Float64("output", s.Output)
		for k, v := range s.Inputs {
			d = d.Float64(k, v)
		}
		a.Dict(d)
	}
}
