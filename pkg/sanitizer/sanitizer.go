package sanitizer

// Strategy is one normalization step.
type Strategy func(string) string

// Pipeline applies its strategies in order.
type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}
