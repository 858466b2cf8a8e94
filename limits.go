package lakeq

// Default complexity limits applied when the host supplies none.
const (
	DefaultMaxDepth            = 64
	DefaultMaxProjectionFields = 256
	DefaultMaxSliceLength      = 10000
)

// Limits bounds the cost of adversarial queries. They are checked once,
// immediately after parsing and before any evaluation or store access.
type Limits struct {
	MaxDepth            int `json:"max_depth" yaml:"max_depth"`
	MaxProjectionFields int `json:"max_projection_fields" yaml:"max_projection_fields"`
	MaxSliceLength      int `json:"max_slice_length" yaml:"max_slice_length"`
}

// DefaultLimits returns the limits used when the host supplies none.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:            DefaultMaxDepth,
		MaxProjectionFields: DefaultMaxProjectionFields,
		MaxSliceLength:      DefaultMaxSliceLength,
	}
}

// Validate reports whether every limit is positive.
func (l Limits) Validate() error {
	if l.MaxDepth <= 0 || l.MaxProjectionFields <= 0 || l.MaxSliceLength <= 0 {
		return ErrInvalidLimit
	}

	return nil
}
