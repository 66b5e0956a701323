package valueobjects

import (
	"math"

	pkgerrors "ideagraph/pkg/errors"
)

// Position is a layout coordinate. It never affects graph semantics.
type Position struct {
	X float64 `json:"x" dynamodbav:"x"`
	Y float64 `json:"y" dynamodbav:"y"`
}

// NewPosition creates a position, rejecting NaN and infinities
func NewPosition(x, y float64) (Position, error) {
	p := Position{X: x, Y: y}
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	return p, nil
}

// Validate checks the coordinate is a well-formed pair of finite numbers
func (p Position) Validate() error {
	if !isFinite(p.X) || !isFinite(p.Y) {
		return pkgerrors.NewValidationError("position must be a finite {x, y} pair")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
