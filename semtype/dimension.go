package semtype

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// NumBaseUnits is the number of SI base units; dimensions are exponent
// vectors over (m, kg, s, A, K, mol, cd).
const NumBaseUnits = 7

// Dimension is the SI form of a unit: a vector of base-unit exponents plus a
// rational scalar factor kept in lowest terms. A centimeter is the meter
// dimension scaled by 1/100.
type Dimension struct {
	Coefficients [NumBaseUnits]int `yaml:"coefficients"`
	Num          int64             `yaml:"num"`
	Den          int64             `yaml:"den"`
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// reduce normalizes the scalar so that gcd(num, den) = 1 and den > 0.
func (d Dimension) reduce() Dimension {
	if d.Den < 0 {
		d.Num, d.Den = -d.Num, -d.Den
	}
	if g := gcd(d.Num, d.Den); g > 1 {
		d.Num /= g
		d.Den /= g
	}
	return d
}

// Mul multiplies two dimensions: exponents add, scalars multiply.
func (d Dimension) Mul(other Dimension) Dimension {
	result := Dimension{Num: d.Num * other.Num, Den: d.Den * other.Den}
	for i := 0; i < NumBaseUnits; i++ {
		result.Coefficients[i] = d.Coefficients[i] + other.Coefficients[i]
	}
	return result.reduce()
}

// Div divides two dimensions: exponents subtract, the scalar is multiplied by
// the reciprocal.
func (d Dimension) Div(other Dimension) Dimension {
	result := Dimension{Num: d.Num * other.Den, Den: d.Den * other.Num}
	for i := 0; i < NumBaseUnits; i++ {
		result.Coefficients[i] = d.Coefficients[i] - other.Coefficients[i]
	}
	return result.reduce()
}

// Equal is structural equality on the reduced form.
func (d Dimension) Equal(other Dimension) bool {
	a, b := d.reduce(), other.reduce()
	return a == b
}

func (d Dimension) String() string {
	return fmt.Sprintf("%d/%d * %v", d.Num, d.Den, d.Coefficients)
}

// Scalar returns the dimensionless identity (exponents zero, scalar 1).
func Scalar() Dimension {
	return Dimension{Num: 1, Den: 1}
}

var (
	meter      = Dimension{Coefficients: [NumBaseUnits]int{1, 0, 0, 0, 0, 0, 0}, Num: 1, Den: 1}
	centimeter = Dimension{Coefficients: [NumBaseUnits]int{1, 0, 0, 0, 0, 0, 0}, Num: 1, Den: 100}
	millimeter = Dimension{Coefficients: [NumBaseUnits]int{1, 0, 0, 0, 0, 0, 0}, Num: 1, Den: 1000}
	second     = Dimension{Coefficients: [NumBaseUnits]int{0, 0, 1, 0, 0, 0, 0}, Num: 1, Den: 1}
	kilogram   = Dimension{Coefficients: [NumBaseUnits]int{0, 1, 0, 0, 0, 0, 0}, Num: 1, Den: 1}
)

// dimensionTable maps the unit spellings the loaders may encounter to their
// SI form. Spec unit attributes use the short spellings; priors and LMCP
// documents have been seen with the long ones.
var dimensionTable = map[string]Dimension{
	"m":          meter,
	"meter":      meter,
	"meters":     meter,
	"cm":         centimeter,
	"centimeter": centimeter,
	"mm":         millimeter,
	"s":          second,
	"kg":         kilogram,
	"m/s":        meter.Div(second),
	"cm/s":       centimeter.Div(second),
	"m/s/s":      meter.Div(second).Div(second),
}

// StringToDimension resolves a unit spelling into its SI dimension. The
// second result reports whether the spelling is known.
func StringToDimension(spelling string) (Dimension, bool) {
	d, ok := dimensionTable[spelling]
	return d, ok
}

// ExtendDimensionTable merges YAML-encoded dimension definitions into the
// spelling table. The document is a map from spelling to dimension:
//
//	ft:
//	  coefficients: [1, 0, 0, 0, 0, 0, 0]
//	  num: 3048
//	  den: 10000
func ExtendDimensionTable(data []byte) error {
	var entries map[string]Dimension
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse unit definitions: %w", err)
	}
	for spelling, d := range entries {
		if d.Den == 0 {
			return fmt.Errorf("unit %q has a zero denominator", spelling)
		}
		dimensionTable[spelling] = d.reduce()
	}
	return nil
}
