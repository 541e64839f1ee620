package detector

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// A doping profile is described by 8 parameters [y0 y1 y2 y3 z0 z1 z2 z3]:
// effective doping values in 1e12 cm^-3 at depths in um.
type parametrization func(params []float64, z float64) float64

var parametrizations = map[string]parametrization{
	"Trilinear":   trilinear,
	"Linear":      linear,
	"Triconstant": triconstant,
}

// Parametrizations returns the names of the supported doping profiles.
func Parametrizations() []string {
	return slices.Sorted(maps.Keys(parametrizations))
}

func lookupParametrization(kind string) (parametrization, error) {
	p, ok := parametrizations[kind]
	if !ok {
		return nil, fmt.Errorf("unknown doping parametrization %q, expected one of %s",
			kind, strings.Join(Parametrizations(), ", "))
	}
	return p, nil
}

func interpolate(z0, y0, z1, y1, z float64) float64 {
	if z1 == z0 {
		return y0
	}
	return y0 + (y1-y0)*(z-z0)/(z1-z0)
}

func trilinear(p []float64, z float64) float64 {
	switch {
	case z < p[5]:
		return interpolate(p[4], p[0], p[5], p[1], z)
	case z < p[6]:
		return interpolate(p[5], p[1], p[6], p[2], z)
	default:
		return interpolate(p[6], p[2], p[7], p[3], z)
	}
}

func linear(p []float64, z float64) float64 {
	return interpolate(p[4], p[0], p[7], p[3], z)
}

func triconstant(p []float64, z float64) float64 {
	switch {
	case z < p[5]:
		return p[0]
	case z < p[6]:
		return p[1]
	default:
		return p[2]
	}
}

func allZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}
