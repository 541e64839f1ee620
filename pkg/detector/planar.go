// Package detector provides a one dimensional pad detector model: a planar
// diode whose field is obtained from Poisson's equation along the depth axis,
// and a carrier collection drifting through it.
package detector

import (
	"errors"
	"fmt"
	"math"

	tracs "github.com/next-exp/tracs_go/pkg"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

const (
	ElementaryCharge   = 1.602176634e-19         // C
	SiliconPermitivity = 11.7 * 8.8541878128e-14 // F/cm
	umToCm             = 1e-4
	dopingUnit         = 1e12 // cm^-3
)

var errFieldsNotComputed = errors.New("fields have not been computed for the current bias")

// Planar is a pad detector of thickness Depth with the readout implant at
// z = 0. Depths are in um, voltages in V and fields in V/cm.
type Planar struct {
	Pitch       float64
	Width       float64
	Depth       float64
	NNS         int
	Cells       int
	BulkType    string
	ImplantType string

	temperature float64
	trapping    float64
	bias        float64
	depletion   float64
	neffParam   []float64
	neffType    string

	nodes  []float64
	field  []float64
	solved bool
}

func NewPlanar(config tracs.Configuration) (*Planar, error) {
	if config.Depth <= 0 {
		return nil, fmt.Errorf("detector depth must be positive, got %g", config.Depth)
	}
	cells := config.NCellsY
	if cells < 1 {
		cells = 1
	}
	return &Planar{
		Pitch:       config.Pitch,
		Width:       config.Width,
		Depth:       config.Depth,
		NNS:         config.NNS,
		Cells:       cells,
		BulkType:    config.BulkType,
		ImplantType: config.ImplantType,
		temperature: config.Temperature,
		trapping:    math.Inf(1),
		neffParam:   make([]float64, tracs.DopingParameters),
		neffType:    "Trilinear",
	}, nil
}

func (p *Planar) SetVoltage(bias float64, depletion float64) {
	p.bias = bias
	p.depletion = depletion
	p.solved = false
}

// SetDopingProfile replaces the effective doping profile. An all zero
// profile means a constant doping matching the depletion voltage. On error
// the previous profile is kept.
func (p *Planar) SetDopingProfile(params []float64, kind string) error {
	if len(params) != tracs.DopingParameters {
		return &tracs.ErrInvalidDoping{Got: len(params)}
	}
	if kind == "" {
		kind = p.neffType
	}
	if _, err := lookupParametrization(kind); err != nil {
		return err
	}
	p.neffParam = append(p.neffParam[:0], params...)
	p.neffType = kind
	p.solved = false
	return nil
}

func (p *Planar) DopingProfile() ([]float64, string) {
	return append([]float64(nil), p.neffParam...), p.neffType
}

func (p *Planar) SetTrappingTime(t float64) {
	p.trapping = t
}

func (p *Planar) TrappingTime() float64 {
	return p.trapping
}

// survival is the fraction of carriers not trapped after drifting for t.
// A non positive trapping time disables trapping.
func (p *Planar) survival(t float64) float64 {
	if p.trapping <= 0 || math.IsInf(p.trapping, 1) {
		return 1
	}
	return math.Exp(-t / p.trapping)
}

func (p *Planar) Temperature() float64 {
	return p.temperature
}

// ActiveHalfWidth is the lateral distance from the central strip axis
// covered by the simulated strips.
func (p *Planar) ActiveHalfWidth() float64 {
	return float64(2*p.NNS+1) * p.Pitch / 2
}

// neff returns the effective doping in cm^-3 at depth z (um).
func (p *Planar) neff(z float64) float64 {
	if allZero(p.neffParam) {
		depth := p.Depth * umToCm
		return 2 * SiliconPermitivity * p.depletion / (ElementaryCharge * depth * depth)
	}
	profile, err := lookupParametrization(p.neffType)
	if err != nil {
		return 0
	}
	return profile(p.neffParam, z) * dopingUnit
}

// RecomputeFields solves the field on Cells+1 nodes so that its integral over
// the depleted region equals the bias. Below full depletion the field
// vanishes beyond the depletion depth.
func (p *Planar) RecomputeFields() error {
	n := p.Cells + 1
	h := p.Depth / float64(p.Cells) * umToCm
	p.nodes = make([]float64, n)
	nodesCm := make([]float64, n)
	rho := make([]float64, n)
	for i := range p.nodes {
		p.nodes[i] = float64(i) * p.Depth / float64(p.Cells)
		nodesCm[i] = p.nodes[i] * umToCm
		rho[i] = ElementaryCharge / SiliconPermitivity * p.neff(p.nodes[i])
	}

	// chargeIntegral[i] is the integral of rho from 0 to node i
	chargeIntegral := cumulativeTrapezoid(rho, h)
	depthCm := p.Depth * umToCm
	e0 := (p.bias + integrate.Trapezoidal(nodesCm, chargeIntegral)) / depthCm

	p.field = make([]float64, n)
	if e0-chargeIntegral[n-1] >= 0 {
		for i := range p.field {
			p.field[i] = e0 - chargeIntegral[i]
		}
	} else {
		// Partially depleted: find the first node whose depleted region
		// holds the whole bias.
		potential := cumulativeTrapezoid(chargeIntegral, h)
		edge := n - 1
		for k := 1; k < n; k++ {
			if chargeIntegral[k]*nodesCm[k]-potential[k] >= p.bias {
				edge = k
				break
			}
		}
		for i := 0; i <= edge; i++ {
			p.field[i] = chargeIntegral[edge] - chargeIntegral[i]
		}
	}
	for i, e := range p.field {
		if e < 0 || math.IsNaN(e) {
			p.field[i] = 0
		}
	}
	p.solved = true
	return nil
}

// FieldAt interpolates the field at depth z (um). Outside the detector the
// field is zero.
func (p *Planar) FieldAt(z float64) (float64, error) {
	if !p.solved {
		return 0, errFieldsNotComputed
	}
	if z < 0 || z > p.Depth {
		return 0, nil
	}
	position := z / p.Depth * float64(p.Cells)
	i := int(position)
	if i >= p.Cells {
		return p.field[p.Cells], nil
	}
	fraction := position - float64(i)
	return p.field[i] + fraction*(p.field[i+1]-p.field[i]), nil
}

// Field returns a copy of the solved field on the mesh nodes.
func (p *Planar) Field() []float64 {
	return append([]float64(nil), p.field...)
}

// Nodes returns the depths (um) of the mesh nodes.
func (p *Planar) Nodes() []float64 {
	return append([]float64(nil), p.nodes...)
}

func cumulativeTrapezoid(values []float64, h float64) []float64 {
	areas := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		areas[i] = h * (values[i-1] + values[i]) / 2
	}
	return floats.CumSum(areas, areas)
}
