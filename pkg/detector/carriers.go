package detector

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	tracs "github.com/next-exp/tracs_go/pkg"
)

type CarrierKind byte

const (
	Electron CarrierKind = 'e'
	Hole     CarrierKind = 'h'
)

// Carrier is a point charge created by the laser. Y and Z are in um relative
// to the focus, Charge in units of the elementary charge and T0 in s.
type Carrier struct {
	Kind   CarrierKind
	Charge float64
	Y      float64
	Z      float64
	T0     float64
}

// Carriers drifts a carrier distribution through a Planar detector and
// computes the induced current with the Ramo theorem.
type Carriers struct {
	detector *Planar
	carriers []Carrier
}

func NewCarriers(detector *Planar) *Carriers {
	return &Carriers{detector: detector}
}

func (c *Carriers) Carriers() []Carrier {
	return c.carriers
}

// LoadCarrierDistribution reads one carrier per line as "<e|h> q y z t0".
// Blank lines and lines starting with '#' are skipped. The file replaces any
// previously loaded distribution.
func (c *Carriers) LoadCarrierDistribution(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &tracs.ErrOpenFile{Filename: path, Err: err}
	}
	defer file.Close()

	carriers, err := ParseCarriers(bufio.NewScanner(file))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	c.carriers = carriers
	return nil
}

func ParseCarriers(scanner *bufio.Scanner) ([]Carrier, error) {
	var carriers []Carrier
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: expected 5 fields, got %d", line, len(fields))
		}
		kind := CarrierKind(fields[0][0])
		if len(fields[0]) != 1 || (kind != Electron && kind != Hole) {
			return nil, fmt.Errorf("line %d: unknown carrier type %q", line, fields[0])
		}
		values := make([]float64, 4)
		for i, field := range fields[1:] {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			values[i] = value
		}
		carriers = append(carriers, Carrier{
			Kind:   kind,
			Charge: values[0],
			Y:      values[1],
			Z:      values[2],
			T0:     values[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return carriers, nil
}

// Low field mobilities at 300 K (cm^2/Vs) and saturation velocities (cm/s).
const (
	electronMobility300 = 1417.
	holeMobility300     = 471.
	electronSaturation  = 1.07e7
	holeSaturation      = 8.37e6
)

// Mobility returns the field dependent mobility of a carrier kind at
// temperature T (K) and field E (V/cm).
func Mobility(kind CarrierKind, temperature float64, field float64) float64 {
	var mu, vsat float64
	switch kind {
	case Electron:
		mu = electronMobility300 * math.Pow(temperature/300, -2.5)
		vsat = electronSaturation
	default:
		mu = holeMobility300 * math.Pow(temperature/300, -2.2)
		vsat = holeSaturation
	}
	return mu / (1 + mu*math.Abs(field)/vsat)
}

// SimulateDrift moves every carrier, shifted by the offsets, until it leaves
// the detector or maxTime is reached. Electrons drift toward z = Depth, holes
// toward z = 0. Carriers outside the active area induce no current.
func (c *Carriers) SimulateDrift(dt float64, maxTime float64, yOffset float64, zOffset float64) ([]float64, []float64, error) {
	n := tracs.TimeSteps(maxTime, dt)
	electron := make([]float64, n)
	hole := make([]float64, n)
	d := c.detector
	if !d.solved {
		return nil, nil, errFieldsNotComputed
	}

	weighting := 1 / (d.Depth * umToCm)
	halfWidth := d.ActiveHalfWidth()
	for _, carrier := range c.carriers {
		y := carrier.Y + yOffset
		z := carrier.Z + zOffset
		if math.Abs(y) > halfWidth || z < 0 || z > d.Depth {
			continue
		}

		signal, direction := hole, -1.
		if carrier.Kind == Electron {
			signal, direction = electron, 1.
		}
		charge := math.Abs(carrier.Charge) * ElementaryCharge

		for i := 0; i < n; i++ {
			t := float64(i) * dt
			if t < carrier.T0 {
				continue
			}
			field, err := d.FieldAt(z)
			if err != nil {
				return nil, nil, err
			}
			velocity := Mobility(carrier.Kind, d.temperature, field) * field
			signal[i] += charge * velocity * weighting * d.survival(t-carrier.T0)

			z += direction * velocity * dt / umToCm
			if z < 0 || z > d.Depth {
				break
			}
		}
	}
	return electron, hole, nil
}

// Factory builds Planar detectors and their carrier transport.
type Factory struct{}

func (Factory) NewDetector(config tracs.Configuration) (tracs.Detector, error) {
	return NewPlanar(config)
}

func (Factory) NewTransport(detector tracs.Detector, config tracs.Configuration) (tracs.CarrierTransport, error) {
	planar, ok := detector.(*Planar)
	if !ok {
		return nil, fmt.Errorf("carrier transport needs a planar detector, got %T", detector)
	}
	return NewCarriers(planar), nil
}
