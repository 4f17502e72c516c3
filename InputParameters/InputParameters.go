package InputParameters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/fvadapt/types"
)

// ghodss/yaml converts YAML to JSON before decoding, so field names are taken from the json tags

// Parameters obtained from the YAML input file for a transport run
type TransportParameters struct {
	Title          string            `json:"Title"`
	Dimension      int               `json:"Dimension"`
	BaseCells      int               `json:"BaseCells"` // Macro cells along each axis of the unit cube
	MinLevel       int               `json:"MinLevel"`
	MaxLevel       int               `json:"MaxLevel"`
	FinalTime      float64           `json:"FinalTime"`
	SaveInterval   float64           `json:"SaveInterval"`
	RefineTol      float64           `json:"RefineTol"`
	CoarsenTol     float64           `json:"CoarsenTol"`
	SafetyFactor   float64           `json:"SafetyFactor"`
	Problem        string            `json:"Problem"` // Ball or Vortex
	Velocity       []float64         `json:"Velocity"`
	Center         []float64         `json:"Center"`
	Radius         float64           `json:"Radius"`
	InflowValue    float64           `json:"InflowValue"`
	Adaptive       *bool             `json:"Adaptive"`
	ParallelDegree int               `json:"ParallelDegree"`
	OutputPrefix   string            `json:"OutputPrefix"`
	OutputDir      string            `json:"OutputDir"`
	BCs            map[string]string `json:"BCs"` // Key is the domain side, value the BC type
}

// NewTransportParameters returns the defaults of the classic moving ball run
func NewTransportParameters() (ip *TransportParameters) {
	adaptive := true
	ip = &TransportParameters{
		Title:        "Transport",
		Dimension:    2,
		BaseCells:    1,
		MinLevel:     2,
		MaxLevel:     5,
		FinalTime:    0.5,
		SaveInterval: 0.1,
		RefineTol:    0.05,
		CoarsenTol:   0.001,
		SafetyFactor: 0.99,
		Problem:      "Ball",
		Velocity:     []float64{1, 0.5, 0.5},
		Center:       []float64{0.25, 0.25, 0.25},
		Radius:       0.125,
		Adaptive:     &adaptive,
		OutputPrefix: "concentration",
	}
	return
}

// Parse overlays the values present in data onto the receiver, absent keys keep their value
func (ip *TransportParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *TransportParameters) IsAdaptive() bool {
	return ip.Adaptive == nil || *ip.Adaptive
}

func (ip *TransportParameters) Validate() (err error) {
	switch {
	case ip.Dimension < 1 || ip.Dimension > 3:
		err = fmt.Errorf("dimension must be 1, 2 or 3, have %d", ip.Dimension)
	case ip.BaseCells < 1:
		err = fmt.Errorf("BaseCells must be positive, have %d", ip.BaseCells)
	case ip.MinLevel < 0 || ip.MaxLevel < 0:
		err = fmt.Errorf("levels must be non negative, have MinLevel = %d, MaxLevel = %d", ip.MinLevel, ip.MaxLevel)
	case ip.MinLevel > ip.MaxLevel:
		err = fmt.Errorf("MinLevel %d is above MaxLevel %d", ip.MinLevel, ip.MaxLevel)
	case !types.CellKeyFits(ip.BaseCells, ip.MaxLevel):
		err = fmt.Errorf("MaxLevel %d with %d BaseCells exceeds the grid address range", ip.MaxLevel, ip.BaseCells)
	case ip.FinalTime <= 0:
		err = fmt.Errorf("FinalTime must be positive, have %g", ip.FinalTime)
	case ip.SaveInterval <= 0:
		err = fmt.Errorf("SaveInterval must be positive, have %g", ip.SaveInterval)
	case ip.RefineTol < 0 || ip.RefineTol > 1:
		err = fmt.Errorf("RefineTol must be within [0,1], have %g", ip.RefineTol)
	case ip.CoarsenTol < 0 || ip.CoarsenTol > 1:
		err = fmt.Errorf("CoarsenTol must be within [0,1], have %g", ip.CoarsenTol)
	case ip.CoarsenTol > ip.RefineTol:
		err = fmt.Errorf("CoarsenTol %g is above RefineTol %g", ip.CoarsenTol, ip.RefineTol)
	case ip.SafetyFactor <= 0 || ip.SafetyFactor > 1:
		err = fmt.Errorf("SafetyFactor must be within (0,1], have %g", ip.SafetyFactor)
	case ip.ParallelDegree < 0:
		err = fmt.Errorf("ParallelDegree must be non negative, have %d", ip.ParallelDegree)
	}
	if err != nil {
		return
	}
	switch strings.ToLower(ip.Problem) {
	case "ball", "vortex":
	default:
		return fmt.Errorf("unknown problem %q, must be Ball or Vortex", ip.Problem)
	}
	if _, err = ip.BoundaryConditions(); err != nil {
		return
	}
	return
}

// BoundaryConditions resolves the BCs map into per side flags, unlisted sides are Dirichlet
func (ip *TransportParameters) BoundaryConditions() (bcs map[types.Side]types.BCFLAG, err error) {
	bcs = make(map[types.Side]types.BCFLAG)
	for sideName, bcName := range ip.BCs {
		var (
			side types.Side
			bc   types.BCFLAG
		)
		if side, err = types.NewSide(sideName); err != nil {
			return
		}
		if side.Axis() >= ip.Dimension {
			err = fmt.Errorf("side %s does not exist in %d dimensions", side, ip.Dimension)
			return
		}
		if bc, err = types.NewBCFLAG(bcName); err != nil {
			return
		}
		bcs[side] = bc
	}
	return
}

func (ip *TransportParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Problem\n", ip.Problem)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("[%d]\t\t\t\t= Base Cells\n", ip.BaseCells)
	fmt.Printf("[%d,%d]\t\t\t\t= Min, Max Level\n", ip.MinLevel, ip.MaxLevel)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.5f\t\t= SaveInterval\n", ip.SaveInterval)
	fmt.Printf("%8.5f\t\t= RefineTol\n", ip.RefineTol)
	fmt.Printf("%8.5f\t\t= CoarsenTol\n", ip.CoarsenTol)
	fmt.Printf("%8.5f\t\t= SafetyFactor\n", ip.SafetyFactor)
	fmt.Printf("%v\t\t\t= Adaptive\n", ip.IsAdaptive())
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}

// Parameters for an adaptive integration run
type IntegrationParameters struct {
	Title         string  `json:"Title"`
	Dimension     int     `json:"Dimension"`
	BaseCells     int     `json:"BaseCells"`
	Functor       string  `json:"Functor"` // Exp or Needle
	Tolerance     float64 `json:"Tolerance"`
	MaxIterations int     `json:"MaxIterations"`
	LowOrder      int     `json:"LowOrder"`
	HighOrder     int     `json:"HighOrder"`
	FatherOrder   string  `json:"FatherOrder"` // Father or Child operands of the father error
}

func NewIntegrationParameters() *IntegrationParameters {
	return &IntegrationParameters{
		Title:         "Adaptive Integration",
		Dimension:     2,
		BaseCells:     1,
		Functor:       "Needle",
		Tolerance:     1.e-8,
		MaxIterations: 100,
		LowOrder:      1,
		HighOrder:     3,
		FatherOrder:   "Father",
	}
}

func (ip *IntegrationParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *IntegrationParameters) Validate() (err error) {
	switch {
	case ip.Dimension < 1 || ip.Dimension > 3:
		err = fmt.Errorf("dimension must be 1, 2 or 3, have %d", ip.Dimension)
	case ip.BaseCells < 1:
		err = fmt.Errorf("BaseCells must be positive, have %d", ip.BaseCells)
	case ip.Tolerance <= 0:
		err = fmt.Errorf("Tolerance must be positive, have %g", ip.Tolerance)
	case ip.MaxIterations < 1:
		err = fmt.Errorf("MaxIterations must be positive, have %d", ip.MaxIterations)
	case ip.LowOrder < 0 || ip.HighOrder <= ip.LowOrder:
		err = fmt.Errorf("need 0 <= LowOrder < HighOrder, have %d, %d", ip.LowOrder, ip.HighOrder)
	}
	if err != nil {
		return
	}
	switch strings.ToLower(ip.Functor) {
	case "exp", "needle":
	default:
		return fmt.Errorf("unknown functor %q, must be Exp or Needle", ip.Functor)
	}
	switch strings.ToLower(ip.FatherOrder) {
	case "father", "child":
	default:
		return fmt.Errorf("unknown FatherOrder %q, must be Father or Child", ip.FatherOrder)
	}
	return
}

func (ip *IntegrationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Functor\n", ip.Functor)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", ip.Dimension)
	fmt.Printf("%8.2e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t\t= MaxIterations\n", ip.MaxIterations)
	fmt.Printf("[%d,%d]\t\t\t\t= Low, High Order\n", ip.LowOrder, ip.HighOrder)
	fmt.Printf("[%s]\t\t\t= Father error operands\n", ip.FatherOrder)
}
