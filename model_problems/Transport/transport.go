package Transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/fvadapt/InputParameters"
	"github.com/notargets/fvadapt/grid"
	"github.com/notargets/fvadapt/output"
	"github.com/notargets/fvadapt/types"
)

type Transport struct {
	Params   *InputParameters.TransportParameters
	Grid     *grid.Grid
	Mapper   *grid.LeafMapper
	C        []float64 // Cell averages, indexed by Mapper
	Problem  Problem
	Operator Evolver
	Adaptor  *Adaptor
	Writer   *output.VTKWriter // Nil disables file output
	Metrics  *Metrics          // Nil disables metrics
	Time     float64
	Steps    int
	logger   *zap.Logger
	// Output bookkeeping
	outputCount    int
	nextSave       float64
	lastOutputTime float64
	// Graphics
	plotOnce sync.Once
	chart    *chart2d.Chart2D
	colorMap *utils2.ColorMap
}

func NewTransport(ip *InputParameters.TransportParameters, logger *zap.Logger) (c *Transport, err error) {
	if err = ip.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport parameters: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		p     Problem
		g     *grid.Grid
		bcMap map[types.Side]types.BCFLAG
	)
	if p, err = NewProblem(ip); err != nil {
		return
	}
	if bcMap, err = ip.BoundaryConditions(); err != nil {
		return
	}
	if g, err = grid.NewUnitCube(ip.Dimension, ip.BaseCells); err != nil {
		return
	}
	g.GlobalRefine(ip.MinLevel)
	op := NewFluxOperator(p, NewBoundaryConditions(bcMap))
	op.Safety = ip.SafetyFactor
	var ev Evolver = op
	if ip.ParallelDegree > 1 {
		ev = NewParallelFluxOperator(op, ip.ParallelDegree)
	}
	c = &Transport{
		Params:   ip,
		Grid:     g,
		Mapper:   grid.NewLeafMapper(g),
		Problem:  p,
		Operator: ev,
		Adaptor:  NewAdaptor(NewMarker(ip.RefineTol, ip.CoarsenTol, ip.MinLevel, ip.MaxLevel), logger),
		logger:   logger,
		nextSave: ip.SaveInterval,
	}
	if ip.OutputDir != "" {
		c.Writer = output.NewVTKWriter(ip.OutputDir, ip.OutputPrefix, logger)
	}
	c.C = Initialize(c.Grid, c.Mapper, c.Problem)
	if ip.IsAdaptive() {
		c.initialRefinement()
	}
	logger.Info("transport initialized",
		zap.String("problem", ip.Problem),
		zap.Int("dimension", ip.Dimension),
		zap.Int("cells", len(c.C)),
		zap.Int("maxLevel", c.Grid.MaxLevel()),
		zap.Float64("mass", c.TotalMass()))
	return
}

// initialRefinement adapts to the initial data, sampling it again on each new mesh
func (c *Transport) initialRefinement() {
	for i := c.Grid.MaxLevel(); i < c.Params.MaxLevel; i++ {
		if c.Grid.MaxLevel() >= c.Params.MaxLevel {
			break
		}
		var changed bool
		if c.C, changed = c.Adaptor.Adapt(c.Grid, c.Mapper, c.C); !changed {
			break
		}
		c.C = Initialize(c.Grid, c.Mapper, c.Problem)
	}
}

func (c *Transport) SetMetrics(m *Metrics) {
	c.Metrics = m
	c.observe()
}

func (c *Transport) Done() bool { return c.Time >= c.Params.FinalTime }

// TotalMass is the integral of the concentration over the domain.
func (c *Transport) TotalMass() float64 {
	vol := make([]float64, len(c.C))
	for _, h := range c.Grid.LeafCells() {
		vol[c.Mapper.Index(h)] = c.Grid.Volume(h)
	}
	return floats.Dot(c.C, vol)
}

func (c *Transport) Run(showGraph bool, graphDelay ...time.Duration) (err error) {
	var (
		logFrequency = 50
	)
	if err = c.write(); err != nil {
		return
	}
	c.Plot(showGraph, graphDelay)
	for !c.Done() {
		var dt float64
		if dt, err = c.Step(); err != nil {
			return
		}
		c.Plot(showGraph, graphDelay)
		if c.Steps%logFrequency == 0 || c.Done() {
			c.logger.Info("step",
				zap.Int("k", c.Steps),
				zap.Int("cells", len(c.C)),
				zap.Float64("t", c.Time),
				zap.Float64("dt", dt),
				zap.Float64("mass", c.TotalMass()))
		}
	}
	if c.lastOutputTime != c.Time {
		err = c.write()
	}
	return
}

// Step evolves the field by one time step, writes output when a save time is reached and adapts
// the mesh to the new field.
func (c *Transport) Step() (dt float64, err error) {
	start := time.Now()
	remaining := c.Params.FinalTime - c.Time
	dt = c.Operator.EvolveLimited(c.Grid, c.Mapper, c.C, c.Time, remaining)
	if dt >= remaining {
		c.Time = c.Params.FinalTime
	} else {
		c.Time += dt
	}
	c.Steps++
	if c.Time >= c.nextSave {
		if err = c.write(); err != nil {
			return
		}
		c.nextSave += c.Params.SaveInterval
	}
	c.logger.Debug("evolved", zap.Int("k", c.Steps), zap.Float64("t", c.Time), zap.Float64("dt", dt))
	if c.Params.IsAdaptive() {
		var changed bool
		c.C, changed = c.Adaptor.Adapt(c.Grid, c.Mapper, c.C)
		if changed && c.Metrics != nil {
			c.Metrics.Adaptations.Inc()
		}
	}
	if c.Metrics != nil {
		c.Metrics.Steps.Inc()
		c.Metrics.TimeStep.Observe(dt)
		c.Metrics.StepDuration.Observe(time.Since(start).Seconds())
		c.observe()
	}
	return
}

func (c *Transport) observe() {
	if c.Metrics == nil {
		return
	}
	c.Metrics.Cells.Set(float64(len(c.C)))
	c.Metrics.SimTime.Set(c.Time)
	c.Metrics.Mass.Set(c.TotalMass())
}

func (c *Transport) write() (err error) {
	if c.Writer == nil {
		return
	}
	if err = c.Writer.Write(c.Grid, c.Mapper, c.C, c.outputCount, c.Time); err != nil {
		return
	}
	c.outputCount++
	c.lastOutputTime = c.Time
	return
}
