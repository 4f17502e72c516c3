package Transport

import (
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// Plot draws the concentration of a 1D run against the exactly advected initial data.
func (c *Transport) Plot(showGraph bool, graphDelay []time.Duration) {
	var (
		fmin, fmax = float32(-0.1), float32(1.1)
	)
	if !showGraph || c.Grid.Dim != 1 {
		return
	}
	c.plotOnce.Do(func() {
		c.chart = chart2d.NewChart2D(1920, 1280, 0, 1, fmin, fmax)
		c.colorMap = utils2.NewColorMap(-1, 1, 1)
		go c.chart.Plot()
	})
	var (
		leaves = c.Grid.LeafCells()
		x      = make([]float64, len(leaves))
		f      = make([]float64, len(leaves))
		exact  []float64
		ball   *Ball
	)
	// Constant velocity moves the initial data without changing it
	ball, _ = c.Problem.(*Ball)
	for n, h := range leaves {
		xc := c.Grid.Center(h)
		x[n] = xc.X
		f[n] = c.C[c.Mapper.Index(h)]
		if ball != nil {
			exact = append(exact, ball.InitialValue(r3.Sub(xc, r3.Scale(c.Time, ball.Speed))))
		}
	}
	if err := c.chart.AddSeries("Concentration", x, f, chart2d.NoGlyph, chart2d.Solid,
		c.colorMap.GetRGB(-0.7)); err != nil {
		panic("unable to add graph series")
	}
	if ball != nil {
		if err := c.chart.AddSeries("Exact", x, exact, chart2d.XGlyph, chart2d.NoLine,
			c.colorMap.GetRGB(0.7)); err != nil {
			panic("unable to add exact solution")
		}
	}
	if len(graphDelay) != 0 {
		time.Sleep(graphDelay[0])
	}
}
