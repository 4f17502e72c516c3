/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/fvadapt/InputParameters"
	"github.com/notargets/fvadapt/model_problems/Transport"
)

type ModelTransport struct {
	ICFile      string
	Graph       bool
	Delay       time.Duration
	MetricsAddr string
}

// TransportCmd represents the transport command
var TransportCmd = &cobra.Command{
	Use:   "transport",
	Short: "Adaptive finite volume transport of a scalar concentration",
	Long: `
Solves dc/dt + div(u c) = 0 on the unit cube with a first order upwind finite volume scheme,
refining where the concentration jumps and coarsening where it is smooth,

fvadapt transport -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		mt := &ModelTransport{}
		if mt.ICFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		mt.Graph, _ = cmd.Flags().GetBool("graph")
		dr, _ := cmd.Flags().GetInt("delay")
		mt.Delay = time.Duration(dr) * time.Millisecond
		mt.MetricsAddr, _ = cmd.Flags().GetString("metricsAddr")
		ip := processTransportInput(mt)
		applyTransportFlags(cmd, ip)
		if err = RunTransport(mt, ip); err != nil {
			panic(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(TransportCmd)
	TransportCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- MinLevel, MaxLevel\n\t- RefineTol, CoarsenTol")
	TransportCmd.Flags().Float64("finalTime", 0, "FinalTime - the target end time for the sim")
	TransportCmd.Flags().Int("minLevel", 0, "coarsest refinement level")
	TransportCmd.Flags().Int("maxLevel", 0, "finest refinement level")
	TransportCmd.Flags().BoolP("graph", "g", false, "display a graph while computing solution (1D only)")
	TransportCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	TransportCmd.Flags().IntP("parallel", "p", 0, "number of partitions evolved in parallel")
	TransportCmd.Flags().String("metricsAddr", "", "serve prometheus metrics on this address, e.g. :9090")
	TransportCmd.Flags().StringP("output", "o", "", "directory for VTK output, none when empty")
}

const transportExampleFile = `
########################################
Title: "Moving Ball"
Problem: Ball # Can be "Vortex"
Dimension: 2
MinLevel: 2
MaxLevel: 5
FinalTime: 0.5
SaveInterval: 0.1
RefineTol: 0.05
CoarsenTol: 0.001
Velocity: [1, 0.5, 0.5]
BCs:
  Left: Dirichlet
########################################
`

func processTransportInput(mt *ModelTransport) (ip *InputParameters.TransportParameters) {
	var (
		err  error
		data []byte
	)
	ip = InputParameters.NewTransportParameters()
	if len(mt.ICFile) == 0 {
		fmt.Printf("no input parameters file (-I, --inputConditionsFile), running the defaults\n")
		fmt.Printf("Example File:%s\n", transportExampleFile)
		return
	}
	if data, err = os.ReadFile(mt.ICFile); err != nil {
		panic(err)
	}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	return
}

// applyTransportFlags overrides the input file with the flags given on the command line
func applyTransportFlags(cmd *cobra.Command, ip *InputParameters.TransportParameters) {
	flags := cmd.Flags()
	if flags.Changed("finalTime") {
		ip.FinalTime, _ = flags.GetFloat64("finalTime")
	}
	if flags.Changed("minLevel") {
		ip.MinLevel, _ = flags.GetInt("minLevel")
	}
	if flags.Changed("maxLevel") {
		ip.MaxLevel, _ = flags.GetInt("maxLevel")
	}
	if flags.Changed("parallel") {
		ip.ParallelDegree, _ = flags.GetInt("parallel")
	}
	if flags.Changed("output") {
		ip.OutputDir, _ = flags.GetString("output")
	}
}

// RunTransport solves to the final time. With a metrics address the metrics server runs next to
// the solver and its failure is returned along with the solver's.
func RunTransport(mt *ModelTransport, ip *InputParameters.TransportParameters) (err error) {
	ip.Print()
	var c *Transport.Transport
	if c, err = Transport.NewTransport(ip, logger); err != nil {
		return
	}
	start := time.Now()
	if mt.MetricsAddr == "" {
		err = c.Run(mt.Graph, mt.Delay)
	} else {
		err = runWithMetrics(c, mt)
	}
	if err != nil {
		return
	}
	fmt.Printf("t = %8.5f, steps = %d, cells = %d, mass = %12.8f, wall time = %v\n",
		c.Time, c.Steps, len(c.C), c.TotalMass(), time.Since(start).Round(time.Millisecond))
	return
}

func runWithMetrics(c *Transport.Transport, mt *ModelTransport) error {
	m := Transport.NewMetrics()
	c.SetMetrics(m)
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: mt.MetricsAddr, Handler: mux}
	ln, err := net.Listen("tcp", mt.MetricsAddr)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	var eg errgroup.Group
	eg.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		defer srv.Shutdown(context.Background())
		return c.Run(mt.Graph, mt.Delay)
	})
	return eg.Wait()
}
