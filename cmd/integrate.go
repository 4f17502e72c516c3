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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notargets/fvadapt/InputParameters"
	"github.com/notargets/fvadapt/grid"
	"github.com/notargets/fvadapt/integration"
)

// IntegrateCmd represents the integrate command
var IntegrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Adaptive integration of a model function over the unit cube",
	Long: `
Integrates a smooth (Exp) or a sharply peaked (Needle) function over the unit cube, refining the
cells whose low and high order quadratures disagree most,

fvadapt integrate --functor Needle --dim 2`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err  error
			data []byte
		)
		ip := InputParameters.NewIntegrationParameters()
		if icFile, _ := cmd.Flags().GetString("inputConditionsFile"); len(icFile) != 0 {
			if data, err = os.ReadFile(icFile); err != nil {
				panic(err)
			}
			if err = ip.Parse(data); err != nil {
				panic(err)
			}
		}
		flags := cmd.Flags()
		if flags.Changed("dim") {
			ip.Dimension, _ = flags.GetInt("dim")
		}
		if flags.Changed("functor") {
			ip.Functor, _ = flags.GetString("functor")
		}
		if flags.Changed("tol") {
			ip.Tolerance, _ = flags.GetFloat64("tol")
		}
		if flags.Changed("base") {
			ip.BaseCells, _ = flags.GetInt("base")
		}
		if flags.Changed("father") {
			ip.FatherOrder, _ = flags.GetString("father")
		}
		if _, err = RunIntegrate(ip); err != nil {
			panic(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(IntegrateCmd)
	IntegrateCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for integration parameters")
	IntegrateCmd.Flags().Int("dim", 2, "dimension of the unit cube")
	IntegrateCmd.Flags().StringP("functor", "f", "Needle", "function to integrate: Exp or Needle")
	IntegrateCmd.Flags().Float64("tol", 1.e-8, "relative tolerance between successive integrals")
	IntegrateCmd.Flags().Int("base", 1, "macro cells along each axis")
	IntegrateCmd.Flags().String("father", "Father", "operands of the father error: Father or Child")
}

func RunIntegrate(ip *InputParameters.IntegrationParameters) (res integration.Result, err error) {
	var (
		g *grid.Grid
		f integration.Functor
	)
	if err = ip.Validate(); err != nil {
		return
	}
	ip.Print()
	if g, err = grid.NewUnitCube(ip.Dimension, ip.BaseCells); err != nil {
		return
	}
	if f, err = integration.NewFunctor(ip.Functor, ip.Dimension); err != nil {
		return
	}
	opts := integration.DefaultOptions()
	opts.Tol = ip.Tolerance
	opts.MaxIterations = ip.MaxIterations
	opts.LowOrder, opts.HighOrder = ip.LowOrder, ip.HighOrder
	if strings.EqualFold(ip.FatherOrder, "child") {
		opts.Father = integration.ChildOperands
	}
	opts.Logger = logger
	res = integration.Adaptive(g, f, opts)
	for _, it := range res.Iterations {
		fmt.Printf("elements=%8d integral=%.8e error=%.8e\n", it.Elements, it.Value, it.Error)
	}
	if !res.Converged {
		fmt.Printf("not converged after %d iterations\n", len(res.Iterations))
	}
	return
}
