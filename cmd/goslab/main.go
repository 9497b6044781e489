/*
 * main.go, part of goslab.
 *
 * Copyright 2012 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 * goslab is developed at the laboratory for instruction in Swedish, Department of Chemistry,
 * University of Helsinki, Finland.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//goslab reads a slab structure, finds its atomic layers along one axis, fixes the
//bottom one or two layers and writes the structure, with those constraints, as an
//extended XYZ file, a VASP POSCAR and a Quantum ESPRESSO relaxation input.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	chem "github.com/rmera/goslab"
	"github.com/rmera/goslab/chemplot"
	"github.com/rmera/goslab/config"
	"github.com/rmera/goslab/qm"
	"github.com/rmera/goslab/slab"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//options are the command line flags. Only the flags actually given override the configuration file.
type options struct {
	config    string
	layers    int
	threshold float64
	axis      string
	xyz       string
	poscar    string
	qe        string
	prefix    string
	plot      string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := new(options)
	var logger *zap.Logger
	root := &cobra.Command{
		Use:   "goslab [input]",
		Short: "Fix the bottom layers of a slab and write relaxation inputs",
		Long: `goslab reads a slab (CIF or extended XYZ, optionally gzip or zstd compressed),
detects its atomic layers along the chosen axis and fixes the bottom 1 or 2 of them.

The constrained structure is written as an extended XYZ file, a VASP POSCAR with
selective dynamics and a Quantum ESPRESSO (pw.x) relaxation input.

Without --layers, the number of layers to fix is asked for interactively.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zconf := zap.NewProductionConfig()
			if opts.verbose {
				zconf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zconf.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			chem.SetLogger(logger)
			slab.SetLogger(logger)
			qm.SetLogger(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.configuration(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}
	f := root.Flags()
	f.StringVar(&opts.config, "config", "", "YAML configuration file (see 'goslab template')")
	f.IntVarP(&opts.layers, "layers", "n", 0, "bottom layers to fix, 1 or 2 (0 asks interactively)")
	f.Float64Var(&opts.threshold, "threshold", slab.DefaultThreshold, "height gap (Å) that separates two layers")
	f.StringVar(&opts.axis, "axis", "z", "axis normal to the layers (x, y or z)")
	f.StringVar(&opts.xyz, "xyz", "", "extended XYZ output (default <input>_fixed.xyz)")
	f.StringVar(&opts.poscar, "poscar", "", "POSCAR output (default POSCAR)")
	f.StringVar(&opts.qe, "qe", "", "Quantum ESPRESSO input (default <input>_fixed.in)")
	f.StringVar(&opts.prefix, "prefix", "", "prefix for pw.x (default <input>)")
	f.StringVar(&opts.plot, "plot", "", "plot the layer profile to this file (png, svg or pdf)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "template",
		Short: "Print a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), config.Template)
			return err
		},
	})
	return root
}

//configuration builds the configuration for the run: defaults, then the configuration
//file, if given, then the flags that were set, then the input given as argument.
func (o *options) configuration(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return nil, err
		}
	}
	f := cmd.Flags()
	if f.Changed("layers") {
		cfg.Layers = o.layers
	}
	if f.Changed("threshold") {
		cfg.Threshold = o.threshold
	}
	if f.Changed("axis") {
		cfg.Axis = o.axis
	}
	if f.Changed("xyz") {
		cfg.Outputs.XYZ = o.xyz
	}
	if f.Changed("poscar") {
		cfg.Outputs.POSCAR = o.poscar
	}
	if f.Changed("qe") {
		cfg.Outputs.QE = o.qe
	}
	if f.Changed("prefix") {
		cfg.QE.Prefix = o.prefix
	}
	if f.Changed("plot") {
		cfg.Outputs.Plot = o.plot
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Resolve()
	return cfg, nil
}

//run reads the structure, reports its layers, fixes the bottom ones and writes all the outputs.
//The number of layers is read from in if the configuration doesn't give it. The report and
//the summary go to out.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mol, err := chem.StructureFileRead(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.Input, err)
	}
	logger.Info("structure read", zap.String("file", cfg.Input), zap.Int("atoms", mol.Len()))
	axis, err := slab.ParseAxis(cfg.Axis)
	if err != nil {
		return err
	}
	P, err := slab.DetectMoleculeLayers(mol, axis, cfg.Threshold)
	if err != nil {
		return err
	}
	if err := P.Report(out, mol); err != nil {
		return err
	}
	n := cfg.Layers
	if n == 0 {
		if n, err = slab.Prompt(in, out); err != nil {
			return err
		}
	} else if err := slab.ValidateLayerChoice(n); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	fixed, err := slab.Apply(mol, P, n)
	if err != nil {
		return err
	}
	logger.Info("layers fixed", zap.Int("layers", n), zap.Int("atoms", len(fixed)))

	saved := make([]string, 0, 4)
	if err := chem.XYZFileWrite(cfg.Outputs.XYZ, mol); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Outputs.XYZ, err)
	}
	saved = append(saved, cfg.Outputs.XYZ)
	if err := chem.POSCARFileWrite(cfg.Outputs.POSCAR, mol); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Outputs.POSCAR, err)
	}
	saved = append(saved, cfg.Outputs.POSCAR+" (VASP)")
	qename, err := writeQE(cfg, mol, fixed)
	if err != nil {
		return err
	}
	saved = append(saved, qename+" (QE)")
	if cfg.Outputs.Plot != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		title := fmt.Sprintf("%s: %d layers, %d fixed", config.Base(cfg.Input), P.Len(), n)
		if err := chemplot.LayerProfile(P, n, title, cfg.Outputs.Plot); err != nil {
			return fmt.Errorf("writing %s: %w", cfg.Outputs.Plot, err)
		}
		saved = append(saved, cfg.Outputs.Plot+" (plot)")
	}
	return summary(out, mol.Len(), len(fixed), n, saved)
}

//writeQE writes the pw.x input and returns the name of the file written, which always
//has the .in extension.
func writeQE(cfg *config.Config, mol *chem.Molecule, fixed []int) (string, error) {
	handle := qm.NewQEHandle()
	name := strings.TrimSuffix(cfg.Outputs.QE, ".in")
	handle.SetName(name)
	handle.SetPrefix(cfg.QE.Prefix)
	handle.SetPseudoDir(cfg.QE.PseudoDir)
	handle.SetOutDir(cfg.QE.OutDir)
	if err := handle.SetPseudoPattern(cfg.QE.PseudoPattern); err != nil {
		return "", err
	}
	calc := new(qm.Calc)
	calc.SetDefaults()
	calc.CConstraints = fixed
	calc.Ecutwfc = cfg.QE.Ecutwfc
	calc.Ecutrho = cfg.QE.Ecutrho
	if err := handle.BuildInput(mol.Coords, mol, calc); err != nil {
		return "", err
	}
	return name + ".in", nil
}

func summary(out io.Writer, total, nfixed, layers int, saved []string) error {
	banner := strings.Repeat("=", 50)
	lines := []string{
		"",
		banner,
		fmt.Sprintf("✓ Fixed %d atoms in bottom %d layer(s)", nfixed, layers),
		fmt.Sprintf("✓ Total atoms: %d | Fixed: %d | Free: %d", total, nfixed, total-nfixed),
		banner,
		"Saved:",
	}
	for _, v := range saved {
		lines = append(lines, "  - "+v)
	}
	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
