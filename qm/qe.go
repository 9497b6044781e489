/*
 * qe.go, part of goslab.
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

package qm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	chem "github.com/rmera/goslab"
	v3 "github.com/rmera/goslab/v3"
	"go.uber.org/zap"
)

//QEHandle builds inputs for the pw.x program of Quantum ESPRESSO.
//Note that the defaults are NOT considered part of the API, so they can always change.
type QEHandle struct {
	inputname     string
	prefix        string
	pseudoDir     string
	outDir        string
	pseudoPattern string
	defecutwfc    float64
	rhofactor     float64 //ecutrho/ecutwfc when only ecutwfc is given
}

//NewQEHandle returns a QEHandle with the default settings.
func NewQEHandle() *QEHandle {
	run := new(QEHandle)
	run.SetDefaults()
	return run
}

//QEHandle methods

//SetName sets the name of the job. The input will be written to name.in
func (O *QEHandle) SetName(name string) {
	O.inputname = name
}

//SetPrefix sets the prefix used by pw.x for the files it writes.
func (O *QEHandle) SetPrefix(prefix string) {
	O.prefix = prefix
}

//SetPseudoDir sets the directory where pw.x will look for the pseudopotentials.
func (O *QEHandle) SetPseudoDir(dir string) {
	O.pseudoDir = dir
}

//SetOutDir sets the directory where pw.x will write its temporary files.
func (O *QEHandle) SetOutDir(dir string) {
	O.outDir = dir
}

//SetPseudoPattern sets the pattern for the pseudopotential file names. It must contain
//exactly one %s, which is replaced by the element symbol.
func (O *QEHandle) SetPseudoPattern(pattern string) error {
	if strings.Count(pattern, "%s") != 1 || strings.Count(pattern, "%") != 1 {
		return fmt.Errorf("SetPseudoPattern: pattern %q must contain exactly one %%s", pattern)
	}
	O.pseudoPattern = pattern
	return nil
}

/*SetDefaults sets the defaults for a pw.x calculation. The job is named
"slab", the pseudopotentials are taken from ./pseudo/ with the name
Symbol.upf and pw.x writes to ./out/. Calculations with no cutoffs
get 60/480 Ry. If only the wavefunction cutoff is given, the density
cutoff is 8 times that.*/
func (O *QEHandle) SetDefaults() {
	O.inputname = "slab"
	O.prefix = "slab"
	O.pseudoDir = "./pseudo/"
	O.outDir = "./out/"
	O.pseudoPattern = "%s.upf"
	O.defecutwfc = 60.0
	O.rhofactor = 8
}

//BuildInput builds an input for pw.x based int the data in atoms, coords and Q,
//and writes it to a file named after the job, with the extension .in.
//returns only error.
func (O *QEHandle) BuildInput(coords *v3.Matrix, atoms chem.CellAtomer, Q *Calc) error {
	name := O.inputname + ".in"
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("BuildInput: %w", err)
	}
	if err := O.WriteInput(file, coords, atoms, Q); err != nil {
		file.Close()
		return fmt.Errorf("BuildInput: %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("BuildInput: %s: %w", name, err)
	}
	return nil
}

//WriteInput writes a pw.x input for atoms, with the coordinates coords, to out.
//The atoms in Q.CConstraints are kept fixed (0 0 0 in ATOMIC_POSITIONS), all others are free.
//Only the Gamma point is sampled.
//If atoms also gives a charge and multiplicity, a charged or open-shell system is requested.
func (O *QEHandle) WriteInput(out io.Writer, coords *v3.Matrix, atoms chem.CellAtomer, Q *Calc) error {
	if atoms == nil || coords == nil {
		return fmt.Errorf("WriteInput: Missing atoms or coordinates")
	}
	if coords.NVecs() != atoms.Len() {
		return fmt.Errorf("WriteInput: %d coordinates for %d atoms", coords.NVecs(), atoms.Len())
	}
	cell := atoms.Cell()
	if cell == nil {
		return fmt.Errorf("WriteInput: ibrav=0 requires a cell")
	}
	if Q == nil {
		Q = new(Calc)
		Q.SetDefaults()
	}
	for _, v := range Q.CConstraints {
		if v < 0 || v >= atoms.Len() {
			return fmt.Errorf("WriteInput: constrained atom %d out of range for %d atoms", v, atoms.Len())
		}
	}
	ecutwfc, ecutrho := Q.Ecutwfc, Q.Ecutrho
	if ecutwfc <= 0 {
		logger.Info("no wavefunction cutoff assigned, using the default", zap.Float64("ecutwfc", O.defecutwfc))
		ecutwfc = O.defecutwfc
	}
	if ecutrho <= 0 {
		ecutrho = O.rhofactor * ecutwfc
		logger.Info("no density cutoff assigned, using the default", zap.Float64("ecutrho", ecutrho))
	}
	if ecutrho < ecutwfc {
		return fmt.Errorf("WriteInput: ecutrho (%.1f) smaller than ecutwfc (%.1f)", ecutrho, ecutwfc)
	}
	species := chem.Species(atoms)
	masses := make([]float64, len(species))
	for i, s := range species {
		m, ok := chem.Mass(s)
		if !ok {
			return fmt.Errorf("WriteInput: unknown element %q", s)
		}
		masses[i] = m
	}
	calculation := "scf"
	if Q.Optimize {
		calculation = "relax"
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "&control\n")
	fmt.Fprintf(w, "    calculation = '%s'\n", calculation)
	fmt.Fprintf(w, "    prefix = '%s'\n", O.prefix)
	fmt.Fprintf(w, "    pseudo_dir = '%s'\n", O.pseudoDir)
	fmt.Fprintf(w, "    outdir = '%s'\n", O.outDir)
	fmt.Fprintf(w, "/\n")
	fmt.Fprintf(w, "&system\n")
	fmt.Fprintf(w, "    ibrav = 0\n")
	fmt.Fprintf(w, "    nat = %d\n", atoms.Len())
	fmt.Fprintf(w, "    ntyp = %d\n", len(species))
	fmt.Fprintf(w, "    ecutwfc = %.1f\n", ecutwfc)
	fmt.Fprintf(w, "    ecutrho = %.1f\n", ecutrho)
	if mc, ok := atoms.(chem.AtomMultiCharger); ok {
		if mc.Charge() != 0 {
			fmt.Fprintf(w, "    tot_charge = %d\n", mc.Charge())
		}
		if mc.Multi() > 1 {
			fmt.Fprintf(w, "    nspin = 2\n")
			fmt.Fprintf(w, "    tot_magnetization = %d\n", mc.Multi()-1)
		}
	}
	fmt.Fprintf(w, "/\n")
	fmt.Fprintf(w, "&electrons\n/\n")
	if Q.Optimize {
		fmt.Fprintf(w, "&ions\n/\n")
	}
	fmt.Fprintf(w, "ATOMIC_SPECIES\n")
	for i, s := range species {
		fmt.Fprintf(w, "   %-2s %11.6f  %s\n", s, masses[i], fmt.Sprintf(O.pseudoPattern, s))
	}
	fmt.Fprintf(w, "CELL_PARAMETERS angstrom\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(w, "   %14.8f %14.8f %14.8f\n", cell.At(i, 0), cell.At(i, 1), cell.At(i, 2))
	}
	fmt.Fprintf(w, "ATOMIC_POSITIONS angstrom\n")
	for i := 0; i < atoms.Len(); i++ {
		flags := "1 1 1"
		if isInInt(Q.CConstraints, i) {
			flags = "0 0 0"
		}
		fmt.Fprintf(w, "   %-2s %12.6f %12.6f %12.6f  %s\n", atoms.Atom(i).Symbol, coords.At(i, 0), coords.At(i, 1), coords.At(i, 2), flags)
	}
	//Only the ATOMIC_POSITIONS lines may end in 0 0 0 or 1 1 1.
	fmt.Fprintf(w, "K_POINTS gamma\n")
	return w.Flush()
}
