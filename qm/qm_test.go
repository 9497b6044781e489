/*
 * qm_test.go, part of goslab.
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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chem "github.com/rmera/goslab"
	v3 "github.com/rmera/goslab/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlab(Te *testing.T) *chem.Molecule {
	Te.Helper()
	symbols := []string{"Pb", "I", "I", "C", "N", "H", "Pb", "I", "I", "C", "N", "H"}
	coords := make([]float64, 0, 3*len(symbols))
	atoms := make([]*chem.Atom, 0, len(symbols))
	for i, s := range symbols {
		coords = append(coords, 0.5*float64(i), 0.25*float64(i), 1.5*float64(i/3))
		atoms = append(atoms, chem.NewAtom(s))
	}
	xyz, err := v3.NewMatrix(coords)
	require.NoError(Te, err)
	cell, err := v3.CellFromParameters(6.3, 6.3, 25, 90, 90, 90)
	require.NoError(Te, err)
	mol, err := chem.NewMolecule(xyz, chem.NewTopology(0, 1, atoms), cell)
	require.NoError(Te, err)
	return mol
}

func count(lines []string, suffix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasSuffix(l, suffix) {
			n++
		}
	}
	return n
}

func TestQEFlagsMatchConstraints(Te *testing.T) {
	mol := testSlab(Te)
	calc := new(Calc)
	calc.SetDefaults()
	calc.CConstraints = []int{0, 1, 2, 3, 4, 5}
	var buf bytes.Buffer
	require.NoError(Te, NewQEHandle().WriteInput(&buf, mol.Coords, mol, calc))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(Te, len(calc.CConstraints), count(lines, "0 0 0"))
	assert.Equal(Te, mol.Len()-len(calc.CConstraints), count(lines, "1 1 1"))
	text := buf.String()
	assert.Contains(Te, text, "calculation = 'relax'")
	assert.Contains(Te, text, "nat = 12\n")
	assert.Contains(Te, text, "ntyp = 5\n")
	assert.Contains(Te, text, "ecutwfc = 60.0\n")
	assert.Contains(Te, text, "ecutrho = 480.0\n")
	assert.Contains(Te, text, "   Pb  207.200000  Pb.upf\n")
	assert.True(Te, strings.HasSuffix(text, "K_POINTS gamma\n"))
	assert.Contains(Te, text, "CELL_PARAMETERS angstrom\n       6.30000000     0.00000000     0.00000000\n")
	//The first atom is at the origin, and fixed.
	assert.Contains(Te, text, "ATOMIC_POSITIONS angstrom\n   Pb     0.000000     0.000000     0.000000  0 0 0\n")
}

func TestQEDefaultsAndSettings(Te *testing.T) {
	mol := testSlab(Te)
	O := NewQEHandle()
	O.SetPrefix("mapbi3")
	O.SetPseudoDir("/opt/pseudo/")
	O.SetOutDir("/scratch/")
	require.NoError(Te, O.SetPseudoPattern("%s_pbe_v1.uspp.UPF"))
	assert.Error(Te, O.SetPseudoPattern("pseudo.upf"))
	assert.Error(Te, O.SetPseudoPattern("%s_%d.upf"))
	calc := &Calc{Ecutwfc: 40}
	var buf bytes.Buffer
	require.NoError(Te, O.WriteInput(&buf, mol.Coords, mol, calc))
	text := buf.String()
	assert.Contains(Te, text, "calculation = 'scf'")
	assert.NotContains(Te, text, "&ions")
	assert.Contains(Te, text, "prefix = 'mapbi3'")
	assert.Contains(Te, text, "pseudo_dir = '/opt/pseudo/'")
	assert.Contains(Te, text, "outdir = '/scratch/'")
	assert.Contains(Te, text, "ecutrho = 320.0\n")
	assert.Contains(Te, text, "I_pbe_v1.uspp.UPF")
	assert.Equal(Te, 0, count(strings.Split(text, "\n"), "0 0 0"))
	assert.Equal(Te, mol.Len(), count(strings.Split(text, "\n"), "1 1 1"))
	assert.NotContains(Te, text, "tot_charge")
	assert.NotContains(Te, text, "nspin")
}

func TestQEChargeAndSpin(Te *testing.T) {
	mol := testSlab(Te)
	mol.SetCharge(-1)
	mol.SetMulti(3)
	var buf bytes.Buffer
	require.NoError(Te, NewQEHandle().WriteInput(&buf, mol.Coords, mol, nil))
	text := buf.String()
	assert.Contains(Te, text, "    tot_charge = -1\n")
	assert.Contains(Te, text, "    nspin = 2\n    tot_magnetization = 2\n")
	assert.Contains(Te, text, "calculation = 'relax'")
}

func TestQEErrors(Te *testing.T) {
	mol := testSlab(Te)
	O := NewQEHandle()
	var buf bytes.Buffer
	assert.Error(Te, O.WriteInput(&buf, mol.Coords, mol, &Calc{CConstraints: []int{12}}))
	assert.Error(Te, O.WriteInput(&buf, mol.Coords, mol, &Calc{Ecutwfc: 60, Ecutrho: 30}))
	assert.Error(Te, O.WriteInput(&buf, nil, mol, nil))
	require.NoError(Te, mol.SetCell(nil))
	assert.Error(Te, O.WriteInput(&buf, mol.Coords, mol, nil))
}

func TestQEBuildInput(Te *testing.T) {
	mol := testSlab(Te)
	dir := Te.TempDir()
	O := NewQEHandle()
	O.SetName(filepath.Join(dir, "slab_fixed"))
	var h Handle = O
	calc := new(Calc)
	calc.SetDefaults()
	calc.CConstraints = []int{0, 6}
	require.NoError(Te, h.BuildInput(mol.Coords, mol, calc))
	data, err := os.ReadFile(filepath.Join(dir, "slab_fixed.in"))
	require.NoError(Te, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(Te, 2, count(lines, "0 0 0"))
	assert.Equal(Te, 10, count(lines, "1 1 1"))

	O.SetName(filepath.Join(dir, "missing", "slab"))
	assert.Error(Te, O.BuildInput(mol.Coords, mol, calc))
}

//The fixed atoms can be recovered from the input alone, as the only lines
//ending in 0 0 0 are those of the fixed atoms.
func TestQEFixedAtomsRecoverable(Te *testing.T) {
	mol := testSlab(Te)
	for _, fixed := range [][]int{nil, {0}, {0, 1, 2}, {3, 4, 5, 9, 10, 11}, {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}} {
		calc := new(Calc)
		calc.SetDefaults()
		calc.CConstraints = fixed
		var buf bytes.Buffer
		require.NoError(Te, NewQEHandle().WriteInput(&buf, mol.Coords, mol, calc))
		got := make([]int, 0, len(fixed))
		free := 0
		atom := -1
		for _, l := range strings.Split(buf.String(), "\n") {
			if strings.HasPrefix(l, "ATOMIC_POSITIONS") {
				atom = 0
				continue
			}
			switch {
			case strings.HasSuffix(l, "0 0 0"):
				require.GreaterOrEqual(Te, atom, 0, "line %q ends in 0 0 0 outside ATOMIC_POSITIONS", l)
				got = append(got, atom)
			case strings.HasSuffix(l, "1 1 1"):
				require.GreaterOrEqual(Te, atom, 0, "line %q ends in 1 1 1 outside ATOMIC_POSITIONS", l)
				free++
			default:
				continue
			}
			atom++
		}
		want := fixed
		if want == nil {
			want = []int{}
		}
		assert.Equal(Te, want, got)
		assert.Equal(Te, mol.Len()-len(fixed), free)
	}
}
