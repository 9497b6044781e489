/*
 * files_test.go, part of goslab.
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

package chem

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/goslab/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symbols(mol Atomer) []string {
	ret := make([]string, mol.Len())
	for i := range ret {
		ret[i] = mol.Atom(i).Symbol
	}
	return ret
}

func rows(m *v3.Matrix) [][]float64 {
	ret := make([][]float64, m.NVecs())
	for i := range ret {
		ret[i] = []float64{m.At(i, 0), m.At(i, 1), m.At(i, 2)}
	}
	return ret
}

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestCIFReadP1(Te *testing.T) {
	mol, err := CIFFileRead("test/slab_p1.cif")
	require.NoError(Te, err)
	require.NoError(Te, mol.Corrupted())
	assert.Equal(Te, 9, mol.Len())
	assert.Equal(Te, []string{"Pb", "I", "Pb", "C", "I", "N", "I", "I", "I"}, symbols(mol))
	assert.Equal(Te, "Pb2", mol.Atom(0).Name)
	assert.Equal(Te, 1, mol.Atom(0).ID)
	assert.Equal(Te, 9, mol.Atom(8).ID)
	assert.Equal(Te, [3]bool{true, true, true}, mol.PBC())
	assert.Equal(Te, 0, mol.NFixed())
	wantcell := [][]float64{{6.3, 0, 0}, {0, 6.3, 0}, {0, 0, 30}}
	if diff := cmp.Diff(wantcell, rows(mol.Cell()), approx); diff != "" {
		Te.Errorf("cell mismatch (-want +got):\n%s", diff)
	}
	z := mol.Coords.Col(2)
	wantz := []float64{9, 6, 3, 5.7, 3, 6.3, 3, 9, 9}
	if diff := cmp.Diff(wantz, z, approx); diff != "" {
		Te.Errorf("heights mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(Te, 3.15, mol.Coords.At(4, 0), 1e-9)
	assert.Equal(Te, []string{"Pb", "I", "C", "N"}, Species(mol))
}

func TestCIFSymmetry(Te *testing.T) {
	mol, err := StructureFileRead("test/symmetric.cif")
	require.NoError(Te, err)
	assert.Equal(Te, []string{"Na", "Na", "Cl", "Cl"}, symbols(mol))
	assert.Equal(Te, "Cl1", mol.Atom(3).Name)
	want := [][]float64{{0, 0, 0}, {2, 2, 0}, {1, 1, 2}, {3, 3, 2}}
	if diff := cmp.Diff(want, rows(mol.Coords), approx); diff != "" {
		Te.Errorf("expanded coordinates mismatch (-want +got):\n%s", diff)
	}
}

func TestCIFCartesian(Te *testing.T) {
	cif := `data_cart
_cell_length_a 10
_cell_length_b 10
_cell_length_c 20
loop_
_atom_site_label
_atom_site_Cartn_x
_atom_site_Cartn_y
_atom_site_Cartn_z
Pb1 1.0 2.0 3.0
I1  1.0 2.0 6.2(1)
`
	mol, err := CIFRead(strings.NewReader(cif))
	require.NoError(Te, err)
	if diff := cmp.Diff([][]float64{{1, 2, 3}, {1, 2, 6.2}}, rows(mol.Coords), approx); diff != "" {
		Te.Errorf("coordinates mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(Te, []string{"Pb", "I"}, symbols(mol))
}

func TestCIFErrors(Te *testing.T) {
	bad := map[string]string{
		"no cell":     "data_x\nloop_\n_atom_site_label\n_atom_site_fract_x\n_atom_site_fract_y\n_atom_site_fract_z\nPb1 0 0 0\n",
		"no atoms":    "data_x\n_cell_length_a 1\n_cell_length_b 1\n_cell_length_c 1\n",
		"short loop":  "data_x\n_cell_length_a 1\n_cell_length_b 1\n_cell_length_c 1\nloop_\n_atom_site_label\n_atom_site_fract_x\n_atom_site_fract_y\n_atom_site_fract_z\nPb1 0 0\n",
		"missing z":   "data_x\n_cell_length_a 1\n_cell_length_b 1\n_cell_length_c 1\nloop_\n_atom_site_label\n_atom_site_fract_x\n_atom_site_fract_y\n_atom_site_fract_z\nPb1 0 0 ?\n",
		"bad element": "data_x\n_cell_length_a 1\n_cell_length_b 1\n_cell_length_c 1\nloop_\n_atom_site_label\n_atom_site_fract_x\n_atom_site_fract_y\n_atom_site_fract_z\nQq1 0 0 0\n",
		"open text":   "data_x\n_title\n;\nnever closed\n",
		"empty":       "",
	}
	for name, cif := range bad {
		if _, err := CIFRead(strings.NewReader(cif)); err == nil {
			Te.Errorf("%s: expected an error", name)
		}
	}
}

func TestCifnumber(Te *testing.T) {
	for s, want := range map[string]float64{"5.4310(2)": 5.431, "-0.25": -0.25, "1e-3": 0.001, "90": 90} {
		f, err := cifnumber(s)
		require.NoError(Te, err, s)
		assert.InDelta(Te, want, f, 1e-12, s)
	}
	for _, s := range []string{".", "?", "abc"} {
		_, err := cifnumber(s)
		assert.Error(Te, err, s)
	}
}

func TestParseSymop(Te *testing.T) {
	op, err := parseSymop("-x+1/2, y-x, 1/2-z")
	require.NoError(Te, err)
	assert.Equal(Te, [3][3]float64{{-1, 0, 0}, {-1, 1, 0}, {0, 0, -1}}, op.rot)
	assert.Equal(Te, [3]float64{0.5, 0, 0.5}, op.trans)
	got := op.apply([3]float64{0.1, 0.2, 0.3})
	assert.InDelta(Te, 0.4, got[0], 1e-12)
	assert.InDelta(Te, 0.1, got[1], 1e-12)
	assert.InDelta(Te, 0.2, got[2], 1e-12)
	id, err := parseSymop("X,Y,Z")
	require.NoError(Te, err)
	assert.True(Te, id.identity())
	for _, s := range []string{"x,y", "x,y,w", "x,y,1/0", ""} {
		_, err := parseSymop(s)
		assert.Error(Te, err, s)
	}
}

func TestSymbolFromName(Te *testing.T) {
	for name, want := range map[string]string{"Pb2+": "Pb", "I1-": "I", "CL1": "Cl", "N1": "N", "ca": "Ca", "H12": "H"} {
		s, err := symbolFromName(name)
		require.NoError(Te, err, name)
		assert.Equal(Te, want, s, name)
	}
	_, err := symbolFromName("12")
	assert.Error(Te, err)
}

func TestSetFixed(Te *testing.T) {
	mol, err := CIFFileRead("test/slab_p1.cif")
	require.NoError(Te, err)
	require.NoError(Te, mol.SetFixed([]int{6, 2, 4}))
	assert.Equal(Te, []int{2, 4, 6}, mol.FixedIndices())
	assert.Equal(Te, 3, mol.NFixed())
	assert.True(Te, mol.Fixed(2))
	assert.False(Te, mol.Fixed(0))
	assert.Error(Te, mol.SetFixed([]int{9}))
	assert.Error(Te, mol.SetFixed([]int{-1}))
	require.NoError(Te, mol.SetFixed(nil))
	assert.Equal(Te, 0, mol.NFixed())
}

func TestXYZRoundTrip(Te *testing.T) {
	mol, err := CIFFileRead("test/slab_p1.cif")
	require.NoError(Te, err)
	require.NoError(Te, mol.SetFixed([]int{2, 4, 6}))
	var buf bytes.Buffer
	require.NoError(Te, XYZWrite(&buf, mol))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(Te, "9", lines[0])
	assert.Contains(Te, lines[1], "Properties=species:S:1:pos:R:3:move_mask:L:1")
	assert.Contains(Te, lines[1], `pbc="T T T"`)
	assert.Contains(Te, lines[1], `Lattice="6.30000000 0.00000000 0.00000000 0.00000000 6.30000000 0.00000000 0.00000000 0.00000000 30.00000000"`)
	assert.True(Te, strings.HasPrefix(lines[4], "Pb       0.00000000       0.00000000       3.00000000 F"), lines[4])
	assert.True(Te, strings.HasSuffix(lines[2], " T"))

	back, err := XYZRead(&buf)
	require.NoError(Te, err)
	assert.Equal(Te, symbols(mol), symbols(back))
	assert.Equal(Te, mol.FixedIndices(), back.FixedIndices())
	assert.Equal(Te, mol.PBC(), back.PBC())
	if diff := cmp.Diff(rows(mol.Coords), rows(back.Coords), approx); diff != "" {
		Te.Errorf("coordinates changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rows(mol.Cell()), rows(back.Cell()), approx); diff != "" {
		Te.Errorf("cell changed (-want +got):\n%s", diff)
	}
}

func TestXYZPlain(Te *testing.T) {
	xyz := "3\nwater\nO 0.0 0.0 0.0\nH 0.96 0.0 0.0\nH -0.24 0.93 0.0\n"
	mol, err := XYZRead(strings.NewReader(xyz))
	require.NoError(Te, err)
	assert.Nil(Te, mol.Cell())
	assert.Equal(Te, [3]bool{false, false, false}, mol.PBC())
	var buf bytes.Buffer
	require.NoError(Te, XYZWrite(&buf, mol))
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(Te, "Properties=species:S:1:pos:R:3", lines[1])
	assert.Equal(Te, "H        0.96000000       0.00000000       0.00000000", lines[3])
	_, err = XYZRead(strings.NewReader("4\n\nO 0 0 0\n"))
	assert.Error(Te, err)
	assert.Error(Te, POSCARWrite(&buf, mol))
}

func TestPOSCARWrite(Te *testing.T) {
	mol, err := CIFFileRead("test/slab_p1.cif")
	require.NoError(Te, err)
	order, species, counts := SpeciesOrder(mol)
	assert.Equal(Te, []int{3, 1, 4, 6, 7, 8, 5, 0, 2}, order)
	assert.Equal(Te, []string{"C", "I", "N", "Pb"}, species)
	assert.Equal(Te, []int{1, 5, 1, 2}, counts)

	var buf bytes.Buffer
	require.NoError(Te, POSCARWrite(&buf, mol))
	assert.NotContains(Te, buf.String(), "Selective dynamics")

	require.NoError(Te, mol.SetFixed([]int{2, 4, 6}))
	buf.Reset()
	require.NoError(Te, POSCARWrite(&buf, mol))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(Te, lines, 9+9)
	assert.Equal(Te, " C  I  N Pb ", lines[0])
	assert.Equal(Te, " 1.0000000000000000", lines[1])
	assert.Equal(Te, "   C   I   N  Pb", lines[5])
	assert.Equal(Te, "   1   5   1   2", lines[6])
	assert.Equal(Te, "Selective dynamics", lines[7])
	assert.Equal(Te, "Direct", lines[8])
	fixed := 0
	for i, l := range lines[9:] {
		f := strings.Fields(l)
		require.Len(Te, f, 6, l)
		if f[3] == "F" {
			fixed++
			assert.True(Te, mol.Fixed(order[i]))
		}
		//fractional coordinates recover the cartesian ones.
		for j := 0; j < 3; j++ {
			x, err := strconv.ParseFloat(f[j], 64)
			require.NoError(Te, err)
			assert.InDelta(Te, mol.Coords.At(order[i], j), x*mol.Cell().At(j, j), 1e-9)
		}
	}
	assert.Equal(Te, 3, fixed)
}

func TestCompressedInput(Te *testing.T) {
	raw, err := os.ReadFile("test/slab_p1.cif")
	require.NoError(Te, err)
	dir := Te.TempDir()

	gzname := filepath.Join(dir, "slab.cif.gz")
	f, err := os.Create(gzname)
	require.NoError(Te, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write(raw)
	require.NoError(Te, err)
	require.NoError(Te, gw.Close())
	require.NoError(Te, f.Close())

	zname := filepath.Join(dir, "slab.CIF.zst")
	f, err = os.Create(zname)
	require.NoError(Te, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(Te, err)
	_, err = zw.Write(raw)
	require.NoError(Te, err)
	require.NoError(Te, zw.Close())
	require.NoError(Te, f.Close())

	plain, err := CIFFileRead("test/slab_p1.cif")
	require.NoError(Te, err)
	for _, name := range []string{gzname, zname} {
		mol, err := StructureFileRead(name)
		require.NoError(Te, err, name)
		assert.Equal(Te, symbols(plain), symbols(mol))
		if diff := cmp.Diff(rows(plain.Coords), rows(mol.Coords), approx); diff != "" {
			Te.Errorf("%s: coordinates differ (-want +got):\n%s", name, diff)
		}
	}
	_, err = StructureFileRead(filepath.Join(dir, "slab.pdb"))
	assert.Error(Te, err)
	_, err = StructureFileRead(filepath.Join(dir, "missing.cif"))
	assert.Error(Te, err)
}

func TestStructureFormat(Te *testing.T) {
	for name, want := range map[string][2]string{
		"slab.cif.gz":     {"cif", "gz"},
		"a/b/SLAB.XYZ":    {"xyz", ""},
		"slab.extxyz.zst": {"extxyz", "zst"},
		"mapbi3_slab.cif": {"cif", ""},
	} {
		f, c := structureFormat(name)
		assert.Equal(Te, want, [2]string{f, c}, name)
	}
}
