/*
 * main_test.go, part of goslab.
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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/goslab/config"
	"github.com/rmera/goslab/slab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../test/slab_p1.cif"

func testConfig(Te *testing.T, layers int) *config.Config {
	Te.Helper()
	dir := Te.TempDir()
	cfg := config.Default()
	cfg.Input = fixture
	cfg.Layers = layers
	cfg.Outputs.XYZ = filepath.Join(dir, "slab_fixed.xyz")
	cfg.Outputs.POSCAR = filepath.Join(dir, "POSCAR")
	cfg.Outputs.QE = filepath.Join(dir, "slab_fixed.in")
	require.NoError(Te, cfg.Validate())
	cfg.Resolve()
	return cfg
}

func countSuffix(Te *testing.T, name, suffix string) int {
	Te.Helper()
	data, err := os.ReadFile(name)
	require.NoError(Te, err)
	n := 0
	for _, l := range strings.Split(string(data), "\n") {
		if strings.HasSuffix(l, suffix) {
			n++
		}
	}
	return n
}

func TestRunOneLayer(Te *testing.T) {
	cfg := testConfig(Te, 1)
	var out bytes.Buffer
	require.NoError(Te, run(context.Background(), cfg, strings.NewReader(""), &out, nil))
	text := out.String()
	assert.Contains(Te, text, "Detected 3 distinct layers along Z")
	assert.Contains(Te, text, "Layer  1: Z ≈   3.00 Å  |    3 atoms  |  {I, Pb}")
	assert.Contains(Te, text, "Layer  2: Z ≈   6.00 Å  |    3 atoms  |  {C, I, N}")
	assert.Contains(Te, text, "✓ Fixed 3 atoms in bottom 1 layer(s)")
	assert.Contains(Te, text, "✓ Total atoms: 9 | Fixed: 3 | Free: 6")
	assert.Contains(Te, text, "  - "+cfg.Outputs.POSCAR+" (VASP)")
	assert.Contains(Te, text, "  - "+cfg.Outputs.QE+" (QE)")
	assert.NotContains(Te, text, "How many")

	assert.Equal(Te, 3, countSuffix(Te, cfg.Outputs.QE, "0 0 0"))
	assert.Equal(Te, 6, countSuffix(Te, cfg.Outputs.QE, "1 1 1"))
	assert.Equal(Te, 3, countSuffix(Te, cfg.Outputs.POSCAR, "F F F"))
	assert.Equal(Te, 3, countSuffix(Te, cfg.Outputs.XYZ, " F"))
	qe, err := os.ReadFile(cfg.Outputs.QE)
	require.NoError(Te, err)
	assert.Contains(Te, string(qe), "prefix = 'slab_p1'")
	assert.Contains(Te, string(qe), "ntyp = 4\n")
}

func TestRunTwoLayersWithPlot(Te *testing.T) {
	cfg := testConfig(Te, 2)
	cfg.Outputs.Plot = filepath.Join(filepath.Dir(cfg.Outputs.QE), "profile.png")
	var out bytes.Buffer
	require.NoError(Te, run(context.Background(), cfg, nil, &out, nil))
	assert.Contains(Te, out.String(), "✓ Total atoms: 9 | Fixed: 6 | Free: 3")
	assert.Contains(Te, out.String(), "profile.png (plot)")
	_, err := os.Stat(cfg.Outputs.Plot)
	assert.NoError(Te, err)
	assert.Equal(Te, 6, countSuffix(Te, cfg.Outputs.QE, "0 0 0"))
}

func TestRunErrors(Te *testing.T) {
	cfg := testConfig(Te, 2)
	cfg.Threshold = 50
	err := run(context.Background(), cfg, nil, new(bytes.Buffer), nil)
	assert.ErrorIs(Te, err, slab.ErrTooFewLayers)

	cfg = testConfig(Te, 1)
	cfg.Input = "missing.cif"
	assert.Error(Te, run(context.Background(), cfg, nil, new(bytes.Buffer), nil))

	cfg = testConfig(Te, 0)
	err = run(context.Background(), cfg, strings.NewReader("7\n"), new(bytes.Buffer), nil)
	assert.ErrorIs(Te, err, slab.ErrNoAnswer)

	cfg = testConfig(Te, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(Te, run(ctx, cfg, nil, new(bytes.Buffer), nil), context.Canceled)

	cfg = testConfig(Te, 1)
	cfg.Outputs.POSCAR = filepath.Join(Te.TempDir(), "no", "such", "dir", "POSCAR")
	assert.Error(Te, run(context.Background(), cfg, nil, new(bytes.Buffer), nil))
}

func TestCommandInteractive(Te *testing.T) {
	dir := Te.TempDir()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("two\n3\n2\n"))
	cmd.SetArgs([]string{fixture,
		"--xyz", filepath.Join(dir, "a.xyz"),
		"--poscar", filepath.Join(dir, "POSCAR"),
		"--qe", filepath.Join(dir, "a.in"),
		"--prefix", "mapbi3"})
	require.NoError(Te, cmd.ExecuteContext(context.Background()))
	text := out.String()
	assert.Equal(Te, 3, strings.Count(text, "How many bottom layers should be fixed? (1 or 2): "))
	assert.Contains(Te, text, "A number is needed (1 or 2)!")
	assert.Contains(Te, text, "Only 1 or 2 can be entered!")
	assert.Contains(Te, text, "✓ Fixed 6 atoms in bottom 2 layer(s)")
	qe, err := os.ReadFile(filepath.Join(dir, "a.in"))
	require.NoError(Te, err)
	assert.Contains(Te, string(qe), "prefix = 'mapbi3'")
}

func TestCommandFlags(Te *testing.T) {
	dir := Te.TempDir()
	yml := filepath.Join(dir, "goslab.yaml")
	data := "layers: 1\nqe:\n  ecutwfc: 40\n  ecutrho: 320\n"
	require.NoError(Te, os.WriteFile(yml, []byte(data), 0644))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{fixture, "--config", yml, "-n", "2",
		"--xyz", filepath.Join(dir, "a.xyz"),
		"--poscar", filepath.Join(dir, "POSCAR"),
		"--qe", filepath.Join(dir, "b")})
	require.NoError(Te, cmd.ExecuteContext(context.Background()))
	assert.Contains(Te, out.String(), "Fixed: 6")
	qe, err := os.ReadFile(filepath.Join(dir, "b.in"))
	require.NoError(Te, err)
	assert.Contains(Te, string(qe), "ecutwfc = 40.0\n")
	assert.Contains(Te, string(qe), "ecutrho = 320.0\n")
}

func TestCommandRejectsBadLayers(Te *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("1\n"))
	cmd.SetArgs([]string{fixture, "--layers", "3"})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(Te, err, config.ErrLayers)
	assert.Empty(Te, out.String(), "a bad --layers must fail before any work")
}

func TestCommandRejectsBadPseudoPattern(Te *testing.T) {
	dir := Te.TempDir()
	yml := filepath.Join(dir, "goslab.yaml")
	require.NoError(Te, os.WriteFile(yml, []byte("layers: 1\nqe:\n  pseudo_pattern: \"%s_%d.upf\"\n"), 0644))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	xyz := filepath.Join(dir, "a.xyz")
	cmd.SetArgs([]string{fixture, "--config", yml, "--xyz", xyz,
		"--poscar", filepath.Join(dir, "POSCAR"),
		"--qe", filepath.Join(dir, "a.in")})
	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(Te, err, config.ErrPseudo)
	_, err = os.Stat(xyz)
	assert.True(Te, os.IsNotExist(err), "no output may be written with a bad pseudo_pattern")
}

func TestTemplateCommand(Te *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"template"})
	require.NoError(Te, cmd.ExecuteContext(context.Background()))
	assert.Equal(Te, config.Template, out.String())
}
