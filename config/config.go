/*
 * config.go, part of goslab.
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

//Package config handles the run configuration of goslab: the input structure, the layer
//detection settings, the output files and the settings for the Quantum ESPRESSO input.
//A configuration is read from a YAML file on top of the defaults, and command line flags
//may override it afterwards.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//DefaultInput is the structure read when none is given.
const DefaultInput = "mapbi3_slab.cif"

//Template is a commented configuration with the default values.
const Template = `# goslab configuration
input: mapbi3_slab.cif

# Layers are split where consecutive heights differ by more than threshold (A).
threshold: 1.0
axis: z

# Bottom layers to fix (1 or 2). 0 asks interactively.
layers: 0

# Output files. Empty names are derived from the input name.
outputs:
  xyz: ""
  poscar: POSCAR
  qe: ""
  plot: ""

qe:
  prefix: ""
  pseudo_dir: ./pseudo/
  outdir: ./out/
  pseudo_pattern: "%s.upf"
  ecutwfc: 60.0
  ecutrho: 480.0
`

//Outputs contains the names of the files written.
type Outputs struct {
	XYZ    string `yaml:"xyz"`
	POSCAR string `yaml:"poscar"`
	QE     string `yaml:"qe"`
	Plot   string `yaml:"plot,omitempty"`
}

//QE contains the settings for the Quantum ESPRESSO input.
type QE struct {
	Prefix        string  `yaml:"prefix"`
	PseudoDir     string  `yaml:"pseudo_dir"`
	OutDir        string  `yaml:"outdir"`
	PseudoPattern string  `yaml:"pseudo_pattern"`
	Ecutwfc       float64 `yaml:"ecutwfc"`
	Ecutrho       float64 `yaml:"ecutrho"`
}

//Config is the configuration of one goslab run.
type Config struct {
	Input     string  `yaml:"input"`
	Threshold float64 `yaml:"threshold"`
	Axis      string  `yaml:"axis"`
	Layers    int     `yaml:"layers"`
	Outputs   Outputs `yaml:"outputs"`
	QE        QE      `yaml:"qe"`
}

var (
	ErrAxis      = errors.New("config: axis must be x, y or z")
	ErrThreshold = errors.New("config: threshold must be positive")
	ErrLayers    = errors.New("config: layers must be 0 (ask), 1 or 2")
	ErrCutoff    = errors.New("config: bad plane wave cutoffs")
	ErrPseudo    = errors.New("config: pseudo_pattern must contain one %s and no other verb")
)

//Default returns the default configuration. It is the same as Template.
func Default() *Config {
	return &Config{
		Input:     DefaultInput,
		Threshold: 1.0,
		Axis:      "z",
		Layers:    0,
		Outputs:   Outputs{POSCAR: "POSCAR"},
		QE: QE{
			PseudoDir:     "./pseudo/",
			OutDir:        "./out/",
			PseudoPattern: "%s.upf",
			Ecutwfc:       60.0,
			Ecutrho:       480.0,
		},
	}
}

//Parse reads a YAML configuration from data, on top of the defaults. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

//Load reads the YAML file path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return c, nil
}

//Validate checks that the configuration can be used for a run.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Axis)) {
	case "x", "y", "z":
	default:
		return fmt.Errorf("%w, got %q", ErrAxis, c.Axis)
	}
	if !(c.Threshold > 0) {
		return fmt.Errorf("%w, got %v", ErrThreshold, c.Threshold)
	}
	if c.Layers < 0 || c.Layers > 2 {
		return fmt.Errorf("%w, got %d", ErrLayers, c.Layers)
	}
	if c.Input == "" {
		return errors.New("config: no input structure")
	}
	if c.QE.Ecutwfc <= 0 {
		return fmt.Errorf("%w: ecutwfc must be positive, got %v", ErrCutoff, c.QE.Ecutwfc)
	}
	if c.QE.Ecutrho < c.QE.Ecutwfc {
		return fmt.Errorf("%w: ecutrho (%v) smaller than ecutwfc (%v)", ErrCutoff, c.QE.Ecutrho, c.QE.Ecutwfc)
	}
	p := c.QE.PseudoPattern
	if strings.Count(p, "%s") != 1 || strings.Count(p, "%") != 1 {
		return fmt.Errorf("%w, got %q", ErrPseudo, p)
	}
	return nil
}

//Base returns the name of the input file without directory and extensions
//(compression extensions included), e.g. mapbi3_slab for data/mapbi3_slab.cif.gz
func Base(input string) string {
	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

//Resolve fills the empty output names and the QE prefix from the input name:
//<base>_fixed.xyz, POSCAR, <base>_fixed.in and <base>.
func (c *Config) Resolve() {
	base := Base(c.Input)
	if c.Outputs.XYZ == "" {
		c.Outputs.XYZ = base + "_fixed.xyz"
	}
	if c.Outputs.POSCAR == "" {
		c.Outputs.POSCAR = "POSCAR"
	}
	if c.Outputs.QE == "" {
		c.Outputs.QE = base + "_fixed.in"
	}
	if c.QE.Prefix == "" {
		c.QE.Prefix = base
	}
}
