/*
 * layers.go, part of goslab.
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

package slab

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	chem "github.com/rmera/goslab"
	v3 "github.com/rmera/goslab/v3"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//DefaultThreshold is the gap (in A) between consecutive heights above which a new layer starts.
//It fits the spacing between PbI planes of lead halide perovskites, adjust it for other systems.
const DefaultThreshold = 1.0

var (
	ErrNoAtoms      = errors.New("slab: no atoms")
	ErrThreshold    = errors.New("slab: the layer threshold must be positive")
	ErrBadHeight    = errors.New("slab: non-finite height")
	ErrTooFewLayers = errors.New("slab: not enough layers")
	ErrAxis         = errors.New("slab: axis must be x, y or z")
)

var axisNames = [3]string{"X", "Y", "Z"}

//ParseAxis returns the column (0, 1 or 2) for the axis name x, y or z (any case).
func ParseAxis(s string) (int, error) {
	for i, v := range axisNames {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrAxis, s)
}

//AxisName returns X, Y or Z for the axis 0, 1 or 2.
func AxisName(axis int) string {
	if axis < 0 || axis > 2 {
		return "?"
	}
	return axisNames[axis]
}

//Heights returns the coordinates of all the atoms along the given axis (0, 1 or 2).
func Heights(coords *v3.Matrix, axis int) ([]float64, error) {
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("%w: %d", ErrAxis, axis)
	}
	return coords.Col(axis), nil
}

//Layer is a set of atoms at about the same height.
type Layer struct {
	Start, End int     //offsets in the sorted heights, End not included
	Indexes    []int   //the original indexes of the atoms, ascending
	Min, Max   float64 //lowest and highest heights in the layer
	Mean       float64
}

//Len returns the number of atoms in the layer.
func (L *Layer) Len() int {
	return L.End - L.Start
}

//Profile contains the layers found along one axis, from the bottom up.
type Profile struct {
	Axis      int
	Threshold float64
	Layers    []*Layer
	sorted    []float64
	order     []int //order[k] is the original index of the atom at sorted position k
}

//DetectLayers sorts the heights and starts a new layer wherever two consecutive
//sorted heights differ by more than threshold. The first layer always starts at 0,
//so if no gap is larger than threshold, there is exactly one layer. Atoms with
//the same height keep their original relative order.
func DetectLayers(heights []float64, threshold float64) (*Profile, error) {
	if len(heights) == 0 {
		return nil, ErrNoAtoms
	}
	if !(threshold > 0) || math.IsInf(threshold, 1) {
		return nil, fmt.Errorf("%w: %v", ErrThreshold, threshold)
	}
	for i, h := range heights {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: atom %d", ErrBadHeight, i)
		}
	}
	P := &Profile{Axis: 2, Threshold: threshold}
	P.order = make([]int, len(heights))
	for i := range P.order {
		P.order[i] = i
	}
	sort.SliceStable(P.order, func(i, j int) bool {
		return heights[P.order[i]] < heights[P.order[j]]
	})
	P.sorted = make([]float64, len(heights))
	for k, i := range P.order {
		P.sorted[k] = heights[i]
	}
	starts := []int{0}
	for k := 1; k < len(P.sorted); k++ {
		if P.sorted[k]-P.sorted[k-1] > threshold {
			starts = append(starts, k)
		}
	}
	P.Layers = make([]*Layer, len(starts))
	for i, s := range starts {
		e := len(P.sorted)
		if i+1 < len(starts) {
			e = starts[i+1]
		}
		P.Layers[i] = P.newLayer(s, e)
	}
	logger.Debug("layers detected", zap.Int("atoms", len(heights)), zap.Int("layers", len(P.Layers)), zap.Float64("threshold", threshold))
	return P, nil
}

func (P *Profile) newLayer(start, end int) *Layer {
	h := P.sorted[start:end]
	L := &Layer{Start: start, End: end}
	L.Indexes = make([]int, end-start)
	copy(L.Indexes, P.order[start:end])
	sort.Ints(L.Indexes)
	L.Min = floats.Min(h)
	L.Max = floats.Max(h)
	L.Mean = stat.Mean(h, nil)
	return L
}

//DetectMoleculeLayers detects the layers of mol along axis.
func DetectMoleculeLayers(mol *chem.Molecule, axis int, threshold float64) (*Profile, error) {
	heights, err := Heights(mol.Coords, axis)
	if err != nil {
		return nil, err
	}
	P, err := DetectLayers(heights, threshold)
	if err != nil {
		return nil, err
	}
	P.Axis = axis
	return P, nil
}

//Len returns the number of layers.
func (P *Profile) Len() int {
	return len(P.Layers)
}

//Boundaries returns the offset in the sorted heights where each layer starts.
func (P *Profile) Boundaries() []int {
	ret := make([]int, len(P.Layers))
	for i, v := range P.Layers {
		ret[i] = v.Start
	}
	return ret
}

//Sorted returns a copy of the heights, in ascending order.
func (P *Profile) Sorted() []float64 {
	ret := make([]float64, len(P.sorted))
	copy(ret, P.sorted)
	return ret
}

//Fix returns the original indexes of the atoms in the n bottom layers, in ascending order.
//Fix(n) always contains Fix(n-1).
func (P *Profile) Fix(n int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: asked to fix %d layers", ErrTooFewLayers, n)
	}
	if n > P.Len() {
		return nil, fmt.Errorf("%w: asked to fix %d layers but only %d were detected", ErrTooFewLayers, n, P.Len())
	}
	ret := make([]int, 0, P.Layers[n-1].End)
	for _, L := range P.Layers[:n] {
		ret = append(ret, L.Indexes...)
	}
	sort.Ints(ret)
	return ret, nil
}

//Apply fixes the atoms in the n bottom layers of mol and returns their indexes.
//Any previous constraint in mol is replaced.
func Apply(mol *chem.Molecule, P *Profile, n int) ([]int, error) {
	if len(P.order) != mol.Len() {
		return nil, fmt.Errorf("slab: profile for %d atoms applied to a structure with %d", len(P.order), mol.Len())
	}
	fixed, err := P.Fix(n)
	if err != nil {
		return nil, err
	}
	if err := mol.SetFixed(fixed); err != nil {
		return nil, err
	}
	logger.Debug("bottom layers fixed", zap.Int("layers", n), zap.Int("atoms", len(fixed)))
	return fixed, nil
}

const banner = "=================================================="

//Report writes a summary of the layers to out: for each layer, its mean height,
//the number of atoms and the elements present in it. mol gives the elements, and
//must be the structure the profile was obtained from.
func (P *Profile) Report(out io.Writer, mol chem.Atomer) error {
	ax := AxisName(P.Axis)
	lines := make([]string, 0, P.Len()+5)
	lines = append(lines, banner, "STRUCTURE ANALYSIS (slab layer detection):", banner)
	lines = append(lines, fmt.Sprintf("Detected %d distinct layers along %s", P.Len(), ax))
	for i, L := range P.Layers {
		syms := chem.SymbolSet(mol, L.Indexes)
		lines = append(lines, fmt.Sprintf("Layer %2d: %s ≈ %6.2f Å  |  %3d atoms  |  {%s}", i+1, ax, L.Mean, L.Len(), strings.Join(syms, ", ")))
	}
	lines = append(lines, banner)
	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
