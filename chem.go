/*
 * chem.go, part of goslab.
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
	"fmt"
	"sort"

	v3 "github.com/rmera/goslab/v3"
)

/**Note: Some functions here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is way-most likely wrong and should
 * crash. Most panics are related to using the function on a nil object or trying to access out-of bounds
 * fields**/

//Atom contains the atoms read except for the coordinates, which will be in a matrix.
type Atom struct {
	Name   string //the label in CIF files, e.g. Pb1
	ID     int
	Symbol string
	Mass   float64
}

//Copy returns a copy of the Atom object.
func (N *Atom) Copy() *Atom {
	if N == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *N
	return &ret
}

//NewAtom returns an atom with the given symbol and the mass for that element.
//The mass is zero for unknown symbols.
func NewAtom(symbol string) *Atom {
	at := new(Atom)
	at.Symbol = symbol
	at.Name = symbol
	at.Mass, _ = Mass(symbol)
	return at
}

/*****Topology type***/

//Topology contains information about a system which is not expected to change (i.e. everything except for coordinates)
type Topology struct {
	Atoms  []*Atom
	charge int
	multi  int
}

//NewTopology returns a topology with the given charge and multiplicity and,
//if given, the atoms in the first slice in ats.
func NewTopology(charge, multi int, ats ...[]*Atom) *Topology {
	top := new(Topology)
	if len(ats) > 0 && ats[0] != nil {
		top.Atoms = ats[0]
	} else {
		top.Atoms = make([]*Atom, 0)
	}
	top.charge = charge
	top.multi = multi
	return top
}

//Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

//Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

//SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

//SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

//Sets the current order of atoms as ID (1-based).
func (T *Topology) ResetIDs() {
	for i, at := range T.Atoms {
		at.ID = i + 1
	}
}

//Atom returns the Atom corresponding to the index i
//of the Atom slice in the Topology. Panics if
//out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic("Topology: Requested Atom out of bounds")
	}
	return T.Atoms[i]
}

//Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

//Species returns the distinct element symbols in the topology, in
//order of first appearance.
func Species(T Atomer) []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, 8)
	for i := 0; i < T.Len(); i++ {
		s := T.Atom(i).Symbol
		if !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	return ret
}

//SymbolSet returns the distinct element symbols of the atoms with indexes
//in indexes, sorted alphabetically.
func SymbolSet(T Atomer, indexes []int) []string {
	seen := make(map[string]bool)
	ret := make([]string, 0, 4)
	for _, i := range indexes {
		s := T.Atom(i).Symbol
		if !seen[s] {
			seen[s] = true
			ret = append(ret, s)
		}
	}
	sort.Strings(ret)
	return ret
}

/**Type Molecule**/

//Molecule contains all the info for a periodic (or not) structure: the topology,
//the coordinates, the cell vectors and the set of atoms that are kept fixed
//in an optimization.
type Molecule struct {
	*Topology
	Coords *v3.Matrix
	cell   *v3.Matrix
	pbc    [3]bool
	fixed  []bool
}

//NewMolecule makes a molecule with the given topology, coordinates and, optionally, cell
//and returns it. The cell can be nil, otherwise it must have exactly 3 vectors.
func NewMolecule(coords *v3.Matrix, ats *Topology, cell *v3.Matrix) (*Molecule, error) {
	if ats == nil || coords == nil {
		return nil, CError{"Supplied a nil topology or coordinates", []string{"NewMolecule"}}
	}
	mol := new(Molecule)
	mol.Topology = ats
	mol.Coords = coords
	if err := mol.SetCell(cell); err != nil {
		return nil, errDecorate(err, "NewMolecule")
	}
	mol.fixed = make([]bool, ats.Len())
	if err := mol.Corrupted(); err != nil {
		return nil, errDecorate(err, "NewMolecule")
	}
	return mol, nil
}

//Cell returns the cell vectors (one per row) or nil if the structure has no cell.
func (M *Molecule) Cell() *v3.Matrix {
	return M.cell
}

//SetCell sets the cell for the molecule. A nil cell removes it, and
//turns off the periodic boundary conditions.
func (M *Molecule) SetCell(cell *v3.Matrix) error {
	if cell == nil {
		M.cell = nil
		M.pbc = [3]bool{false, false, false}
		return nil
	}
	if cell.NVecs() != 3 {
		return CError{fmt.Sprintf("A cell needs 3 vectors, got %d", cell.NVecs()), []string{"SetCell"}}
	}
	M.cell = cell
	M.pbc = [3]bool{true, true, true}
	return nil
}

//PBC returns the periodic boundary conditions along a, b and c.
func (M *Molecule) PBC() [3]bool {
	return M.pbc
}

//SetPBC sets the periodic boundary conditions along a, b and c.
func (M *Molecule) SetPBC(pbc [3]bool) {
	M.pbc = pbc
}

//SetFixed sets the atoms with the given indexes as fixed, and all the others as free.
//Returns an error if an index is out of range, in which case the molecule is not modified.
func (M *Molecule) SetFixed(indexes []int) error {
	fixed := make([]bool, M.Len())
	for _, i := range indexes {
		if i < 0 || i >= M.Len() {
			return CError{fmt.Sprintf("Index %d out of range for %d atoms", i, M.Len()), []string{"SetFixed"}}
		}
		fixed[i] = true
	}
	M.fixed = fixed
	return nil
}

//Fixed returns true if the atom i is fixed.
func (M *Molecule) Fixed(i int) bool {
	if i < 0 || i >= len(M.fixed) {
		return false
	}
	return M.fixed[i]
}

//FixedIndices returns the indexes of the fixed atoms, in ascending order.
func (M *Molecule) FixedIndices() []int {
	ret := make([]int, 0, len(M.fixed))
	for i, v := range M.fixed {
		if v {
			ret = append(ret, i)
		}
	}
	return ret
}

//NFixed returns the number of fixed atoms.
func (M *Molecule) NFixed() int {
	n := 0
	for _, v := range M.fixed {
		if v {
			n++
		}
	}
	return n
}

//Corrupted checks whether the molecule is corrupted, i.e. the
//coordinates don't match the number of atoms. It also checks
//That the fixed mask has the right lenght.
func (M *Molecule) Corrupted() error {
	if M.Topology == nil || M.Coords == nil {
		return CError{"Molecule without atoms or coordinates", []string{"Corrupted"}}
	}
	if M.Coords.NVecs() != M.Len() {
		return CError{fmt.Sprintf("Inconsistent coordinates/atoms: %d/%d", M.Coords.NVecs(), M.Len()), []string{"Corrupted"}}
	}
	if len(M.fixed) != M.Len() {
		return CError{fmt.Sprintf("Inconsistent fixed mask/atoms: %d/%d", len(M.fixed), M.Len()), []string{"Corrupted"}}
	}
	return nil
}
