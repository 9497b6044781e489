/*
 * poscar.go, part of goslab.
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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	v3 "github.com/rmera/goslab/v3"
)

//SpeciesOrder returns the atom indexes of mol grouped by element, with the elements in
//alphabetical order, and the original order kept within each element. It also returns
//the elements and the number of atoms of each.
func SpeciesOrder(mol Atomer) (order []int, species []string, counts []int) {
	order = make([]int, mol.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return mol.Atom(order[i]).Symbol < mol.Atom(order[j]).Symbol
	})
	for _, v := range order {
		s := mol.Atom(v).Symbol
		if len(species) == 0 || species[len(species)-1] != s {
			species = append(species, s)
			counts = append(counts, 0)
		}
		counts[len(counts)-1]++
	}
	return order, species, counts
}

//POSCARWrite writes mol to out in the VASP 5 POSCAR format, with the atoms sorted by
//element and direct (fractional) coordinates. If any atom is fixed, the file uses
//selective dynamics, with F F F for the fixed atoms and T T T for the others.
func POSCARWrite(out io.Writer, mol *Molecule) error {
	if err := mol.Corrupted(); err != nil {
		return errDecorate(err, "POSCARWrite")
	}
	cell := mol.Cell()
	if cell == nil {
		return CError{"The POSCAR format requires a cell", []string{"POSCARWrite"}}
	}
	frac, err := v3.Cart2Frac(mol.Coords, cell)
	if err != nil {
		return errDecorate(err, "POSCARWrite")
	}
	order, species, counts := SpeciesOrder(mol)
	sorted := v3.Zeros(len(order))
	if err := sorted.SomeVecsSafe(frac, order); err != nil {
		return errDecorate(err, "POSCARWrite")
	}
	w := bufio.NewWriter(out)
	for _, s := range species {
		fmt.Fprintf(w, "%2s ", s)
	}
	fmt.Fprint(w, "\n")
	fmt.Fprintf(w, "%19.16f\n", 1.0)
	for i := 0; i < 3; i++ {
		fmt.Fprintf(w, " %21.16f %21.16f %21.16f\n", cell.At(i, 0), cell.At(i, 1), cell.At(i, 2))
	}
	for _, s := range species {
		fmt.Fprintf(w, " %3s", s)
	}
	fmt.Fprint(w, "\n")
	for _, c := range counts {
		fmt.Fprintf(w, " %3d", c)
	}
	fmt.Fprint(w, "\n")
	selective := mol.NFixed() > 0
	if selective {
		fmt.Fprintln(w, "Selective dynamics")
	}
	fmt.Fprintln(w, "Direct")
	for k, i := range order {
		fmt.Fprintf(w, " %19.16f %19.16f %19.16f", sorted.At(k, 0), sorted.At(k, 1), sorted.At(k, 2))
		if selective {
			f := tf(!mol.Fixed(i))
			fmt.Fprintf(w, " %s %s %s", f, f, f)
		}
		fmt.Fprint(w, "\n")
	}
	return errDecorate(w.Flush(), "POSCARWrite")
}

//POSCARFileWrite writes mol in the POSCAR format to a file with name name, which will
//be created for that. If the file exist it will be overwritten.
func POSCARFileWrite(name string, mol *Molecule) error {
	out, err := os.Create(name)
	if err != nil {
		return errDecorate(err, "POSCARFileWrite")
	}
	if err = POSCARWrite(out, mol); err != nil {
		out.Close()
		return errDecorate(err, "POSCARFileWrite")
	}
	return errDecorate(out.Close(), "POSCARFileWrite")
}
