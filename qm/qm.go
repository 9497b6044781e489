/*
 * qm.go, part of goslab.
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
	chem "github.com/rmera/goslab"
	v3 "github.com/rmera/goslab/v3"
)

//Handle allows to set up QM calculations for different programs.
type Handle interface {

	//Sets the name for the job, used for input
	//and output files. The extentions will depend on the program.
	SetName(name string)

	//BuildInput builds an input for the QM program based int the data in
	//atoms, coords and Q. returns only error.
	BuildInput(coords *v3.Matrix, atoms chem.CellAtomer, Q *Calc) error
}

//Calc contains the settings for a calculation, independent of the program used.
//Zero values are replaced by the defaults of the program.
type Calc struct {
	Optimize     bool    //relax the structure instead of a single point
	CConstraints []int   //cartesian contraints: atoms kept fixed during the optimization
	Ecutwfc      float64 //plane wave cutoff for the wavefunctions, in Ry
	Ecutrho      float64 //cutoff for the density, in Ry
}

//SetDefaults sets Q to a geometry optimization with a 60 Ry cutoff (480 Ry for the density).
func (Q *Calc) SetDefaults() {
	Q.Optimize = true
	Q.Ecutwfc = 60.0
	Q.Ecutrho = 480.0
}

//Utilities here

//isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	if container == nil {
		return false
	}
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
