/*
 * interfaces.go, part of goslab.
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

	v3 "github.com/rmera/goslab/v3"
)

// Atomer is the basic interface for a topology.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i
	//of the Atom slice in the Topology. Should panic if
	//out of range.
	Atom(i int) *Atom

	Len() int
}

// AtomMultiCharger is atomer but also gives a
// charge and multiplicity
type AtomMultiCharger interface {
	Atomer

	//Charge gets the total charge of the topology
	Charge() int

	//Multi returns the multiplicity of the topology
	Multi() int
}

// CellAtomer is an Atomer which lives in a periodic cell.
type CellAtomer interface {
	Atomer

	//Cell returns the 3 lattice vectors, one per row, or nil
	Cell() *v3.Matrix
}

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
type Error interface {
	Error() string
	Decorate(string) []string
}

//CError is the Error type returned by the chem package.
type CError struct {
	msg  string
	deco []string
}

func (err CError) Error() string { return err.msg }

//Decorate adds dec to the trail of functions the error went through, and returns the trail.
//An empty string just returns the current trail.
func (err CError) Decorate(dec string) []string {
	if dec == "" {
		return err.deco
	}
	err.deco = append(err.deco, dec)
	return err.deco
}

//errDecorate adds caller to the trail of an Error, and wraps any other
//error with the caller's name.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case CError:
		e.deco = e.Decorate(caller)
		return e
	case Error:
		e.Decorate(caller)
		return e
	}
	return fmt.Errorf("%s: %w", caller, err)
}
