/*
 * atomicdata.go, part of goslab.
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
	"strings"
	"unicode"
)

//A map for assigning (standard atomic) masses to elements.
//Unlike the bio-oriented table goChem started with, slabs contain
//all sorts of elements, so the whole table up to Rn is here, plus
//a few heavier ones.
var symbolMass = map[string]float64{
	"H": 1.008, "He": 4.0026, "Li": 6.94, "Be": 9.0122, "B": 10.81, "C": 12.011,
	"N": 14.007, "O": 15.999, "F": 18.998, "Ne": 20.180, "Na": 22.990, "Mg": 24.305,
	"Al": 26.982, "Si": 28.085, "P": 30.974, "S": 32.06, "Cl": 35.45, "Ar": 39.948,
	"K": 39.098, "Ca": 40.078, "Sc": 44.956, "Ti": 47.867, "V": 50.942, "Cr": 51.996,
	"Mn": 54.938, "Fe": 55.845, "Co": 58.933, "Ni": 58.693, "Cu": 63.546, "Zn": 65.38,
	"Ga": 69.723, "Ge": 72.630, "As": 74.922, "Se": 78.971, "Br": 79.904, "Kr": 83.798,
	"Rb": 85.468, "Sr": 87.62, "Y": 88.906, "Zr": 91.224, "Nb": 92.906, "Mo": 95.95,
	"Tc": 98.0, "Ru": 101.07, "Rh": 102.91, "Pd": 106.42, "Ag": 107.87, "Cd": 112.41,
	"In": 114.82, "Sn": 118.71, "Sb": 121.76, "Te": 127.60, "I": 126.90, "Xe": 131.29,
	"Cs": 132.91, "Ba": 137.33, "La": 138.91, "Ce": 140.12, "Pr": 140.91, "Nd": 144.24,
	"Pm": 145.0, "Sm": 150.36, "Eu": 151.96, "Gd": 157.25, "Tb": 158.93, "Dy": 162.50,
	"Ho": 164.93, "Er": 167.26, "Tm": 168.93, "Yb": 173.05, "Lu": 174.97, "Hf": 178.49,
	"Ta": 180.95, "W": 183.84, "Re": 186.21, "Os": 190.23, "Ir": 192.22, "Pt": 195.08,
	"Au": 196.97, "Hg": 200.59, "Tl": 204.38, "Pb": 207.2, "Bi": 208.98, "Po": 209.0,
	"At": 210.0, "Rn": 222.0, "Fr": 223.0, "Ra": 226.0, "Ac": 227.0, "Th": 232.04,
	"Pa": 231.04, "U": 238.03,
}

//Mass returns the standard atomic mass for the element symbol, and
//whether the symbol is a known element.
func Mass(symbol string) (float64, bool) {
	m, ok := symbolMass[symbol]
	return m, ok
}

//This tries to guess a chemical element symbol from an atom name or label
//as found in CIF files ("Pb1", "I2a", "Pb2+", "N1_h"). The leading letters
//are taken, and the longest prefix which is a known element wins.
func symbolFromName(name string) (string, error) {
	letters := make([]rune, 0, 2)
	for _, r := range strings.TrimSpace(name) {
		if !unicode.IsLetter(r) || len(letters) == 2 {
			break
		}
		letters = append(letters, r)
	}
	if len(letters) == 0 {
		return "", fmt.Errorf("Couldn't guess symbol from name %q", name)
	}
	first := strings.ToUpper(string(letters[0]))
	if len(letters) == 2 {
		two := first + strings.ToLower(string(letters[1]))
		if _, ok := symbolMass[two]; ok {
			return two, nil
		}
	}
	if _, ok := symbolMass[first]; ok {
		return first, nil
	}
	return "", fmt.Errorf("Couldn't guess symbol from name %q", name)
}
