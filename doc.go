/*
 * doc.go, part of goslab.
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

/*Package chem is the main package of the goslab library. It provides atom and molecule
structures for periodic slabs, and facilities for reading and writing the
files used to set up slab relaxations.



	**goslab Capabilities**


    Reads CIF files (cell, atom sites, symmetry operations) and (extended) XYZ files,
	plain or compressed with gzip or zstandard.

    Writes extended XYZ files, with the cell and the fixed atoms as a move_mask.

    Writes VASP 5 POSCAR files, sorted by element, in direct coordinates and with
	selective dynamics for the fixed atoms.

    Keeps the set of atoms which are to be kept fixed in a relaxation, so all the
	writers (including the Quantum ESPRESSO input builder in the qm package) agree on it.

The layer analysis is in the slab package, the input builder for Quantum ESPRESSO in the
qm package. goslab uses the v3.Matrix type, based in gonum's Dense, for coordinates and cells:
each row of a v3.Matrix is one point (or one lattice vector) in space.
*/
package chem
