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

/*Package slab finds the atomic layers of a slab along one axis, and builds the
set of atoms to be kept fixed when the bottom layers of the slab are frozen
in a relaxation.

Layers are found by sorting the heights of the atoms (their coordinate along the
chosen axis) and starting a new layer wherever two consecutive heights differ by
more than a threshold. The sort permutation is kept, so each layer knows the original
indexes of its atoms; atoms are never matched back to layers by comparing heights.*/
package slab
