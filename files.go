/*
 * files.go, part of goslab.
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
	"strconv"
	"strings"

	v3 "github.com/rmera/goslab/v3"
	"go.uber.org/zap"
)

//extxyzComment splits the comment line of an extended XYZ file into its key=value pairs.
//Values can be quoted with double quotes. Keys without value are taken as "T".
func extxyzComment(line string) map[string]string {
	ret := make(map[string]string)
	line = strings.TrimSpace(line)
	for len(line) > 0 {
		var key, val string
		eq := strings.IndexAny(line, "= \t")
		if eq < 0 {
			ret[strings.ToLower(line)] = "T"
			break
		}
		key = line[:eq]
		if line[eq] != '=' {
			ret[strings.ToLower(key)] = "T"
			line = strings.TrimSpace(line[eq:])
			continue
		}
		line = line[eq+1:]
		if strings.HasPrefix(line, "\"") {
			end := strings.Index(line[1:], "\"")
			if end < 0 {
				val = line[1:]
				line = ""
			} else {
				val = line[1 : end+1]
				line = line[end+2:]
			}
		} else {
			end := strings.IndexAny(line, " \t")
			if end < 0 {
				end = len(line)
			}
			val = line[:end]
			line = line[end:]
		}
		ret[strings.ToLower(key)] = val
		line = strings.TrimSpace(line)
	}
	return ret
}

//xyzcols are the columns of interest in an (extended) XYZ line.
type xyzcols struct {
	species, pos, mask int
}

//parseProperties reads the Properties key of an extended XYZ file. The format is
//name:type:columns:name:type:columns...
func parseProperties(p string) (xyzcols, error) {
	ret := xyzcols{-1, -1, -1}
	f := strings.Split(p, ":")
	if len(f)%3 != 0 {
		return ret, fmt.Errorf("Malformed Properties %q", p)
	}
	col := 0
	for i := 0; i < len(f); i += 3 {
		n, err := strconv.Atoi(f[i+2])
		if err != nil || n < 1 {
			return ret, fmt.Errorf("Malformed Properties %q", p)
		}
		switch strings.ToLower(f[i]) {
		case "species":
			ret.species = col
		case "pos":
			if n != 3 {
				return ret, fmt.Errorf("pos property must have 3 columns in %q", p)
			}
			ret.pos = col
		case "move_mask":
			//only the one-column version (whole atoms fixed) is understood.
			if n == 1 {
				ret.mask = col
			}
		}
		col += n
	}
	if ret.species < 0 || ret.pos < 0 {
		return ret, fmt.Errorf("Properties %q lack species or pos", p)
	}
	return ret, nil
}

//XYZRead reads the first frame of an XYZ or extended XYZ file from an io.Reader. If the comment line
//has a Lattice key, it is used as the cell. A one-column move_mask property sets the fixed atoms.
func XYZRead(r io.Reader) (*Molecule, error) {
	xyz := bufio.NewReader(r)
	line, err := xyz.ReadString('\n')
	if err != nil && line == "" {
		return nil, CError{"Empty XYZ file", []string{"XYZRead"}}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || natoms < 1 {
		return nil, CError{"Ill formatted XYZ file: bad atom number " + strings.TrimSpace(line), []string{"XYZRead"}}
	}
	comment, err := xyz.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errDecorate(err, "XYZRead")
	}
	keys := extxyzComment(comment)
	cols := xyzcols{0, 1, -1}
	if p, ok := keys["properties"]; ok {
		if cols, err = parseProperties(p); err != nil {
			return nil, errDecorate(err, "XYZRead")
		}
	}
	var cell *v3.Matrix
	if l, ok := keys["lattice"]; ok {
		lf := strings.Fields(l)
		if len(lf) != 9 {
			return nil, CError{"Lattice needs 9 numbers, got: " + l, []string{"XYZRead"}}
		}
		lat := make([]float64, 9)
		for i, v := range lf {
			if lat[i], err = strconv.ParseFloat(v, 64); err != nil {
				return nil, errDecorate(err, "XYZRead: Lattice")
			}
		}
		cell, _ = v3.NewMatrix(lat)
	}
	atoms := make([]*Atom, natoms)
	coords := make([]float64, natoms*3)
	fixed := make([]int, 0)
	for i := 0; i < natoms; i++ {
		line, err = xyz.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return nil, CError{fmt.Sprintf("Expected %d atoms, file ended at atom %d", natoms, i+1), []string{"XYZRead"}}
		}
		fields := strings.Fields(line)
		need := cols.pos + 3
		if cols.species+1 > need {
			need = cols.species + 1
		}
		if cols.mask+1 > need {
			need = cols.mask + 1
		}
		if len(fields) < need {
			return nil, CError{fmt.Sprintf("Line for atom %d ill formed", i+1), []string{"XYZRead"}}
		}
		atoms[i] = NewAtom(fields[cols.species])
		atoms[i].ID = i + 1
		if atoms[i].Mass == 0 {
			logger.Warn("unknown element symbol", zap.String("symbol", fields[cols.species]))
		}
		for j := 0; j < 3; j++ {
			if coords[i*3+j], err = strconv.ParseFloat(fields[cols.pos+j], 64); err != nil {
				return nil, errDecorate(fmt.Errorf("atom %d: %w", i+1, err), "XYZRead")
			}
		}
		//move_mask is true for atoms allowed to move.
		if cols.mask >= 0 && strings.HasPrefix(strings.ToUpper(fields[cols.mask]), "F") {
			fixed = append(fixed, i)
		}
	}
	mcoords, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, errDecorate(err, "XYZRead")
	}
	mol, err := NewMolecule(mcoords, NewTopology(0, 1, atoms), cell)
	if err != nil {
		return nil, errDecorate(err, "XYZRead")
	}
	if p, ok := keys["pbc"]; ok && cell != nil {
		var pbc [3]bool
		for i, v := range strings.Fields(p) {
			if i < 3 {
				pbc[i] = strings.HasPrefix(strings.ToUpper(v), "T")
			}
		}
		mol.SetPBC(pbc)
	}
	if err := mol.SetFixed(fixed); err != nil {
		return nil, errDecorate(err, "XYZRead")
	}
	return mol, nil
}

func tf(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

//XYZWrite writes mol in the extended XYZ format to out. The comment line carries the Lattice
//and pbc keys if the molecule has a cell, and a move_mask property (F for fixed atoms)
//if any atom is fixed.
func XYZWrite(out io.Writer, mol *Molecule) error {
	if err := mol.Corrupted(); err != nil {
		return errDecorate(err, "XYZWrite")
	}
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%d\n", mol.Len())
	comment := make([]string, 0, 3)
	if cell := mol.Cell(); cell != nil {
		lat := make([]string, 0, 9)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				lat = append(lat, strconv.FormatFloat(cell.At(i, j), 'f', 8, 64))
			}
		}
		comment = append(comment, fmt.Sprintf("Lattice=\"%s\"", strings.Join(lat, " ")))
	}
	fixes := mol.NFixed() > 0
	props := "Properties=species:S:1:pos:R:3"
	if fixes {
		props += ":move_mask:L:1"
	}
	comment = append(comment, props)
	if mol.Cell() != nil {
		p := mol.PBC()
		comment = append(comment, fmt.Sprintf("pbc=\"%s %s %s\"", tf(p[0]), tf(p[1]), tf(p[2])))
	}
	fmt.Fprintln(w, strings.Join(comment, " "))
	for i := 0; i < mol.Len(); i++ {
		fmt.Fprintf(w, "%-2s %16.8f %16.8f %16.8f", mol.Atom(i).Symbol, mol.Coords.At(i, 0), mol.Coords.At(i, 1), mol.Coords.At(i, 2))
		if fixes {
			fmt.Fprintf(w, " %s", tf(!mol.Fixed(i)))
		}
		fmt.Fprint(w, "\n")
	}
	return errDecorate(w.Flush(), "XYZWrite")
}

//XYZFileWrite writes mol in the extended XYZ format to a file with name xyzname which will
//be created for that. If the file exist it will be overwritten.
func XYZFileWrite(xyzname string, mol *Molecule) error {
	out, err := os.Create(xyzname)
	if err != nil {
		return errDecorate(err, "XYZFileWrite")
	}
	if err = XYZWrite(out, mol); err != nil {
		out.Close()
		return errDecorate(err, "XYZFileWrite")
	}
	return errDecorate(out.Close(), "XYZFileWrite")
}
