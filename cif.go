/*
 * cif.go, part of goslab.
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
	"math"
	"strconv"
	"strings"

	v3 "github.com/rmera/goslab/v3"
	"go.uber.org/zap"
)

//Tags are normalized to lowercase, with the DDLm dot replaced by an underscore,
//so _atom_site.fract_x and _atom_site_fract_x are the same thing.
func ciftag(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimSpace(s)), ".", "_", -1)
}

type ciftoken struct {
	val    string
	quoted bool //quoted or text-field values are never keywords or tags
}

func (t ciftoken) keyword(k string) bool {
	return !t.quoted && strings.HasPrefix(strings.ToLower(t.val), k)
}

func (t ciftoken) tag() bool {
	return !t.quoted && strings.HasPrefix(t.val, "_")
}

//ciflex splits a CIF stream into tokens, taking care of comments,
//quoted strings and semicolon-delimited text fields.
func ciflex(r io.Reader) ([]ciftoken, error) {
	tokens := make([]ciftoken, 0, 512)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var text []string
	intext := false
	lineno := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineno++
		if strings.HasPrefix(line, ";") {
			if intext {
				tokens = append(tokens, ciftoken{strings.Join(text, "\n"), true})
				intext = false
				text = nil
				//anything after the closing ; is ignored.
				continue
			}
			intext = true
			text = append(text, strings.TrimSpace(line[1:]))
			continue
		}
		if intext {
			text = append(text, line)
			continue
		}
		lt, err := ciflexline(line)
		if err != nil {
			return nil, fmt.Errorf("ciflex: line %d: %w", lineno, err)
		}
		tokens = append(tokens, lt...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ciflex: %w", err)
	}
	if intext {
		return nil, fmt.Errorf("ciflex: unterminated text field")
	}
	return tokens, nil
}

func ciflexline(line string) ([]ciftoken, error) {
	ret := make([]ciftoken, 0, 8)
	white := func(c byte) bool { return c == ' ' || c == '\t' || c == '\r' }
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case white(c):
			i++
		case c == '#':
			return ret, nil
		case c == '\'' || c == '"':
			//a quote only closes the string if followed by whitespace or the end of the line
			j := i + 1
			for ; j < len(line); j++ {
				if line[j] == c && (j+1 == len(line) || white(line[j+1])) {
					break
				}
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated quoted string %s", line[i:])
			}
			ret = append(ret, ciftoken{line[i+1 : j], true})
			i = j + 1
		default:
			j := i
			for j < len(line) && !white(line[j]) {
				j++
			}
			ret = append(ret, ciftoken{line[i:j], false})
			i = j
		}
	}
	return ret, nil
}

//cifmap maps a tag to a column of a loop. Tags are normalized with ciftag.
type cifmap map[string]int

//returns the column corresponding to the first of the given tags found in the map
//or -1 if none of the tags is in the map.
func (m cifmap) get(s ...string) int {
	for _, v := range s {
		if i, ok := m[v]; ok {
			return i
		}
	}
	return -1
}

type cifloop struct {
	cols cifmap
	rows [][]string
}

//cifblock is one data_ block of a CIF file.
type cifblock struct {
	name  string
	items map[string]string
	loops []*cifloop
}

//loop returns the first loop containing any of the given tags, or nil.
func (B *cifblock) loop(tags ...string) *cifloop {
	for _, l := range B.loops {
		if l.cols.get(tags...) >= 0 {
			return l
		}
	}
	return nil
}

//cifparse builds the first data block from the tokens.
func cifparse(tokens []ciftoken) (*cifblock, error) {
	block := &cifblock{items: make(map[string]string)}
	started := false
	for i := 0; i < len(tokens); {
		t := tokens[i]
		switch {
		case t.keyword("data_"):
			if started {
				logger.Debug("only the first CIF data block is read", zap.String("ignored", t.val))
				return block, nil
			}
			started = true
			block.name = t.val[len("data_"):]
			i++
		case t.keyword("loop_"):
			i++
			l := &cifloop{cols: make(cifmap)}
			ncols := 0
			for ; i < len(tokens) && tokens[i].tag(); i++ {
				l.cols[ciftag(tokens[i].val)] = ncols
				ncols++
			}
			if ncols == 0 {
				return nil, fmt.Errorf("cifparse: loop_ without tags")
			}
			values := make([]string, 0, ncols*16)
			for ; i < len(tokens); i++ {
				n := tokens[i]
				if n.tag() || n.keyword("loop_") || n.keyword("data_") || n.keyword("save_") {
					break
				}
				values = append(values, n.val)
			}
			if len(values)%ncols != 0 {
				return nil, fmt.Errorf("cifparse: loop with %d tags has %d values", ncols, len(values))
			}
			for j := 0; j < len(values); j += ncols {
				l.rows = append(l.rows, values[j:j+ncols])
			}
			block.loops = append(block.loops, l)
		case t.tag():
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("cifparse: tag %s without value", t.val)
			}
			block.items[ciftag(t.val)] = tokens[i+1].val
			i += 2
		default:
			//global_, save_ frames and the like are not interesting for us.
			i++
		}
	}
	if !started && len(block.items) == 0 && len(block.loops) == 0 {
		return nil, fmt.Errorf("cifparse: no data found")
	}
	return block, nil
}

//cifnumber parses a CIF numeric value, dropping the standard uncertainty
//in parentheses, if present (5.4310(2) gives 5.431).
func cifnumber(s string) (float64, error) {
	if s == "." || s == "?" {
		return 0, fmt.Errorf("missing value %q", s)
	}
	if i := strings.Index(s, "("); i > 0 {
		logger.Debug("dropping standard uncertainty", zap.String("value", s))
		s = s[:i]
	}
	return strconv.ParseFloat(s, 64)
}

var cifcelltags = []string{"_cell_length_a", "_cell_length_b", "_cell_length_c",
	"_cell_angle_alpha", "_cell_angle_beta", "_cell_angle_gamma"}

func cifcell(B *cifblock) (*v3.Matrix, error) {
	var p [6]float64
	for i, v := range cifcelltags {
		s, ok := B.items[v]
		if !ok {
			if i > 2 {
				//angles default to 90 degrees.
				p[i] = 90
				continue
			}
			return nil, fmt.Errorf("cifcell: missing %s", v)
		}
		f, err := cifnumber(s)
		if err != nil {
			return nil, fmt.Errorf("cifcell: can't parse %s: %w", v, err)
		}
		p[i] = f
	}
	return v3.CellFromParameters(p[0], p[1], p[2], p[3], p[4], p[5])
}

var (
	ciffract = []string{"_atom_site_fract_x", "_atom_site_fract_y", "_atom_site_fract_z"}
	cifcart  = []string{"_atom_site_cartn_x", "_atom_site_cartn_y", "_atom_site_cartn_z"}
	cifsymop = []string{"_symmetry_equiv_pos_as_xyz", "_space_group_symop_operation_xyz"}
)

//cifsymops collects the symmetry operations of the block, either from a loop or a single item.
func cifsymops(B *cifblock) ([]*symop, error) {
	strs := make([]string, 0, 8)
	if l := B.loop(cifsymop...); l != nil {
		c := l.cols.get(cifsymop...)
		for _, r := range l.rows {
			strs = append(strs, r[c])
		}
	} else {
		for _, v := range cifsymop {
			if s, ok := B.items[v]; ok {
				strs = append(strs, s)
				break
			}
		}
	}
	ret := make([]*symop, 0, len(strs))
	for _, v := range strs {
		op, err := parseSymop(v)
		if err != nil {
			return nil, err
		}
		ret = append(ret, op)
	}
	return ret, nil
}

//CIFRead reads the first data block of a CIF file from an io.Reader. It returns a Molecule
//with the cell, symbols and cartesian coordinates of all the atoms in the cell. If the file
//contains symmetry operations other than the identity, they are applied to the listed sites,
//and the images wrapped into the cell, merging duplicates.
func CIFRead(r io.Reader) (*Molecule, error) {
	tokens, err := ciflex(r)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	block, err := cifparse(tokens)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	cell, err := cifcell(block)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	sites := block.loop(append(ciffract, cifcart...)...)
	if sites == nil {
		return nil, CError{"No _atom_site loop with coordinates found", []string{"CIFRead"}}
	}
	fractional := sites.cols.get(ciffract[0]) >= 0
	ctags := cifcart
	if fractional {
		ctags = ciffract
	}
	var cols [3]int
	for i, v := range ctags {
		if cols[i] = sites.cols.get(v); cols[i] < 0 {
			return nil, CError{"Missing coordinate column " + v, []string{"CIFRead"}}
		}
	}
	symcol := sites.cols.get("_atom_site_type_symbol")
	labcol := sites.cols.get("_atom_site_label")
	if symcol < 0 && labcol < 0 {
		return nil, CError{"Neither _atom_site_type_symbol nor _atom_site_label present", []string{"CIFRead"}}
	}
	atoms := make([]*Atom, 0, len(sites.rows))
	coords := make([]float64, 0, 3*len(sites.rows))
	for n, row := range sites.rows {
		at, err := cifatom(row, symcol, labcol)
		if err != nil {
			return nil, errDecorate(fmt.Errorf("site %d: %w", n+1, err), "CIFRead")
		}
		for _, c := range cols {
			f, err := cifnumber(row[c])
			if err != nil {
				return nil, errDecorate(fmt.Errorf("site %d (%s): bad coordinate: %w", n+1, at.Name, err), "CIFRead")
			}
			coords = append(coords, f)
		}
		atoms = append(atoms, at)
	}
	if len(atoms) == 0 {
		return nil, CError{"The _atom_site loop has no atoms", []string{"CIFRead"}}
	}
	ops, err := cifsymops(block)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	xyz, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	if !onlyIdentity(ops) {
		if !fractional {
			if xyz, err = v3.Cart2Frac(xyz, cell); err != nil {
				return nil, errDecorate(err, "CIFRead")
			}
		}
		atoms, xyz = expandSymmetry(atoms, xyz, ops)
		fractional = true
	}
	if fractional {
		if xyz, err = v3.Frac2Cart(xyz, cell); err != nil {
			return nil, errDecorate(err, "CIFRead")
		}
	}
	top := NewTopology(0, 1, atoms)
	top.ResetIDs()
	mol, err := NewMolecule(xyz, top, cell)
	if err != nil {
		return nil, errDecorate(err, "CIFRead")
	}
	logger.Debug("read CIF block", zap.String("block", block.name), zap.Int("atoms", mol.Len()), zap.Int("symops", len(ops)))
	return mol, nil
}

func cifatom(row []string, symcol, labcol int) (*Atom, error) {
	var label, sym string
	if labcol >= 0 {
		label = row[labcol]
	}
	if symcol >= 0 && row[symcol] != "." && row[symcol] != "?" {
		sym = row[symcol]
	} else {
		sym = label
	}
	symbol, err := symbolFromName(sym)
	if err != nil {
		return nil, err
	}
	at := NewAtom(symbol)
	if label != "" {
		at.Name = label
	}
	return at, nil
}

/***Symmetry operations***/

//symop is a crystallographic symmetry operation in fractional coordinates:
//x' = rot·x + trans
type symop struct {
	rot   [3][3]float64
	trans [3]float64
}

func (S *symop) identity() bool {
	for i := 0; i < 3; i++ {
		if S.trans[i] != 0 {
			return false
		}
		for j := 0; j < 3; j++ {
			if S.rot[i][j] != v3.KronekerDelta(float64(i), float64(j), 0) {
				return false
			}
		}
	}
	return true
}

func (S *symop) apply(f [3]float64) [3]float64 {
	var ret [3]float64
	for i := 0; i < 3; i++ {
		ret[i] = S.trans[i]
		for j := 0; j < 3; j++ {
			ret[i] += S.rot[i][j] * f[j]
		}
	}
	return ret
}

func onlyIdentity(ops []*symop) bool {
	for _, v := range ops {
		if !v.identity() {
			return false
		}
	}
	return true
}

//parseSymop parses an operation in the "xyz" notation, e.g. "-x+1/2, y, 1/2-z" or "x-y,x,z".
func parseSymop(s string) (*symop, error) {
	clean := strings.ToLower(strings.Replace(s, " ", "", -1))
	parts := strings.Split(clean, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("parseSymop: operation %q doesn't have 3 components", s)
	}
	op := new(symop)
	for i, p := range parts {
		rot, trans, err := parseSymopComponent(p)
		if err != nil {
			return nil, fmt.Errorf("parseSymop: operation %q: %w", s, err)
		}
		op.rot[i] = rot
		op.trans[i] = trans
	}
	return op, nil
}

func parseSymopComponent(s string) (rot [3]float64, trans float64, err error) {
	if s == "" {
		return rot, 0, fmt.Errorf("empty component")
	}
	isnum := func(c byte) bool { return (c >= '0' && c <= '9') || c == '.' || c == '/' }
	for i := 0; i < len(s); {
		sign := 1.0
		if s[i] == '+' || s[i] == '-' {
			if s[i] == '-' {
				sign = -1
			}
			i++
		}
		j := i
		for j < len(s) && isnum(s[j]) {
			j++
		}
		num := s[i:j]
		i = j
		coef := 1.0
		if num != "" {
			if coef, err = parseFraction(num); err != nil {
				return rot, 0, err
			}
		}
		if i < len(s) && s[i] == '*' {
			i++
		}
		if i < len(s) && s[i] >= 'x' && s[i] <= 'z' {
			rot[s[i]-'x'] += sign * coef
			i++
			continue
		}
		if num == "" {
			return rot, 0, fmt.Errorf("unexpected %q in %q", s[i:], s)
		}
		trans += sign * coef
	}
	return rot, trans, nil
}

func parseFraction(s string) (float64, error) {
	if n, d, ok := strings.Cut(s, "/"); ok {
		num, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, err
		}
		den, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, fmt.Errorf("zero denominator in %q", s)
		}
		return num / den, nil
	}
	return strconv.ParseFloat(s, 64)
}

//symprec is the largest fractional distance at which two images are
//considered the same site.
const symprec = 1e-4

func wrapFrac(x float64) float64 {
	x -= math.Floor(x)
	if x > 1-symprec/10 {
		x = 0
	}
	return x
}

//expandSymmetry applies ops to each site in frac (fractional coordinates), wraps the
//images into the cell and removes duplicates. The images of each site are
//kept together, in the order of the sites.
func expandSymmetry(sites []*Atom, frac *v3.Matrix, ops []*symop) ([]*Atom, *v3.Matrix) {
	atoms := make([]*Atom, 0, len(sites)*len(ops))
	coords := make([]float64, 0, 3*len(sites)*len(ops))
	merged := 0
	for n, at := range sites {
		f := [3]float64{frac.At(n, 0), frac.At(n, 1), frac.At(n, 2)}
		images := make([][3]float64, 0, len(ops))
	OPS:
		for _, op := range ops {
			g := op.apply(f)
			for k := range g {
				g[k] = wrapFrac(g[k])
			}
			for _, h := range images {
				if samesite(g, h) {
					merged++
					continue OPS
				}
			}
			images = append(images, g)
		}
		for _, g := range images {
			atoms = append(atoms, at.Copy())
			coords = append(coords, g[0], g[1], g[2])
		}
	}
	logger.Debug("expanded symmetry", zap.Int("sites", len(sites)), zap.Int("atoms", len(atoms)), zap.Int("merged", merged))
	ret, _ := v3.NewMatrix(coords) //can't fail, we have at least one atom.
	return atoms, ret
}

//samesite returns true if the fractional positions a and b are the same
//under periodic boundary conditions.
func samesite(a, b [3]float64) bool {
	for k := 0; k < 3; k++ {
		d := a[k] - b[k]
		d -= math.Round(d)
		if math.Abs(d) > symprec {
			return false
		}
	}
	return true
}
