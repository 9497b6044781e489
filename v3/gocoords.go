/*
 * gocoords.go, part of goslab.
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

package v3

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const appzero float64 = 0.000000000001 //used to correct floating point
//errors. Everything equal or less than this is considered zero. This probably sucks.

//Zeros returns a zero-filled Matrix with vecs vectors and 3 in the other dimension.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//METHODS

//NVecs return the number of vecs in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//Col returns a new slice with the elements of the column col of F,
//i.e. the x (0), y (1) or z (2) coordinates of all vectors.
func (F *Matrix) Col(col int) []float64 {
	if col < 0 || col > 2 {
		panic(ErrIndexOutOfRange)
	}
	return mat.Col(nil, col, F.Dense)
}

//SomeVecs puts in the receiver the vectors of A with indexes in clist,
//in the same order than the clist.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, ac := A.Dims()
	fr, fc := F.Dims()
	if ac != fc || fr != len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val < 0 || val >= ar {
			panic(ErrIndexOutOfRange)
		}
		for j := 0; j < ac; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

//SomeVecsSafe is SomeVecs, but it returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case PanicMsg:
				err = Error{string(e), []string{"SomeVecsSafe"}, true}
			case mat.Error:
				err = Error{fmt.Sprintf("goslab/v3: Error in a gonum function: %s", e.Error()), []string{"SomeVecsSafe"}, true}
			default:
				panic(r)
			}
		}
	}()
	F.SomeVecs(A, clist)
	return err
}

//String returns a neat string representation of a Matrix
func (F *Matrix) String() string {
	r, _ := F.Dims()
	v := make([]string, 0, r)
	for i := 0; i < r; i++ {
		v = append(v, fmt.Sprintf("%6.2f %6.2f %6.2f", F.At(i, 0), F.At(i, 1), F.At(i, 2)))
	}
	return "\n[" + strings.Join(v, "\n ") + " ]"
}

//Cell-related functions. A cell is a Matrix with exactly 3 vectors, the
//lattice vectors a, b and c.

//CellFromParameters builds the lattice vectors from the cell lengths (a,b,c) and angles
//(alpha, beta, gamma, in degrees). a is put along x and b in the xy plane.
func CellFromParameters(a, b, c, alpha, beta, gamma float64) (*Matrix, error) {
	if a <= 0 || b <= 0 || c <= 0 {
		return nil, Error{fmt.Sprintf("Non-positive cell length in %5.3f %5.3f %5.3f", a, b, c), []string{"CellFromParameters"}, true}
	}
	cosa, cosb, cosg := cosDeg(alpha), cosDeg(beta), cosDeg(gamma)
	sing := sinDeg(gamma)
	if math.Abs(sing) <= appzero {
		return nil, Error{fmt.Sprintf("Degenerate gamma angle %5.3f", gamma), []string{"CellFromParameters"}, true}
	}
	cy := (cosa - cosb*cosg) / sing
	cz2 := 1 - cosb*cosb - cy*cy
	if cz2 <= 0 {
		return nil, Error{fmt.Sprintf("Impossible cell angles %5.3f %5.3f %5.3f", alpha, beta, gamma), []string{"CellFromParameters"}, true}
	}
	return NewMatrix([]float64{
		a, 0, 0,
		b * cosg, b * sing, 0,
		c * cosb, c * cy, c * math.Sqrt(cz2),
	})
}

//angles this close to 90 degrees give exact zero cosines
const rightAngleEps = 1e-8

func cosDeg(angle float64) float64 {
	if math.Abs(math.Abs(angle)-90) < rightAngleEps {
		return 0
	}
	return math.Cos(angle * math.Pi / 180)
}

func sinDeg(angle float64) float64 {
	if math.Abs(math.Abs(angle)-90) < rightAngleEps {
		return math.Copysign(1, angle)
	}
	return math.Sin(angle * math.Pi / 180)
}

//Cart2Frac returns the fractional coordinates corresponding to the cartesian coordinates
//coords in the given cell.
func Cart2Frac(coords, cell *Matrix) (*Matrix, error) {
	if cell.NVecs() != 3 {
		return nil, Error{"A cell needs exactly 3 vectors", []string{"Cart2Frac"}, true}
	}
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(cell.Dense); err != nil {
		return nil, Error{fmt.Sprintf("Singular cell: %s", err.Error()), []string{"Cart2Frac"}, true}
	}
	ret := Zeros(coords.NVecs())
	ret.Mul(coords, inv)
	return ret, nil
}

//Frac2Cart returns the cartesian coordinates corresponding to the fractional coordinates frac
//in the given cell.
func Frac2Cart(frac, cell *Matrix) (*Matrix, error) {
	if cell.NVecs() != 3 {
		return nil, Error{"A cell needs exactly 3 vectors", []string{"Frac2Cart"}, true}
	}
	ret := Zeros(frac.NVecs())
	ret.Mul(frac, cell)
	return ret, nil
}

//KronekerDelta is a naive implementation of the kroneker delta function.
func KronekerDelta(a, b, epsilon float64) float64 {
	if epsilon < 0 {
		epsilon = appzero
	}
	if math.Abs(a-b) <= epsilon {
		return 1
	}
	return 0
}
