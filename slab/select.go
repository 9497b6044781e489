/*
 * select.go, part of goslab.
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

package slab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

//MaxFixedLayers is the largest number of bottom layers that can be fixed.
const MaxFixedLayers = 2

var (
	ErrNotANumber = errors.New("slab: a number is required")
	ErrOutOfRange = errors.New("slab: only 1 or 2 layers can be fixed")
	ErrNoAnswer   = errors.New("slab: input ended before a valid answer")
)

//ValidateLayerChoice returns an error unless n is 1 or 2.
func ValidateLayerChoice(n int) error {
	if n < 1 || n > MaxFixedLayers {
		return fmt.Errorf("%w, got %d", ErrOutOfRange, n)
	}
	return nil
}

//ParseLayerChoice parses an answer to the "how many layers" question.
//Only the integers 1 and 2 (surrounding whitespace allowed) are accepted.
func ParseLayerChoice(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if err := ValidateLayerChoice(n); err != nil {
		return 0, err
	}
	return n, nil
}

const (
	promptQuestion = "How many bottom layers should be fixed? (1 or 2): "
	promptRange    = "Only 1 or 2 can be entered!"
	promptNumber   = "A number is needed (1 or 2)!"
)

//Prompt asks on out how many bottom layers to fix, and reads the answer from in.
//It asks again, as many times as needed, until the answer is 1 or 2. It only
//returns an error if in fails or ends before a valid answer.
func Prompt(in io.Reader, out io.Writer) (int, error) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptQuestion)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("slab: reading answer: %w", err)
			}
			fmt.Fprintln(out)
			return 0, ErrNoAnswer
		}
		n, err := ParseLayerChoice(scanner.Text())
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, ErrOutOfRange):
			fmt.Fprintln(out, promptRange)
		default:
			fmt.Fprintln(out, promptNumber)
		}
	}
}
