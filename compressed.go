/*
 * compressed.go, part of goslab.
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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

//source closes the decompressor (if any) and then the file.
type source struct {
	io.Reader
	closers []io.Closer
}

func (S *source) Close() error {
	var err error
	for _, c := range S.closers {
		if e := c.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

//zstdCloser adapts the zstd decoder, whose Close returns nothing.
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//structureFormat returns the lowercase format extension of fname, and the compression
//extension, if any. "slab.cif.gz" gives "cif" and "gz".
func structureFormat(fname string) (format, compression string) {
	base := strings.ToLower(filepath.Base(fname))
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	switch ext {
	case "gz", "zst":
		compression = ext
		base = strings.TrimSuffix(base, "."+ext)
		ext = strings.TrimPrefix(filepath.Ext(base), ".")
	}
	return ext, compression
}

//openSource opens the file fname and returns an object that will
//read data from the file, either 'as is' or decompressing first, depending on
//the file extension (.gz for gzip, .zst for zstandard).
func openSource(fname string) (io.ReadCloser, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errDecorate(err, "openSource")
	}
	_, compression := structureFormat(fname)
	reader := bufio.NewReader(f)
	switch compression {
	case "gz":
		gz, err := gzip.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, errDecorate(err, "openSource")
		}
		logger.Debug("reading gzip-compressed structure", zap.String("file", fname))
		return &source{gz, []io.Closer{gz, f}}, nil
	case "zst":
		zs, err := zstd.NewReader(reader)
		if err != nil {
			f.Close()
			return nil, errDecorate(err, "openSource")
		}
		logger.Debug("reading zstd-compressed structure", zap.String("file", fname))
		return &source{zs, []io.Closer{zstdCloser{zs}, f}}, nil
	}
	return &source{reader, []io.Closer{f}}, nil
}

//StructureFileRead reads a structure from the file fname. The format is taken from the extension:
//.cif for CIF, .xyz or .extxyz for (extended) XYZ. Any of those can be further compressed
//with gzip (.gz) or zstandard (.zst), e.g. slab.cif.gz
func StructureFileRead(fname string) (*Molecule, error) {
	format, _ := structureFormat(fname)
	var read func(io.Reader) (*Molecule, error)
	switch format {
	case "cif":
		read = CIFRead
	case "xyz", "extxyz":
		read = XYZRead
	default:
		return nil, CError{"Unsupported structure format '" + format + "' for " + fname, []string{"StructureFileRead"}}
	}
	in, err := openSource(fname)
	if err != nil {
		return nil, errDecorate(err, "StructureFileRead")
	}
	defer in.Close()
	mol, err := read(in)
	if err != nil {
		return nil, errDecorate(err, "StructureFileRead: "+fname)
	}
	return mol, nil
}

//CIFFileRead reads the first data block of the (possibly compressed) CIF file fname.
func CIFFileRead(fname string) (*Molecule, error) {
	in, err := openSource(fname)
	if err != nil {
		return nil, errDecorate(err, "CIFFileRead")
	}
	defer in.Close()
	mol, err := CIFRead(in)
	return mol, errDecorate(err, "CIFFileRead: "+fname)
}

//XYZFileRead reads the first frame of the (possibly compressed) XYZ file fname.
func XYZFileRead(fname string) (*Molecule, error) {
	in, err := openSource(fname)
	if err != nil {
		return nil, errDecorate(err, "XYZFileRead")
	}
	defer in.Close()
	mol, err := XYZRead(in)
	return mol, errDecorate(err, "XYZFileRead: "+fname)
}
