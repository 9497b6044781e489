/*
 * layers.go, part of goslab.
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

package chemplot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/rmera/goslab/slab"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

//BinWidth is the width, in A, of the bins of the height histogram.
const BinWidth = 0.1

var (
	fixedColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	freeColor  = color.RGBA{R: 30, G: 60, B: 200, A: 255}
	histColor  = color.Gray{Y: 190}
)

//LayerProfile plots the distribution of atomic heights in P, with a vertical line at the
//mean height of each layer, as tall as the number of atoms in the layer. The nfixed bottom
//layers are drawn in red, the rest in blue. The format of the file (png, svg, pdf...) is
//taken from the extension of filename.
func LayerProfile(P *slab.Profile, nfixed int, title, filename string) error {
	if P == nil || P.Len() == 0 {
		return fmt.Errorf("LayerProfile: no layers to plot")
	}
	if nfixed < 0 || nfixed > P.Len() {
		return fmt.Errorf("LayerProfile: %d fixed layers requested, %d layers available", nfixed, P.Len())
	}
	heights := P.Sorted()
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = fmt.Sprintf("%s (Å)", slab.AxisName(P.Axis))
	p.Y.Label.Text = "Atoms"
	p.Add(plotter.NewGrid())
	spread := floats.Max(heights) - floats.Min(heights)
	//all the atoms at the same height leave nothing to bin.
	if spread > 1e-6 {
		nbins := int(math.Ceil(spread / BinWidth))
		if nbins > 1000 {
			nbins = 1000
		}
		h, err := plotter.NewHist(plotter.Values(heights), nbins)
		if err != nil {
			return fmt.Errorf("LayerProfile: %w", err)
		}
		h.FillColor = histColor
		h.LineStyle.Width = vg.Length(0)
		p.Add(h)
	}
	var fixedline, freeline *plotter.Line
	for i, L := range P.Layers {
		pts := plotter.XYs{{X: L.Mean, Y: 0}, {X: L.Mean, Y: float64(L.Len())}}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("LayerProfile: layer %d: %w", i+1, err)
		}
		l.LineStyle.Width = vg.Points(2)
		if i < nfixed {
			l.LineStyle.Color = fixedColor
			fixedline = l
		} else {
			l.LineStyle.Color = freeColor
			freeline = l
		}
		p.Add(l)
	}
	if fixedline != nil {
		p.Legend.Add("fixed layers", fixedline)
	}
	if freeline != nil {
		p.Legend.Add("free layers", freeline)
	}
	p.Legend.Top = true
	p.Y.Min = 0
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("LayerProfile: %w", err)
	}
	return nil
}
