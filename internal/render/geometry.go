// Copyright (C) 2025 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package render

import (
	"image"
	"math"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

// Computes the crop rectangle in source pixel space from percentage geometry
func cropRect(g *state.GeometryState, srcW, srcH int) image.Rectangle {
	x0:=int(g.CropX*0.01*float32(srcW) + 0.5)
	y0:=int(g.CropY*0.01*float32(srcH) + 0.5)
	x1:=int((g.CropX+g.CropW)*0.01*float32(srcW) + 0.5)
	y1:=int((g.CropY+g.CropH)*0.01*float32(srcH) + 0.5)
	r:=image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, srcW, srcH))
	if r.Dx()<1 || r.Dy()<1 { r=image.Rect(0, 0, srcW, srcH) }
	return r
}

// Draws the source crop region into a new working image of the target
// dimensions via a single affine transform: translate to center, rotate,
// pseudo-perspective shear, flip scales. This produces the pixel buffer that
// all later stages operate on
func drawGeometry(src *raster.Image, g *state.GeometryState, crop image.Rectangle, outW, outH int) *raster.Image {
	identity:=g.Rotate==0 && !g.FlipH && !g.FlipV &&
	          g.PerspectiveV==0 && g.PerspectiveH==0 &&
	          crop==image.Rect(0, 0, src.Width, src.Height) &&
	          outW==src.Width && outH==src.Height
	if identity { return src.Clone() }

	sx:=float64(outW)/float64(crop.Dx())
	sy:=float64(outH)/float64(crop.Dy())
	if g.FlipH { sx=-sx }
	if g.FlipV { sy=-sy }

	theta:=float64(g.Rotate)*math.Pi/180
	sin, cos:=math.Sin(theta), math.Cos(theta)
	pv:=float64(g.PerspectiveV)*0.01
	ph:=float64(g.PerspectiveH)*0.01

	// M = T(out center) * R(theta) * Shear(pv,ph) * Scale(sx,sy) * T(-crop center)
	m:=translate(float64(outW)*0.5, float64(outH)*0.5)
	m=mulAff(m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
	m=mulAff(m, f64.Aff3{1, pv, 0, ph, 1, 0})
	m=mulAff(m, f64.Aff3{sx, 0, 0, 0, sy, 0})
	m=mulAff(m, translate(-float64(crop.Min.X)-float64(crop.Dx())*0.5, -float64(crop.Min.Y)-float64(crop.Dy())*0.5))

	dst:=image.NewRGBA(image.Rect(0, 0, outW, outH))
	interpolator(g.Smoothing).Transform(dst, m, src.ToRGBA(false), crop, draw.Src, nil)
	return raster.FromImage(dst)
}

func interpolator(s state.Smoothing) draw.Transformer {
	switch s {
	case state.SmoothingFast:
		return draw.NearestNeighbor
	case state.SmoothingGood:
		return draw.ApproxBiLinear
	}
	return draw.CatmullRom
}

func translate(tx, ty float64) f64.Aff3 {
	return f64.Aff3{1, 0, tx, 0, 1, ty}
}

// Composes two affine transforms: the result applies n first, then m
func mulAff(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3], m[0]*n[1] + m[1]*n[4], m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3], m[3]*n[1] + m[4]*n[4], m[3]*n[2] + m[4]*n[5] + m[5],
	}
}
