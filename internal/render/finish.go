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
	"math"
	"github.com/mlnoga/daylight/internal/lut"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

// Optional 3D LUT remap plus the radial vignette/lens distortion falloff,
// the last numeric steps before output
type FinishStage struct {
	lut            *lut.CubeLUT
	vignette       float32
	lensDistortion float32
}

func NewFinishStage(cube *lut.CubeLUT, g *state.GeometryState) *FinishStage {
	return &FinishStage{
		lut           : cube,
		vignette      : g.Vignette*0.01,
		lensDistortion: g.LensDistortion*0.01,
	}
}

func (s *FinishStage) Apply(f *raster.Image) {
	if s.lut!=nil {
		f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
			return s.lut.Lookup(r, g, b)
		})
	}

	if s.vignette==0 && s.lensDistortion==0 { return }
	width, height:=f.Width, f.Height
	cx, cy:=float32(width)*0.5, float32(height)*0.5
	// normalized so a corner pixel sits at distance ~1 from the center
	invNorm:=1.0/float32(math.Sqrt2)
	f.ApplyRows(func(y0, y1 int) {
		for y:=y0; y<y1; y++ {
			dy:=(float32(y)+0.5-cy)/cy
			for x:=0; x<width; x++ {
				dx:=(float32(x)+0.5-cx)/cx
				dist:=float32(math.Sqrt(float64(dx*dx+dy*dy)))*invNorm
				factor:=(1 - s.vignette*float32(math.Pow(float64(dist), 1.8))) *
				        (1 + s.lensDistortion*dist*0.2)
				i:=(y*width+x)*3
				f.Pix[i  ]*=factor
				f.Pix[i+1]*=factor
				f.Pix[i+2]*=factor
			}
		}
	})
}

// Approximate gamut remaps via fixed per-space channel multipliers. A
// stylistic simulation for export preview, not a real ICC transform
var colorSpaceMultipliers=map[string][3]float32{
	"srgb"       : {1, 1, 1},
	"display-p3" : {1.04, 0.99, 1.02},
	"adobe-rgb"  : {1.02, 1.00, 0.97},
	"prophoto"   : {1.05, 0.98, 1.01},
}

// Applies the export color-space simulation. Unknown tags are a no-op
func applyColorSpace(f *raster.Image, space string) {
	mul, ok:=colorSpaceMultipliers[space]
	if !ok || mul==[3]float32{1, 1, 1} { return }
	f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
		return r*mul[0], g*mul[1], b*mul[2]
	})
}
