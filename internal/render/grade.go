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
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mlnoga/daylight/internal/colormath"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

// White balance gains per unit of temperature and tint
const temperatureGain=0.6
const tintGain=0.5

// Maximum hue shift of a fully weighted band adjustment, in degrees
const bandHueRange=30

// Fixed vibrance weight; the (1-s) term on top of this protects already
// saturated pixels from clipping
const vibranceWeight=0.7

// Blend strengths of the three-way grading color and luma components
const gradeTintStrength=0.35
const gradeLumStrength=0.2

// A precomputed three-way grading target: tint color from the wheel's hue at
// fixed lightness 0.5, plus blend amounts
type gradeTarget struct {
	tintR, tintG, tintB float32 // [0,255]
	satAmount           float32
	lumAdd              float32
}

// Color grading: white balance, saturation/vibrance, per-hue-band HSL
// correction with soft overlapping band weights, and three-way color wheels
// blended by luminance
type GradeStage struct {
	temperature float32
	tint        float32
	saturation  float32
	vibrance    float32
	bands       [8]state.HSLAdjust // in colormath.BandNames order
	bandsActive bool
	shadows     gradeTarget
	midtones    gradeTarget
	highlights  gradeTarget
	gradeActive bool
}

func NewGradeStage(c *state.ColorState, g *state.GradingState) *GradeStage {
	s:=&GradeStage{
		temperature: c.Temperature,
		tint       : c.Tint,
		saturation : c.Saturation*0.01,
		vibrance   : c.Vibrance*0.01,
	}
	for i, name:=range colormath.BandNames {
		if adj, ok:=c.Bands[name]; ok {
			s.bands[i]=adj
			if adj.Hue!=0 || adj.Sat!=0 || adj.Lum!=0 { s.bandsActive=true }
		}
	}
	s.shadows   =newGradeTarget(&g.Shadows)
	s.midtones  =newGradeTarget(&g.Midtones)
	s.highlights=newGradeTarget(&g.Highlights)
	s.gradeActive=g.Shadows.Sat!=0 || g.Shadows.Lum!=0 ||
	              g.Midtones.Sat!=0 || g.Midtones.Lum!=0 ||
	              g.Highlights.Sat!=0 || g.Highlights.Lum!=0
	return s
}

func newGradeTarget(w *state.GradeWheel) gradeTarget {
	col:=colorful.Hsl(float64(w.Hue), 1.0, 0.5)
	return gradeTarget{
		tintR    : float32(col.R)*255,
		tintG    : float32(col.G)*255,
		tintB    : float32(col.B)*255,
		satAmount: w.Sat*0.01*gradeTintStrength,
		lumAdd   : w.Lum*0.01*gradeLumStrength*255,
	}
}

func (s *GradeStage) active() bool {
	return s.temperature!=0 || s.tint!=0 || s.saturation!=0 || s.vibrance!=0 ||
	       s.bandsActive || s.gradeActive
}

func (s *GradeStage) Apply(f *raster.Image) {
	if !s.active() { return }
	f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
		// 1. white balance
		r+=s.temperature*temperatureGain
		b-=s.temperature*temperatureGain
		g+=s.tint*tintGain

		// 2. to HSL
		h, sat, l:=colormath.RGBToHSL(colormath.Clamp(r), colormath.Clamp(g), colormath.Clamp(b))

		// 3. saturation, then vibrance with diminishing effect on pixels
		// that are already saturated
		sat=colormath.Clamp01(sat*(1+s.saturation))
		sat=colormath.Clamp01(sat + s.vibrance*(1-sat)*vibranceWeight)

		// 4. per-band HSL deltas, summed over all bands with soft weights
		if s.bandsActive {
			weights:=colormath.BandWeights(h)
			var dh, ds, dl float32
			for i, w:=range weights {
				if w==0 { continue }
				adj:=&s.bands[i]
				dh+=adj.Hue*0.01*w*(bandHueRange/360.0)
				ds+=adj.Sat*0.01*w*0.5
				dl+=adj.Lum*0.01*w*0.3
			}
			h+=dh
			for h<0 { h+=1 }
			for h>=1 { h-=1 }
			sat=colormath.Clamp01(sat+ds)
			l  =colormath.Clamp01(l+dl)
		}

		// 5. back to RGB
		r, g, b=colormath.HSLToRGB(h, sat, l)

		// 6. three-way grading, all targets additive on the same pixel
		if s.gradeActive {
			shadowW   :=maxf(0, 1-2*l)
			highlightW:=maxf(0, (l-0.5)*2)
			midW      :=1 - shadowW - highlightW
			r, g, b=s.shadows.blend(r, g, b, shadowW)
			r, g, b=s.midtones.blend(r, g, b, midW)
			r, g, b=s.highlights.blend(r, g, b, highlightW)
		}
		return r, g, b
	})
}

func (t *gradeTarget) blend(r, g, b, weight float32) (float32, float32, float32) {
	if weight<=0 { return r, g, b }
	amt:=t.satAmount*weight
	r+=(t.tintR-r)*amt + t.lumAdd*weight
	g+=(t.tintG-g)*amt + t.lumAdd*weight
	b+=(t.tintB-b)*amt + t.lumAdd*weight
	return r, g, b
}
