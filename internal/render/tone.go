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
	"github.com/mlnoga/daylight/internal/colormath"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

// Strength of the luma-weighted shadow/highlight lift per unit of parameter
const shadowHighlightStrength=80

// Strength of the threshold-gated whites/blacks boost per unit of parameter
const whitesBlacksStrength=50

// Pixel-local tone mapping: exposure, brightness, contrast, shadow/highlight
// lift, whites/blacks. Evaluation order is fixed and affects the result
type ToneStage struct {
	expMul      float32
	brightness  float32
	contrastMul float32
	highlights  float32
	shadows     float32
	whites      float32
	blacks      float32
}

func NewToneStage(t *state.BasicTone) *ToneStage {
	return &ToneStage{
		expMul     : float32(math.Pow(2, float64(t.Exposure))),
		brightness : t.Brightness,
		contrastMul: 1 + t.Contrast*0.01,
		highlights : t.Highlights*0.01,
		shadows    : t.Shadows*0.01,
		whites     : t.Whites*0.01,
		blacks     : t.Blacks*0.01,
	}
}

func (s *ToneStage) active() bool {
	return s.expMul!=1 || s.brightness!=0 || s.contrastMul!=1 ||
	       s.highlights!=0 || s.shadows!=0 || s.whites!=0 || s.blacks!=0
}

func (s *ToneStage) Apply(f *raster.Image) {
	if !s.active() { return }
	f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
		// 1. exposure, multiplicative in stops
		r*=s.expMul
		g*=s.expMul
		b*=s.expMul

		// 2. brightness, additive
		r+=s.brightness
		g+=s.brightness
		b+=s.brightness

		// 3. contrast, multiplicative around pivot 128
		r=128 + (r-128)*s.contrastMul
		g=128 + (g-128)*s.contrastMul
		b=128 + (b-128)*s.contrastMul

		// 4. shadow/highlight lift weighted by luminance, luma-only recovery
		lum:=colormath.Luminance(r, g, b)
		shadowW   :=maxf(0, 1-2*lum)
		highlightW:=maxf(0, (lum-0.5)*2)
		lift:=(s.shadows*shadowW - s.highlights*highlightW)*shadowHighlightStrength
		r+=lift
		g+=lift
		b+=lift

		// 5. whites/blacks, threshold-gated rather than continuously blended.
		// The discontinuity at the gate is an intentional simplification
		if lum>0.8 {
			boost:=s.whites*whitesBlacksStrength
			r+=boost
			g+=boost
			b+=boost
		} else if lum<0.2 {
			boost:=s.blacks*whitesBlacksStrength
			r+=boost
			g+=boost
			b+=boost
		}
		return r, g, b
	})
}

func maxf(a, b float32) float32 {
	if a>b { return a }
	return b
}
