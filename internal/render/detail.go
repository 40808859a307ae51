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

// Channel mixer, gamma, tone curves, and (full-quality only) the local
// contrast and noise group working off a shared blurred reference.
// Fixed operation order: mixer, then gamma, then curves, then detail group
type DetailStage struct {
	mixer       [3][3]float32
	mixerActive bool
	labMode     bool
	gammaInv    float64
	rgbLUT      *colormath.LUT // nil when identity
	rLUT        *colormath.LUT
	gLUT        *colormath.LUT
	bLUT        *colormath.LUT
	det         state.DetailState
	highPass    float32
	edgePreview bool
	fullQuality bool
}

func NewDetailStage(s *state.EditState, fullQuality bool) (*DetailStage, error) {
	d:=&DetailStage{
		labMode    : s.Advanced.LabMode,
		gammaInv   : 1.0/float64(s.Advanced.Gamma),
		det        : s.Detail,
		highPass   : s.Advanced.HighPass,
		edgePreview: s.Advanced.EdgePreview,
		fullQuality: fullQuality,
	}
	for i:=0; i<3; i++ {
		for j:=0; j<3; j++ {
			d.mixer[i][j]=s.Advanced.Mixer[i][j]*0.01
		}
	}
	identityMixer:=d.mixer==[3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	d.mixerActive=!identityMixer || d.labMode

	var err error
	if d.rgbLUT, err=buildCurveLUT(s.Curves.RGB); err!=nil { return nil, err }
	if d.rLUT,   err=buildCurveLUT(s.Curves.R);   err!=nil { return nil, err }
	if d.gLUT,   err=buildCurveLUT(s.Curves.G);   err!=nil { return nil, err }
	if d.bLUT,   err=buildCurveLUT(s.Curves.B);   err!=nil { return nil, err }
	return d, nil
}

// Builds the curve LUT, returning nil for identity curves so the hot loop
// can skip them
func buildCurveLUT(points []colormath.CurvePoint) (*colormath.LUT, error) {
	l, err:=colormath.BuildLUT(points)
	if err!=nil { return nil, err }
	if l.IsIdentity() { return nil, nil }
	return l, nil
}

func (d *DetailStage) detailActive() bool {
	dt:=&d.det
	return dt.SharpenAmount>0 || dt.Clarity!=0 || dt.Texture!=0 || dt.Dehaze!=0 ||
	       dt.NoiseLuma>0 || dt.NoiseColor>0 || d.highPass>0 || d.edgePreview
}

func (d *DetailStage) Apply(f *raster.Image) {
	if d.mixerActive || d.gammaInv!=1 || d.rgbLUT!=nil || d.rLUT!=nil || d.gLUT!=nil || d.bLUT!=nil {
		f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
			// 1. channel mixer
			if d.mixerActive {
				r, g, b=d.applyMixer(r, g, b)
			}

			// 2. gamma on clamped input
			if d.gammaInv!=1 {
				r=float32(math.Pow(float64(colormath.Clamp(r)*(1.0/255.0)), d.gammaInv))*255
				g=float32(math.Pow(float64(colormath.Clamp(g)*(1.0/255.0)), d.gammaInv))*255
				b=float32(math.Pow(float64(colormath.Clamp(b)*(1.0/255.0)), d.gammaInv))*255
			}

			// 3. tone curves: combined RGB curve first, then each per-channel
			// curve contributes only its deviation from identity on top.
			// final = rgbLut[v] + (chanLut[v] - v). Applying both LUTs in
			// sequence is NOT equivalent; see the stage tests
			r=applyCurves(r, d.rgbLUT, d.rLUT)
			g=applyCurves(g, d.rgbLUT, d.gLUT)
			b=applyCurves(b, d.rgbLUT, d.bLUT)
			return r, g, b
		})
	}

	// 4. local contrast and noise group, full-quality renders only.
	// Interactive previews skip this for responsiveness; a documented
	// quality/speed tradeoff
	if !d.fullQuality || !d.detailActive() { return }

	// shared blurred reference: computed once, reused by every sub-effect
	radius:=int(d.det.SharpenRadius+0.5)
	if radius<1 { radius=1 }
	blurred:=raster.BoxBlur(f, radius)

	sharpen:=d.det.SharpenAmount*0.01
	clarity:=d.det.Clarity*0.01*0.8
	texture:=d.det.Texture*0.01*0.4
	dehaze :=d.det.Dehaze*0.01*0.5
	noiseL :=d.det.NoiseLuma*0.01*0.4
	noiseC :=d.det.NoiseColor*0.01*0.55
	highPass:=d.highPass*0.01*2

	width:=f.Width
	f.ApplyRows(func(y0, y1 int) {
		for i:=y0*width*3; i<y1*width*3; i+=3 {
			r, g, b:=f.Pix[i], f.Pix[i+1], f.Pix[i+2]
			br, bg, bb:=blurred.Pix[i], blurred.Pix[i+1], blurred.Pix[i+2]

			// per-channel edge signal and magnitude
			hr, hg, hb:=r-br, g-bg, b-bb
			mag:=abs32(hr)+abs32(hg)+abs32(hb)

			if sharpen>0 && mag>d.det.SharpenThreshold {
				r+=hr*sharpen
				g+=hg*sharpen
				b+=hb*sharpen
			}
			if clarity!=0 {
				r+=hr*clarity
				g+=hg*clarity
				b+=hb*clarity
			}
			if texture!=0 {
				r+=hr*texture
				g+=hg*texture
				b+=hb*texture
			}
			if dehaze!=0 {
				mul:=1+dehaze
				r=128 + (r-128)*mul
				g=128 + (g-128)*mul
				b=128 + (b-128)*mul
			}
			if noiseL>0 {
				gray:=(br+bg+bb)*(1.0/3.0)
				r+=(gray-r)*noiseL
				g+=(gray-g)*noiseL
				b+=(gray-b)*noiseL
			}
			if noiseC>0 {
				r+=(br-r)*noiseC
				g+=(bg-g)*noiseC
				b+=(bb-b)*noiseC
			}
			if highPass>0 { // replaces the accumulated value
				r=128 + hr*highPass
				g=128 + hg*highPass
				b=128 + hb*highPass
			}
			if d.edgePreview { // diagnostic: grayscale edge magnitude
				r, g, b=mag, mag, mag
			}
			f.Pix[i], f.Pix[i+1], f.Pix[i+2]=r, g, b
		}
	})
}

// Applies the 3x3 channel mixer. In lab mode the mixer drives luminance only
// and the original chroma offsets are carried over, so mixing cannot
// desaturate the pixel
func (d *DetailStage) applyMixer(r, g, b float32) (float32, float32, float32) {
	mr:=d.mixer[0][0]*r + d.mixer[0][1]*g + d.mixer[0][2]*b
	mg:=d.mixer[1][0]*r + d.mixer[1][1]*g + d.mixer[1][2]*b
	mb:=d.mixer[2][0]*r + d.mixer[2][1]*g + d.mixer[2][2]*b
	if d.labMode {
		lum   :=colormath.Luminance(r, g, b)*255
		lumMix:=colormath.Luminance(mr, mg, mb)*255
		return lumMix + (r-lum), lumMix + (g-lum), lumMix + (b-lum)
	}
	return mr, mg, mb
}

// Applies the combined RGB curve plus the per-channel curve delta to one value
func applyCurves(v float32, rgbLUT, chanLUT *colormath.LUT) float32 {
	if rgbLUT==nil && chanLUT==nil { return v }
	i:=int(colormath.Clamp(v)+0.5)
	if i>255 { i=255 }
	out:=float32(i)
	if rgbLUT!=nil { out=rgbLUT[i] }
	if chanLUT!=nil { out+=chanLUT[i]-float32(i) }
	return out
}

func abs32(v float32) float32 {
	if v<0 { return -v }
	return v
}
