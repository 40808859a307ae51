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


package colormath

import (
	"math"
)

// Clamps the given value to [0,255]
func Clamp(v float32) float32 {
	if v<0   { return 0   }
	if v>255 { return 255 }
	return v
}

// Clamps the given value to [0,1]
func Clamp01(v float32) float32 {
	if v<0 { return 0 }
	if v>1 { return 1 }
	return v
}

// Linear interpolation between a and b
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Relative luminance of an RGB pixel in [0,255], normalized to [0,1]. Rec.709 weights
func Luminance(r, g, b float32) float32 {
	return (0.2126*r + 0.7152*g + 0.0722*b) * (1.0/255.0)
}

// Converts RGB in [0,255] to HSL with h in [0,1), s and l in [0,1].
// For achromatic inputs (max==min) returns h=0, s=0
func RGBToHSL(r, g, b float32) (h, s, l float32) {
	r, g, b=r*(1.0/255.0), g*(1.0/255.0), b*(1.0/255.0)
	max, min:=r, r
	if g>max { max=g }
	if b>max { max=b }
	if g<min { min=g }
	if b<min { min=b }

	l=(max+min)*0.5
	if max==min { return 0, 0, l }

	d:=max-min
	if l>0.5 {
		s=d/(2.0-max-min)
	} else {
		s=d/(max+min)
	}
	switch max {
	case r:
		h=(g-b)/d
		if g<b { h+=6 }
	case g:
		h=(b-r)/d + 2
	default:
		h=(r-g)/d + 4
	}
	h*=1.0/6.0
	if h>=1 { h-=1 }
	return h, s, l
}

// Converts HSL with h in [0,1), s and l in [0,1] to RGB in [0,255].
// Inverse of RGBToHSL up to quantization; round trips within +-1 per channel
func HSLToRGB(h, s, l float32) (r, g, b float32) {
	if s==0 {
		v:=l*255
		return v, v, v
	}
	var q float32
	if l<0.5 {
		q=l*(1+s)
	} else {
		q=l+s - l*s
	}
	p:=2*l - q
	r=hueToRGB(p, q, h+1.0/3.0)*255
	g=hueToRGB(p, q, h        )*255
	b=hueToRGB(p, q, h-1.0/3.0)*255
	return r, g, b
}

func hueToRGB(p, q, t float32) float32 {
	if t<0 { t+=1 }
	if t>1 { t-=1 }
	if t<1.0/6.0 { return p + (q-p)*6*t }
	if t<1.0/2.0 { return q }
	if t<2.0/3.0 { return p + (q-p)*(2.0/3.0-t)*6 }
	return p
}

// The eight hue bands used for localized color correction, in band order
var BandNames=[8]string{"red", "orange", "yellow", "green", "aqua", "blue", "purple", "magenta"}

// Band centers in hue degrees. Evenly spaced so the triangular weights
// below form a partition of unity
var bandCenters=[8]float32{0, 45, 90, 135, 180, 225, 270, 315}

const bandHalfWidth float32 = 45 // falloff reaches zero at the neighboring center

// Soft overlapping hue band weights for h in [0,1). Each band has a
// triangular falloff around its center; adjacent bands overlap and their
// weights sum to one, which avoids hard seams at band boundaries
func BandWeights(h float32) (weights [8]float32) {
	deg:=h*360
	for i, center:=range bandCenters {
		d:=float32(math.Abs(float64(deg-center)))
		if d>180 { d=360-d } // hue wrap-around
		if d<bandHalfWidth {
			weights[i]=1 - d/bandHalfWidth
		}
	}
	return weights
}
