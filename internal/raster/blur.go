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


package raster

// Returns the average RGB of the (2*radius+1)^2 neighborhood around (x,y),
// with out-of-bounds indices clamped to the image border
func (f *Image) BoxSample(x, y, radius int) (r, g, b float32) {
	var sumR, sumG, sumB float32
	for dy:=-radius; dy<=radius; dy++ {
		for dx:=-radius; dx<=radius; dx++ {
			pr, pg, pb:=f.AtClamped(x+dx, y+dy)
			sumR+=pr
			sumG+=pg
			sumB+=pb
		}
	}
	n:=float32((2*radius+1)*(2*radius+1))
	return sumR/n, sumG/n, sumB/n
}

// Box blurs the image with the given radius into a newly allocated image.
// Serves as the shared blurred reference for all detail effects of a render:
// computed once, reused by sharpening, clarity, texture, dehaze and denoise.
// Separable two-pass implementation, edge-clamped
func BoxBlur(src *Image, radius int) *Image {
	if radius<1 { radius=1 }
	width, height:=src.Width, src.Height
	tmp:=NewImage(width, height)
	dst:=NewImage(width, height)
	norm:=1.0/float32(2*radius+1)

	// horizontal pass
	src.ApplyRows(func(y0, y1 int) {
		for y:=y0; y<y1; y++ {
			for x:=0; x<width; x++ {
				var sr, sg, sb float32
				for dx:=-radius; dx<=radius; dx++ {
					r, g, b:=src.AtClamped(x+dx, y)
					sr+=r
					sg+=g
					sb+=b
				}
				i:=(y*width+x)*3
				tmp.Pix[i], tmp.Pix[i+1], tmp.Pix[i+2]=sr*norm, sg*norm, sb*norm
			}
		}
	})

	// vertical pass
	tmp.ApplyRows(func(y0, y1 int) {
		for y:=y0; y<y1; y++ {
			for x:=0; x<width; x++ {
				var sr, sg, sb float32
				for dy:=-radius; dy<=radius; dy++ {
					r, g, b:=tmp.AtClamped(x, y+dy)
					sr+=r
					sg+=g
					sb+=b
				}
				i:=(y*width+x)*3
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2]=sr*norm, sg*norm, sb*norm
			}
		}
	})
	return dst
}
