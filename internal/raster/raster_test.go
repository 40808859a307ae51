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

import (
	"math"
	"testing"
)

func TestApplyPixelFunc(t *testing.T) {
	f := NewImage(33, 17) // odd dimensions to exercise uneven row batches
	for i := range f.Pix {
		f.Pix[i] = float32(i % 256)
	}
	f.ApplyPixelFunc(func(r, g, b float32) (float32, float32, float32) {
		return r + 1, g + 2, b + 3
	})
	for i := 0; i < len(f.Pix); i += 3 {
		if f.Pix[i] != float32(i%256)+1 || f.Pix[i+1] != float32((i+1)%256)+2 || f.Pix[i+2] != float32((i+2)%256)+3 {
			t.Fatalf("pixel %d=(%f,%f,%f); want offsets +1,+2,+3", i/3, f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		}
	}
}

func TestApplyRowsCoversAllRows(t *testing.T) {
	f := NewImage(5, 101)
	f.ApplyRows(func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < f.Width; x++ {
				f.Pix[(y*f.Width+x)*3]++
			}
		}
	})
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if v := f.Pix[(y*f.Width+x)*3]; v != 1 {
				t.Fatalf("row %d col %d visited %f times; want 1", y, x, v)
			}
		}
	}
}

func TestAtClamped(t *testing.T) {
	f := NewImage(4, 3)
	f.Pix[0] = 11                      // top-left r
	f.Pix[(2*4+3)*3] = 22              // bottom-right r
	if r, _, _ := f.AtClamped(-5, -5); r != 11 {
		t.Errorf("clamped top-left r=%f; want 11", r)
	}
	if r, _, _ := f.AtClamped(100, 100); r != 22 {
		t.Errorf("clamped bottom-right r=%f; want 22", r)
	}
}

func TestToRGBAClampsAndQuantizes(t *testing.T) {
	f := NewImage(3, 1)
	f.Pix[0], f.Pix[1], f.Pix[2] = -10, 300, 127.6
	f.Pix[3], f.Pix[4], f.Pix[5] = 0, 255, float32(math.NaN())
	f.Pix[6], f.Pix[7], f.Pix[8] = 64, 64, 64

	img := f.ToRGBA(false)
	p0 := img.RGBAAt(0, 0)
	if p0.R != 0 || p0.G != 255 || p0.B != 128 || p0.A != 255 {
		t.Errorf("pixel 0=%v; want {0 255 128 255}", p0)
	}
	p1 := img.RGBAAt(1, 0)
	if p1.R != 0 || p1.G != 255 || p1.B != 0 {
		t.Errorf("pixel 1=%v; want NaN quantized to 0", p1)
	}
	p2 := img.RGBAAt(2, 0)
	if p2.R != 64 || p2.G != 64 || p2.B != 64 {
		t.Errorf("pixel 2=%v; want {64 64 64 255}", p2)
	}
}

func TestToRGBADitherStaysWithinOneLevel(t *testing.T) {
	f := NewUniformImage(16, 16, 100, 150, 200)
	img := f.ToRGBA(true)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			p := img.RGBAAt(x, y)
			if p.R < 99 || p.R > 101 || p.G < 149 || p.G > 151 || p.B < 199 || p.B > 201 {
				t.Fatalf("dithered pixel (%d,%d)=%v; want within +-1 of (100,150,200)", x, y, p)
			}
		}
	}
}

func TestFromImageRoundTrip(t *testing.T) {
	f := NewImage(7, 5)
	for i := range f.Pix {
		f.Pix[i] = float32((i * 37) % 256)
	}
	g := FromImage(f.ToRGBA(false))
	if g.Width != f.Width || g.Height != f.Height {
		t.Fatalf("dims %dx%d; want %dx%d", g.Width, g.Height, f.Width, f.Height)
	}
	for i := range f.Pix {
		if math.Abs(float64(g.Pix[i]-f.Pix[i])) > 0.5 {
			t.Fatalf("pix[%d]=%f; want %f", i, g.Pix[i], f.Pix[i])
		}
	}
}

func TestBoxBlurUniform(t *testing.T) {
	epsilon := 1e-3
	f := NewUniformImage(10, 10, 40, 80, 120)
	for _, radius := range []int{1, 2, 3} {
		blurred := BoxBlur(f, radius)
		for i := 0; i < len(blurred.Pix); i += 3 {
			if math.Abs(float64(blurred.Pix[i]-40)) > epsilon ||
				math.Abs(float64(blurred.Pix[i+1]-80)) > epsilon ||
				math.Abs(float64(blurred.Pix[i+2]-120)) > epsilon {
				t.Fatalf("radius=%d pixel %d=(%f,%f,%f); want uniform image unchanged",
					radius, i/3, blurred.Pix[i], blurred.Pix[i+1], blurred.Pix[i+2])
			}
		}
	}
}

func TestBoxBlurImpulse(t *testing.T) {
	epsilon := 1e-2
	width, height := 9, 9
	peak := float32(81)
	f := NewImage(width, height)
	f.Pix[(4*width+4)*3] = peak

	blurred := BoxBlur(f, 1)
	sum := float32(0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := blurred.Pix[(y*width+x)*3]
			sum += v
			inside := x >= 3 && x <= 5 && y >= 3 && y <= 5
			if inside && math.Abs(float64(v-peak/9)) > epsilon {
				t.Errorf("blur[%d,%d]=%f; want %f", x, y, v, peak/9)
			}
			if !inside && v != 0 {
				t.Errorf("blur[%d,%d]=%f; want 0", x, y, v)
			}
		}
	}
	// interior impulse: total energy preserved
	if math.Abs(float64(sum-peak)) > epsilon {
		t.Errorf("sum=%f; want %f", sum, peak)
	}
}

func TestBoxSampleMatchesBoxBlur(t *testing.T) {
	epsilon := 1e-3
	f := NewImage(8, 8)
	for i := range f.Pix {
		f.Pix[i] = float32((i * 13) % 256)
	}
	blurred := BoxBlur(f, 1)
	// away from edges the separable blur equals the direct neighborhood average
	for y := 1; y < 7; y++ {
		for x := 1; x < 7; x++ {
			r, g, b := f.BoxSample(x, y, 1)
			i := (y*8 + x) * 3
			if math.Abs(float64(blurred.Pix[i]-r)) > epsilon ||
				math.Abs(float64(blurred.Pix[i+1]-g)) > epsilon ||
				math.Abs(float64(blurred.Pix[i+2]-b)) > epsilon {
				t.Fatalf("(%d,%d): blur=(%f,%f,%f) sample=(%f,%f,%f); want equal",
					x, y, blurred.Pix[i], blurred.Pix[i+1], blurred.Pix[i+2], r, g, b)
			}
		}
	}
}
