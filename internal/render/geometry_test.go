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
	"testing"

	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

func TestCropRect(t *testing.T) {
	g := &state.GeometryState{CropW: 100, CropH: 100}
	if r := cropRect(g, 200, 100); r != image.Rect(0, 0, 200, 100) {
		t.Errorf("full crop=%v; want (0,0)-(200,100)", r)
	}

	g = &state.GeometryState{CropX: 25, CropY: 25, CropW: 50, CropH: 50}
	if r := cropRect(g, 200, 100); r != image.Rect(50, 25, 150, 75) {
		t.Errorf("centered crop=%v; want (50,25)-(150,75)", r)
	}

	// degenerate crops fall back to the full frame
	g = &state.GeometryState{CropX: 99.9, CropY: 99.9, CropW: 0.01, CropH: 0.01}
	if r := cropRect(g, 200, 100); r != image.Rect(0, 0, 200, 100) {
		t.Errorf("degenerate crop=%v; want full frame fallback", r)
	}
}

func TestDrawGeometryIdentityClones(t *testing.T) {
	src := raster.NewUniformImage(3, 3, 10, 20, 30)
	g := &state.GeometryState{CropW: 100, CropH: 100}
	dst := drawGeometry(src, g, image.Rect(0, 0, 3, 3), 3, 3)
	if dst == src {
		t.Fatalf("identity geometry returned the source; want a private working copy")
	}
	dst.Pix[0] = 99
	if src.Pix[0] != 10 {
		t.Errorf("mutating the working copy changed the source")
	}
}

func TestDrawGeometryFlipH(t *testing.T) {
	src := raster.NewImage(2, 1)
	src.Pix[0], src.Pix[3] = 10, 240
	g := &state.GeometryState{CropW: 100, CropH: 100, FlipH: true, Smoothing: state.SmoothingFast}
	dst := drawGeometry(src, g, image.Rect(0, 0, 2, 1), 2, 1)
	if dst.Pix[0] != 240 || dst.Pix[3] != 10 {
		t.Errorf("flipped=(%f,%f); want (240,10)", dst.Pix[0], dst.Pix[3])
	}
}

func TestDrawGeometryFlipV(t *testing.T) {
	src := raster.NewImage(1, 2)
	src.Pix[0], src.Pix[3] = 10, 240
	g := &state.GeometryState{CropW: 100, CropH: 100, FlipV: true, Smoothing: state.SmoothingFast}
	dst := drawGeometry(src, g, image.Rect(0, 0, 1, 2), 1, 2)
	if dst.Pix[0] != 240 || dst.Pix[3] != 10 {
		t.Errorf("flipped=(%f,%f); want (240,10)", dst.Pix[0], dst.Pix[3])
	}
}

func TestDrawGeometryRotate180(t *testing.T) {
	src := raster.NewImage(2, 2)
	src.Pix[0] = 10   // (0,0)
	src.Pix[3] = 60   // (1,0)
	src.Pix[6] = 120  // (0,1)
	src.Pix[9] = 240  // (1,1)
	g := &state.GeometryState{CropW: 100, CropH: 100, Rotate: 180, Smoothing: state.SmoothingFast}
	dst := drawGeometry(src, g, image.Rect(0, 0, 2, 2), 2, 2)
	if dst.Pix[0] != 240 || dst.Pix[3] != 120 || dst.Pix[6] != 60 || dst.Pix[9] != 10 {
		t.Errorf("rotated=(%f,%f,%f,%f); want (240,120,60,10)",
			dst.Pix[0], dst.Pix[3], dst.Pix[6], dst.Pix[9])
	}
}

func TestDrawGeometryCrop(t *testing.T) {
	// 4x4 with distinct quadrant values; cropping the top-left quadrant
	// at 1:1 scale must reproduce it exactly
	src := raster.NewImage(4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := float32(10)
			if x >= 2 {
				v = 60
			}
			if y >= 2 {
				v += 100
			}
			i := (y*4 + x) * 3
			src.Pix[i], src.Pix[i+1], src.Pix[i+2] = v, v, v
		}
	}
	g := &state.GeometryState{CropX: 0, CropY: 0, CropW: 50, CropH: 50, Smoothing: state.SmoothingFast}
	crop := cropRect(g, 4, 4)
	if crop != image.Rect(0, 0, 2, 2) {
		t.Fatalf("crop=%v; want (0,0)-(2,2)", crop)
	}
	dst := drawGeometry(src, g, crop, 2, 2)
	if dst.Width != 2 || dst.Height != 2 {
		t.Fatalf("dims %dx%d; want 2x2", dst.Width, dst.Height)
	}
	for i := 0; i < len(dst.Pix); i += 3 {
		if dst.Pix[i] != 10 {
			t.Errorf("pix[%d]=%f; want 10 from the top-left quadrant", i, dst.Pix[i])
		}
	}
}

func TestInterpolatorSelection(t *testing.T) {
	if interpolator(state.SmoothingFast) == nil ||
		interpolator(state.SmoothingGood) == nil ||
		interpolator(state.SmoothingBest) == nil ||
		interpolator(state.Smoothing("")) == nil {
		t.Errorf("interpolator returned nil for a smoothing level")
	}
}

func TestMulAffComposition(t *testing.T) {
	// translation after scaling: point (1,1) scaled by 2 then moved by (3,4)
	m := mulAff(translate(3, 4), [6]float64{2, 0, 0, 0, 2, 0})
	x := m[0]*1 + m[1]*1 + m[2]
	y := m[3]*1 + m[4]*1 + m[5]
	if x != 5 || y != 6 {
		t.Errorf("composed point=(%f,%f); want (5,6)", x, y)
	}
}
