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
	"testing"

	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

func TestRenderNeutralIdentity(t *testing.T) {
	src := raster.NewImage(6, 4)
	for i := range src.Pix {
		src.Pix[i] = float32((i * 41) % 256)
	}
	req := &Request{ID: 1, Mode: Final, Source: src.Clone(), State: state.Defaults()}
	res, err := Render(req, &Context{})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if res.Width != 6 || res.Height != 4 {
		t.Fatalf("dims %dx%d; want 6x4", res.Width, res.Height)
	}
	for i := range src.Pix {
		if res.Image.Pix[i] != src.Pix[i] {
			t.Fatalf("pix[%d]=%f; want %f, neutral state must be the identity", i, res.Image.Pix[i], src.Pix[i])
		}
	}
}

func TestRenderExposureEndToEnd(t *testing.T) {
	// +1 stop on uniform gray 128 saturates every pixel: 128*2=256 clamps to 255
	src := raster.NewUniformImage(4, 4, 128, 128, 128)
	st := state.Defaults()
	st.Tone.Exposure = 1
	req := &Request{ID: 1, Mode: Final, Source: src, State: st}
	res, err := Render(req, &Context{})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if res.Width != 4 || res.Height != 4 {
		t.Fatalf("dims %dx%d; want 4x4", res.Width, res.Height)
	}
	for i, v := range res.Image.Pix {
		if v != 255 {
			t.Fatalf("pix[%d]=%f; want 255", i, v)
		}
	}
}

func TestRenderVignetteFalloff(t *testing.T) {
	src := raster.NewUniformImage(9, 9, 200, 200, 200)
	st := state.Defaults()
	st.Geometry.Vignette = 50
	req := &Request{ID: 1, Mode: Final, Source: src, State: st}
	res, err := Render(req, &Context{})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	at := func(x, y int) float32 { return res.Image.Pix[(y*9+x)*3] }

	center, mid, corner := at(4, 4), at(2, 2), at(0, 0)
	if math.Abs(float64(center-200)) > 0.01 {
		t.Errorf("center=%f; want 200, zero falloff at distance 0", center)
	}
	if !(center > mid && mid > corner) {
		t.Errorf("falloff %f > %f > %f violated; want monotonic darkening with distance", center, mid, corner)
	}
	if corner > 150 {
		t.Errorf("corner=%f; want strong darkening near distance 1", corner)
	}

	// full-strength vignette: corners darken towards zero, center untouched
	st.Geometry.Vignette = 100
	req = &Request{ID: 2, Mode: Final, Source: raster.NewUniformImage(9, 9, 200, 200, 200), State: st}
	if res, err = Render(req, &Context{}); err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if math.Abs(float64(at(4, 4)-200)) > 0.01 {
		t.Errorf("center=%f at full vignette; want 200", at(4, 4))
	}
	if at(0, 0) > 60 {
		t.Errorf("corner=%f at full vignette; want near zero", at(0, 0))
	}
}

func TestRenderReleasesSourceOnce(t *testing.T) {
	released := 0
	src := raster.NewUniformImage(2, 2, 1, 2, 3)
	req := &Request{ID: 1, Mode: Final, Source: src, State: state.Defaults(),
		Release: func() { released++ }}
	if _, err := Render(req, &Context{}); err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if released != 1 {
		t.Fatalf("released %d times; want 1", released)
	}
	req.ReleaseSource() // repeated release stays a no-op
	if released != 1 {
		t.Errorf("released %d times after repeat; want 1", released)
	}
}

func TestRenderReleasesSourceOnFailure(t *testing.T) {
	released := 0
	st := state.Defaults()
	st.Advanced.Gamma = -1 // fails validation
	req := &Request{ID: 1, Mode: Final, Source: raster.NewUniformImage(2, 2, 0, 0, 0),
		State: st, Release: func() { released++ }}
	if _, err := Render(req, &Context{}); err == nil {
		t.Fatalf("Render with invalid state succeeded; want error")
	}
	if released != 1 {
		t.Errorf("released %d times on failure; want 1", released)
	}
}

func TestRenderRejectsMissingSource(t *testing.T) {
	req := &Request{ID: 1, Mode: Final, State: state.Defaults()}
	if _, err := Render(req, &Context{}); err != ErrRenderUnavailable {
		t.Errorf("err=%v; want ErrRenderUnavailable", err)
	}
}

func TestOutputDims(t *testing.T) {
	c := &Context{InteractivePixels: 10000}
	base := func(mode Mode) *Request {
		return &Request{Mode: mode, State: state.Defaults(),
			Source: &raster.Image{Width: 1000, Height: 800, Pix: make([]float32, 3)}}
	}

	// final: crop dimensions pass through
	if w, h := outputDims(base(Final), c, 1000, 800); w != 1000 || h != 800 {
		t.Errorf("final dims %dx%d; want 1000x800", w, h)
	}

	// explicit target dimensions override
	req := base(Final)
	req.State.Geometry.Width, req.State.Geometry.Height = 640, 480
	if w, h := outputDims(req, c, 1000, 800); w != 640 || h != 480 {
		t.Errorf("target dims %dx%d; want 640x480", w, h)
	}

	// export resize wins over everything
	req = base(Export)
	req.State.Export.ResizeW, req.State.Export.ResizeH = 320, 240
	if w, h := outputDims(req, c, 1000, 800); w != 320 || h != 240 {
		t.Errorf("export resize %dx%d; want 320x240", w, h)
	}

	// export from a downsampled proxy scales back to original size
	req = base(Export)
	req.OrigWidth, req.OrigHeight = 4000, 3200
	if w, h := outputDims(req, c, 1000, 800); w != 4000 || h != 3200 {
		t.Errorf("proxy export %dx%d; want 4000x3200", w, h)
	}

	// interactive: pixel budget caps the scale; 10000 pixels from 1000x800
	// gives scale sqrt(1/80), about 112x89
	w, h := outputDims(base(Interactive), c, 1000, 800)
	if w*h > 11000 {
		t.Errorf("interactive dims %dx%d exceed the pixel budget", w, h)
	}
	if w < 100 || h < 80 {
		t.Errorf("interactive dims %dx%d; want about 112x89", w, h)
	}

	// interactive: small images still shrink by the fixed maximum scale
	w, h = outputDims(base(Interactive), c, 100, 80)
	if w != 82 || h != 66 {
		t.Errorf("interactive small dims %dx%d; want 82x66", w, h)
	}
}

func TestRenderInteractiveDownsamples(t *testing.T) {
	src := raster.NewUniformImage(100, 100, 128, 128, 128)
	req := &Request{ID: 1, Mode: Interactive, Source: src, State: state.Defaults()}
	res, err := Render(req, &Context{InteractivePixels: 1000 * 1000})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if res.Width != 82 || res.Height != 82 {
		t.Errorf("interactive dims %dx%d; want 82x82", res.Width, res.Height)
	}
}

func TestRenderExportColorSpace(t *testing.T) {
	src := raster.NewUniformImage(2, 2, 100, 100, 100)
	st := state.Defaults()
	st.Export.ColorSpace = "prophoto"
	req := &Request{ID: 1, Mode: Export, Source: src, State: st}
	res, err := Render(req, &Context{})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	// prophoto multipliers: r*1.05, g*0.98, b*1.01
	if math.Abs(float64(res.Image.Pix[0]-105)) > 0.01 ||
		math.Abs(float64(res.Image.Pix[1]-98)) > 0.01 ||
		math.Abs(float64(res.Image.Pix[2]-101)) > 0.01 {
		t.Errorf("prophoto=(%f,%f,%f); want (105,98,101)",
			res.Image.Pix[0], res.Image.Pix[1], res.Image.Pix[2])
	}

	// final mode renders skip the color space simulation
	req = &Request{ID: 2, Mode: Final, Source: raster.NewUniformImage(2, 2, 100, 100, 100), State: st}
	if res, err = Render(req, &Context{}); err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	if res.Image.Pix[0] != 100 {
		t.Errorf("final mode pix=%f; want 100 without color space remap", res.Image.Pix[0])
	}
}

func TestRenderClampsOutput(t *testing.T) {
	src := raster.NewUniformImage(2, 2, 240, 240, 240)
	st := state.Defaults()
	st.Tone.Brightness = 100
	req := &Request{ID: 1, Mode: Final, Source: src, State: st}
	res, err := Render(req, &Context{})
	if err != nil {
		t.Fatalf("Render: %s", err.Error())
	}
	for i, v := range res.Image.Pix {
		if v < 0 || v > 255 {
			t.Fatalf("pix[%d]=%f outside [0,255]", i, v)
		}
	}
}
