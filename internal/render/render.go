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
	"errors"
	"fmt"
	"math"
	"github.com/mlnoga/daylight/internal/colormath"
)

// No usable source or drawing surface for this render call. Fatal for the
// call, surfaced to the caller
var ErrRenderUnavailable=errors.New("render unavailable")

// Runs the full adjustment pipeline on the request's source image and returns
// the transformed output. The single pipeline implementation invoked
// identically from the worker and from synchronous fallback, so both paths
// cannot drift apart. Releases the request's source exactly once on every
// path, including errors
func Render(req *Request, c *Context) (res *Response, err error) {
	defer req.ReleaseSource()

	if req.Source==nil || len(req.Source.Pix)==0 || req.Source.Width<1 || req.Source.Height<1 {
		return nil, ErrRenderUnavailable
	}
	st:=req.State
	if st==nil { return nil, errors.New("render request without edit state") }
	if err:=st.Validate(); err!=nil { return nil, err }

	crop:=cropRect(&st.Geometry, req.Source.Width, req.Source.Height)
	outW, outH:=outputDims(req, c, crop.Dx(), crop.Dy())
	if outW<1 || outH<1 { return nil, ErrRenderUnavailable }

	// geometry first: all pixel stages operate on the cropped, transformed buffer
	working:=drawGeometry(req.Source, &st.Geometry, crop, outW, outH)

	NewToneStage(&st.Tone).Apply(working)
	NewGradeStage(&st.Color, &st.Grading).Apply(working)

	detail, err:=NewDetailStage(st, req.Mode!=Interactive)
	if err!=nil { return nil, err }
	detail.Apply(working)

	NewFinishStage(req.LUT, &st.Geometry).Apply(working)

	if req.Mode==Export {
		applyColorSpace(working, st.Export.ColorSpace)
	}

	for i, v:=range working.Pix {
		working.Pix[i]=colormath.Clamp(v)
	}

	if c.Log!=nil {
		fmt.Fprintf(c.Log, "%d: Rendered %dx%d -> %dx%d in %s mode\n",
		            req.ID, req.Source.Width, req.Source.Height, outW, outH, req.Mode)
	}
	return &Response{ID: req.ID, Image: working, Width: outW, Height: outH}, nil
}

// Computes output dimensions from crop, explicit targets, export resize and
// the render mode. Interactive renders are additionally capped by the
// context's pixel budget and a fixed maximum scale for responsiveness
func outputDims(req *Request, c *Context, cropW, cropH int) (int, int) {
	st:=req.State
	outW, outH:=cropW, cropH

	if st.Geometry.Width>0 && st.Geometry.Height>0 {
		outW, outH=st.Geometry.Width, st.Geometry.Height
	}

	switch req.Mode {
	case Export:
		if st.Export.ResizeW>0 && st.Export.ResizeH>0 {
			return st.Export.ResizeW, st.Export.ResizeH
		}
		// derive from crop aspect at the original's scale when the source
		// is a downsampled proxy
		if req.OrigWidth>0 && req.OrigWidth>req.Source.Width {
			scale:=float64(req.OrigWidth)/float64(req.Source.Width)
			return int(float64(outW)*scale + 0.5), int(float64(outH)*scale + 0.5)
		}
	case Interactive:
		scale:=interactiveMaxScale
		if budget:=c.InteractivePixels; budget>0 {
			if s:=math.Sqrt(float64(budget)/float64(outW*outH)); s<scale { scale=s }
		}
		outW=int(float64(outW)*scale + 0.5)
		outH=int(float64(outH)*scale + 0.5)
	}
	return outW, outH
}
