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
	"errors"
	"fmt"
	"sort"
	"gonum.org/v1/gonum/interp"
)

// A user-editable control point of a tone curve, in [0,255]x[0,255] space
type CurvePoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// A 256-entry tone mapping lookup table over input levels [0,255]
type LUT [256]float32

// The identity tone curve
var identityPoints=[]CurvePoint{{0, 0}, {255, 255}}

// Returns the identity lookup table
func IdentityLUT() *LUT {
	l, _:=BuildLUT(identityPoints)
	return l
}

// Returns true if the given curve maps every level to itself
func (l *LUT) IsIdentity() bool {
	for i, v:=range l {
		if v!=float32(i) { return false }
	}
	return true
}

// Builds a 256-entry lookup table from the given curve control points via
// piecewise linear interpolation. Points are sorted ascending by x before use;
// duplicate x values from user edits are tolerated by nudging. Input levels
// outside the curve span clamp to the nearest endpoint y. At least two points
// are required
func BuildLUT(points []CurvePoint) (*LUT, error) {
	if len(points)<2 { return nil, errors.New(fmt.Sprintf("tone curve needs at least 2 control points, have %d", len(points))) }

	sorted:=append([]CurvePoint(nil), points...) // caller-owned state stays untouched
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X<sorted[j].X })

	xs:=make([]float64, len(sorted))
	ys:=make([]float64, len(sorted))
	for i, p:=range sorted {
		xs[i]=float64(p.X)
		ys[i]=float64(p.Y)
		if i>0 && xs[i]<=xs[i-1] { xs[i]=xs[i-1]+1e-3 } // strictly increasing for the interpolator
	}

	var pl interp.PiecewiseLinear
	if err:=pl.Fit(xs, ys); err!=nil { return nil, err }

	lut:=LUT{}
	for i:=0; i<256; i++ {
		lut[i]=Clamp(float32(pl.Predict(float64(i))))
	}
	return &lut, nil
}
