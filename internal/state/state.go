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


package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"github.com/mlnoga/daylight/internal/colormath"
)

// Current version of the serialized edit state schema. Checked on decode so
// shape drift between producers and the render pipeline fails loudly
const CurrentVersion=1

// An immutable snapshot of all user adjustments. Produced externally, consumed
// read-only by the render pipeline; the pipeline never mutates it
type EditState struct {
	Version  int           `json:"version"`
	Tone     BasicTone     `json:"tone"`
	Curves   ToneCurves    `json:"curves"`
	Color    ColorState    `json:"color"`
	Grading  GradingState  `json:"grading"`
	Detail   DetailState   `json:"detail"`
	Geometry GeometryState `json:"geometry"`
	Advanced AdvancedState `json:"advanced"`
	Export   ExportState   `json:"export"`
}

// Pixel-local tone adjustments. Exposure is a stop count (exponential),
// the others are signed percentages
type BasicTone struct {
	Exposure   float32 `json:"exposure"`
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Highlights float32 `json:"highlights"`
	Shadows    float32 `json:"shadows"`
	Whites     float32 `json:"whites"`
	Blacks     float32 `json:"blacks"`
}

// Tone curves per channel, control points in [0,255]x[0,255]. Each curve must
// contain at least the two endpoints; points need not be sorted or unique in x
// after user edits, the LUT builder sorts before use
type ToneCurves struct {
	RGB []colormath.CurvePoint `json:"rgb"`
	R   []colormath.CurvePoint `json:"r"`
	G   []colormath.CurvePoint `json:"g"`
	B   []colormath.CurvePoint `json:"b"`
}

// A hue/saturation/luminance adjustment triple for one hue band
type HSLAdjust struct {
	Hue float32 `json:"hue"`
	Sat float32 `json:"sat"`
	Lum float32 `json:"lum"`
}

// Global color adjustments plus per-hue-band HSL correction, keyed by band
// name (red, orange, yellow, green, aqua, blue, purple, magenta)
type ColorState struct {
	Temperature float32              `json:"temperature"`
	Tint        float32              `json:"tint"`
	Vibrance    float32              `json:"vibrance"`
	Saturation  float32              `json:"saturation"`
	Bands       map[string]HSLAdjust `json:"bands"`
}

// One color wheel of the three-way grading: hue in [0,360), sat in [0,100],
// lum signed
type GradeWheel struct {
	Hue float32 `json:"hue"`
	Sat float32 `json:"sat"`
	Lum float32 `json:"lum"`
}

// Three-way (shadow/midtone/highlight) color grading, blended by luminance
type GradingState struct {
	Shadows    GradeWheel `json:"shadows"`
	Midtones   GradeWheel `json:"midtones"`
	Highlights GradeWheel `json:"highlights"`
}

// Local contrast and noise adjustments. Applied in full-quality renders only
type DetailState struct {
	SharpenAmount    float32 `json:"sharpenAmount"`
	SharpenRadius    float32 `json:"sharpenRadius"`
	SharpenThreshold float32 `json:"sharpenThreshold"`
	Clarity          float32 `json:"clarity"`
	Texture          float32 `json:"texture"`
	Dehaze           float32 `json:"dehaze"`
	NoiseLuma        float32 `json:"noiseLuma"`
	NoiseColor       float32 `json:"noiseColor"`
}

// Resampling quality for the geometric transform
type Smoothing string

const (
	SmoothingFast Smoothing="fast" // nearest neighbor
	SmoothingGood Smoothing="good" // approximate bilinear
	SmoothingBest Smoothing="best" // Catmull-Rom
)

// Geometric and radial adjustments. Crop values are percentages of the source
type GeometryState struct {
	CropX          float32   `json:"cropX"`
	CropY          float32   `json:"cropY"`
	CropW          float32   `json:"cropW"`
	CropH          float32   `json:"cropH"`
	Rotate         float32   `json:"rotate"` // degrees
	FlipH          bool      `json:"flipH"`
	FlipV          bool      `json:"flipV"`
	Width          int       `json:"width"`  // target dimensions, 0=derive from crop
	Height         int       `json:"height"`
	PerspectiveV   float32   `json:"perspectiveV"` // shear factors, percent
	PerspectiveH   float32   `json:"perspectiveH"`
	LensDistortion float32   `json:"lensDistortion"`
	Vignette       float32   `json:"vignette"`
	Smoothing      Smoothing `json:"smoothing"`
}

// Expert adjustments: gamma, 3x3 channel mixer with percentage weight rows,
// luminance-preserving lab mode, high pass and the edge preview diagnostic
type AdvancedState struct {
	Gamma       float32       `json:"gamma"`
	Mixer       [3][3]float32 `json:"mixer"`
	LabMode     bool          `json:"labMode"`
	HighPass    float32       `json:"highPass"`
	EdgePreview bool          `json:"edgePreview"`
}

// Output encoding parameters
type ExportState struct {
	Format     string `json:"format"`  // jpeg or png
	Quality    int    `json:"quality"` // [0,100]
	ResizeW    int    `json:"resizeW"` // resize-on-export, 0=off
	ResizeH    int    `json:"resizeH"`
	ColorSpace string `json:"colorSpace"`
}

var identityCurve=[]colormath.CurvePoint{{X: 0, Y: 0}, {X: 255, Y: 255}}

// Returns the neutral edit state: all adjustments are no-ops
func Defaults() *EditState {
	return &EditState{
		Version: CurrentVersion,
		Curves: ToneCurves{
			RGB: append([]colormath.CurvePoint(nil), identityCurve...),
			R  : append([]colormath.CurvePoint(nil), identityCurve...),
			G  : append([]colormath.CurvePoint(nil), identityCurve...),
			B  : append([]colormath.CurvePoint(nil), identityCurve...),
		},
		Color: ColorState{
			Bands: map[string]HSLAdjust{},
		},
		Geometry: GeometryState{
			CropW    : 100,
			CropH    : 100,
			Smoothing: SmoothingBest,
		},
		Advanced: AdvancedState{
			Gamma: 1,
			Mixer: [3][3]float32{{100, 0, 0}, {0, 100, 0}, {0, 0, 100}},
		},
		Export: ExportState{
			Format    : "jpeg",
			Quality   : 95,
			ColorSpace: "srgb",
		},
	}
}

// Unmarshal the type from JSON with default values for missing entries
func (s *EditState) UnmarshalJSON(data []byte) error {
	type defaults EditState
	def:=defaults( *Defaults() )
	err:=json.Unmarshal(data, &def)
	if err!=nil { return err }
	*s=EditState(def)
	return nil
}

// Decodes and validates an edit state from JSON
func Decode(r io.Reader) (*EditState, error) {
	s:=&EditState{}
	if err:=json.NewDecoder(r).Decode(s); err!=nil { return nil, err }
	if err:=s.Validate(); err!=nil { return nil, err }
	return s, nil
}

// Validates the edit state at the dispatch boundary
func (s *EditState) Validate() error {
	if s.Version!=CurrentVersion {
		return errors.New(fmt.Sprintf("unsupported edit state version %d, want %d", s.Version, CurrentVersion))
	}
	if s.Advanced.Gamma<=0 {
		return errors.New(fmt.Sprintf("gamma must be positive, have %g", s.Advanced.Gamma))
	}
	for name, curve:=range map[string][]colormath.CurvePoint{"rgb": s.Curves.RGB, "r": s.Curves.R, "g": s.Curves.G, "b": s.Curves.B} {
		if len(curve)<2 {
			return errors.New(fmt.Sprintf("tone curve %s has %d control points, need at least 2", name, len(curve)))
		}
	}
	for name:=range s.Color.Bands {
		if !isBandName(name) { return errors.New(fmt.Sprintf("unknown hue band %q", name)) }
	}
	if s.Geometry.CropW<=0 || s.Geometry.CropH<=0 {
		return errors.New(fmt.Sprintf("crop dimensions must be positive, have %gx%g%%", s.Geometry.CropW, s.Geometry.CropH))
	}
	return nil
}

func isBandName(name string) bool {
	for _, b:=range colormath.BandNames {
		if b==name { return true }
	}
	return false
}
