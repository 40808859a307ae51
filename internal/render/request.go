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
	"sync"
	"github.com/mlnoga/daylight/internal/lut"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/state"
)

// Render quality mode
type Mode int

const (
	Interactive Mode=iota // downsampled, detail stage skipped
	Final                 // full quality at target dimensions
	Export                // full quality plus export sizing and color space
)

func (m Mode) String() string {
	switch m {
	case Interactive: return "interactive"
	case Final:       return "final"
	case Export:      return "export"
	}
	return "unknown"
}

// A single render request. Exclusively owned by whichever execution context
// processes it. The source image must be released exactly once after use,
// regardless of success or failure
type Request struct {
	ID         uint64           // monotonic, assigned by the dispatch client
	Mode       Mode
	Source     *raster.Image    // owned until released
	OrigWidth  int              // dimensions of the full-size original,
	OrigHeight int              // when Source is a downsampled proxy
	State      *state.EditState // read-only snapshot
	LUT        *lut.CubeLUT     // optional 3D LUT

	Release     func() // resource release hook, may be nil
	releaseOnce sync.Once
}

// Releases the source image. Safe to call more than once; the hook runs
// exactly once
func (r *Request) ReleaseSource() {
	r.releaseOnce.Do(func() {
		if r.Release!=nil { r.Release() }
	})
}

// A completed render. Ownership of the image transfers to the receiver;
// discarded stale results are released by the dispatch client instead
type Response struct {
	ID     uint64
	Image  *raster.Image
	Width  int
	Height int
}
