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


package lut

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// A malformed .cube file. Callers treat this as a non-fatal warning and
// render without the LUT
var ErrInvalidLUT=errors.New("invalid cube LUT")

// A 3D color lookup table: a cubic lattice of Size^3 RGB samples in [0,1],
// stored row-major with R varying fastest, then G, then B, matching the
// .cube iteration order
type CubeLUT struct {
	Title string
	Size  int
	Table []float32 // len >= Size^3*3
}

// Parses a .cube format 3D LUT. Supports TITLE, LUT_3D_SIZE, DOMAIN_MIN and
// DOMAIN_MAX directives plus data rows of three floats; 1D LUTs are rejected
func ParseCube(r io.Reader) (*CubeLUT, error) {
	c:=&CubeLUT{}
	scanner:=bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	line:=0
	for scanner.Scan() {
		line++
		text:=strings.TrimSpace(scanner.Text())
		if text=="" || strings.HasPrefix(text, "#") { continue }
		fields:=strings.Fields(text)
		switch strings.ToUpper(fields[0]) {
		case "TITLE":
			c.Title=strings.Trim(strings.TrimSpace(text[len(fields[0]):]), `"`)
		case "LUT_3D_SIZE":
			if len(fields)!=2 { return nil, fmt.Errorf("%w: line %d: malformed LUT_3D_SIZE", ErrInvalidLUT, line) }
			size, err:=strconv.Atoi(fields[1])
			if err!=nil || size<2 || size>256 { return nil, fmt.Errorf("%w: line %d: bad lattice size %q", ErrInvalidLUT, line, fields[1]) }
			c.Size=size
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("%w: line %d: 1D LUTs are not supported", ErrInvalidLUT, line)
		case "DOMAIN_MIN", "DOMAIN_MAX":
			// nominal [0,1] domain assumed; directives accepted and ignored
		default:
			if len(fields)!=3 { return nil, fmt.Errorf("%w: line %d: expected 3 values, have %d", ErrInvalidLUT, line, len(fields)) }
			for _, field:=range fields {
				v, err:=strconv.ParseFloat(field, 32)
				if err!=nil || math.IsNaN(v) { return nil, fmt.Errorf("%w: line %d: bad value %q", ErrInvalidLUT, line, field) }
				c.Table=append(c.Table, float32(v))
			}
		}
	}
	if err:=scanner.Err(); err!=nil { return nil, err }
	if c.Size==0 { return nil, fmt.Errorf("%w: missing LUT_3D_SIZE", ErrInvalidLUT) }
	if len(c.Table)<c.Size*c.Size*c.Size*3 {
		return nil, fmt.Errorf("%w: table has %d values, need %d for size %d", ErrInvalidLUT, len(c.Table), c.Size*c.Size*c.Size*3, c.Size)
	}
	return c, nil
}

// Parses a .cube file from disk
func ParseCubeFile(fileName string) (*CubeLUT, error) {
	file, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer file.Close()
	return ParseCube(bufio.NewReader(file))
}

// Remaps an RGB triple in [0,255] through the lattice and returns the result
// in [0,255]. Nearest lattice index per channel, no trilinear interpolation
// between lattice points. A known fidelity limitation, visible as banding
// with very small lattices
func (c *CubeLUT) Lookup(r, g, b float32) (float32, float32, float32) {
	n:=c.Size
	ri:=nearestIndex(r, n)
	gi:=nearestIndex(g, n)
	bi:=nearestIndex(b, n)
	i:=((bi*n+gi)*n + ri)*3 // R varies fastest per .cube order
	return c.Table[i]*255, c.Table[i+1]*255, c.Table[i+2]*255
}

func nearestIndex(v float32, n int) int {
	i:=int(v*(1.0/255.0)*float32(n-1) + 0.5)
	if i<0 { i=0 }
	if i>n-1 { i=n-1 }
	return i
}
