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
	"image"
	"runtime"
)

// A decoded raster image. Pixels are interleaved RGB float32 triples in
// nominal range [0,255]. Intermediate pipeline stages may move values outside
// that range; quantization clamps at the very end
type Image struct {
	Width  int
	Height int
	Pix    []float32 // len=Width*Height*3
}

// Creates an image of the given dimensions with zeroed pixels
func NewImage(width, height int) *Image {
	return &Image{
		Width : width,
		Height: height,
		Pix   : make([]float32, width*height*3),
	}
}

// Creates an image filled with the given uniform color
func NewUniformImage(width, height int, r, g, b float32) *Image {
	f:=NewImage(width, height)
	for i:=0; i<len(f.Pix); i+=3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2]=r, g, b
	}
	return f
}

// Converts a decoded Go image into a raster image
func FromImage(src image.Image) *Image {
	bounds:=src.Bounds()
	f:=NewImage(bounds.Dx(), bounds.Dy())
	i:=0
	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			r, g, b, _:=src.At(x, y).RGBA()
			f.Pix[i  ]=float32(r>>8)
			f.Pix[i+1]=float32(g>>8)
			f.Pix[i+2]=float32(b>>8)
			i+=3
		}
	}
	return f
}

// Returns a deep copy of the image
func (f *Image) Clone() *Image {
	c:=&Image{Width: f.Width, Height: f.Height, Pix: make([]float32, len(f.Pix))}
	copy(c.Pix, f.Pix)
	return c
}

// Returns the RGB value at the given coordinate, with indices clamped to the
// image border (reflect-at-border via clamped indices, no wraparound)
func (f *Image) AtClamped(x, y int) (r, g, b float32) {
	if x<0 { x=0 }
	if x>=f.Width { x=f.Width-1 }
	if y<0 { y=0 }
	if y>=f.Height { y=f.Height-1 }
	i:=(y*f.Width + x)*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Applies the given function to bands of rows in parallel across all CPUs.
// The function receives the half-open row range [y0,y1) to process
func (f *Image) ApplyRows(fn func(y0, y1 int)) {
	// split into 8*NumCPU() work packages, limit parallelism to NumCPUs()
	numBatches:=8*runtime.NumCPU()
	batchRows :=(f.Height+numBatches-1)/numBatches
	if batchRows<1 { batchRows=1 }
	sem       :=make(chan bool, runtime.NumCPU())
	for y0:=0; y0<f.Height; y0+=batchRows {
		y1:=y0+batchRows
		if y1>f.Height { y1=f.Height }

		sem <- true
		go func(y0, y1 int) {
			fn(y0, y1)
			<-sem
		}(y0, y1)
	}

	for i:=0; i<cap(sem); i++ {  // wait for goroutines to finish
		sem <- true
	}
}

// A per-pixel function operating on one interleaved RGB triple
type PixelFunc func(r, g, b float32) (float32, float32, float32)

// Applies the given pixel function to every pixel in parallel. Operates in-place
func (f *Image) ApplyPixelFunc(pf PixelFunc) {
	width:=f.Width
	f.ApplyRows(func(y0, y1 int) {
		for i:=y0*width*3; i<y1*width*3; i+=3 {
			f.Pix[i], f.Pix[i+1], f.Pix[i+2]=pf(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
		}
	})
}
