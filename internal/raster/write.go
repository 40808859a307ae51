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
	"bufio"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"github.com/valyala/fastrand"
)

// Quantizes the image to an 8-bit RGBA Go image, clamping to [0,255].
// With dither enabled, adds triangular noise of +-0.5 levels before rounding
// to avoid banding in smooth gradients on export
func (f *Image) ToRGBA(dither bool) *image.RGBA {
	img:=image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	rng:=fastrand.RNG{}
	quant:=func(v float32) uint8 {
		if dither {
			n:=(float32(rng.Uint32n(1024))+float32(rng.Uint32n(1024)))*(1.0/1024.0) - 1.0
			v+=n*0.5
		}
		v=float32(math.Floor(float64(v)+0.5))
		if v<0 { v=0 }
		if v>255 { v=255 }
		// replace NaNs with zeros for export, else encoder output breaks
		if math.IsNaN(float64(v)) { v=0 }
		return uint8(v)
	}
	i:=0
	for y:=0; y<f.Height; y++ {
		for x:=0; x<f.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: quant(f.Pix[i]),
				G: quant(f.Pix[i+1]),
				B: quant(f.Pix[i+2]),
				A: 255,
			})
			i+=3
		}
	}
	return img
}

// Writes the image as JPEG with the given quality in [0,100]
func (f *Image) WriteJPG(w io.Writer, quality int, dither bool) error {
	return jpeg.Encode(w, f.ToRGBA(dither), &jpeg.Options{Quality: quality})
}

// Writes the image as JPEG to the named file
func (f *Image) WriteJPGToFile(fileName string, quality int, dither bool) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()
	w:=bufio.NewWriter(file)
	defer w.Flush()
	return f.WriteJPG(w, quality, dither)
}

// Writes the image as PNG
func (f *Image) WritePNG(w io.Writer) error {
	return png.Encode(w, f.ToRGBA(false))
}

// Writes the image as PNG to the named file
func (f *Image) WritePNGToFile(fileName string) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()
	w:=bufio.NewWriter(file)
	defer w.Flush()
	return f.WritePNG(w)
}
