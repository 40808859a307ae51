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
	"io"
	"runtime"
	"github.com/pbnjay/memory"
)

// Default pixel budget for interactive renders on a well-equipped machine
const defaultInteractivePixels=2200*1000

// Interactive renders never exceed this fraction of the requested output scale
const interactiveMaxScale=0.82

// An execution context for renders
type Context struct {
	Log               io.Writer
	MaxThreads        int
	MemoryMB          int // memory.TotalMemory()/1024/1024
	InteractivePixels int // downsampling budget for interactive renders
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)
	pixels:=defaultInteractivePixels
	if memoryMB>0 && memoryMB<2048 {
		pixels=pixels*memoryMB/2048 // shrink previews on small machines
	}
	return &Context{
		Log              : log,
		MaxThreads       : runtime.GOMAXPROCS(0),
		MemoryMB         : memoryMB,
		InteractivePixels: pixels,
	}
}
