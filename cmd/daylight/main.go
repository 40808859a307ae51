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

package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/mlnoga/daylight/internal/dispatch"
	"github.com/mlnoga/daylight/internal/lut"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/render"
	"github.com/mlnoga/daylight/internal/rest"
	"github.com/mlnoga/daylight/internal/state"
)

const version = "0.1.2"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var out     = flag.String("out", "out.jpg", "save output to `file`, suffix selects JPEG or PNG")
var log     = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of output file with .log")
var stateF  = flag.String("state", "", "apply edit state from JSON `file`, blank for neutral state")
var lutF    = flag.String("lut", "", "apply 3D LUT from .cube `file`")
var mode    = flag.String("mode", "export", "render quality mode, one of interactive, final, export")
var quality = flag.Int("quality", 95, "JPEG quality in [0,100]")
var dither  = flag.Bool("dither", true, "dither on 8-bit quantization to avoid banding")
var addr    = flag.String("addr", ":8080", "listen address for the serve command")

func main() {
	start:=time.Now()
	flag.Usage=func(){
		fmt.Printf(`Daylight Copyright (c) 2025 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (render|serve|version) (input.jpg)

Commands:
  render  Apply the edit state to the input image and save the result
  serve   Start the REST API server
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		if *out!="" {
			*log=strings.TrimSuffix(*out, filepath.Ext(*out))+".log"
		} else {
			*log=""
		}
	}
	logWriter:=io.Writer(os.Stdout)
	if *log!="" {
		f, err:=os.Create(*log)
		if err!=nil {
			fmt.Printf("Unable to open logfile '%s': %s\n", *log, err.Error())
			os.Exit(1)
		}
		defer f.Close()
		logWriter=io.MultiWriter(os.Stdout, f)
	}

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil {
			fmt.Fprintf(logWriter, "Could not create CPU profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil {
			fmt.Fprintf(logWriter, "Could not start CPU profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	ctx:=render.NewContext(logWriter)
	switch args[0] {
	case "render":
		if len(args)<2 {
			fmt.Fprintf(logWriter, "render requires an input image\n")
			os.Exit(1)
		}
		if err:=runRender(ctx, args[1]); err!=nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
	case "serve":
		fmt.Fprintf(logWriter, "Daylight %s serving on %s\n", version, *addr)
		if err:=rest.Serve(*addr, ctx); err!=nil {
			fmt.Fprintf(logWriter, "error: %s\n", err.Error())
			os.Exit(1)
		}
	case "version":
		fmt.Fprintf(logWriter, "Daylight version %s\n", version)
	default:
		flag.Usage()
		os.Exit(1)
	}

	// Write memory profile if flagged
	if *memprofile!="" {
		f, err:=os.Create(*memprofile)
		if err!=nil {
			fmt.Fprintf(logWriter, "Could not create memory profile: %s\n", err.Error())
			os.Exit(1)
		}
		defer f.Close()
		runtime.GC()
		if err:=pprof.WriteHeapProfile(f); err!=nil {
			fmt.Fprintf(logWriter, "Could not write memory profile: %s\n", err.Error())
			os.Exit(1)
		}
	}
}

func runRender(ctx *render.Context, inputFile string) error {
	st:=state.Defaults()
	if *stateF!="" {
		f, err:=os.Open(*stateF)
		if err!=nil { return err }
		st, err=state.Decode(f)
		f.Close()
		if err!=nil { return err }
	}
	st.Export.Quality=*quality

	// malformed LUT files are a warning, not an error; render proceeds without
	var cube *lut.CubeLUT
	if *lutF!="" {
		var err error
		cube, err=lut.ParseCubeFile(*lutF)
		if err!=nil {
			if !errors.Is(err, lut.ErrInvalidLUT) { return err }
			fmt.Fprintf(ctx.Log, "Warning: %s, continuing without LUT\n", err.Error())
			cube=nil
		}
	}

	renderMode, err:=parseMode(*mode)
	if err!=nil { return err }

	source:=func() (*raster.Image, error) {
		f, err:=os.Open(inputFile)
		if err!=nil { return nil, err }
		defer f.Close()
		decoded, _, err:=image.Decode(f)
		if err!=nil { return nil, err }
		return raster.FromImage(decoded), nil
	}

	client:=dispatch.NewClient(ctx)
	defer client.Stop()
	res, err:=client.Render(source, st, renderMode, cube)
	if err!=nil { return err }

	fmt.Fprintf(ctx.Log, "Writing %dx%d pixel output to %s\n", res.Width, res.Height, *out)
	if strings.HasSuffix(strings.ToLower(*out), ".png") {
		return res.Image.WritePNGToFile(*out)
	}
	return res.Image.WriteJPGToFile(*out, *quality, *dither)
}

func parseMode(s string) (render.Mode, error) {
	switch s {
	case "interactive": return render.Interactive, nil
	case "final":       return render.Final, nil
	case "export":      return render.Export, nil
	}
	return render.Final, errors.New(fmt.Sprintf("unknown render mode %q", s))
}
