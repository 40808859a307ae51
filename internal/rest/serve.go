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


package rest

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"github.com/gin-gonic/gin"

	"github.com/mlnoga/daylight/internal/lut"
	"github.com/mlnoga/daylight/internal/raster"
	"github.com/mlnoga/daylight/internal/render"
	"github.com/mlnoga/daylight/internal/state"
	"github.com/mlnoga/daylight/web"
)

// Serves the editor UI and the render API on the given address
func Serve(addr string, ctx *render.Context) error {
	r:=gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})
	r.StaticFS("/js", web.JavascriptFS())
	api:=r.Group("/api")
	{
		v1:=api.Group("/v1")
		{
			v1.GET ("/ping",   getPing)
			v1.POST("/render", func(c *gin.Context) { postRender(c, ctx) })
		}
	}
	return r.Run(addr)
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// Accepts a multipart form with an "image" file, a "state" edit state JSON
// document, and an optional "lut" .cube file. Renders in export mode and
// streams the encoded result back
func postRender(c *gin.Context, ctx *render.Context) {
	imgFile, err:=c.FormFile("image")
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image: "+err.Error()})
		return
	}
	reader, err:=imgFile.Open()
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer reader.Close()
	decoded, _, err:=image.Decode(reader)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "undecodable image: "+err.Error()})
		return
	}

	st:=state.Defaults()
	if raw:=c.PostForm("state"); raw!="" {
		st, err=state.Decode(strings.NewReader(raw))
		if err!=nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad edit state: "+err.Error()})
			return
		}
	}

	// malformed LUTs degrade to a warning, the render proceeds without them
	var cube *lut.CubeLUT
	warning:=""
	if lutFile, err:=c.FormFile("lut"); err==nil {
		lutReader, err:=lutFile.Open()
		if err==nil {
			defer lutReader.Close()
			cube, err=lut.ParseCube(lutReader)
			if err!=nil {
				if !errors.Is(err, lut.ErrInvalidLUT) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				cube=nil
				warning=err.Error()
			}
		}
	}

	req:=&render.Request{
		ID    : 1,
		Mode  : render.Export,
		Source: raster.FromImage(decoded),
		State : st,
		LUT   : cube,
	}
	res, err:=render.Render(req, ctx)
	if err!=nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if warning!="" { c.Header("X-Daylight-Warning", warning) }
	w:=c.Writer
	switch st.Export.Format {
	case "png":
		c.Header("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		err=res.Image.WritePNG(w)
	default:
		c.Header("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		err=res.Image.WriteJPG(w, st.Export.Quality, true)
	}
	if err!=nil {
		fmt.Fprintf(ctx.Log, "error encoding render response: %s\n", err.Error())
	}
}
