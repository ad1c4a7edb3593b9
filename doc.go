/*
Package retouch is the editing engine of a layered image editor: a snapshot
based undo/redo history, a copy-on-write layer document, and the pixel region
tools built on top of them: tolerance based flood fill, magic wand selection,
frequency decomposition healing and PatchMatch content aware fill.

The package provides a command line interface applying a single tool or a
TOML script of editing steps to an image. To check the supported commands type:

	$ retouch --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"image"
		"image/color"

		"github.com/esimov/retouch"
	)

	func main() {
		e := retouch.NewEditor(nil)
		e.New(64, 64, color.NRGBA{R: 0xff, A: 0xff})

		blue := color.NRGBA{B: 0xff, A: 0xff}
		if _, err := e.Fill(image.Pt(10, 10), blue, retouch.FillConfig{}); err != nil {
			panic(err)
		}
		e.Undo()
	}
*/
package retouch
