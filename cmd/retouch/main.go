package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/retouch"
	"github.com/esimov/retouch/utils"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const HelpBanner = `
┬─┐┌─┐┌┬┐┌─┐┬ ┬┌─┐┬ ┬
├┬┘├┤  │ │ ││ ││  ├─┤
┴└─└─┘ ┴ └─┘└─┘└─┘┴ ┴

Image retouching toolkit: fill, magic wand, heal and content aware fill.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination")
	configPath  = flag.String("config", "", "TOML configuration file")
	printConfig = flag.Bool("print-config", false, "Print the active configuration and exit")
	scriptPath  = flag.String("script", "", "TOML script of editing steps")
	opName      = flag.String("op", "", "Operation: fill, fill-selection, wand, heal, inpaint")
	posX        = flag.Int("x", 0, "Tool position X")
	posY        = flag.Int("y", 0, "Tool position Y")
	srcX        = flag.Int("sx", 0, "Heal source X")
	srcY        = flag.Int("sy", 0, "Heal source Y")
	fillColor   = flag.String("color", "#000000", "Fill color")
	tolerance   = flag.Int("tol", 32, "Color tolerance (0-255)")
	brushSize   = flag.Int("size", 0, "Heal brush size")
	strength    = flag.Float64("strength", 1, "Heal strength (0-1)")
	merged      = flag.Bool("merged", false, "Sample the merged document")
	rect        = flag.String("rect", "", "Selection rectangle applied before the operation: x,y,w,h")
	maskPath    = flag.String("mask", "", "Inpaint mask image, white marks the pixels to rebuild")
	verbose     = flag.Bool("v", false, "Verbose logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	var err error
	var l *zap.Logger
	if *verbose {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer l.Sync() //nolint:errcheck
	retouch.SetLogger(l)

	cfg := retouch.DefaultConfig()
	if *configPath != "" {
		if cfg, err = retouch.LoadConfig(*configPath); err != nil {
			log.Fatalf(utils.DecorateText("%v\n", utils.ErrorMessage), err)
		}
	}
	if *printConfig {
		if err := retouch.WriteConfig(os.Stdout, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *opName == "" && *scriptPath == "" {
		flag.Usage()
		log.Fatal(fmt.Sprintf("%s%s",
			utils.DecorateText("\nPlease provide an operation or a script!", utils.ErrorMessage),
			utils.DefaultColor,
		))
	}
	if *destination != pipeName && !isValidExtension(filepath.Ext(*destination)) {
		log.Fatalf(utils.DecorateText("%v file type not supported", utils.ErrorMessage), filepath.Ext(*destination))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := loadSource(ctx, *source)
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	editor := retouch.NewEditor(cfg)
	editor.Open(src.NRGBA(), filepath.Base(*source))

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ RETOUCH", utils.StatusMessage),
		utils.DecorateText("is editing the image...", utils.DefaultMessage))
	spinner := utils.NewSpinner(spinnerText, time.Millisecond*200, true)
	spinner.StopMsg = fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ RETOUCH", utils.StatusMessage),
		utils.DecorateText("is editing the image... ✔", utils.DefaultMessage))

	now := time.Now()
	spinner.Start()
	err = run(ctx, editor)
	spinner.Stop()

	if err == nil {
		err = writeResult(editor.Merged(), *destination)
	}
	printStatus(*destination, err)
	fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// run executes the script, or the single operation given by the flags.
func run(ctx context.Context, e *retouch.Editor) error {
	if *scriptPath != "" {
		script, err := retouch.LoadScript(*scriptPath)
		if err != nil {
			return err
		}
		return retouch.RunScript(ctx, e, script)
	}

	var steps []retouch.Step
	if *rect != "" {
		sel, err := parseRect(*rect)
		if err != nil {
			return err
		}
		steps = append(steps, sel)
	}
	if *opName == "inpaint" && *maskPath != "" {
		return inpaintMask(ctx, e, *maskPath)
	}

	step := retouch.Step{
		Op:       *opName,
		X:        *posX,
		Y:        *posY,
		SX:       *srcX,
		SY:       *srcY,
		Color:    *fillColor,
		Merged:   *merged,
		Size:     *brushSize,
		Strength: strength,
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "tol" {
			t := uint8(utils.Clamp(*tolerance, 0, 255))
			step.Tolerance = &t
		}
	})
	steps = append(steps, step)
	return retouch.RunScript(ctx, e, &retouch.Script{Steps: steps})
}

// inpaintMask rebuilds the pixels of the active layer marked by a mask image.
func inpaintMask(ctx context.Context, e *retouch.Editor, path string) error {
	m, err := retouch.DecodeFile(path)
	if err != nil {
		return err
	}
	layer := e.Document().ActiveLayer()
	if layer == nil || layer.Surface == nil {
		return retouch.ErrNotPixelLayer
	}
	if m.Width != layer.Surface.Width || m.Height != layer.Surface.Height {
		return fmt.Errorf("mask size %dx%d does not match the image size %dx%d",
			m.Width, m.Height, layer.Surface.Width, layer.Surface.Height)
	}
	mask := retouch.MaskFromSurface(retouch.Threshold(m))
	res, err := retouch.Inpaint(ctx, layer.Surface, mask, e.Config().Inpaint.Options())
	if err != nil {
		return err
	}
	return e.UpdateLayer(layer.ID, func(l *retouch.Layer) { l.Surface = res })
}

// parseRect converts a x,y,w,h string to a selection step.
func parseRect(s string) (retouch.Step, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return retouch.Step{}, fmt.Errorf("invalid rectangle %q, expected x,y,w,h", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return retouch.Step{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	return retouch.Step{Op: "select", X: v[0], Y: v[1], Width: float64(v[2]), Height: float64(v[3])}, nil
}

// loadSource decodes the source image from a URL, the standard input or a file.
func loadSource(ctx context.Context, in string) (*retouch.Surface, error) {
	switch {
	case utils.IsValidUrl(in):
		data, err := utils.FetchImage(ctx, in)
		if err != nil {
			return nil, err
		}
		return retouch.DecodeBytes(data)
	case in == pipeName:
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, errors.New("`-` should be used with a pipe for stdin")
		}
		return retouch.DecodeImage(os.Stdin)
	}
	return retouch.DecodeFile(in)
}

// writeResult encodes the merged document to the destination file or stdout.
func writeResult(s *retouch.Surface, out string) error {
	var (
		dst io.Writer
		ext string
	)
	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("unable to create the destination file: %v", err)
		}
		defer f.Close()
		dst, ext = f, filepath.Ext(out)
	}
	return retouch.EncodeImage(dst, s, ext)
}

// printStatus displays the outcome of the editing session.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError editing the image: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
		os.Exit(1)
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe edited image has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string) bool {
	return utils.Contains([]string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}, strings.ToLower(ext))
}
