package retouch

import (
	"context"
	"image"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/esimov/retouch/utils"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Script is a recorded editing session replayed on an Editor.
//
//	[[step]]
//	op = "fill"
//	x = 10
//	y = 20
//	color = "#ff0000"
type Script struct {
	Steps []Step `toml:"step"`
}

// Step is a single tool invocation. Fields not used by the operation are
// ignored; unset tool settings fall back to the editor configuration.
type Step struct {
	// Op is one of fill, fill-selection, wand, select, select-all,
	// deselect, heal, inpaint, layer, move, undo or redo.
	Op string `toml:"op"`

	X int `toml:"x"`
	Y int `toml:"y"`
	// Source point of the heal brush.
	SX int `toml:"sx"`
	SY int `toml:"sy"`
	// Additional dabs of a heal stroke, after the one at (x, y).
	Points [][2]int `toml:"points"`

	// Selection shape: rect or ellipse, with its size.
	Shape  string  `toml:"shape"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`

	// Layer offset delta of a move.
	DX float64 `toml:"dx"`
	DY float64 `toml:"dy"`

	Name      string   `toml:"name"`
	Color     string   `toml:"color"`
	Tolerance *uint8   `toml:"tolerance"`
	Merged    bool     `toml:"merged"`
	Size      int      `toml:"size"`
	Strength  *float64 `toml:"strength"`
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	s := new(Script)
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read script %q", path)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.Wrapf(err, "script %q", path)
	}
	return s, nil
}

// ParseScript decodes a script from r.
func ParseScript(r io.Reader) (*Script, error) {
	s := new(Script)
	md, err := toml.NewDecoder(r).Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse script")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, errors.Wrap(err, "script")
	}
	return s, nil
}

// RunScript replays the script steps in order. A failing step does not
// stop the session: the errors of all failed steps are combined.
func RunScript(ctx context.Context, e *Editor, s *Script) error {
	var errs error
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := runStep(ctx, e, st); err != nil {
			Logger().Warn("script step failed", zap.Int("step", i), zap.String("op", st.Op), zap.Error(err))
			errs = multierr.Append(errs, errors.Wrapf(err, "step %d (%s)", i, st.Op))
			continue
		}
		Logger().Debug("script step", zap.Int("step", i), zap.String("op", st.Op))
	}
	return errs
}

func runStep(ctx context.Context, e *Editor, st Step) error {
	pt := image.Pt(st.X, st.Y)
	cfg := e.Config()

	switch st.Op {
	case "fill", "fill-selection":
		c, err := utils.HexToRGBA(st.Color)
		if err != nil {
			return err
		}
		fc := cfg.Fill
		if st.Tolerance != nil {
			fc.Tolerance = *st.Tolerance
		}
		fc.SampleMerged = fc.SampleMerged || st.Merged
		fc.Whole = st.Op == "fill-selection"
		_, err = e.Fill(pt, c, fc)
		return err
	case "wand":
		wc := cfg.Wand
		if st.Tolerance != nil {
			wc.Tolerance = *st.Tolerance
		}
		wc.SampleMerged = wc.SampleMerged || st.Merged
		_, err := e.MagicWand(pt, wc)
		return err
	case "select":
		x, y := float64(st.X), float64(st.Y)
		switch st.Shape {
		case "", "rect":
			e.Select(NewRectSelection(x, y, st.Width, st.Height))
		case "ellipse":
			e.Select(NewEllipseSelection(x, y, st.Width, st.Height))
		default:
			return errors.Errorf("unknown selection shape %q", st.Shape)
		}
	case "select-all":
		e.SelectAll()
	case "deselect":
		e.Deselect()
	case "heal":
		opts, err := cfg.Heal.Options()
		if err != nil {
			return err
		}
		if st.Size > 0 {
			opts.Size = st.Size
		}
		if st.Strength != nil {
			opts.Strength = *st.Strength
		}
		stroke, err := e.BeginHeal(image.Pt(st.SX, st.SY), opts)
		if err != nil {
			return err
		}
		stroke.Dab(pt)
		for _, p := range st.Points {
			stroke.Dab(image.Pt(p[0], p[1]))
		}
		stroke.End()
	case "inpaint":
		_, err := e.ContentAwareFill(ctx, cfg.Inpaint.Options())
		return err
	case "layer":
		_, err := e.AddLayer(st.Name)
		return err
	case "move":
		id := e.Document().ActiveLayerID()
		if id == "" {
			return ErrNoActiveLayer
		}
		drag, err := e.BeginMove(id)
		if err != nil {
			return err
		}
		drag.Drag(Vec{st.DX, st.DY})
		drag.End()
	case "undo":
		e.Undo()
	case "redo":
		e.Redo()
	default:
		return errors.Wrapf(ErrUnknownStep, "%q", st.Op)
	}
	return nil
}
