package retouch

import (
	"github.com/esimov/retouch/imop"
	"go.uber.org/zap"
)

// Merge flattens the visible layers of the document onto a transparent
// canvas sized surface, from the bottom layer to the topmost one. Layer
// opacity and blend mode are honored; a group is flattened on its own
// before being composited with its opacity and blend mode. Layer offsets
// are rounded to whole pixels.
func Merge(doc *Document) *Surface {
	w, h := doc.Size()
	dst := NewSurface(w, h)
	merge(doc, dst, doc.order)
	Logger().Debug("merge", zap.Uint64("revision", doc.Revision()), zap.Int("layers", doc.Len()))
	return dst
}

// merge composites the layers listed in ids, topmost first, onto dst.
func merge(doc *Document, dst *Surface, ids []string) {
	for i := len(ids) - 1; i >= 0; i-- {
		l := doc.layers[ids[i]]
		if !l.Visible || l.Opacity <= 0 {
			continue
		}
		src, at := l.Surface, l.Offset().Round()
		if l.IsGroup() {
			src = NewSurface(dst.Width, dst.Height)
			merge(doc, src, l.Children)
			at.X, at.Y = 0, 0
		}
		if src == nil {
			continue
		}
		imop.DrawAt(dst.NRGBA(), src.NRGBA(), at, float64(l.Opacity)/100, layerBlend(l))
	}
}

// layerBlend returns the blend mode of the layer, nil for the normal mode
// or an unknown one.
func layerBlend(l *Layer) *imop.Blend {
	if l.BlendMode == "" || l.BlendMode == imop.Normal {
		return nil
	}
	b := imop.NewBlend()
	if err := b.Set(l.BlendMode); err != nil {
		Logger().Warn("merge: ignoring blend mode", zap.String("layer", l.ID), zap.Error(err))
		return nil
	}
	return b
}
