package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/treeshoptech/freedom-drains-pro/design"
)

// Style property keys carried on exported layer features.
const (
	PropLabel       = "label"
	PropText        = "text"
	PropColor       = "color"
	PropPattern     = "pattern"
	PropDash        = "dash"
	PropWidth       = "width"
	PropTreatment   = "treatment"
	PropFillOpacity = "fillOpacity"
	PropIcon        = "icon"
	PropAlert       = "alert"
	PropTextMinZoom = "textMinZoom"
)

// LabelMinZoom is the web map zoom level below which text labels are hidden.
const LabelMinZoom = 18

// Layer exports items as a GeoJSON FeatureCollection whose properties
// carry the resolved style, ready for a map renderer's data source.
func Layer(items []Item) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, it := range items {
		gf := geojson.NewFeature(orb.Clone(it.Geometry))
		gf.ID = it.ID

		props := gf.Properties
		props[design.PropElementType] = it.Type.String()
		props[PropLabel] = it.Label
		props[PropText] = it.Text
		if it.Text != "" {
			props[PropTextMinZoom] = LabelMinZoom
		}
		props[PropColor] = it.Style.Color
		props[PropTreatment] = it.Style.Treatment.String()
		props[PropAlert] = it.Alert

		switch it.Style.Treatment {
		case Stroke, FillStroke:
			props[PropPattern] = it.Style.Pattern.String()
			props[PropWidth] = it.Style.Width
			if len(it.Style.Dash) > 0 {
				props[PropDash] = append([]float64(nil), it.Style.Dash...)
			}
			if it.Style.Treatment == FillStroke {
				props[PropFillOpacity] = it.Style.FillOpacity
			}
		case Icon:
			props[PropIcon] = it.Style.Icon
		}

		if it.Geometry != nil {
			switch design.KindOf(it.Geometry) {
			case design.KindLine:
				props[design.PropLengthFt] = it.LengthFt
			case design.KindPolygon:
				props[design.PropAreaFt] = it.AreaFt
			}
		}
		if it.Status != design.StatusNone {
			props[design.PropStatus] = string(it.Status)
		}
		fc.Append(gf)
	}
	return fc
}
