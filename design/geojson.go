package design

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Property keys used in the GeoJSON representation of a design.
const (
	PropElementType = "elementType"
	PropLengthFt    = "lengthFt"
	PropAreaFt      = "areaFt"
	PropPrice       = "price"
	PropStatus      = "status"
)

// ToCollection converts features to a GeoJSON FeatureCollection, the format
// designs are stored and exchanged in.
func ToCollection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Clone().Geometry)
		gf.ID = f.ID
		gf.Properties[PropElementType] = f.Type.String()
		if f.HasLength() {
			gf.Properties[PropLengthFt] = f.LengthFt
		}
		if f.HasArea() {
			gf.Properties[PropAreaFt] = f.AreaFt
		}
		if f.Price > 0 {
			gf.Properties[PropPrice] = f.Price
		}
		if f.Status != StatusNone {
			gf.Properties[PropStatus] = string(f.Status)
		}
		fc.Append(gf)
	}
	return fc
}

// FromCollection reads features back from a FeatureCollection. Numeric ids
// are converted to their decimal string form.
func FromCollection(fc *geojson.FeatureCollection) ([]Feature, error) {
	if fc == nil {
		return nil, nil
	}
	out := make([]Feature, 0, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := fromGeoJSON(gf)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func fromGeoJSON(gf *geojson.Feature) (Feature, error) {
	var f Feature
	f.ID = idString(gf.ID)

	t, err := ParseElementType(gf.Properties.MustString(PropElementType, ""))
	if err != nil {
		return f, err
	}
	f.Type = t
	f.Geometry = gf.Geometry
	f.LengthFt = gf.Properties.MustFloat64(PropLengthFt, 0)
	f.AreaFt = gf.Properties.MustFloat64(PropAreaFt, 0)
	if t.HasUnitPrice() {
		f.Price = gf.Properties.MustFloat64(PropPrice, 0)
	}

	status, err := ParseStatus(gf.Properties.MustString(PropStatus, ""))
	if err != nil {
		return f, err
	}
	f.Status = status

	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// MarshalFeatures encodes features as GeoJSON.
func MarshalFeatures(features []Feature) ([]byte, error) {
	return ToCollection(features).MarshalJSON()
}

// UnmarshalFeatures decodes a GeoJSON FeatureCollection into features.
func UnmarshalFeatures(data []byte) ([]Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing design data: %w", err)
	}
	return FromCollection(fc)
}
