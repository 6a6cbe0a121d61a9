// Package geo renders incidents as GeoJSON for map layers.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/KaramelBytes/edudanger-cli/internal/dataset"
)

// Bounds returns the bounding box of the incident points. ok is false when d
// has no rows.
func Bounds(d *dataset.Dataset) (b orb.Bound, ok bool) {
	pts, _ := points(d)
	for _, p := range pts {
		if !ok {
			b, ok = p.Bound(), true
			continue
		}
		b = b.Extend(p)
	}
	return b, ok
}

// Center is the middle of Bounds, or the origin for an empty dataset.
func Center(d *dataset.Dataset) orb.Point {
	b, ok := Bounds(d)
	if !ok {
		return orb.Point{}
	}
	return b.Center()
}

// FeatureCollection converts every incident into a point feature (lon, lat).
// The cluster property is only set on clustered datasets.
func FeatureCollection(d *dataset.Dataset) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	pts, rows := points(d)
	if len(pts) == 0 {
		return fc
	}
	country := d.Strings(dataset.ColCountry)
	admin1 := d.Strings(dataset.ColAdmin1)
	date := d.Strings(dataset.ColDate)
	perp := d.Strings(dataset.ColPerpetrator)
	year := d.Ints(dataset.ColYear)
	victims := d.Ints(dataset.ColTotalVictims)
	var clusters []int
	if d.HasColumn(dataset.ColCluster) {
		clusters = d.Ints(dataset.ColCluster)
	}

	for j, p := range pts {
		i := rows[j]
		f := geojson.NewFeature(p)
		f.Properties["country"] = country[i]
		f.Properties["admin1"] = admin1[i]
		f.Properties["date"] = date[i]
		f.Properties["year"] = year[i]
		f.Properties["perpetrator"] = perp[i]
		f.Properties["total_victims"] = victims[i]
		if clusters != nil {
			f.Properties["cluster"] = clusters[i]
		}
		fc.Append(f)
	}
	if b, ok := Bounds(d); ok {
		fc.BBox = geojson.NewBBox(b)
	}
	return fc
}

// points returns the located rows as (lon, lat) points along with their row
// indexes.
func points(d *dataset.Dataset) ([]orb.Point, []int) {
	lat := d.Floats(dataset.ColLatitude)
	lon := d.Floats(dataset.ColLongitude)
	pts := make([]orb.Point, 0, len(lat))
	rows := make([]int, 0, len(lat))
	for i := range lat {
		if math.IsNaN(lat[i]) || math.IsNaN(lon[i]) {
			continue
		}
		pts = append(pts, orb.Point{lon[i], lat[i]})
		rows = append(rows, i)
	}
	return pts, rows
}
