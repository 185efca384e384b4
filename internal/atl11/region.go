package atl11

import (
	"fmt"
	"sort"
)

// Region is a bounding box in EPSG:3031 coordinates
type Region struct {
	Name string
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// Regions holds the named boxes used for Antarctic ice stream work
var Regions = map[string]Region{
	"kamb": {
		Name: "Kamb Ice Stream",
		XMin: -739741.7702261859,
		XMax: -411054.19240523444,
		YMin: -699564.516934089,
		YMax: -365489.6822096751,
	},
	"antarctica":  {Name: "Antarctica", XMin: -2700000, XMax: 2800000, YMin: -2200000, YMax: 2300000},
	"siple_coast": {Name: "Siple Coast", XMin: -1000000, XMax: 250000, YMin: -1000000, YMax: -100000},
	"kamb2":       {Name: "Kamb Ice Stream", XMin: -500000, XMax: -400000, YMin: -600000, YMax: -500000},
	"whillans":    {Name: "Whillans Ice Stream", XMin: -350000, XMax: -100000, YMin: -700000, YMax: -450000},
}

// LookupRegion returns the named region
func LookupRegion(key string) (Region, error) {
	r, ok := Regions[key]
	if !ok {
		names := make([]string, 0, len(Regions))
		for k := range Regions {
			names = append(names, k)
		}
		sort.Strings(names)
		return Region{}, fmt.Errorf("unknown region %q, expected one of %v", key, names)
	}
	return r, nil
}

// Bounds returns xmin, xmax, ymin, ymax
func (r Region) Bounds() [4]float64 {
	return [4]float64{r.XMin, r.XMax, r.YMin, r.YMax}
}

// Contains reports whether x/y lies strictly inside the box
func (r Region) Contains(x, y float64) bool {
	return r.XMin < x && x < r.XMax && r.YMin < y && y < r.YMax
}

// Validate rejects empty or inverted boxes
func (r Region) Validate() error {
	if r.XMin >= r.XMax || r.YMin >= r.YMax {
		return fmt.Errorf("region %q has an empty bounding box %v", r.Name, r.Bounds())
	}
	return nil
}
