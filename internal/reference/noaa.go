// Package reference holds the observational CH4 record the box model is
// compared against.
package reference

import "github.com/san-kum/ch4box/internal/dynamo"

// Source describes the observational record returned by NOAA.
const Source = "NOAA global mean CH4, January of each year"

const (
	FirstYear = 2005
	LastYear  = 2022
)

var noaaCH4 = [...]float64{
	1776.0, 1779.5, 1779.2, 1786.8, 1795.1, 1797.1,
	1800.5, 1807.3, 1814.1, 1816.9, 1832.9, 1842.5,
	1849.8, 1854.5, 1865.0, 1874.0, 1890.7, 1908.9,
}

// NOAA returns global-mean CH4 mole fraction (ppb) for January of each year
// 2005 through 2022, and the matching years. Every call returns new slices.
func NOAA() (dynamo.Concentration, dynamo.Years) {
	obs := make(dynamo.Concentration, len(noaaCH4))
	copy(obs, noaaCH4[:])
	return obs, dynamo.YearRange(FirstYear, LastYear)
}
