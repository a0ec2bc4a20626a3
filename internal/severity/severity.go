// Package severity classifies a dNBR raster into the standard 6-level
// burn severity scale used by fire management agencies.
package severity

import "github.com/burnwatch/burnwatch-api-poc/internal/imagery"

// Classes is the number of severity classes, valued 0 through 5.
const Classes = 6

// BurnedThreshold is the dNBR value from which a pixel counts as burned;
// it coincides with the lower bound of class 2.
const BurnedThreshold = 0.1

// Breaks are the dNBR thresholds between consecutive classes. Each break
// is inclusive on the upper side: d = Breaks[i] falls in class i+1. These
// are fixed domain constants; downstream statistics and legends assume
// this exact scale.
var Breaks = [Classes - 1]float64{-0.1, 0.1, 0.27, 0.44, 0.66}

// Labels names each class for legends and exports.
var Labels = [Classes]string{
	"Unburned",
	"Unburned / Low",
	"Low severity",
	"Moderate-low severity",
	"Moderate-high severity",
	"High severity",
}

// BandName is the output band, renamed so a severity raster is
// distinguishable from a raw index raster by metadata alone.
const BandName = "burn_severity"

// Classify maps a dNBR raster to severity classes. Bins are applied in
// ascending order so later (higher) classes win on overlap; the result is
// the highest class whose lower bound is satisfied.
func Classify(dnbr imagery.Image) imagery.Image {
	s := dnbr.
		Where(dnbr.Lt(Breaks[0]), 0).
		Where(dnbr.Gte(Breaks[0]).And(dnbr.Lt(Breaks[1])), 1).
		Where(dnbr.Gte(Breaks[1]).And(dnbr.Lt(Breaks[2])), 2).
		Where(dnbr.Gte(Breaks[2]).And(dnbr.Lt(Breaks[3])), 3).
		Where(dnbr.Gte(Breaks[3]).And(dnbr.Lt(Breaks[4])), 4).
		Where(dnbr.Gte(Breaks[4]), 5)
	return s.Rename(BandName)
}
