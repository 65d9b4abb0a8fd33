// Package scoring computes the 0-100 compatibility score between a business
// listing (seller) and an investor profile (buyer). Scoring is a pure
// function of the two profiles: same inputs, same output. Scores are
// recomputed on demand because profile edits invalidate them.
package scoring

import (
	"fmt"
	"math"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
)

// Criterion weights. Documented and fixed, not hidden tuning.
const (
	WeightIndustry  = 0.35
	WeightSizeBand  = 0.25
	WeightGeography = 0.20
	WeightTimeline  = 0.20
)

// Industries is the canonical industry tag list offered during onboarding.
// The scorer itself accepts tags outside this list; unknown tags simply
// never overlap.
var Industries = []string{
	"Technology", "Healthcare", "Manufacturing", "Retail",
	"Services", "Real Estate", "Food & Beverage", "Other",
}

// RevenueBands are the seller annual-revenue options, in ordinal order.
var RevenueBands = []string{
	"Under $500K", "$500K-$1M", "$1M-$5M", "$5M-$10M", "$10M-$50M", "$50M+",
}

// CapitalBands are the buyer available-capital options, in ordinal order.
var CapitalBands = []string{
	"Under $500K", "$500K-$1M", "$1M-$5M", "$5M-$10M", "$10M+",
}

// SellerTimelines are the seller sale-timeline options, in ordinal order.
var SellerTimelines = []string{
	"ASAP", "3-6 months", "6-12 months", "1-2 years", "Flexible",
}

// BuyerTimelines are the buyer investment-timeline options, in ordinal order.
var BuyerTimelines = []string{
	"Ready to close ASAP", "1-3 months", "3-6 months", "6-12 months", "Just exploring",
}

// GeoPreferences are the buyer geographic-preference options.
var GeoPreferences = []string{
	"Local only", "Regional", "National", "International", "No preference",
}

// Revenue and capital bands share one canonical ordinal scale so band
// distance is well defined across the two option lists. The buyer's open
// top band collapses onto the $10M-$50M rung.
var (
	revenueBandIndex = indexOf(RevenueBands)
	capitalBandIndex = map[string]int{
		"Under $500K": 0, "$500K-$1M": 1, "$1M-$5M": 2, "$5M-$10M": 3, "$10M+": 4,
	}
	sellerTimelineIndex = indexOf(SellerTimelines)
	buyerTimelineIndex  = indexOf(BuyerTimelines)
)

func indexOf(options []string) map[string]int {
	m := make(map[string]int, len(options))
	for i, o := range options {
		m[o] = i
	}
	return m
}

// Detail explains one criterion's contribution to the final score
type Detail struct {
	Score  int     `json:"score"`
	Weight float64 `json:"weight"`
	Note   string  `json:"note"`
}

// Result is a scored (seller, buyer) pair with a per-criterion breakdown
type Result struct {
	Score     int               `json:"score"`
	Breakdown map[string]Detail `json:"breakdown"`
}

// Engine scores profile pairs
type Engine struct{}

// NewEngine creates a new scoring engine instance
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the weighted compatibility score for an ordered
// (seller, buyer) pair. Malformed profiles fail with InvalidScoreInput
// rather than producing out-of-range scores.
func (e *Engine) Score(seller, buyer *models.Profile) (*Result, error) {
	if err := validateInputs(seller, buyer); err != nil {
		return nil, err
	}

	industry := industryOverlap(seller, buyer)
	size := sizeBandFit(seller, buyer)
	geo := geographyFit(seller, buyer)
	timeline := timelineFit(seller, buyer)

	weighted := WeightIndustry*float64(industry) +
		WeightSizeBand*float64(size) +
		WeightGeography*float64(geo) +
		WeightTimeline*float64(timeline)

	final := int(math.Round(weighted))
	final = clamp(final)

	return &Result{
		Score: final,
		Breakdown: map[string]Detail{
			"industry": {Score: industry, Weight: WeightIndustry,
				Note: "overlap with buyer target industries"},
			"size": {Score: size, Weight: WeightSizeBand,
				Note: "revenue band vs available capital"},
			"geography": {Score: geo, Weight: WeightGeography,
				Note: "location vs buyer geographic preference"},
			"timeline": {Score: timeline, Weight: WeightTimeline,
				Note: "sale timeline vs investment timeline"},
		},
	}, nil
}

func validateInputs(seller, buyer *models.Profile) error {
	if seller == nil || buyer == nil {
		return errors.InvalidScoreInput("both profiles are required")
	}
	if seller.Role != string(models.RoleSeller) {
		return errors.InvalidScoreInput(fmt.Sprintf("profile %s is not a seller", seller.ID))
	}
	if buyer.Role != string(models.RoleBuyer) {
		return errors.InvalidScoreInput(fmt.Sprintf("profile %s is not a buyer", buyer.ID))
	}
	if _, ok := revenueBandIndex[seller.SizeBand]; !ok {
		return errors.InvalidScoreInput(fmt.Sprintf("unknown seller revenue band %q", seller.SizeBand))
	}
	if _, ok := capitalBandIndex[buyer.SizeBand]; !ok {
		return errors.InvalidScoreInput(fmt.Sprintf("unknown buyer capital band %q", buyer.SizeBand))
	}
	if _, ok := sellerTimelineIndex[seller.TimelineBand]; !ok {
		return errors.InvalidScoreInput(fmt.Sprintf("unknown seller timeline %q", seller.TimelineBand))
	}
	if _, ok := buyerTimelineIndex[buyer.TimelineBand]; !ok {
		return errors.InvalidScoreInput(fmt.Sprintf("unknown buyer timeline %q", buyer.TimelineBand))
	}
	return nil
}

// industryOverlap is 100 * |seller.industries ∩ buyer.targets| / |buyer.targets|,
// clamped, and 0 when the buyer states no industries.
func industryOverlap(seller, buyer *models.Profile) int {
	if len(buyer.Industries) == 0 {
		return 0
	}
	overlap := 0
	for _, tag := range buyer.Industries {
		if seller.HasIndustry(tag) {
			overlap++
		}
	}
	return clamp(100 * overlap / len(buyer.Industries))
}

// sizeBandFit decays 20 points per rung of band distance on the canonical
// ordinal scale, floored at 0.
func sizeBandFit(seller, buyer *models.Profile) int {
	si := revenueBandIndex[seller.SizeBand]
	bi := capitalBandIndex[buyer.SizeBand]
	return clamp(100 - 20*abs(si-bi))
}

// geographyFit: 100 when the buyer states no preference or the pair shares
// a region, a fixed 60 for same country, 20 otherwise. Buyers without a
// stated location fall back on preference breadth.
func geographyFit(seller, buyer *models.Profile) int {
	if buyer.GeoPreference == "No preference" {
		return 100
	}
	if buyer.LocationRegion == "" && buyer.LocationCountry == "" {
		// No location on file to compare against; broad preferences still
		// match reasonably.
		if buyer.GeoPreference == "National" || buyer.GeoPreference == "International" {
			return 60
		}
		return 20
	}
	if buyer.LocationRegion != "" && buyer.LocationRegion == seller.LocationRegion {
		return 100
	}
	if buyer.LocationCountry != "" && buyer.LocationCountry == seller.LocationCountry {
		return 60
	}
	return 20
}

// timelineFit decays 25 points per rung of ordinal distance between the two
// timeline scales, floored at 0. Both scales run urgent to open-ended, so
// index distance is meaningful across them.
func timelineFit(seller, buyer *models.Profile) int {
	si := sellerTimelineIndex[seller.TimelineBand]
	bi := buyerTimelineIndex[buyer.TimelineBand]
	return clamp(100 - 25*abs(si-bi))
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
