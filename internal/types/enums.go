package types

import "strings"

// Crop is the closed enumeration of crops the dashboard knows how to assess.
// Values arriving from external configuration are parsed with ParseCrop, which
// maps anything unrecognized to CropUnknown rather than failing: an unknown
// crop simply matches zero risk rules.
type Crop string

const (
	CropRice    Crop = "rice"
	CropMaize   Crop = "maize"
	CropChili   Crop = "chili"
	CropTomato  Crop = "tomato"
	CropUnknown Crop = "unknown"
)

// SupportedCrops lists the crops with risk rules and cultivation guides,
// in display order.
var SupportedCrops = []Crop{CropRice, CropMaize, CropChili, CropTomato}

// ParseCrop normalizes a raw crop identifier. Unrecognized values return
// CropUnknown; callers treat that as "no rules match", never as an error.
func ParseCrop(raw string) Crop {
	switch Crop(strings.ToLower(strings.TrimSpace(raw))) {
	case CropRice:
		return CropRice
	case CropMaize:
		return CropMaize
	case CropChili:
		return CropChili
	case CropTomato:
		return CropTomato
	default:
		return CropUnknown
	}
}

// SeverityBand is the three-level qualitative label the dashboard renders
// next to the composite severity bar.
type SeverityBand string

const (
	BandLow    SeverityBand = "low"
	BandMedium SeverityBand = "medium"
	BandHigh   SeverityBand = "high"
)

// ListingCategory distinguishes buy and sell classifieds.
type ListingCategory string

const (
	ListingBuy  ListingCategory = "buy"
	ListingSell ListingCategory = "sell"
)

// ListingStatus represents the lifecycle state of a classified listing.
type ListingStatus string

const (
	ListingOpen   ListingStatus = "open"
	ListingClosed ListingStatus = "closed"
)

// ValidListingCategory reports whether c is a known category.
func ValidListingCategory(c ListingCategory) bool {
	return c == ListingBuy || c == ListingSell
}

// ValidListingStatus reports whether s is a known status.
func ValidListingStatus(s ListingStatus) bool {
	return s == ListingOpen || s == ListingClosed
}
