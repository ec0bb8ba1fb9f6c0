package types

import "time"

// WeatherObservation is the transient input to a risk evaluation: one current
// reading per refresh cycle, never persisted. The provider response carries
// far more than these three scalars; everything else is dropped at the client
// boundary.
type WeatherObservation struct {
	TemperatureC    float64   `json:"temperature_c"`
	HumidityPct     float64   `json:"relative_humidity_pct"`
	PrecipitationMM float64   `json:"precipitation_mm_per_hour"`
	ObservedAt      time.Time `json:"observed_at"`
}

// RiskFactor is a single named pest or disease concern triggered by the
// current weather. Severity is a fixed weight in [0,1] taken from the rule
// table; the note is the human-readable explanation shown under the factor.
type RiskFactor struct {
	Name     string  `json:"name"`
	Severity float64 `json:"severity"`
	Note     string  `json:"note,omitempty"`
}

// RiskReport is the aggregate output of one risk evaluation.
//
// Composite is the sum of triggered severities clamped to [0,1]; the
// per-factor severities in Factors remain uncapped so the caller always sees
// the full breakdown. Factors is ordered by descending severity (stable, so
// ties keep rule-table order) and Headline is its first element, or the
// low-risk sentinel when nothing triggered.
type RiskReport struct {
	Crop      Crop         `json:"crop"`
	Composite float64      `json:"composite_severity"`
	Band      SeverityBand `json:"band"`
	Headline  RiskFactor   `json:"headline"`
	Factors   []RiskFactor `json:"factors"`
}

// MarketPrice is one row of the dashboard's market price table.
type MarketPrice struct {
	ID         string    `json:"id" db:"id"`
	Commodity  Crop      `json:"commodity" db:"commodity"`
	Market     string    `json:"market" db:"market"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	Currency   string    `json:"currency" db:"currency"`
	Unit       string    `json:"unit" db:"unit"`
	Source     string    `json:"source" db:"source"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// Listing is a classifieds board entry. Listings are anonymous: the board has
// no accounts, only a free-form contact field supplied by the poster.
type Listing struct {
	ID         string          `json:"id" db:"id"`
	Category   ListingCategory `json:"category" db:"category"`
	Crop       Crop            `json:"crop" db:"crop"`
	Title      string          `json:"title" db:"title"`
	Body       string          `json:"body,omitempty" db:"body"`
	Quantity   float64         `json:"quantity" db:"quantity"`
	Unit       string          `json:"unit" db:"unit"`
	PriceCents int64           `json:"price_cents" db:"price_cents"`
	Contact    string          `json:"contact" db:"contact"`
	Status     ListingStatus   `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// ListingFilter narrows List queries on the classifieds board. Zero values
// mean "no filter" for the corresponding field.
type ListingFilter struct {
	Category ListingCategory
	Crop     Crop
	Status   ListingStatus
	Limit    int
	Offset   int
}

// Guide is a static cultivation guide for one crop. Content is authored data
// shipped with the binary, not user input.
type Guide struct {
	Crop     Crop           `json:"crop" yaml:"crop"`
	Title    string         `json:"title" yaml:"title"`
	Summary  string         `json:"summary" yaml:"summary"`
	Sections []GuideSection `json:"sections" yaml:"sections"`
}

// GuideSection is one titled block of guide content.
type GuideSection struct {
	Heading string `json:"heading" yaml:"heading"`
	Body    string `json:"body" yaml:"body"`
}

// Site is a monitored farm location from configuration. The poller warms the
// weather cache for each site; the dashboard defaults to the first one.
type Site struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Crop Crop    `json:"crop"`
}

// DeliveryResult captures the outcome of one webhook forwarding attempt.
type DeliveryResult struct {
	Status     string
	StatusCode int
	Retryable  bool
	Terminal   bool
	RetryAfter time.Duration
}
