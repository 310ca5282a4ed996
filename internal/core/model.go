package core

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AnimalStatus is the lifecycle state of a live animal.
// feeding and ready_for_slaughter auto-transition on the 450 kg weight threshold;
// slaughtered and sold are terminal from the automation's perspective.
type AnimalStatus string

const (
	AnimalFeeding           AnimalStatus = "feeding"
	AnimalReadyForSlaughter AnimalStatus = "ready_for_slaughter"
	AnimalSlaughtered       AnimalStatus = "slaughtered"
	AnimalSold              AnimalStatus = "sold"
)

// ReadyWeightThreshold is the live weight (kg) at which an animal on feed
// is promoted to ready_for_slaughter, and below which it is demoted back.
var ReadyWeightThreshold = decimal.NewFromInt(450)

// Animal represents a live animal in the herd.
// Price is only meaningful once the animal is ready_for_slaughter or later.
type Animal struct {
	ID                  int              `json:"id"`
	Name                string           `json:"name"`
	Species             string           `json:"species"`
	Breed               string           `json:"breed"`
	BirthDate           time.Time        `json:"birth_date"`
	CurrentWeight       decimal.Decimal  `json:"current_weight"`
	Status              AnimalStatus     `json:"status"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	VaccinationType     *string          `json:"vaccination_type,omitempty"`
	VaccinationDate     *time.Time       `json:"vaccination_date,omitempty"`
	NextVaccinationDate *time.Time       `json:"next_vaccination_date,omitempty"`
	VaccinationNotes    *string          `json:"vaccination_notes,omitempty"`
	LastWeightUpdate    *time.Time       `json:"last_weight_update,omitempty"`
	CreatedBy           *int             `json:"created_by,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// DisplayName returns the animal's name, falling back to breed + id for unnamed animals.
func (a Animal) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Breed + " #" + strconv.Itoa(a.ID)
}

// WeightEntry is one recorded weighing of an animal. Append-only.
type WeightEntry struct {
	ID         int             `json:"id"`
	AnimalID   int             `json:"animal_id"`
	Weight     decimal.Decimal `json:"weight"`
	Date       time.Time       `json:"date"`
	MeasuredBy *int            `json:"measured_by,omitempty"`
}

// CarcassStatus is the lifecycle state of a dressed carcass.
type CarcassStatus string

const (
	CarcassInStock CarcassStatus = "in_stock"
	CarcassSold    CarcassStatus = "sold"
)

// Carcass is a dressed meat unit, either materialized from a slaughtered
// animal by the reconciliation job or entered directly by staff.
type Carcass struct {
	ID            int             `json:"id"`
	AnimalID      *int            `json:"animal_id,omitempty"`
	Breed         string          `json:"breed"`
	BirthDate     *time.Time      `json:"birth_date,omitempty"`
	SlaughterDate time.Time       `json:"slaughter_date"`
	CarcassWeight decimal.Decimal `json:"carcass_weight"`
	Price         decimal.Decimal `json:"price"`
	Status        CarcassStatus   `json:"status"`
	Description   *string         `json:"description,omitempty"`
	CreatedBy     *int            `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FeedCategory classifies a feed stock line.
type FeedCategory string

const (
	FeedGrain FeedCategory = "grain"
	FeedHay   FeedCategory = "hay"
	FeedOther FeedCategory = "other"
)

// FeedStock is one storage line: a feed product tracked by divisible quantity.
// CurrentQuantity never goes negative; debits that would violate this are rejected.
type FeedStock struct {
	ID              int             `json:"id"`
	ProductType     string          `json:"product_type"`
	Category        FeedCategory    `json:"feed_category"`
	Unit            string          `json:"unit"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	MinQuantity     decimal.Decimal `json:"min_quantity"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// BelowMinimum reports whether the line has fallen below its restock threshold.
func (f FeedStock) BelowMinimum() bool {
	return f.CurrentQuantity.LessThan(f.MinQuantity)
}

// FeedConsumption is one internal usage debit (feeding the herd, not a sale).
type FeedConsumption struct {
	ID              int             `json:"id"`
	ProductType     string          `json:"product_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Purpose         string          `json:"purpose"`
	AnimalID        *int            `json:"animal_id,omitempty"`
	ConsumptionDate time.Time       `json:"consumption_date"`
	RecordedBy      *int            `json:"recorded_by,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}
