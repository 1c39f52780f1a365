// Package pricing turns a service selection into an itemized booking price.
// Compute performs no I/O; promo codes arrive already resolved.
package pricing

import (
	"math"
	"sort"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"
)

// Promo is a resolved promotional reduction.
type Promo struct {
	Code  string
	Kind  entity.DiscountKind
	Value float64
}

type Input struct {
	Service   entity.ServiceType
	Frequency entity.Frequency
	Rooms     map[string]int
	AddOns    []string
	Tip       float64
	Promo     *Promo
}

type Breakdown struct {
	BasePrice                float64 `json:"base_price"`
	RoomsTotal               float64 `json:"rooms_total"`
	AddOnsTotal              float64 `json:"add_ons_total"`
	Subtotal                 float64 `json:"subtotal"`
	FrequencyDiscountPercent float64 `json:"frequency_discount_percent"`
	FrequencyDiscount        float64 `json:"frequency_discount"`
	PromoCode                string  `json:"promo_code,omitempty"`
	PromoDiscount            float64 `json:"promo_discount"`
	ServiceFee               float64 `json:"service_fee"`
	CleanerPercentage        float64 `json:"cleaner_percentage"`
	CleanerEarnings          float64 `json:"cleaner_earnings"`
	Tip                      float64 `json:"tip"`
	Total                    float64 `json:"total"`
	Currency                 string  `json:"currency"`
}

type Calculator struct {
	catalog *Catalog
}

func NewCalculator(catalog *Catalog) *Calculator {
	return &Calculator{catalog: catalog}
}

func (c *Calculator) Catalog() *Catalog {
	return c.catalog
}

// Compute prices a booking. total = subtotal - frequencyDiscount - promoDiscount + serviceFee + tip.
func (c *Calculator) Compute(in Input) (*Breakdown, error) {
	svc, ok := c.catalog.service(in.Service)
	if !ok {
		return nil, apperr.Invalid("unknown service type %q", in.Service)
	}

	freqPct, err := c.catalog.frequencyDiscount(in.Frequency)
	if err != nil {
		return nil, err
	}

	if in.Tip < 0 || math.IsNaN(in.Tip) {
		return nil, apperr.Invalid("tip cannot be negative")
	}

	roomsTotal, err := roomsTotal(svc, in.Rooms)
	if err != nil {
		return nil, err
	}

	addOnsTotal, err := c.addOnsTotal(in.AddOns)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{
		BasePrice:                svc.Base,
		RoomsTotal:               RoundCents(roomsTotal),
		AddOnsTotal:              RoundCents(addOnsTotal),
		FrequencyDiscountPercent: freqPct,
		ServiceFee:               RoundCents(c.catalog.ServiceFee),
		CleanerPercentage:        c.catalog.CleanerPercentage,
		Tip:                      RoundCents(in.Tip),
		Currency:                 c.catalog.Currency,
	}

	b.Subtotal = RoundCents(svc.Base + roomsTotal + addOnsTotal)
	b.FrequencyDiscount = RoundCents(b.Subtotal * freqPct / 100)

	discounted := b.Subtotal - b.FrequencyDiscount
	if in.Promo != nil {
		promo, err := PromoAmount(in.Promo.Kind, in.Promo.Value, discounted)
		if err != nil {
			return nil, err
		}
		b.PromoCode = in.Promo.Code
		b.PromoDiscount = promo
	}

	net := RoundCents(discounted - b.PromoDiscount)
	b.CleanerEarnings = RoundCents(net * b.CleanerPercentage / 100)
	b.Total = RoundCents(net + b.ServiceFee + b.Tip)

	return b, nil
}

// PromoAmount computes a reduction against base, clamped to [0, base].
func PromoAmount(kind entity.DiscountKind, value, base float64) (float64, error) {
	if value < 0 || math.IsNaN(value) {
		return 0, apperr.Invalid("discount value cannot be negative")
	}
	if base <= 0 {
		return 0, nil
	}

	var amount float64
	switch kind {
	case entity.DiscountPercentage:
		amount = base * value / 100
	case entity.DiscountFixed:
		amount = value
	default:
		return 0, apperr.Invalid("unknown discount kind %q", kind)
	}

	return RoundCents(math.Min(amount, base)), nil
}

func roomsTotal(svc ServicePrice, rooms map[string]int) (float64, error) {
	// Sorted so the first reported error is stable.
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	sort.Strings(names)

	var total float64
	for _, name := range names {
		count := rooms[name]
		if count < 0 {
			return 0, apperr.Invalid("room count for %q cannot be negative", name)
		}
		if count == 0 {
			continue
		}
		price, ok := svc.Rooms[name]
		if !ok {
			return 0, apperr.Invalid("room type %q is not offered for this service", name)
		}
		total += float64(count) * price
	}
	return total, nil
}

func (c *Calculator) addOnsTotal(addOns []string) (float64, error) {
	seen := make(map[string]bool, len(addOns))
	var total float64
	for _, id := range addOns {
		if seen[id] {
			continue
		}
		seen[id] = true

		price, ok := c.catalog.AddOns[id]
		if !ok {
			return 0, apperr.Invalid("unknown add-on %q", id)
		}
		if price < 0 {
			return 0, apperr.Invalid("add-on %q is priced below zero", id)
		}
		total += price
	}
	return total, nil
}

// RoundCents rounds a major-unit amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// FromMinorUnits converts gateway minor units (cents) to major units.
func FromMinorUnits(minor int64) float64 {
	return RoundCents(float64(minor) / 100)
}
