package pricing

import (
	"fmt"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"

	"github.com/spf13/viper"
)

// ServicePrice is the base price of a service and its per-room prices.
type ServicePrice struct {
	Base  float64            `mapstructure:"base"`
	Rooms map[string]float64 `mapstructure:"rooms"`
}

// Catalog holds every operator-tunable price.
type Catalog struct {
	Currency string                  `mapstructure:"currency"`
	Services map[string]ServicePrice `mapstructure:"services"`
	AddOns   map[string]float64      `mapstructure:"add_ons"`
	// FrequencyDiscounts are percentages keyed by frequency; one-time is always 0.
	FrequencyDiscounts map[string]float64 `mapstructure:"frequency_discounts"`
	ServiceFee         float64            `mapstructure:"service_fee"`
	CleanerPercentage  float64            `mapstructure:"cleaner_percentage"`
}

// LoadCatalog reads the price catalog from a YAML (or any viper-supported) file.
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("currency", "ZAR")
	v.SetDefault("service_fee", 0)
	v.SetDefault("cleaner_percentage", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read price catalog %s: %w", path, err)
	}

	var catalog Catalog
	if err := v.Unmarshal(&catalog); err != nil {
		return nil, fmt.Errorf("decode price catalog %s: %w", path, err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("price catalog %s: %w", path, err)
	}

	return &catalog, nil
}

// Validate rejects catalogs that would let a price go negative.
func (c *Catalog) Validate() error {
	if len(c.Services) == 0 {
		return apperr.Invalid("catalog defines no services")
	}
	for name, svc := range c.Services {
		if svc.Base < 0 {
			return apperr.Invalid("service %q has a negative base price", name)
		}
		for room, price := range svc.Rooms {
			if price < 0 {
				return apperr.Invalid("service %q room %q has a negative price", name, room)
			}
		}
	}
	for name, price := range c.AddOns {
		if price < 0 {
			return apperr.Invalid("add-on %q is priced below zero", name)
		}
	}
	for freq, pct := range c.FrequencyDiscounts {
		if pct < 0 || pct > 100 {
			return apperr.Invalid("frequency %q discount %.2f is outside 0-100", freq, pct)
		}
	}
	if c.CleanerPercentage < 0 || c.CleanerPercentage > 100 {
		return apperr.Invalid("cleaner percentage %.2f is outside 0-100", c.CleanerPercentage)
	}
	if c.ServiceFee < 0 {
		return apperr.Invalid("service fee is negative")
	}
	return nil
}

func (c *Catalog) service(s entity.ServiceType) (ServicePrice, bool) {
	svc, ok := c.Services[string(s)]
	return svc, ok
}

func (c *Catalog) frequencyDiscount(f entity.Frequency) (float64, error) {
	switch f {
	case entity.FrequencyOneTime:
		return 0, nil
	case entity.FrequencyWeekly, entity.FrequencyBiWeekly, entity.FrequencyMonthly:
		// An unconfigured recurring frequency simply has no discount.
		return c.FrequencyDiscounts[string(f)], nil
	default:
		return 0, apperr.Invalid("unknown frequency %q", f)
	}
}
