package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"testing"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"

	"github.com/cucumber/godog"
)

type pricingTestContext struct {
	catalog   *Catalog
	promo     *Promo
	breakdown *Breakdown
	err       error
}

func (c *pricingTestContext) reset() {
	c.catalog = &Catalog{
		Currency:           "ZAR",
		Services:           map[string]ServicePrice{},
		FrequencyDiscounts: map[string]float64{},
	}
	c.promo = nil
	c.breakdown = nil
	c.err = nil
}

func (c *pricingTestContext) aCatalogWhereServiceCostsWithRoomPrices(service string, base float64, rooms *godog.Table) error {
	prices := make(map[string]float64)
	for i, row := range rooms.Rows {
		if i == 0 {
			continue // header
		}
		price, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return fmt.Errorf("room price %q: %w", row.Cells[1].Value, err)
		}
		prices[row.Cells[0].Value] = price
	}
	c.catalog.Services[service] = ServicePrice{Base: base, Rooms: prices}
	return nil
}

func (c *pricingTestContext) theFrequencyDiscountIsPercent(freq string, pct float64) error {
	c.catalog.FrequencyDiscounts[freq] = pct
	return nil
}

func (c *pricingTestContext) aPromoWorth(kind, code string, value float64) error {
	c.promo = &Promo{Code: code, Kind: entity.DiscountKind(kind), Value: value}
	return nil
}

func (c *pricingTestContext) iPriceAClean(freq, service string, bedrooms, bathrooms int) error {
	c.breakdown, c.err = NewCalculator(c.catalog).Compute(Input{
		Service:   entity.ServiceType(service),
		Frequency: entity.Frequency(freq),
		Rooms:     map[string]int{"bedrooms": bedrooms, "bathrooms": bathrooms},
		Promo:     c.promo,
	})
	return nil
}

func (c *pricingTestContext) amountIs(name string, got, want float64) error {
	if c.err != nil {
		return fmt.Errorf("expected a price but got error: %v", c.err)
	}
	if math.Abs(got-want) > 0.001 {
		return fmt.Errorf("expected %s %.2f, got %.2f", name, want, got)
	}
	return nil
}

func (c *pricingTestContext) theSubtotalIs(want float64) error {
	if c.breakdown == nil {
		return c.amountIs("subtotal", 0, want)
	}
	return c.amountIs("subtotal", c.breakdown.Subtotal, want)
}

func (c *pricingTestContext) theFrequencyDiscountIs(want float64) error {
	if c.breakdown == nil {
		return c.amountIs("frequency discount", 0, want)
	}
	return c.amountIs("frequency discount", c.breakdown.FrequencyDiscount, want)
}

func (c *pricingTestContext) thePromoDiscountIs(want float64) error {
	if c.breakdown == nil {
		return c.amountIs("promo discount", 0, want)
	}
	return c.amountIs("promo discount", c.breakdown.PromoDiscount, want)
}

func (c *pricingTestContext) theTotalIs(want float64) error {
	if c.breakdown == nil {
		return c.amountIs("total", 0, want)
	}
	return c.amountIs("total", c.breakdown.Total, want)
}

func (c *pricingTestContext) pricingFailsAsInvalidInput() error {
	if c.err == nil {
		return errors.New("expected pricing to fail")
	}
	if apperr.KindOf(c.err) != apperr.InvalidInput {
		return fmt.Errorf("expected invalid input, got %v", c.err)
	}
	return nil
}

func InitializePricingScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^a catalog where "([^"]*)" costs (\d+(?:\.\d+)?) with room prices:$`, tc.aCatalogWhereServiceCostsWithRoomPrices)
	ctx.Step(`^the "([^"]*)" frequency discount is (\d+(?:\.\d+)?) percent$`, tc.theFrequencyDiscountIsPercent)
	ctx.Step(`^a "([^"]*)" promo "([^"]*)" worth (\d+(?:\.\d+)?)$`, tc.aPromoWorth)

	ctx.Step(`^I price a "([^"]*)" "([^"]*)" clean with (\d+) bedrooms and (\d+) bathrooms$`, tc.iPriceAClean)

	ctx.Step(`^the subtotal is (\d+(?:\.\d+)?)$`, tc.theSubtotalIs)
	ctx.Step(`^the frequency discount is (\d+(?:\.\d+)?)$`, tc.theFrequencyDiscountIs)
	ctx.Step(`^the promo discount is (\d+(?:\.\d+)?)$`, tc.thePromoDiscountIs)
	ctx.Step(`^the total is (\d+(?:\.\d+)?)$`, tc.theTotalIs)
	ctx.Step(`^pricing fails as invalid input$`, tc.pricingFailsAsInvalidInput)
}

func TestPricingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializePricingScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/pricing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
