package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cleaning-booking/internal/apperr"
	"cleaning-booking/internal/data/entity"

	"github.com/cucumber/godog"
)

type scheduleTestContext struct {
	dates []time.Time
	err   error
}

func (c *scheduleTestContext) reset() {
	c.dates = nil
	c.err = nil
}

func (c *scheduleTestContext) iExpandASeries(freq, start string, months int) error {
	day, err := ParseDate(start)
	if err != nil {
		return err
	}
	c.dates, c.err = Expand(entity.Frequency(freq), day, months)
	return nil
}

func (c *scheduleTestContext) theOccurrencesAre(table *godog.Table) error {
	if c.err != nil {
		return fmt.Errorf("expected occurrences but got error: %v", c.err)
	}

	var want []string
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		want = append(want, row.Cells[0].Value)
	}

	if len(c.dates) != len(want) {
		return fmt.Errorf("expected %d occurrences, got %d", len(want), len(c.dates))
	}
	for i, d := range c.dates {
		if got := FormatDate(d); got != want[i] {
			return fmt.Errorf("occurrence %d: expected %s, got %s", i+1, want[i], got)
		}
	}
	return nil
}

func (c *scheduleTestContext) thereAreNoOccurrences() error {
	if c.err != nil {
		return fmt.Errorf("expected no occurrences but got error: %v", c.err)
	}
	if len(c.dates) != 0 {
		return fmt.Errorf("expected no occurrences, got %d", len(c.dates))
	}
	return nil
}

func (c *scheduleTestContext) expansionFailsAsInvalidInput() error {
	if c.err == nil {
		return errors.New("expected expansion to fail")
	}
	if apperr.KindOf(c.err) != apperr.InvalidInput {
		return fmt.Errorf("expected invalid input, got %v", c.err)
	}
	return nil
}

func InitializeScheduleScenario(ctx *godog.ScenarioContext) {
	tc := &scheduleTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^I expand a "([^"]*)" series starting "([^"]*)" over (\d+) months$`, tc.iExpandASeries)
	ctx.Step(`^the occurrences are:$`, tc.theOccurrencesAre)
	ctx.Step(`^there are no occurrences$`, tc.thereAreNoOccurrences)
	ctx.Step(`^expansion fails as invalid input$`, tc.expansionFailsAsInvalidInput)
}

func TestScheduleFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScheduleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/schedule.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
