package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/rest"
)

type restRecommendationContext struct {
	optimizer *rest.Optimizer
	input     rest.Input
	result    *rest.Result
	err       error
}

func (rc *restRecommendationContext) reset() {
	rc.optimizer = rest.NewOptimizer(hos.NewRuleEngine(hos.DefaultLimits()))
	rc.input = rest.Input{}
	rc.result = nil
	rc.err = nil
}

// Given steps

func (rc *restRecommendationContext) aDriverWithCounters(driven, duty, sinceBreak float64) error {
	rc.input.State = hos.State{
		HoursDriven:     driven,
		OnDutyTime:      duty,
		HoursSinceBreak: sinceBreak,
	}
	return nil
}

func (rc *restRecommendationContext) aDockFollowedByDriving(dockHours, driveHours float64) error {
	rc.input.DockDurationHours = dockHours
	rc.input.UpcomingTrips = []rest.TripRequirement{{DriveTimeHours: driveHours}}
	return nil
}

// When steps

func (rc *restRecommendationContext) theRestRecommendationRuns() error {
	rc.result, rc.err = rc.optimizer.Recommend(rc.input)
	return nil
}

// Then steps

func (rc *restRecommendationContext) theRecommendationShouldBe(expected string, duration float64) error {
	if rc.err != nil {
		return fmt.Errorf("recommendation failed: %v", rc.err)
	}
	if string(rc.result.Recommendation) != expected {
		return fmt.Errorf("expected recommendation %q, got %q (%s)",
			expected, rc.result.Recommendation, rc.result.Reasoning)
	}
	tolerance := 0.01
	actual := rc.result.RecommendedDurationHours
	if actual < duration-tolerance || actual > duration+tolerance {
		return fmt.Errorf("expected duration %.1fh, got %.1fh", duration, actual)
	}
	return nil
}

func (rc *restRecommendationContext) theConfidenceShouldBe(expected int) error {
	if rc.result.Confidence != expected {
		return fmt.Errorf("expected confidence %d, got %d (%s)",
			expected, rc.result.Confidence, rc.result.Reasoning)
	}
	return nil
}

func (rc *restRecommendationContext) theDriverShouldNotBeAbleToDecline() error {
	if rc.result.DriverCanDecline {
		return fmt.Errorf("expected a mandatory recommendation, but driver can decline")
	}
	return nil
}

func (rc *restRecommendationContext) theDriverShouldBeAbleToDecline() error {
	if !rc.result.DriverCanDecline {
		return fmt.Errorf("expected an optional recommendation, but driver cannot decline")
	}
	return nil
}

func InitializeRestRecommendationScenario(ctx *godog.ScenarioContext) {
	rc := &restRecommendationContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		rc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a driver arriving with ([0-9.]+) hours driven, ([0-9.]+) hours on duty, and ([0-9.]+) hours since their last break$`,
		rc.aDriverWithCounters)
	ctx.Step(`^a ([0-9.]+) hour dock followed by ([0-9.]+) hours of driving$`,
		rc.aDockFollowedByDriving)

	// When steps
	ctx.Step(`^the rest recommendation runs$`, rc.theRestRecommendationRuns)

	// Then steps
	ctx.Step(`^the recommendation should be "([^"]*)" for ([0-9.]+) hours$`, rc.theRecommendationShouldBe)
	ctx.Step(`^the confidence should be (\d+)$`, rc.theConfidenceShouldBe)
	ctx.Step(`^the driver should not be able to decline$`, rc.theDriverShouldNotBeAbleToDecline)
	ctx.Step(`^the driver should be able to decline$`, rc.theDriverShouldBeAbleToDecline)
}
