// Package steps holds the godog step definitions for the feature suite.
package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
)

type complianceContext struct {
	engine *hos.RuleEngine
	state  hos.State
	result *hos.ComplianceResult
	err    error
}

func (cc *complianceContext) reset() {
	cc.engine = hos.NewRuleEngine(hos.DefaultLimits())
	cc.state = hos.State{}
	cc.result = nil
	cc.err = nil
}

// Given steps

func (cc *complianceContext) aDriverWithCounters(driven, duty, sinceBreak float64) error {
	cc.state = hos.State{
		HoursDriven:     driven,
		OnDutyTime:      duty,
		HoursSinceBreak: sinceBreak,
	}
	return nil
}

// When steps

func (cc *complianceContext) theComplianceCheckRuns() error {
	cc.result, cc.err = cc.engine.Validate(cc.state)
	return nil
}

// Then steps

func (cc *complianceContext) theDriverShouldBeCompliant() error {
	if cc.err != nil {
		return fmt.Errorf("validation failed: %v", cc.err)
	}
	if !cc.result.IsCompliant {
		return fmt.Errorf("expected compliant, got violations: %v", cc.result.Violations)
	}
	return nil
}

func (cc *complianceContext) theDriverShouldNotBeCompliant() error {
	if cc.err != nil {
		return fmt.Errorf("validation failed: %v", cc.err)
	}
	if cc.result.IsCompliant {
		return fmt.Errorf("expected non-compliant, but driver was compliant")
	}
	return nil
}

func (cc *complianceContext) hoursOfDrivingShouldRemain(expected float64) error {
	return cc.assertHours("drive", expected, cc.result.HoursRemainingToDrive)
}

func (cc *complianceContext) hoursOfDutyShouldRemain(expected float64) error {
	return cc.assertHours("duty", expected, cc.result.HoursRemainingOnDuty)
}

func (cc *complianceContext) assertHours(name string, expected, actual float64) error {
	tolerance := 0.01
	if actual < expected-tolerance || actual > expected+tolerance {
		return fmt.Errorf("expected %.1f %s hours remaining, got %.1f", expected, name, actual)
	}
	return nil
}

func (cc *complianceContext) aWarningShouldMention(text string) error {
	for _, w := range cc.result.Warnings {
		if strings.Contains(w, text) {
			return nil
		}
	}
	return fmt.Errorf("no warning mentions %q, warnings: %v", text, cc.result.Warnings)
}

func (cc *complianceContext) aViolationShouldMention(text string) error {
	for _, v := range cc.result.Violations {
		if strings.Contains(v, text) {
			return nil
		}
	}
	return fmt.Errorf("no violation mentions %q, violations: %v", text, cc.result.Violations)
}

func (cc *complianceContext) aBreakShouldBeRequired() error {
	if !cc.result.BreakRequired {
		return fmt.Errorf("expected a 30-minute break to be required")
	}
	return nil
}

func (cc *complianceContext) aRestShouldBeRequired() error {
	if !cc.result.RestRequired {
		return fmt.Errorf("expected a 10-hour rest to be required")
	}
	return nil
}

func InitializeComplianceScenario(ctx *godog.ScenarioContext) {
	cc := &complianceContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		cc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a driver who has driven ([0-9.]+) hours, been on duty ([0-9.]+) hours, with ([0-9.]+) hours since their last break$`,
		cc.aDriverWithCounters)

	// When steps
	ctx.Step(`^the compliance check runs$`, cc.theComplianceCheckRuns)

	// Then steps
	ctx.Step(`^the driver should be compliant$`, cc.theDriverShouldBeCompliant)
	ctx.Step(`^the driver should not be compliant$`, cc.theDriverShouldNotBeCompliant)
	ctx.Step(`^([0-9.]+) hours of driving should remain$`, cc.hoursOfDrivingShouldRemain)
	ctx.Step(`^([0-9.]+) hours of duty should remain$`, cc.hoursOfDutyShouldRemain)
	ctx.Step(`^a warning should mention "([^"]*)"$`, cc.aWarningShouldMention)
	ctx.Step(`^a violation should mention "([^"]*)"$`, cc.aViolationShouldMention)
	ctx.Step(`^a 30-minute break should be required$`, cc.aBreakShouldBeRequired)
	ctx.Step(`^a 10-hour rest should be required$`, cc.aRestShouldBeRequired)
}
