package planner

import (
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/rest"
)

// RegisterHandlers wires every planner command and query into the mediator
func RegisterHandlers(
	m common.Mediator,
	engine *planning.Engine,
	store planning.PlanStore,
	dispatcher *dispatch.Handler,
	rules *hos.RuleEngine,
	optimizer *rest.Optimizer,
) error {
	if err := common.RegisterHandler[*PlanRouteCommand](m, NewPlanRouteHandler(engine, store)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*UpdatePlanCommand](m, NewUpdatePlanHandler(dispatcher)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*CheckHOSQuery](m, NewCheckHOSHandler(rules)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*RecommendRestQuery](m, NewRecommendRestHandler(optimizer)); err != nil {
		return err
	}
	return common.RegisterHandler[*GetPlanQuery](m, NewGetPlanHandler(store))
}
