package planner

import (
	"context"
	"fmt"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
)

// CheckHOSQuery validates a driver's counters against the HOS limits
type CheckHOSQuery struct {
	DriverID string
	State    hos.State
}

// CheckHOSResponse carries the compliance result
type CheckHOSResponse struct {
	Result *hos.ComplianceResult
}

// CheckHOSHandler handles the CheckHOS query
type CheckHOSHandler struct {
	rules *hos.RuleEngine
}

// NewCheckHOSHandler creates a new CheckHOSHandler
func NewCheckHOSHandler(rules *hos.RuleEngine) *CheckHOSHandler {
	return &CheckHOSHandler{rules: rules}
}

// Handle validates the driver state
func (h *CheckHOSHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*CheckHOSQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CheckHOSQuery")
	}

	result, err := h.rules.Validate(query.State)
	if err != nil {
		return nil, err
	}

	driverID := query.DriverID
	if driverID == "" {
		driverID = "unknown"
	}
	metrics.RecordComplianceCheck(driverID, result.IsCompliant, len(result.Violations))

	return &CheckHOSResponse{Result: result}, nil
}
