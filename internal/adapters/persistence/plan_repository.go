package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// PlanRepositoryGORM implements the plan store using GORM. Plans, segments,
// and updates live in three tables; the replan protocol runs in one
// transaction.
type PlanRepositoryGORM struct {
	db *gorm.DB
}

// NewPlanRepository creates a new GORM-based plan repository
func NewPlanRepository(db *gorm.DB) *PlanRepositoryGORM {
	return &PlanRepositoryGORM{db: db}
}

// CreatePlan persists a plan and its segments
func (r *PlanRepositoryGORM) CreatePlan(ctx context.Context, plan *planning.RoutePlan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := toPlanModel(plan)
		if err := tx.Create(model).Error; err != nil {
			return shared.NewStorePrecondition(plan.PlanID, "failed to insert plan: %v", err)
		}
		for i := range plan.Segments {
			segModel := toSegmentModel(plan.PlanID, &plan.Segments[i])
			if err := tx.Create(segModel).Error; err != nil {
				return shared.NewStorePrecondition(plan.PlanID, "failed to insert segment %d: %v",
					plan.Segments[i].SequenceOrder, err)
			}
			plan.Segments[i].ID = segModel.ID
		}
		return nil
	})
}

// GetPlan loads a plan with its segments in sequence order
func (r *PlanRepositoryGORM) GetPlan(ctx context.Context, planID string) (*planning.RoutePlan, error) {
	return r.getPlan(r.db.WithContext(ctx), planID)
}

func (r *PlanRepositoryGORM) getPlan(tx *gorm.DB, planID string) (*planning.RoutePlan, error) {
	var model RoutePlanModel
	if err := tx.Where("plan_id = ?", planID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewStorePrecondition(planID, "plan not found")
		}
		return nil, shared.NewStorePrecondition(planID, "failed to load plan: %v", err)
	}

	var segModels []RouteSegmentModel
	if err := tx.Where("plan_id = ?", planID).
		Order("sequence_order asc").
		Find(&segModels).Error; err != nil {
		return nil, shared.NewStorePrecondition(planID, "failed to load segments: %v", err)
	}

	return fromPlanModel(&model, segModels), nil
}

// GetActivePlanByDriver returns the driver's active plan, nil when none
func (r *PlanRepositoryGORM) GetActivePlanByDriver(ctx context.Context, driverID string) (*planning.RoutePlan, error) {
	var model RoutePlanModel
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND is_active = ?", driverID, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorePrecondition("", "failed to load active plan: %v", err)
	}
	return r.GetPlan(ctx, model.PlanID)
}

// GetPlansByDriver returns all of a driver's plans, newest first
func (r *PlanRepositoryGORM) GetPlansByDriver(ctx context.Context, driverID string) ([]*planning.RoutePlan, error) {
	var models []RoutePlanModel
	if err := r.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at desc").
		Find(&models).Error; err != nil {
		return nil, shared.NewStorePrecondition("", "failed to list plans: %v", err)
	}

	plans := make([]*planning.RoutePlan, 0, len(models))
	for i := range models {
		plan, err := r.GetPlan(ctx, models[i].PlanID)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// GetAllActive returns every active plan across drivers
func (r *PlanRepositoryGORM) GetAllActive(ctx context.Context) ([]*planning.RoutePlan, error) {
	var models []RoutePlanModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&models).Error; err != nil {
		return nil, shared.NewStorePrecondition("", "failed to list active plans: %v", err)
	}

	plans := make([]*planning.RoutePlan, 0, len(models))
	for i := range models {
		plan, err := r.GetPlan(ctx, models[i].PlanID)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

// Activate makes a draft plan the driver's single active plan. Any other
// active plan for the driver is deactivated in the same transaction.
func (r *PlanRepositoryGORM) Activate(ctx context.Context, planID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RoutePlanModel
		if err := tx.Where("plan_id = ?", planID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewStorePrecondition(planID, "plan not found")
			}
			return shared.NewStorePrecondition(planID, "failed to load plan: %v", err)
		}
		if model.Status != string(planning.PlanDraft) {
			return shared.NewStorePrecondition(planID, "cannot activate plan in status %q", model.Status)
		}

		if err := tx.Model(&RoutePlanModel{}).
			Where("driver_id = ? AND is_active = ? AND plan_id <> ?", model.DriverID, true, planID).
			Updates(map[string]interface{}{"is_active": false}).Error; err != nil {
			return shared.NewStorePrecondition(planID, "failed to deactivate sibling plans: %v", err)
		}

		return tx.Model(&RoutePlanModel{}).
			Where("plan_id = ?", planID).
			Updates(map[string]interface{}{
				"is_active": true,
				"status":    string(planning.PlanActive),
			}).Error
	})
}

// Complete marks an active plan completed
func (r *PlanRepositoryGORM) Complete(ctx context.Context, planID string) error {
	return r.transitionPlan(ctx, planID,
		[]string{string(planning.PlanActive)}, planning.PlanCompleted)
}

// Cancel marks a draft or active plan cancelled
func (r *PlanRepositoryGORM) Cancel(ctx context.Context, planID string) error {
	return r.transitionPlan(ctx, planID,
		[]string{string(planning.PlanDraft), string(planning.PlanActive)}, planning.PlanCancelled)
}

func (r *PlanRepositoryGORM) transitionPlan(
	ctx context.Context,
	planID string,
	fromStatuses []string,
	to planning.PlanStatus,
) error {
	result := r.db.WithContext(ctx).Model(&RoutePlanModel{}).
		Where("plan_id = ? AND status IN ?", planID, fromStatuses).
		Updates(map[string]interface{}{
			"status":    string(to),
			"is_active": false,
		})
	if result.Error != nil {
		return shared.NewStorePrecondition(planID, "failed to update plan status: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewStorePrecondition(planID, "plan not found or not in a valid status for %s", to)
	}
	return nil
}

// AppendSegment adds a segment to the end of a plan
func (r *PlanRepositoryGORM) AppendSegment(ctx context.Context, planID string, segment *planning.RouteSegment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if segment.SequenceOrder == 0 {
			var maxSeq int
			tx.Model(&RouteSegmentModel{}).
				Where("plan_id = ?", planID).
				Select("COALESCE(MAX(sequence_order), 0)").
				Scan(&maxSeq)
			segment.SequenceOrder = maxSeq + 1
		}
		model := toSegmentModel(planID, segment)
		if err := tx.Create(model).Error; err != nil {
			return shared.NewStorePrecondition(planID, "failed to append segment: %v", err)
		}
		segment.ID = model.ID
		return nil
	})
}

// SetSegmentStatus applies a status transition, rejecting illegal ones
func (r *PlanRepositoryGORM) SetSegmentStatus(ctx context.Context, segmentID uint, status planning.SegmentStatus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RouteSegmentModel
		if err := tx.Where("id = ?", segmentID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewStorePrecondition("", "segment %d not found", segmentID)
			}
			return shared.NewStorePrecondition("", "failed to load segment: %v", err)
		}

		current := planning.SegmentStatus(model.Status)
		if !current.CanTransitionTo(status) {
			return shared.NewStorePrecondition(model.PlanID,
				"segment %d cannot transition from %s to %s", segmentID, current, status)
		}

		updates := map[string]interface{}{"status": string(status)}
		now := time.Now().UTC()
		switch status {
		case planning.SegmentInProgress:
			updates["actual_arrival"] = &now
		case planning.SegmentCompleted:
			updates["actual_departure"] = &now
		}
		return tx.Model(&RouteSegmentModel{}).Where("id = ?", segmentID).Updates(updates).Error
	})
}

// CurrentSegment returns the in-progress segment, or the first planned one
// when nothing is executing. Nil when the plan has no remaining work.
func (r *PlanRepositoryGORM) CurrentSegment(ctx context.Context, planID string) (*planning.RouteSegment, error) {
	var model RouteSegmentModel
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND status = ?", planID, string(planning.SegmentInProgress)).
		Order("sequence_order asc").
		First(&model).Error
	if err == nil {
		seg := fromSegmentModel(&model)
		return &seg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewStorePrecondition(planID, "failed to load current segment: %v", err)
	}

	err = r.db.WithContext(ctx).
		Where("plan_id = ? AND status = ?", planID, string(planning.SegmentPlanned)).
		Order("sequence_order asc").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, shared.NewStorePrecondition(planID, "failed to load current segment: %v", err)
	}
	seg := fromSegmentModel(&model)
	return &seg, nil
}

// RemainingSegments returns the planned segments in order
func (r *PlanRepositoryGORM) RemainingSegments(ctx context.Context, planID string) ([]planning.RouteSegment, error) {
	var models []RouteSegmentModel
	if err := r.db.WithContext(ctx).
		Where("plan_id = ? AND status = ?", planID, string(planning.SegmentPlanned)).
		Order("sequence_order asc").
		Find(&models).Error; err != nil {
		return nil, shared.NewStorePrecondition(planID, "failed to load remaining segments: %v", err)
	}

	segments := make([]planning.RouteSegment, 0, len(models))
	for i := range models {
		segments = append(segments, fromSegmentModel(&models[i]))
	}
	return segments, nil
}

// AppendUpdate writes one audit record
func (r *PlanRepositoryGORM) AppendUpdate(ctx context.Context, update *planning.PlanUpdate) error {
	if err := r.db.WithContext(ctx).Create(toUpdateModel(update)).Error; err != nil {
		return shared.NewStorePrecondition(update.PlanID, "failed to append update: %v", err)
	}
	return nil
}

// Replan commits a rebuilt plan tail in one transaction: planned segments are
// cancelled, the rebuilt segments appended, the plan's totals and version
// replaced, and the audit record written. A version that moved since the
// update was assessed aborts with a concurrency conflict.
func (r *PlanRepositoryGORM) Replan(
	ctx context.Context,
	planID string,
	rebuilt *planning.RoutePlan,
	update *planning.PlanUpdate,
) (*planning.RoutePlan, error) {
	var result *planning.RoutePlan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model RoutePlanModel
		if err := tx.Where("plan_id = ?", planID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.NewStorePrecondition(planID, "plan not found")
			}
			return shared.NewStorePrecondition(planID, "failed to load plan: %v", err)
		}
		if model.Version != update.PreviousVersion {
			return shared.NewConcurrencyConflict(planID,
				"plan version moved from %d to %d during replan",
				update.PreviousVersion, model.Version)
		}

		if err := tx.Model(&RouteSegmentModel{}).
			Where("plan_id = ? AND status = ?", planID, string(planning.SegmentPlanned)).
			Updates(map[string]interface{}{"status": string(planning.SegmentCancelled)}).Error; err != nil {
			return shared.NewStorePrecondition(planID, "failed to cancel planned segments: %v", err)
		}

		var maxSeq int
		tx.Model(&RouteSegmentModel{}).
			Where("plan_id = ?", planID).
			Select("COALESCE(MAX(sequence_order), 0)").
			Scan(&maxSeq)

		for i := range rebuilt.Segments {
			seg := rebuilt.Segments[i]
			seg.SequenceOrder = maxSeq + i + 1
			segModel := toSegmentModel(planID, &seg)
			if err := tx.Create(segModel).Error; err != nil {
				return shared.NewStorePrecondition(planID, "failed to append rebuilt segment: %v", err)
			}
		}

		newVersion := model.Version + 1
		issues, _ := json.Marshal(rebuilt.FeasibilityIssues)
		violations, _ := json.Marshal(rebuilt.Compliance.Violations)
		if err := tx.Model(&RoutePlanModel{}).
			Where("plan_id = ?", planID).
			Updates(map[string]interface{}{
				"version":                newVersion,
				"total_distance_miles":   rebuilt.TotalDistanceMiles,
				"total_drive_time_hours": rebuilt.TotalDriveTimeHours,
				"total_on_duty_hours":    rebuilt.TotalOnDutyHours,
				"total_cost_estimate":    rebuilt.TotalCostEstimate,
				"is_feasible":            rebuilt.IsFeasible,
				"feasibility_issues":     string(issues),
				"max_drive_hours_used":   rebuilt.Compliance.MaxDriveHoursUsed,
				"max_duty_hours_used":    rebuilt.Compliance.MaxDutyHoursUsed,
				"breaks_required":        rebuilt.Compliance.BreaksRequired,
				"breaks_planned":         rebuilt.Compliance.BreaksPlanned,
				"violations":             string(violations),
			}).Error; err != nil {
			return shared.NewStorePrecondition(planID, "failed to update plan: %v", err)
		}

		update.NewVersion = &newVersion
		if err := tx.Create(toUpdateModel(update)).Error; err != nil {
			return shared.NewStorePrecondition(planID, "failed to append update: %v", err)
		}

		loaded, err := r.getPlan(tx, planID)
		if err != nil {
			return err
		}
		result = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetUpdates returns a plan's audit records oldest first
func (r *PlanRepositoryGORM) GetUpdates(ctx context.Context, planID string) ([]*planning.PlanUpdate, error) {
	var models []PlanUpdateModel
	if err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("triggered_at asc").
		Find(&models).Error; err != nil {
		return nil, shared.NewStorePrecondition(planID, "failed to list updates: %v", err)
	}

	updates := make([]*planning.PlanUpdate, 0, len(models))
	for i := range models {
		updates = append(updates, fromUpdateModel(&models[i]))
	}
	return updates, nil
}

func toPlanModel(plan *planning.RoutePlan) *RoutePlanModel {
	issues, _ := json.Marshal(plan.FeasibilityIssues)
	violations, _ := json.Marshal(plan.Compliance.Violations)
	return &RoutePlanModel{
		PlanID:               plan.PlanID,
		DriverID:             plan.DriverID,
		VehicleID:            plan.VehicleID,
		LoadID:               plan.LoadID,
		Version:              plan.Version,
		IsActive:             plan.IsActive,
		Status:               string(plan.Status),
		OptimizationPriority: string(plan.OptimizationPriority),
		TotalDistanceMiles:   plan.TotalDistanceMiles,
		TotalDriveTimeHours:  plan.TotalDriveTimeHours,
		TotalOnDutyHours:     plan.TotalOnDutyHours,
		TotalCostEstimate:    plan.TotalCostEstimate,
		IsFeasible:           plan.IsFeasible,
		FeasibilityIssues:    string(issues),
		MaxDriveHoursUsed:    plan.Compliance.MaxDriveHoursUsed,
		MaxDutyHoursUsed:     plan.Compliance.MaxDutyHoursUsed,
		BreaksRequired:       plan.Compliance.BreaksRequired,
		BreaksPlanned:        plan.Compliance.BreaksPlanned,
		Violations:           string(violations),
	}
}

func fromPlanModel(model *RoutePlanModel, segModels []RouteSegmentModel) *planning.RoutePlan {
	var issues, violations []string
	if model.FeasibilityIssues != "" {
		_ = json.Unmarshal([]byte(model.FeasibilityIssues), &issues)
	}
	if model.Violations != "" {
		_ = json.Unmarshal([]byte(model.Violations), &violations)
	}

	segments := make([]planning.RouteSegment, 0, len(segModels))
	for i := range segModels {
		segments = append(segments, fromSegmentModel(&segModels[i]))
	}

	return &planning.RoutePlan{
		PlanID:               model.PlanID,
		DriverID:             model.DriverID,
		VehicleID:            model.VehicleID,
		LoadID:               model.LoadID,
		Version:              model.Version,
		IsActive:             model.IsActive,
		Status:               planning.PlanStatus(model.Status),
		OptimizationPriority: planning.OptimizationPriority(model.OptimizationPriority),
		TotalDistanceMiles:   model.TotalDistanceMiles,
		TotalDriveTimeHours:  model.TotalDriveTimeHours,
		TotalOnDutyHours:     model.TotalOnDutyHours,
		TotalCostEstimate:    model.TotalCostEstimate,
		IsFeasible:           model.IsFeasible,
		FeasibilityIssues:    issues,
		Compliance: planning.ComplianceReport{
			MaxDriveHoursUsed: model.MaxDriveHoursUsed,
			MaxDutyHoursUsed:  model.MaxDutyHoursUsed,
			BreaksRequired:    model.BreaksRequired,
			BreaksPlanned:     model.BreaksPlanned,
			Violations:        violations,
		},
		Segments:  segments,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toSegmentModel(planID string, seg *planning.RouteSegment) *RouteSegmentModel {
	model := &RouteSegmentModel{
		ID:                   seg.ID,
		PlanID:               planID,
		SequenceOrder:        seg.SequenceOrder,
		Kind:                 string(seg.Kind),
		Status:               string(seg.Status),
		FromLat:              seg.FromPosition.Lat,
		FromLon:              seg.FromPosition.Lon,
		ToLat:                seg.ToPosition.Lat,
		ToLon:                seg.ToPosition.Lon,
		HoursDrivenAfter:     seg.HOSStateAfter.HoursDriven,
		OnDutyTimeAfter:      seg.HOSStateAfter.OnDutyTime,
		HoursSinceBreakAfter: seg.HOSStateAfter.HoursSinceBreak,
		ActualArrival:        seg.ActualArrival,
		ActualDeparture:      seg.ActualDeparture,
	}
	if !seg.EstimatedArrival.IsZero() {
		t := seg.EstimatedArrival
		model.EstimatedArrival = &t
	}
	if !seg.EstimatedDeparture.IsZero() {
		t := seg.EstimatedDeparture
		model.EstimatedDeparture = &t
	}

	switch seg.Kind {
	case planning.SegmentDrive:
		model.DriveDistanceMiles = seg.Drive.DistanceMiles
		model.DriveTimeHours = seg.Drive.DriveTimeHours
		model.DriveFromStop = seg.Drive.FromStop
		model.DriveToStop = seg.Drive.ToStop
	case planning.SegmentRest:
		model.RestType = string(seg.Rest.Type)
		model.RestDurationHours = seg.Rest.DurationHours
		model.RestReason = seg.Rest.Reason
		model.RestLocation = seg.Rest.Location
	case planning.SegmentFuel:
		model.FuelGallons = seg.Fuel.Gallons
		model.FuelCostEstimate = seg.Fuel.CostEstimate
		model.FuelStation = seg.Fuel.Station
	case planning.SegmentDock:
		model.DockDurationHours = seg.Dock.DurationHours
		model.DockCustomer = seg.Dock.Customer
		model.DockLocation = seg.Dock.Location
	}
	return model
}

func fromSegmentModel(model *RouteSegmentModel) planning.RouteSegment {
	seg := planning.RouteSegment{
		ID:            model.ID,
		SequenceOrder: model.SequenceOrder,
		Kind:          planning.SegmentKind(model.Kind),
		Status:        planning.SegmentStatus(model.Status),
		FromPosition:  shared.LatLon{Lat: model.FromLat, Lon: model.FromLon},
		ToPosition:    shared.LatLon{Lat: model.ToLat, Lon: model.ToLon},
		HOSStateAfter: hos.State{
			HoursDriven:     model.HoursDrivenAfter,
			OnDutyTime:      model.OnDutyTimeAfter,
			HoursSinceBreak: model.HoursSinceBreakAfter,
		},
		ActualArrival:   model.ActualArrival,
		ActualDeparture: model.ActualDeparture,
	}
	if model.EstimatedArrival != nil {
		seg.EstimatedArrival = *model.EstimatedArrival
	}
	if model.EstimatedDeparture != nil {
		seg.EstimatedDeparture = *model.EstimatedDeparture
	}

	switch seg.Kind {
	case planning.SegmentDrive:
		seg.Drive = &planning.DriveDetail{
			DistanceMiles:  model.DriveDistanceMiles,
			DriveTimeHours: model.DriveTimeHours,
			FromStop:       model.DriveFromStop,
			ToStop:         model.DriveToStop,
		}
	case planning.SegmentRest:
		seg.Rest = &planning.RestDetail{
			Type:          planning.RestType(model.RestType),
			DurationHours: model.RestDurationHours,
			Reason:        model.RestReason,
			Location:      model.RestLocation,
		}
	case planning.SegmentFuel:
		seg.Fuel = &planning.FuelDetail{
			Gallons:      model.FuelGallons,
			CostEstimate: model.FuelCostEstimate,
			Station:      model.FuelStation,
		}
	case planning.SegmentDock:
		seg.Dock = &planning.DockDetail{
			DurationHours: model.DockDurationHours,
			Customer:      model.DockCustomer,
			Location:      model.DockLocation,
		}
	}
	return seg
}

func toUpdateModel(update *planning.PlanUpdate) *PlanUpdateModel {
	return &PlanUpdateModel{
		UpdateID:        update.UpdateID,
		PlanID:          update.PlanID,
		Type:            update.Type,
		TriggeredAt:     update.TriggeredAt,
		TriggeredBy:     update.TriggeredBy,
		TriggerData:     string(update.TriggerData),
		ReplanTriggered: update.ReplanTriggered,
		ReplanReason:    update.ReplanReason,
		PreviousVersion: update.PreviousVersion,
		NewVersion:      update.NewVersion,
		ETAShiftHours:   update.Impact.ETAShiftHours,
		SegmentsAdded:   update.Impact.SegmentsAdded,
		SegmentsRemoved: update.Impact.SegmentsRemoved,
		Description:     update.Impact.Description,
	}
}

func fromUpdateModel(model *PlanUpdateModel) *planning.PlanUpdate {
	return &planning.PlanUpdate{
		UpdateID:        model.UpdateID,
		PlanID:          model.PlanID,
		Type:            model.Type,
		TriggeredAt:     model.TriggeredAt,
		TriggeredBy:     model.TriggeredBy,
		TriggerData:     json.RawMessage(model.TriggerData),
		ReplanTriggered: model.ReplanTriggered,
		ReplanReason:    model.ReplanReason,
		PreviousVersion: model.PreviousVersion,
		NewVersion:      model.NewVersion,
		Impact: planning.ImpactSummary{
			ETAShiftHours:   model.ETAShiftHours,
			SegmentsAdded:   model.SegmentsAdded,
			SegmentsRemoved: model.SegmentsRemoved,
			Description:     model.Description,
		},
	}
}
