package dispatch

import (
	"encoding/json"
	"fmt"
)

// DecodeTrigger reconstructs a typed trigger from its type name and the JSON
// payload stored in a PlanUpdate audit record. Unrecognized type names decode
// into UnknownTrigger so stale or external events still get handled.
func DecodeTrigger(triggerType string, data []byte) (Trigger, error) {
	if len(data) == 0 {
		data = []byte("{}")
	}

	unmarshal := func(v interface{}) error {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to decode %s trigger: %w", triggerType, err)
		}
		return nil
	}

	switch triggerType {
	case "traffic_delay":
		var t TrafficDelay
		return t, unmarshal(&t)
	case "dock_time_change":
		var t DockTimeChange
		return t, unmarshal(&t)
	case "load_added":
		var t LoadAdded
		return t, unmarshal(&t)
	case "load_cancelled":
		var t LoadCancelled
		return t, unmarshal(&t)
	case "driver_rest_request":
		var t DriverRestRequest
		return t, unmarshal(&t)
	case "hos_drive_limit_approaching":
		var t HOSLimitApproaching
		if err := unmarshal(&t); err != nil {
			return nil, err
		}
		t.Limit = "drive"
		return t, nil
	case "hos_duty_limit_approaching":
		var t HOSLimitApproaching
		if err := unmarshal(&t); err != nil {
			return nil, err
		}
		t.Limit = "duty"
		return t, nil
	case "break_required_soon":
		var t BreakRequiredSoon
		return t, unmarshal(&t)
	case "hos_violation_drive":
		var t HOSViolation
		if err := unmarshal(&t); err != nil {
			return nil, err
		}
		t.Rule = "drive"
		return t, nil
	case "hos_violation_duty":
		var t HOSViolation
		if err := unmarshal(&t); err != nil {
			return nil, err
		}
		t.Rule = "duty"
		return t, nil
	case "break_violation":
		var t HOSViolation
		if err := unmarshal(&t); err != nil {
			return nil, err
		}
		t.Rule = "break"
		return t, nil
	case "rest_duration_changed":
		var t RestDurationChanged
		return t, unmarshal(&t)
	case "fuel_low":
		var t FuelLow
		return t, unmarshal(&t)
	case "speed_deviation":
		var t SpeedDeviation
		return t, unmarshal(&t)
	case "appointment_changed":
		var t AppointmentChanged
		return t, unmarshal(&t)
	case "dock_unavailable":
		var t DockUnavailable
		return t, unmarshal(&t)
	case "weather_event":
		var t WeatherEvent
		return t, unmarshal(&t)
	case "weigh_station_delay":
		var t WeighStationDelay
		return t, unmarshal(&t)
	}

	return UnknownTrigger{TypeName: triggerType}, nil
}

// EncodeTrigger serializes a trigger's own fields for the audit record
func EncodeTrigger(trigger Trigger) ([]byte, error) {
	if trigger == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s trigger: %w", trigger.Type(), err)
	}
	return data, nil
}
