package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "truckplan"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "truckplan"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Planning defaults: federal 11/14/8 property-carrying rules
	if cfg.Planning.HOS.MaxDriveHours == 0 {
		cfg.Planning.HOS.MaxDriveHours = 11
	}
	if cfg.Planning.HOS.MaxDutyHours == 0 {
		cfg.Planning.HOS.MaxDutyHours = 14
	}
	if cfg.Planning.HOS.BreakTriggerHours == 0 {
		cfg.Planning.HOS.BreakTriggerHours = 8
	}
	if cfg.Planning.HOS.RequiredBreakMinutes == 0 {
		cfg.Planning.HOS.RequiredBreakMinutes = 30
	}
	if cfg.Planning.HOS.MinRestHours == 0 {
		cfg.Planning.HOS.MinRestHours = 10
	}
	if cfg.Planning.FuelBuffer == 0 {
		cfg.Planning.FuelBuffer = 0.20
	}
	if cfg.Planning.DistanceTimeout == 0 {
		cfg.Planning.DistanceTimeout = 10 * time.Second
	}
	if cfg.Planning.TwoOptIterations == 0 {
		cfg.Planning.TwoOptIterations = 100
	}

	// Dispatch defaults
	if cfg.Dispatch.TrafficDelayMinutes == 0 {
		cfg.Dispatch.TrafficDelayMinutes = 30
	}
	if cfg.Dispatch.DockVarianceHours == 0 {
		cfg.Dispatch.DockVarianceHours = 1.0
	}
	if cfg.Dispatch.RestVarianceHours == 0 {
		cfg.Dispatch.RestVarianceHours = 0.5
	}
	if cfg.Dispatch.SpeedDeviationFrac == 0 {
		cfg.Dispatch.SpeedDeviationFrac = 0.15
	}
	if cfg.Dispatch.AppointmentShiftHours == 0 {
		cfg.Dispatch.AppointmentShiftHours = 0.5
	}
	if cfg.Dispatch.CriticalFuelFrac == 0 {
		cfg.Dispatch.CriticalFuelFrac = 0.15
	}
	if cfg.Dispatch.LowFuelFrac == 0 {
		cfg.Dispatch.LowFuelFrac = 0.25
	}
	if cfg.Dispatch.ReplanImpactHours == 0 {
		cfg.Dispatch.ReplanImpactHours = 1.0
	}
	if cfg.Dispatch.LockTimeout == 0 {
		cfg.Dispatch.LockTimeout = 30 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}
