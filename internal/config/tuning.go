// Package config loads the pipeline tuning file.
//
// The JSON schema uses pointer-typed optional fields: anything omitted
// from the file keeps its protocol default, so partial configs are
// safe. There is no process-wide configuration state; callers derive an
// immutable pipeline.Config from the loaded file per invocation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/motionlab-data/kinematics.report/internal/burst"
	"github.com/motionlab-data/kinematics.report/internal/filter"
	"github.com/motionlab-data/kinematics.report/internal/kinematics"
	"github.com/motionlab-data/kinematics.report/internal/mocap"
	"github.com/motionlab-data/kinematics.report/internal/pipeline"
)

// TuningConfig represents the root configuration for tuning parameters.
type TuningConfig struct {
	// Filter params
	FilterMode        *string  `json:"filter_mode,omitempty"` // "global" or "per_region"
	FilterFMinHz      *float64 `json:"filter_fmin_hz,omitempty"`
	FilterFMaxHz      *float64 `json:"filter_fmax_hz,omitempty"`
	FilterStepHz      *float64 `json:"filter_step_hz,omitempty"`
	FilterTopK        *int     `json:"filter_top_k,omitempty"`
	GlobalGuardrailHz *float64 `json:"global_guardrail_hz,omitempty"`

	// Region params
	RegionGuardrailHz map[string]float64 `json:"region_guardrail_hz,omitempty"`
	Regions           map[string]string  `json:"regions,omitempty"` // joint name -> region tag

	// Differentiation params
	AngularMethod   *string  `json:"angular_method,omitempty"` // "quat_log" or "stencil"
	SGWindowSeconds *float64 `json:"sg_window_seconds,omitempty"`
	SGOrder         *int     `json:"sg_order,omitempty"`

	// Burst params
	TriggerDegS *float64 `json:"trigger_deg_s,omitempty"`

	// Batch params
	Workers *int `json:"workers,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max
// file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.FilterMode != nil {
		if *c.FilterMode != string(filter.KindGlobal) && *c.FilterMode != string(filter.KindPerRegion) {
			return fmt.Errorf("filter_mode must be %q or %q, got %q", filter.KindGlobal, filter.KindPerRegion, *c.FilterMode)
		}
	}
	if c.FilterFMinHz != nil && *c.FilterFMinHz <= 0 {
		return fmt.Errorf("filter_fmin_hz must be positive, got %f", *c.FilterFMinHz)
	}
	if c.FilterFMinHz != nil && c.FilterFMaxHz != nil && *c.FilterFMaxHz <= *c.FilterFMinHz {
		return fmt.Errorf("filter_fmax_hz (%f) must exceed filter_fmin_hz (%f)", *c.FilterFMaxHz, *c.FilterFMinHz)
	}
	if c.AngularMethod != nil {
		if *c.AngularMethod != string(kinematics.MethodQuatLog) && *c.AngularMethod != string(kinematics.MethodStencil) {
			return fmt.Errorf("angular_method must be %q or %q, got %q", kinematics.MethodQuatLog, kinematics.MethodStencil, *c.AngularMethod)
		}
	}
	if c.TriggerDegS != nil && *c.TriggerDegS <= 0 {
		return fmt.Errorf("trigger_deg_s must be positive, got %f", *c.TriggerDegS)
	}
	if c.SGOrder != nil && *c.SGOrder < 1 {
		return fmt.Errorf("sg_order must be at least 1, got %d", *c.SGOrder)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	for joint, tag := range c.Regions {
		if !mocap.Region(tag).IsValid() {
			return fmt.Errorf("joint %q assigned to unknown region %q", joint, tag)
		}
	}
	return nil
}

// GetWorkers returns the workers value or the default.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetRegionMap builds the RegionMap from the regions section, or nil
// when no joints are assigned.
func (c *TuningConfig) GetRegionMap() mocap.RegionMap {
	if len(c.Regions) == 0 {
		return nil
	}
	m := make(mocap.RegionMap, len(c.Regions))
	for joint, tag := range c.Regions {
		m[joint] = mocap.Region(tag)
	}
	return m
}

// PipelineConfig derives the immutable pipeline configuration, applying
// protocol defaults for anything the file omits.
func (c *TuningConfig) PipelineConfig() pipeline.Config {
	perRegion := c.FilterMode != nil && *c.FilterMode == string(filter.KindPerRegion)

	var cfg pipeline.Config
	if perRegion {
		cfg = pipeline.DefaultPerRegionConfig(c.GetRegionMap())
	} else {
		cfg = pipeline.DefaultConfig()
	}

	if c.FilterFMinHz != nil {
		cfg.Filter.FMinHz = *c.FilterFMinHz
	}
	if c.FilterFMaxHz != nil {
		cfg.Filter.FMaxHz = *c.FilterFMaxHz
	}
	if c.FilterStepHz != nil {
		cfg.Filter.StepHz = *c.FilterStepHz
	}
	if c.FilterTopK != nil {
		cfg.Filter.TopK = *c.FilterTopK
	}
	if c.GlobalGuardrailHz != nil {
		cfg.Filter.GlobalGuardrailHz = *c.GlobalGuardrailHz
	}
	for tag, floor := range c.RegionGuardrailHz {
		cfg.Filter.RegionGuardrailHz[mocap.Region(tag)] = floor
	}
	if c.AngularMethod != nil {
		cfg.Kinematics.Method = kinematics.Method(*c.AngularMethod)
	}
	if c.SGWindowSeconds != nil {
		cfg.Kinematics.SGWindowSeconds = *c.SGWindowSeconds
	}
	if c.SGOrder != nil {
		cfg.Kinematics.SGOrder = *c.SGOrder
	}
	if c.TriggerDegS != nil {
		cfg.TriggerDegS = *c.TriggerDegS
	}
	return cfg
}

// GetTriggerDegS returns the trigger_deg_s value or the default.
func (c *TuningConfig) GetTriggerDegS() float64 {
	if c.TriggerDegS == nil {
		return burst.DefaultTriggerDegS
	}
	return *c.TriggerDegS
}
