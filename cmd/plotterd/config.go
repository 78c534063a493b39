package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
)

type config struct {
	FlowRate    float64 `json:"flow_rate"`
	PlanarSpeed float64 `json:"planar_speed"`

	MotorTeeth int `json:"motor_teeth"`
	SinkTeeth  int `json:"sink_teeth"`

	LeadTime        float64 `json:"lead_time"`
	LagTime         float64 `json:"lag_time"`
	RetractionSteps int     `json:"retraction_steps"`
	RetractionSpeed float64 `json:"retraction_speed"`
}

func defaultConfig() config {
	return config{
		FlowRate:    1,
		PlanarSpeed: 1000,

		MotorTeeth: 10,
		SinkTeeth:  10,

		LeadTime:        0.05,
		LagTime:         0.05,
		RetractionSteps: 50,
		RetractionSpeed: 1000,
	}
}

// loadConfig reads the config file, falling back to defaults when it
// does not exist yet.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	err = json.Unmarshal(data, &cfg)
	return cfg, err
}

func (c config) save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}
