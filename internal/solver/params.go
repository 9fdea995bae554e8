package solver

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Params holds the tunable constants shared by the solver family.
type Params struct {
	// Beam search.
	Depth       int     `json:"depth" yaml:"depth" validate:"min=1,max=12"`
	BeamWidth   int     `json:"beam_width" yaml:"beam_width" validate:"min=1,max=256"`
	Per         float64 `json:"per" yaml:"per" validate:"gt=0,lte=1"`
	AgConfPer   float64 `json:"ag_conf_per" yaml:"ag_conf_per" validate:"gte=0,lte=1"`
	LCPPer      float64 `json:"lcp_per" yaml:"lcp_per" validate:"gte=0"`
	LCPPow      float64 `json:"lcp_pow" yaml:"lcp_pow" validate:"gte=0"`
	SameTilePer float64 `json:"same_tile_per" yaml:"same_tile_per" validate:"gte=0"`
	SameTilePow float64 `json:"same_tile_pow" yaml:"same_tile_pow" validate:"gte=0"`

	// Annealing objective.
	FirstMoveBonus    float64 `json:"first_move_bonus" yaml:"first_move_bonus" validate:"gte=0"`
	RegionPer         float64 `json:"region_per" yaml:"region_per" validate:"gte=0"`
	RegionPow         float64 `json:"region_pow" yaml:"region_pow" validate:"gt=0"`
	PutConfPow        float64 `json:"put_conf_pow" yaml:"put_conf_pow" validate:"gt=0"`
	SALastPena        float64 `json:"sa_last_pena" yaml:"sa_last_pena" validate:"gte=0"`
	SALastPow         float64 `json:"sa_last_pow" yaml:"sa_last_pow" validate:"gt=0"`
	SALastSuperPena   float64 `json:"sa_last_super_pena" yaml:"sa_last_super_pena" validate:"gte=0"`
	SALastSuperBorder float64 `json:"sa_last_super_border" yaml:"sa_last_super_border" validate:"gte=0,lte=1"`
	SAConfPer         float64 `json:"sa_conf_per" yaml:"sa_conf_per" validate:"gte=0,lte=1"`
	SAConfPena        float64 `json:"sa_conf_pena" yaml:"sa_conf_pena" validate:"gte=0"`
	SADistPena        float64 `json:"sa_dist_pena" yaml:"sa_dist_pena" validate:"gte=0"`
	SADistPow         float64 `json:"sa_dist_pow" yaml:"sa_dist_pow" validate:"gt=0"`

	// Annealing schedule.
	StartTemp       float64       `json:"start_temp" yaml:"start_temp" validate:"gt=0"`
	EndTemp         float64       `json:"end_temp" yaml:"end_temp" validate:"gt=0"`
	SABudget        time.Duration `json:"sa_budget" yaml:"sa_budget" validate:"gt=0"`
	SAMaxIterations int           `json:"sa_max_iterations" yaml:"sa_max_iterations" validate:"gte=0"`
	SASingleProb    float64       `json:"sa_single_prob" yaml:"sa_single_prob" validate:"gte=0,lte=1"`

	// Regret matching and one-shot assignment.
	RegretIterations int `json:"regret_iterations" yaml:"regret_iterations" validate:"min=1"`
	PlaceBorder      int `json:"place_border" yaml:"place_border" validate:"gte=-17,lte=16"`
	DPDepth          int `json:"dp_depth" yaml:"dp_depth" validate:"min=0,max=4"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Depth:       5,
		BeamWidth:   10,
		Per:         0.61,
		AgConfPer:   0.58,
		LCPPer:      2.0,
		LCPPow:      2.0,
		SameTilePer: 1.0,
		SameTilePow: 2.0,

		FirstMoveBonus:    1.10,
		RegionPer:         0.50,
		RegionPow:         0.85,
		PutConfPow:        0.75,
		SALastPena:        0.5,
		SALastPow:         4.8,
		SALastSuperPena:   2.2,
		SALastSuperBorder: 0.45,
		SAConfPer:         0.7,
		SAConfPena:        1.15,
		SADistPena:        27.0,
		SADistPow:         0.6,

		StartTemp:    3.0,
		EndTemp:      0.3,
		SABudget:     time.Second,
		SASingleProb: 0.8,

		RegretIterations: 100,
		PlaceBorder:      -17,
		DPDepth:          2,
	}
}

var paramsValidate = validator.New()

// Validate checks every field against its declared bounds.
func (p Params) Validate() error {
	if err := paramsValidate.Struct(p); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// LoadParams reads a YAML parameter file over the defaults. An empty path or
// a missing file yields the defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read params: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
