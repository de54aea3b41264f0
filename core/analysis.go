// core/analysis.go
package core

import "fmt"

// AnalysisOptions tune Analyze. The zero value is usable.
type AnalysisOptions struct {
	// ProfileSamples is the number of Fresnel profile intervals; <= 0
	// selects DefaultProfileSamples.
	ProfileSamples int
}

// ObstacleAssessment is the per-obstacle view of an analysis: where the
// obstacle sits on the path, how large the Fresnel zone is there, what it
// costs and whether it intrudes.
type ObstacleAssessment struct {
	Obstacle          Obstacle `json:"obstacle"`
	DistanceFromTxM   float64  `json:"distance_from_tx_m"`
	DistanceToRxM     float64  `json:"distance_to_rx_m"`
	FresnelRadiusM    float64  `json:"fresnel_radius_m"`
	DiffractionLossDb float64  `json:"diffraction_loss_db"`
	Intruding         bool     `json:"intruding"`
}

// LinkAnalysis bundles every engine output for one hop. It is built fresh
// by each Analyze call and not modified afterwards.
type LinkAnalysis struct {
	Parameters     LinkParameters       `json:"parameters"`
	Path           PathGeometry         `json:"path"`
	Budget         LinkBudgetResult     `json:"budget"`
	Diffraction    DiffractionResult    `json:"diffraction"`
	FresnelProfile []FresnelPoint       `json:"fresnel_profile"`
	Obstacles      []ObstacleAssessment `json:"obstacles"`

	// EffectiveMarginDb is the system margin after diffraction losses.
	EffectiveMarginDb float64     `json:"effective_margin_db"`
	Quality           LinkQuality `json:"quality"`
	Viable            bool        `json:"viable"`
}

// IntrudingCount returns how many obstacles reach into the first Fresnel
// zone.
func (a *LinkAnalysis) IntrudingCount() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, o := range a.Obstacles {
		if o.Intruding {
			n++
		}
	}
	return n
}

// Analyze evaluates params with obstacles placed on the canonical path
// returned by params.Path().
func Analyze(params LinkParameters, obstacles []Obstacle, opts AnalysisOptions) (*LinkAnalysis, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return analyzePath(params, params.Path(), obstacles, opts)
}

func analyzePath(params LinkParameters, path PathGeometry, obstacles []Obstacle, opts AnalysisOptions) (*LinkAnalysis, error) {
	budget, err := EvaluateLinkBudget(params)
	if err != nil {
		return nil, err
	}

	diff, err := ComputeDiffraction(path, obstacles)
	if err != nil {
		return nil, err
	}

	profile, err := SampleFresnelProfile(params.FrequencyMHz, params.DistanceM, opts.ProfileSamples)
	if err != nil {
		return nil, err
	}

	lambda, err := path.wavelength()
	if err != nil {
		return nil, err
	}
	assessments := make([]ObstacleAssessment, 0, len(obstacles))
	for i, obs := range obstacles {
		c, err := clearanceAt(obs, path, lambda)
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		assessments = append(assessments, ObstacleAssessment{
			Obstacle:          obs,
			DistanceFromTxM:   c.d1,
			DistanceToRxM:     c.d2,
			FresnelRadiusM:    c.radius,
			DiffractionLossDb: diff.Obstacles[i].LossDb,
			Intruding:         c.intruding,
		})
	}

	margin := budget.SystemMarginDb - diff.TotalLossDb
	quality := ClassifyMargin(margin)
	return &LinkAnalysis{
		Parameters:        params,
		Path:              path,
		Budget:            budget,
		Diffraction:       diff,
		FresnelProfile:    profile,
		Obstacles:         assessments,
		EffectiveMarginDb: margin,
		Quality:           quality,
		Viable:            quality.Viable(),
	}, nil
}
