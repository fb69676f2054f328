package models

import "time"

type Stage string

const (
	StageGeocode  Stage = "geocode"
	StageForecast Stage = "forecast"
	StageStore    Stage = "store"
)

type State string

const (
	StateLoadingLocations State = "LOADING_LOCATIONS"
	StateGeocoding        State = "GEOCODING"
	StateFetching         State = "FETCHING"
	StateStoring          State = "STORING"
	StateDone             State = "DONE"
)

// Outcome is the result of processing one location in one stage. Err is nil on success.
type Outcome struct {
	Location string
	Stage    Stage
	Err      error
}

func Succeeded(stage Stage, location string) Outcome {
	return Outcome{Location: location, Stage: stage}
}

func Failed(stage Stage, location string, err error) Outcome {
	return Outcome{Location: location, Stage: stage, Err: err}
}

type StageStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func Tally(outcomes []Outcome) StageStats {
	var s StageStats
	for _, o := range outcomes {
		s.Attempted++
		if o.Err != nil {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}

type Failure struct {
	Location string `json:"location"`
	Stage    Stage  `json:"stage"`
	Reason   string `json:"reason"`
}

// Summary is the per-run accounting the driver reports once the run is DONE.
type Summary struct {
	RunID          string     `json:"run_id"`
	Date           string     `json:"date"`
	LocationSource string     `json:"location_source"`
	Locations      int        `json:"locations"`
	State          State      `json:"state"`
	Reason         string     `json:"reason,omitempty"`
	Geocode        StageStats `json:"geocode"`
	Forecast       StageStats `json:"forecast"`
	Store          StageStats `json:"store"`
	Failures       []Failure  `json:"failures,omitempty"`
	Processed      int        `json:"processed"`
	StorageEnabled bool       `json:"storage_enabled"`
	Bucket         string     `json:"bucket,omitempty"`
	Prefix         string     `json:"prefix,omitempty"`
	Cities         []string   `json:"cities,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// Record folds stage outcomes into the summary stats and failure list.
func (s *Summary) Record(stage Stage, outcomes []Outcome) {
	stats := Tally(outcomes)
	switch stage {
	case StageGeocode:
		s.Geocode = stats
	case StageForecast:
		s.Forecast = stats
	case StageStore:
		s.Store = stats
	}
	for _, o := range outcomes {
		if o.Err != nil {
			s.Failures = append(s.Failures, Failure{Location: o.Location, Stage: stage, Reason: o.Err.Error()})
		}
	}
}
