package domain

import "time"

type TaskFailure struct {
	Dest  string `json:"dest"`
	Size  string `json:"size,omitempty"`
	Error string `json:"error"`
}

type CatalogReport struct {
	Name      string        `json:"name"`
	Family    string        `json:"family"`
	Succeeded int           `json:"succeeded"`
	Expected  int           `json:"expected"`
	Failures  []TaskFailure `json:"failures,omitempty"`
}

func (r CatalogReport) Complete() bool {
	return r.Succeeded == r.Expected
}

// RunReport aggregates one generation run. Outputs holds every
// project-relative path the run wrote, images and metadata documents alike,
// so later stages can re-publish exactly what was produced.
type RunReport struct {
	ID         string          `json:"run_id"`
	Root       string          `json:"root"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Catalogs   []CatalogReport `json:"catalogs"`
	Outputs    []string        `json:"outputs,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

func (r RunReport) Totals() (succeeded, expected int) {
	for _, c := range r.Catalogs {
		succeeded += c.Succeeded
		expected += c.Expected
	}
	return succeeded, expected
}

func (r RunReport) Complete() bool {
	succeeded, expected := r.Totals()
	return succeeded == expected
}

func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
