package orchestrator

import (
	"github.com/noot-app/carcinogenscan/internal/analysis"
	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/history"
)

// Status is the coarse view state
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusResult  Status = "showing_result"
	StatusError   Status = "error"
)

// ButtonState is the submit button of one mode
type ButtonState struct {
	Loading bool   `json:"loading"`
	Label   string `json:"label"`
}

// View is a snapshot of the orchestrator state. It owns its results, so
// editing a view never reaches the history.
type View struct {
	Mode              Mode                   `json:"mode"`
	Status            Status                 `json:"status"`
	SingleInput       string                 `json:"singleInput"`
	BatchInput        []backend.ProductInput `json:"batchInput"`
	SingleResult      *analysis.SingleResult `json:"singleResult,omitempty"`
	BatchResult       *analysis.BatchResult  `json:"batchResult,omitempty"`
	History           []history.Item         `json:"history"`
	SelectedHistoryID string                 `json:"selectedHistoryId,omitempty"`
	AIInputNotice     string                 `json:"aiInputNotice,omitempty"`
	Warning           string                 `json:"warning,omitempty"`
	Failure           *Failure               `json:"failure,omitempty"`
	Single            ButtonState            `json:"singleButton"`
	Batch             ButtonState            `json:"batchButton"`
}

// IsLoading reports whether a call is in flight for the mode
func (v View) IsLoading(m Mode) bool {
	if m == ModeBatch {
		return v.Batch.Loading
	}
	return v.Single.Loading
}

// ButtonLabel returns the submit button label for the mode
func (v View) ButtonLabel(m Mode) string {
	if m == ModeBatch {
		return v.Batch.Label
	}
	return v.Single.Label
}

func (o *Orchestrator) snapshot() View {
	v := View{
		Mode:              modeOf(o.isBatch),
		SingleInput:       o.singleInput,
		BatchInput:        append([]backend.ProductInput(nil), o.batchInput...),
		SingleResult:      o.singleResult.Clone(),
		BatchResult:       o.batchResult.Clone(),
		History:           o.history.List(),
		SelectedHistoryID: o.selectedID,
		AIInputNotice:     o.notice,
		Warning:           o.warning,
		Single:            ButtonState{Loading: o.single.loading, Label: o.single.label},
		Batch:             ButtonState{Loading: o.batch.loading, Label: o.batch.label},
	}
	if o.failure != nil {
		f := *o.failure
		v.Failure = &f
	}

	switch {
	case o.single.loading || o.batch.loading:
		v.Status = StatusLoading
	case o.failure != nil:
		v.Status = StatusError
	case o.singleResult != nil || o.batchResult != nil:
		v.Status = StatusResult
	default:
		v.Status = StatusIdle
	}
	return v
}
