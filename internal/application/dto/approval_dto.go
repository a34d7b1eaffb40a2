package dto

// ApproveRequest cuerpo de POST /pricing-runs/:id/approve.
type ApproveRequest struct {
	Level   int    `json:"level" validate:"min=1"`
	Version int    `json:"version" validate:"min=1"` // versión observada por el caller (CAS)
	Comment string `json:"comment"`
}

// RejectRequest cuerpo de POST /pricing-runs/:id/reject. Reason es obligatorio.
type RejectRequest struct {
	Version int    `json:"version" validate:"min=1"`
	Reason  string `json:"reason" validate:"required"`
}

// SubmitRequest cuerpo de POST /pricing-runs/:id/submit.
type SubmitRequest struct {
	Version int `json:"version" validate:"min=1"`
}

// TransitionResponse resultado de una transición de aprobación.
type TransitionResponse struct {
	RunID        string `json:"run_id"`
	Status       string `json:"status"`
	CurrentLevel int    `json:"current_level"`
	Version      int    `json:"version"`
}
