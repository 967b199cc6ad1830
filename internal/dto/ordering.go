package dto

import "github.com/yukikurage/kanban-board-api/internal/services"

// BulkResultResponse reports a batch of conditional writes. Items listed in
// failed were not applied and may be resubmitted.
type BulkResultResponse struct {
	Requested int                    `json:"requested"`
	Modified  int64                  `json:"modified"`
	Failed    []services.BulkFailure `json:"failed"`
}

// ToBulkResultResponse converts a bulk result
func ToBulkResultResponse(result services.BulkResult) BulkResultResponse {
	failed := result.Failed
	if failed == nil {
		failed = []services.BulkFailure{}
	}
	return BulkResultResponse{
		Requested: result.Requested,
		Modified:  result.Modified,
		Failed:    failed,
	}
}
