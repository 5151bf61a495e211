package service

import (
	"fmt"

	"pulsenet-client/internal/models"
)

// NarrationText picks the single text to narrate: the alert message, else a summary of
// the candidates in backend order, else the status.
func NarrationText(alert *models.Alert, candidates []models.DonorCandidate, status string) string {
	if alert != nil && alert.Message != "" {
		return alert.Message
	}
	if len(candidates) > 0 {
		return fmt.Sprintf("Found %d matching donors. Nearest donor is %s.", len(candidates), candidates[0].Name)
	}
	return status
}
