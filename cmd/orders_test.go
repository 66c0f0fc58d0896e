package cmd

import (
	"bytes"
	"strings"
	"testing"

	"orderdesk/pkg/models"
)

func TestPrintOrderExtractionNote(t *testing.T) {
	tests := []struct {
		name   string
		status *models.ProcessingStatus
		want   bool
	}{
		{"running", processing(models.ProcessingProcessing), true},
		{"queued", processing(models.ProcessingPending), true},
		{"completed", processing(models.ProcessingCompleted), false},
		{"failed", processing(models.ProcessingFailed), false},
		{"manual order", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printOrder(&buf, &models.Order{
				ID:               9,
				OrderNumber:      "ORD-9",
				Currency:         "USD",
				Status:           models.OrderStatusPending,
				ProcessingStatus: tt.status,
			})
			got := strings.Contains(buf.String(), "Extraction is still running")
			if got != tt.want {
				t.Errorf("note printed = %v, want %v\n%s", got, tt.want, buf.String())
			}
		})
	}
}

func processing(s models.ProcessingStatus) *models.ProcessingStatus { return &s }
