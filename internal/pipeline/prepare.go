package pipeline

import (
	"strings"

	"github.com/ternarybob/marketlens/internal/models"
)

// Request fields filled with a sentinel when absent
const (
	FieldSegment   = "segmento"
	FieldObjective = "objetivo"
	FieldAudience  = "publico_alvo"
	FieldProduct   = "produto"

	fieldAttachments          = "attachments"
	fieldAttachmentsProcessed = "attachments_processed"
)

// RequiredRequestFields are defaulted rather than rejected when missing
var RequiredRequestFields = []string{FieldSegment, FieldObjective, FieldAudience}

const unspecifiedPrefix = "unspecified - "

// Unspecified returns the sentinel stored for a missing field
func Unspecified(field string) string {
	return unspecifiedPrefix + field
}

// IsUnspecified reports whether v is a sentinel produced by Prepare
func IsUnspecified(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, unspecifiedPrefix)
}

// Prepare fills missing required fields with sentinels and flags attachments.
// The input request is never modified; Prepare always succeeds.
func Prepare(request models.AnalysisRequest) models.AnalysisRequest {
	prepared := request.Clone()
	if prepared == nil {
		prepared = models.AnalysisRequest{}
	}

	for _, field := range RequiredRequestFields {
		if isEmpty(prepared[field]) {
			prepared[field] = Unspecified(field)
		}
	}

	if _, ok := prepared[fieldAttachments]; ok {
		prepared[fieldAttachmentsProcessed] = true
	}

	return prepared
}
