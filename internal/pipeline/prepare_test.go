package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/marketlens/internal/models"
)

func TestPrepare_FillsMissingFields(t *testing.T) {
	prepared := Prepare(models.AnalysisRequest{"produto": "assinatura mensal"})

	for _, field := range RequiredRequestFields {
		assert.Equal(t, "unspecified - "+field, prepared[field])
		assert.Contains(t, prepared[field], field)
	}
	assert.Equal(t, "assinatura mensal", prepared["produto"])
	assert.NotContains(t, prepared, "attachments_processed")
}

func TestPrepare_KeepsProvidedFields(t *testing.T) {
	prepared := Prepare(models.AnalysisRequest{
		"segmento":     "cafeterias",
		"objetivo":     "expandir",
		"publico_alvo": "jovens adultos",
	})

	assert.Equal(t, "cafeterias", prepared["segmento"])
	assert.Equal(t, "expandir", prepared["objetivo"])
	assert.Equal(t, "jovens adultos", prepared["publico_alvo"])
}

func TestPrepare_BlankValuesAreMissing(t *testing.T) {
	prepared := Prepare(models.AnalysisRequest{"segmento": "   ", "objetivo": nil})

	assert.Equal(t, Unspecified("segmento"), prepared["segmento"])
	assert.Equal(t, Unspecified("objetivo"), prepared["objetivo"])
	assert.True(t, IsUnspecified(prepared["segmento"]))
}

func TestPrepare_MarksAttachments(t *testing.T) {
	prepared := Prepare(models.AnalysisRequest{"attachments": []interface{}{"a.pdf"}})
	assert.Equal(t, true, prepared["attachments_processed"])
	assert.Equal(t, []interface{}{"a.pdf"}, prepared["attachments"])
}

func TestPrepare_DoesNotMutateInput(t *testing.T) {
	request := models.AnalysisRequest{"produto": "x", "attachments": []interface{}{}}
	_ = Prepare(request)

	assert.Equal(t, models.AnalysisRequest{"produto": "x", "attachments": []interface{}{}}, request)
}

func TestPrepare_NilRequest(t *testing.T) {
	prepared := Prepare(nil)
	assert.Len(t, prepared, len(RequiredRequestFields))
}
