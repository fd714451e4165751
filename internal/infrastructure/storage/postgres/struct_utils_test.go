package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
)

type mockDocument struct {
	entity.Document
	Status string `db:"status" json:"status"`
	Hidden string `db:"-" json:"hidden"`
}

func TestExtractDBColumns_EmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	expectedCols := []string{
		"id", "business_id", "version", "created_at", "updated_at",
		"number", "date", "created_by", "notes", "status",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
}

func TestStructToMap_EmbeddedDocument(t *testing.T) {
	doc := mockDocument{
		Document: entity.Document{
			BaseEntity: entity.BaseEntity{
				ID:         id.New(),
				BusinessID: "biz-1",
				Version:    5,
				CreatedAt:  time.Now().UTC(),
			},
			Number: "POS-MAIN-20260828-0001",
			Date:   time.Now().UTC(),
		},
		Status: "OPEN",
		Hidden: "not persisted",
	}

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, "biz-1", m["business_id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "POS-MAIN-20260828-0001", m["number"])
	assert.Equal(t, "OPEN", m["status"])
	_, hasHidden := m["-"]
	assert.False(t, hasHidden)
}
