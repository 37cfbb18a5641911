package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder("asc"))
	assert.Equal(t, "ASC", ValidateSortOrder(" ASC "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("ascending; DROP TABLE orders"))
}

func TestValidateSortField(t *testing.T) {
	t.Run("whitelisted field passes", func(t *testing.T) {
		assert.Equal(t, "balance", ValidateSortField("balance", CustomerSortFields, "created_at"))
	})

	t.Run("empty input uses the default", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("", CustomerSortFields, "created_at"))
		assert.Equal(t, "created_at", ValidateSortField("   ", CustomerSortFields, "created_at"))
	})

	t.Run("unknown field uses the default", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("secret_column", CustomerSortFields, "created_at"))
	})

	t.Run("injection attempts never reach the query", func(t *testing.T) {
		assert.Equal(t, "doc_number",
			ValidateSortField("posted_at; DELETE FROM stock_documents", StockDocumentSortFields, "doc_number"))
	})
}
