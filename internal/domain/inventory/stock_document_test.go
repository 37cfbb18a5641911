package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucketPtr(b Bucket) *Bucket { return &b }

func newDoc(t *testing.T, docType DocumentType) *StockDocument {
	t.Helper()
	doc, err := NewStockDocument(uuid.New(), "SD-2026-000001", docType, uuid.New())
	require.NoError(t, err)
	return doc
}

func TestStockDocumentLines(t *testing.T) {
	t.Run("positive quantity required outside adjustments", func(t *testing.T) {
		doc := newDoc(t, DocTypeReceipt)
		err := doc.AddLine(StockDocumentLine{VariantID: uuid.New(), Quantity: decimal.Zero})
		assert.Error(t, err)
	})

	t.Run("adjustment allows signed delta with target bucket", func(t *testing.T) {
		doc := newDoc(t, DocTypeAdjustment)
		err := doc.AddLine(StockDocumentLine{
			VariantID: uuid.New(),
			Quantity:  decimal.NewFromInt(-3),
			ToBucket:  bucketPtr(BucketOnHand),
		})
		require.NoError(t, err)

		err = doc.AddLine(StockDocumentLine{VariantID: uuid.New(), Quantity: decimal.NewFromInt(-3)})
		assert.Error(t, err, "adjustment without bucket must fail")
	})

	t.Run("reclassify needs differing buckets", func(t *testing.T) {
		doc := newDoc(t, DocTypeReclassify)
		err := doc.AddLine(StockDocumentLine{
			VariantID:  uuid.New(),
			Quantity:   decimal.NewFromInt(2),
			FromBucket: bucketPtr(BucketOnHand),
			ToBucket:   bucketPtr(BucketOnHand),
		})
		assert.Error(t, err)

		err = doc.AddLine(StockDocumentLine{
			VariantID:  uuid.New(),
			Quantity:   decimal.NewFromInt(2),
			FromBucket: bucketPtr(BucketOnHand),
			ToBucket:   bucketPtr(BucketQuarantine),
		})
		assert.NoError(t, err)
	})

	t.Run("unload targets on_hand or quarantine only", func(t *testing.T) {
		doc := newDoc(t, DocTypeUnload)
		err := doc.AddLine(StockDocumentLine{
			VariantID: uuid.New(),
			Quantity:  decimal.NewFromInt(2),
			ToBucket:  bucketPtr(BucketInTransit),
		})
		assert.Error(t, err)
	})
}

func TestStockDocumentPost(t *testing.T) {
	t.Run("posting empty document fails", func(t *testing.T) {
		doc := newDoc(t, DocTypeReceipt)
		assert.Error(t, doc.MarkPosted())
	})

	t.Run("transfer without destination fails", func(t *testing.T) {
		doc := newDoc(t, DocTypeTransfer)
		require.NoError(t, doc.AddLine(StockDocumentLine{VariantID: uuid.New(), Quantity: decimal.NewFromInt(1)}))
		assert.Error(t, doc.MarkPosted())

		require.NoError(t, doc.SetDestination(uuid.New()))
		assert.NoError(t, doc.MarkPosted())
	})

	t.Run("adjustment without reason fails", func(t *testing.T) {
		doc := newDoc(t, DocTypeAdjustment)
		require.NoError(t, doc.AddLine(StockDocumentLine{
			VariantID: uuid.New(),
			Quantity:  decimal.NewFromInt(1),
			ToBucket:  bucketPtr(BucketOnHand),
		}))
		assert.Error(t, doc.MarkPosted())

		doc.SetReason("cycle count correction")
		assert.NoError(t, doc.MarkPosted())
	})

	t.Run("posting twice fails and lines freeze after post", func(t *testing.T) {
		doc := newDoc(t, DocTypeReceipt)
		require.NoError(t, doc.AddLine(StockDocumentLine{VariantID: uuid.New(), Quantity: decimal.NewFromInt(5)}))
		require.NoError(t, doc.MarkPosted())
		assert.Error(t, doc.MarkPosted())
		assert.Error(t, doc.AddLine(StockDocumentLine{VariantID: uuid.New(), Quantity: decimal.NewFromInt(1)}))
		assert.Len(t, doc.GetDomainEvents(), 1)
	})

	t.Run("destination rejected on non-transfer", func(t *testing.T) {
		doc := newDoc(t, DocTypeIssue)
		assert.Error(t, doc.SetDestination(uuid.New()))
	})
}
