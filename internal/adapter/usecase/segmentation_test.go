package usecase

import (
	"context"
	"errors"
	"testing"

	"mailcadence/internal/core/domain"
	"mailcadence/internal/core/port"
	"mailcadence/internal/core/port/mocks"
	"mailcadence/internal/core/segment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestSelectKeepsNewestPerHouseholdAndOrdersByPostalCode ensures selection dedups households and orders by postal code.
func TestSelectKeepsNewestPerHouseholdAndOrdersByPostalCode(t *testing.T) {
	source := mocks.NewMockAudienceSource(t)
	source.EXPECT().Query(mock.Anything, mock.Anything).Return([]port.AudienceCandidate{
		{ProspectID: 3, AddressID: 1, PostalCodeShort: "62702"},
		{ProspectID: 5, AddressID: 1, PostalCodeShort: "62702"},
		{ProspectID: 4, AddressID: 3, PostalCodeShort: "62701"},
		{ProspectID: 2, AddressID: 2, PostalCodeShort: "62701"},
	}, 4, nil)

	engine := NewSegmentationEngine(source)
	got, err := engine.Select(context.Background(), domain.Targeting{IntacctCompanyID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 5}, got)
}

// TestSelectAppliesPostalCodeCaps ensures per postal code caps limit the audience.
func TestSelectAppliesPostalCodeCaps(t *testing.T) {
	source := mocks.NewMockAudienceSource(t)
	source.EXPECT().Query(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, p segment.Pipeline) ([]port.AudienceCandidate, int64, error) {
			assert.Equal(t, 2, p.Cap("62701"))
			return []port.AudienceCandidate{
				{ProspectID: 10, AddressID: 10, PostalCodeShort: "62701"},
				{ProspectID: 11, AddressID: 11, PostalCodeShort: "62701"},
				{ProspectID: 12, AddressID: 12, PostalCodeShort: "62701"},
				{ProspectID: 20, AddressID: 20, PostalCodeShort: "62702"},
				{ProspectID: 21, AddressID: 21, PostalCodeShort: "62702"},
			}, 5, nil
		})

	engine := NewSegmentationEngine(source)
	got, err := engine.Select(context.Background(), domain.Targeting{
		PostalCodes: []domain.PostalCodeCap{{Code: "62701", Cap: 2}, {Code: "62702"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 20, 21}, got)
}

// TestSelectRejectsUnknownRuleWithoutQuerying ensures an unknown rule fails before the source is queried.
func TestSelectRejectsUnknownRuleWithoutQuerying(t *testing.T) {
	source := mocks.NewMockAudienceSource(t)
	engine := NewSegmentationEngine(source)

	_, err := engine.Select(context.Background(), domain.Targeting{
		Rules: []domain.FilterRule{{Name: "favourite_colour", Value: "blue"}},
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

// TestSelectPropagatesSourceFailure ensures source errors reach the caller.
func TestSelectPropagatesSourceFailure(t *testing.T) {
	boom := errors.New("connection reset")
	source := mocks.NewMockAudienceSource(t)
	source.EXPECT().Query(mock.Anything, mock.Anything).Return(nil, 0, boom)

	_, err := NewSegmentationEngine(source).Select(context.Background(), domain.Targeting{})
	require.ErrorIs(t, err, boom)
}

// TestRollupSumsHouseholds ensures the rollup totals households per postal code.
func TestRollupSumsHouseholds(t *testing.T) {
	source := mocks.NewMockAudienceSource(t)
	source.EXPECT().Aggregate(mock.Anything, mock.Anything).Return([]domain.PostalCodeRollup{
		{PostalCodeShort: "62702", Households: 4, AverageCustomerLTV: 1500},
		{PostalCodeShort: "62701", Households: 3, AverageCustomerLTV: 900},
	}, nil)

	preview, err := NewSegmentationEngine(source).Rollup(context.Background(), domain.Targeting{})
	require.NoError(t, err)
	assert.EqualValues(t, 7, preview.Households)
	require.Len(t, preview.Rows, 2)
	assert.Equal(t, "62701", preview.Rows[0].PostalCodeShort)
	assert.InDelta(t, 900, preview.Rows[0].AverageCustomerLTV, 0.001)
}

// TestRollupWithoutCustomerJoinHasNoAverage ensures the rollup omits averages when customers are not joined.
func TestRollupWithoutCustomerJoinHasNoAverage(t *testing.T) {
	source := mocks.NewMockAudienceSource(t)
	source.EXPECT().Aggregate(mock.Anything, mock.Anything).Return([]domain.PostalCodeRollup{
		{PostalCodeShort: "62701", Households: 3, AverageCustomerLTV: 900},
	}, nil)

	preview, err := NewSegmentationEngine(source).Rollup(context.Background(), domain.Targeting{
		Rules: []domain.FilterRule{{Name: "customer_inclusion", Value: "prospects_only"}},
	})
	require.NoError(t, err)
	assert.Zero(t, preview.Rows[0].AverageCustomerLTV)
}
