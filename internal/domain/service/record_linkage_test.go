package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/crn/internal/domain/models"
	"github.com/turtacn/crn/internal/domain/repository/mocks"
)

func newTestLinker(repo *mocks.MockPropertyRepository) *RecordLinker {
	return NewRecordLinker(repo, NewScoringProvider(DefaultScoringConfig()), nil)
}

func residential(id, owner, address, municipality, county string) *models.PropertyRecord {
	return &models.PropertyRecord{
		ID:            id,
		OwnerName:     owner,
		Address:       address,
		Municipality:  municipality,
		County:        county,
		PropertyClass: models.PropertyClassResidential,
	}
}

func TestAddressPassCityMatchIsDefinitive(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByAddress", mock.Anything, "123 main st", 25).
		Return([]*models.PropertyRecord{residential("p1", "SMITH JOHN", "123 Main Street, Springfield", "Springfield", "Sangamon")}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{
		Name: "John Smith", Address: "123 Main St", City: "Springfield",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.GreaterOrEqual(t, got[0].Confidence, 0.95)
	assert.True(t, got[0].Definitive)
	assert.Equal(t, models.MatchTypeAddress, got[0].MatchType)

	best, ok := BestDefinitive(got)
	assert.True(t, ok)
	assert.Equal(t, "p1", best.Property.ID)
	repo.AssertNotCalled(t, "SearchByOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddressPassConfidences(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByAddress", mock.Anything, "9 elm st", 25).Return([]*models.PropertyRecord{
		residential("base", "A B", "9 Elm St", "Shelbyville", "Shelby"),
		residential("county", "A B", "9 Elm St", "Shelbyville", "Sangamon"),
		residential("city", "A B", "9 Elm St", "Springfield Township", "Shelby"),
	}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{
		Address: "9 Elm Street", City: "Springfield", County: "sangamon",
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "city", got[0].Property.ID)
	assert.InDelta(t, 0.95, got[0].Confidence, 1e-9)
	assert.Equal(t, "county", got[1].Property.ID)
	assert.InDelta(t, 0.9, got[1].Confidence, 1e-9)
	assert.Equal(t, "base", got[2].Property.ID)
	assert.InDelta(t, 0.8, got[2].Confidence, 1e-9)
	for _, c := range got {
		assert.True(t, c.Definitive)
	}
}

func TestNamePassRunsOnlyWhenAddressPassIsEmpty(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByAddress", mock.Anything, "1 nowhere rd", 25).Return([]*models.PropertyRecord{}, nil)
	repo.On("SearchByOwner", mock.Anything, []string{"smith", "john"}, "", 25).Return([]*models.PropertyRecord{
		residential("far", "SMITH JOHN", "7 Oak Ave", "Capital City", "Other"),
		residential("trust", "SMITH FAMILY TRUST", "8 Oak Ave", "Springfield", ""),
		residential("near", "SMITH JOHN A", "9 Oak Ave", "Springfield", ""),
	}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{
		Name: "John Smith", Address: "1 Nowhere Road", City: "Springfield",
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "near", got[0].Property.ID)
	assert.InDelta(t, 0.8, got[0].Confidence, 1e-9)
	assert.True(t, got[0].Definitive)

	assert.Equal(t, "far", got[1].Property.ID)
	assert.LessOrEqual(t, got[1].Confidence, 0.6)
	assert.False(t, got[1].Definitive)
	assert.Equal(t, models.MatchTypeName, got[1].MatchType)
}

func TestNameOnlyWithoutCityNeverDefinitive(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByOwner", mock.Anything, []string{"doe", "jane"}, "", 25).Return([]*models.PropertyRecord{
		residential("p", "DOE JANE", "4 Pine Ln", "Elsewhere", "Nowhere"),
	}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{Name: "Jane Doe", City: "Springfield"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.LessOrEqual(t, got[0].Confidence, 0.6)
	assert.False(t, got[0].Definitive)
	_, ok := BestDefinitive(got)
	assert.False(t, ok)
}

func TestNamePassCountyFilterAndBonus(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByOwner", mock.Anything, []string{"doe", "jane"}, "Sangamon", 25).Return([]*models.PropertyRecord{
		residential("p", "DOE JANE", "4 Pine Ln", "Springfield", "Sangamon"),
	}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{Name: "Jane Doe", City: "Springfield", County: "Sangamon"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
}

func TestBusinessSubjectSkipsNamePass(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{Name: "Smith Family Trust"})
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNotCalled(t, "SearchByOwner", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEqualConfidenceKeepsStoreOrder(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	repo.On("SearchByAddress", mock.Anything, "5 main st", 25).Return([]*models.PropertyRecord{
		residential("first", "", "5 Main St", "Springfield", ""),
		residential("second", "", "5 Main St Unit B", "Springfield", ""),
	}, nil)

	got, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{Address: "5 Main St", City: "Springfield"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Property.ID)
	assert.Equal(t, "second", got[1].Property.ID)
}

func TestLinkerPropagatesStoreErrors(t *testing.T) {
	repo := new(mocks.MockPropertyRepository)
	boom := errors.New("connection reset")
	repo.On("SearchByAddress", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	_, err := newTestLinker(repo).FindCandidates(context.Background(), LinkageSubject{Address: "5 Main St"})
	assert.ErrorIs(t, err, boom)
}
