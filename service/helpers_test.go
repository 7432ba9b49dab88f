package service

import (
	"context"
	"math/rand/v2"
	"time"

	"starsgame/models"

	"github.com/stretchr/testify/mock"
)

// sequenceSource replays fixed values and repeats the last one once exhausted
type sequenceSource struct {
	values []float64
	next   int
}

func newSequenceSource(values ...float64) *sequenceSource {
	return &sequenceSource{values: values}
}

func (s *sequenceSource) Float64() float64 {
	if s.next >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.next]
	s.next++
	return v
}

// seededSource is a deterministic pseudo random source for statistical tests
type seededSource struct {
	rng *rand.Rand
}

func newSeededSource(seed uint64) *seededSource {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) Float64() float64 {
	return s.rng.Float64()
}

// staticCatalog serves a fixed set of cases
type staticCatalog map[string]*models.CaseDefinition

func (c staticCatalog) Get(caseID string) (*models.CaseDefinition, bool) {
	def, ok := c[caseID]
	return def, ok
}

func (c staticCatalog) List() []*models.CaseDefinition {
	defs := make([]*models.CaseDefinition, 0, len(c))
	for _, def := range c {
		defs = append(defs, def)
	}
	return defs
}

func testCase() *models.CaseDefinition {
	return &models.CaseDefinition{
		ID:    "starter",
		Name:  "Starter Case",
		Price: 200,
		Items: []models.CaseItem{
			{ID: "a", Name: "Sticker", Value: 80, Weight: 70},
			{ID: "b", Name: "Teddy", Value: 500, Weight: 25},
			{ID: "c", Name: "Diamond Ring", Value: 1500, Weight: 5, Rare: true},
		},
	}
}

// MockRoundService is a mock implementation of RoundService
type MockRoundService struct {
	mock.Mock
}

func (m *MockRoundService) CurrentRoundOrCreate(ctx context.Context, now time.Time) (*models.Round, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Round), args.Error(1)
}

func (m *MockRoundService) GetRoundState(ctx context.Context, now time.Time) (*models.RoundState, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoundState), args.Error(1)
}

// setupUnitOfWork wires a mock factory to a unit of work that begins and rolls back freely
func setupUnitOfWork(ctx context.Context) (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockRepositories) {
	repos := NewMockRepositories()
	mockUoW := new(MockUnitOfWork)
	mockUoW.SetRepositories(repos)

	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	return mockFactory, mockUoW, repos
}
