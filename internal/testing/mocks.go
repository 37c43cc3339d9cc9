package testing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aristath/fundscore/internal/domain"
)

// InMemoryNavRepository is an in-memory NavRepository for tests.
// Observations may be added in any order; reads are date-sorted.
type InMemoryNavRepository struct {
	mu         sync.RWMutex
	navs       map[string][]domain.NAVObservation
	benchmarks map[string][]domain.BenchmarkObservation
}

// NewInMemoryNavRepository creates an empty in-memory NAV store
func NewInMemoryNavRepository() *InMemoryNavRepository {
	return &InMemoryNavRepository{
		navs:       make(map[string][]domain.NAVObservation),
		benchmarks: make(map[string][]domain.BenchmarkObservation),
	}
}

// AddNavs appends observations for later reads
func (r *InMemoryNavRepository) AddNavs(obs ...domain.NAVObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range obs {
		r.navs[o.FundID] = append(r.navs[o.FundID], o)
	}
	for id := range r.navs {
		sort.Slice(r.navs[id], func(i, j int) bool {
			return r.navs[id][i].Date.Before(r.navs[id][j].Date)
		})
	}
}

// AddBenchmarks appends benchmark observations
func (r *InMemoryNavRepository) AddBenchmarks(obs ...domain.BenchmarkObservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range obs {
		r.benchmarks[o.Benchmark] = append(r.benchmarks[o.Benchmark], o)
	}
	for name := range r.benchmarks {
		sort.Slice(r.benchmarks[name], func(i, j int) bool {
			return r.benchmarks[name][i].Date.Before(r.benchmarks[name][j].Date)
		})
	}
}

// GetSeries implements domain.NavRepository
func (r *InMemoryNavRepository) GetSeries(_ context.Context, fundID string, cutoff time.Time) ([]domain.NAVObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.NAVObservation
	for _, o := range r.navs[fundID] {
		if !o.Date.After(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetBenchmarkSeries implements domain.NavRepository
func (r *InMemoryNavRepository) GetBenchmarkSeries(_ context.Context, benchmark string, cutoff time.Time) ([]domain.BenchmarkObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.BenchmarkObservation
	for _, o := range r.benchmarks[benchmark] {
		if !o.Date.After(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

// NavAtOrBefore implements domain.NavRepository
func (r *InMemoryNavRepository) NavAtOrBefore(_ context.Context, fundID string, target time.Time) (*domain.NAVObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.NAVObservation
	for i := range r.navs[fundID] {
		o := r.navs[fundID][i]
		if o.Date.After(target) {
			break
		}
		found = &o
	}
	return found, nil
}

// LatestDate implements domain.NavRepository
func (r *InMemoryNavRepository) LatestDate(_ context.Context, fundID string) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.navs[fundID]
	if len(series) == 0 {
		return nil, nil
	}
	d := series[len(series)-1].Date
	return &d, nil
}

// InMemoryFundRepository is an in-memory FundRepository for tests.
type InMemoryFundRepository struct {
	mu    sync.RWMutex
	funds []domain.Fund
}

// NewInMemoryFundRepository creates a fund repository seeded with funds
func NewInMemoryFundRepository(funds ...domain.Fund) *InMemoryFundRepository {
	return &InMemoryFundRepository{funds: funds}
}

// GetAll implements domain.FundRepository
func (r *InMemoryFundRepository) GetAll(_ context.Context) ([]domain.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Fund, len(r.funds))
	copy(out, r.funds)
	return out, nil
}

// GetByID implements domain.FundRepository
func (r *InMemoryFundRepository) GetByID(_ context.Context, id string) (*domain.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.funds {
		if r.funds[i].ID == id {
			f := r.funds[i]
			return &f, nil
		}
	}
	return nil, nil
}

// GetBySubcategory implements domain.FundRepository
func (r *InMemoryFundRepository) GetBySubcategory(_ context.Context, subcategory string) ([]domain.Fund, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Fund
	for _, f := range r.funds {
		if f.Subcategory == subcategory {
			out = append(out, f)
		}
	}
	return out, nil
}

// Subcategories implements domain.FundRepository
func (r *InMemoryFundRepository) Subcategories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, f := range r.funds {
		if !seen[f.Subcategory] {
			seen[f.Subcategory] = true
			out = append(out, f.Subcategory)
		}
	}
	sort.Strings(out)
	return out, nil
}

// InMemoryScoreRepository is an in-memory ScoreRepository for tests.
type InMemoryScoreRepository struct {
	mu      sync.RWMutex
	records map[string]domain.ScoreRecord // fundID|date
	// FailFundIDs simulates per-fund persistence failures
	FailFundIDs map[string]error
}

// NewInMemoryScoreRepository creates an empty score store
func NewInMemoryScoreRepository() *InMemoryScoreRepository {
	return &InMemoryScoreRepository{
		records:     make(map[string]domain.ScoreRecord),
		FailFundIDs: make(map[string]error),
	}
}

func scoreKey(fundID string, asOf time.Time) string {
	return fundID + "|" + asOf.UTC().Format("2006-01-02")
}

// Upsert implements domain.ScoreRepository
func (r *InMemoryScoreRepository) Upsert(_ context.Context, rec *domain.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.FailFundIDs[rec.FundID]; ok {
		return err
	}
	r.records[scoreKey(rec.FundID, rec.AsOfDate)] = *rec
	return nil
}

// Get implements domain.ScoreRepository
func (r *InMemoryScoreRepository) Get(_ context.Context, fundID string, asOf time.Time) (*domain.ScoreRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[scoreKey(fundID, asOf)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// GetForDate implements domain.ScoreRepository
func (r *InMemoryScoreRepository) GetForDate(_ context.Context, asOf time.Time) ([]domain.ScoreRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	suffix := "|" + asOf.UTC().Format("2006-01-02")
	var out []domain.ScoreRecord
	for k, rec := range r.records {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FundID < out[j].FundID })
	return out, nil
}

// Count returns the number of stored records
func (r *InMemoryScoreRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
