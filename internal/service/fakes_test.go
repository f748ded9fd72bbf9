package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/quantfold/arbscope/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }

type fakeMarketStore struct {
	byID   map[string]domain.Market
	recent []domain.Market
}

func (f *fakeMarketStore) GetByID(_ context.Context, id string) (domain.Market, error) {
	m, ok := f.byID[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMarketStore) ListRecent(_ context.Context, limit int) ([]domain.Market, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeMarketStore) ListByIDs(_ context.Context, ids []string) ([]domain.Market, error) {
	var out []domain.Market
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarketStore) Upsert(_ context.Context, m domain.Market) (string, error) {
	if f.byID == nil {
		f.byID = make(map[string]domain.Market)
	}
	f.byID[m.ID] = m
	return m.ID, nil
}

type fakeSnapshotStore struct {
	mu     sync.Mutex
	latest map[string]domain.Snapshot
	reads  int
}

func (f *fakeSnapshotStore) Insert(_ context.Context, s domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		f.latest = make(map[string]domain.Snapshot)
	}
	f.latest[s.MarketID] = s
	return nil
}

func (f *fakeSnapshotStore) Latest(_ context.Context, marketID string) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	s, ok := f.latest[marketID]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return s, nil
}

type fakeSnapshotCache struct {
	byMarket map[string]domain.Snapshot
	sets     int
	err      error
}

func (f *fakeSnapshotCache) Set(_ context.Context, s domain.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	if f.byMarket == nil {
		f.byMarket = make(map[string]domain.Snapshot)
	}
	f.byMarket[s.MarketID] = s
	f.sets++
	return nil
}

func (f *fakeSnapshotCache) Latest(_ context.Context, marketID string) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	s, ok := f.byMarket[marketID]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return s, nil
}

type fakeGroupStore struct {
	mu     sync.Mutex
	groups []domain.Group
	nextID int
}

func (f *fakeGroupStore) Insert(_ context.Context, g domain.Group) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	g.ID = fmt.Sprintf("grp-%d", f.nextID)
	f.groups = append(f.groups, g)
	return g.ID, nil
}

func (f *fakeGroupStore) ListRecent(_ context.Context, limit int) ([]domain.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Group, 0, limit)
	for i := len(f.groups) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.groups[i])
	}
	return out, nil
}

type fakeFeeStore struct {
	table domain.FeeTable
}

func (f *fakeFeeStore) All(_ context.Context) (domain.FeeTable, error) {
	if f.table == nil {
		return domain.FeeTable{}, nil
	}
	return f.table, nil
}

type fakeOpportunityStore struct {
	mu     sync.Mutex
	byHash map[string]domain.Opportunity
	byID   map[string]domain.Opportunity
	nextID int
}

func (f *fakeOpportunityStore) InsertIfNew(_ context.Context, opp domain.Opportunity) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byHash == nil {
		f.byHash = make(map[string]domain.Opportunity)
		f.byID = make(map[string]domain.Opportunity)
	}
	if _, ok := f.byHash[opp.Hash]; ok {
		return false, "", nil
	}
	f.nextID++
	opp.ID = fmt.Sprintf("opp-%d", f.nextID)
	f.byHash[opp.Hash] = opp
	f.byID[opp.ID] = opp
	return true, opp.ID, nil
}

func (f *fakeOpportunityStore) GetByID(_ context.Context, id string) (domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	opp, ok := f.byID[id]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	return opp, nil
}

func (f *fakeOpportunityStore) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Opportunity
	for _, opp := range f.byID {
		if opp.DetectedAt.Before(cutoff) && len(out) < limit {
			out = append(out, opp)
		}
	}
	return out, nil
}

func (f *fakeOpportunityStore) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if opp, ok := f.byID[id]; ok {
			delete(f.byID, id)
			delete(f.byHash, opp.Hash)
			n++
		}
	}
	return n, nil
}

type fakeUserStore struct {
	users []domain.User
}

func (f *fakeUserStore) ListSubscribed(_ context.Context, limit int) ([]domain.User, error) {
	if len(f.users) > limit {
		return f.users[:limit], nil
	}
	return f.users, nil
}

type fakeAlertStore struct {
	mu      sync.Mutex
	rows    []domain.Alert
	nextID  int64
	markErr error
}

func (f *fakeAlertStore) Enqueue(_ context.Context, userID, opportunityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.rows = append(f.rows, domain.Alert{
		ID:            f.nextID,
		UserID:        userID,
		OpportunityID: opportunityID,
		Status:        domain.AlertPending,
		CreatedAt:     time.Now().UTC(),
	})
	return nil
}

func (f *fakeAlertStore) ListPending(_ context.Context, limit int) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for _, a := range f.rows {
		if a.Status == domain.AlertPending && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) MarkSent(_ context.Context, id int64, at time.Time, value float64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = domain.AlertSent
			f.rows[i].SentAt = &at
			f.rows[i].LastValue = &value
			return nil
		}
	}
	return domain.ErrNotFound
}

type sentMessage struct {
	chatID int64
	title  string
	body   string
}

type fakeUserSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeUserSender) SendTo(_ context.Context, chatID int64, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, title: title, body: message})
	return nil
}
