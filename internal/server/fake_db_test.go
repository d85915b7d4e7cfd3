package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/atlas-maximus/internal/analytics"
	"github.com/jonathan/atlas-maximus/internal/db"
	"github.com/jonathan/atlas-maximus/internal/types"
)

// fakeDB is an in-memory DBClient.
type fakeDB struct {
	mu      sync.Mutex
	pingErr error
	failOn  map[string]error // method name -> forced error

	users      map[uuid.UUID]*db.User
	teams      map[uuid.UUID]*types.Team
	members    map[uuid.UUID]map[uuid.UUID]bool
	insights   []types.StoredInsight
	snapshots  []types.Snapshot
	metrics    []types.TeamMetric
	risks      []types.TeamRiskScore
	documents  []types.DocumentRecord
	activities []types.ActivityEvent
	queries    []types.QueryLog
}

var _ DBClient = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{
		failOn:  map[string]error{},
		users:   map[uuid.UUID]*db.User{},
		teams:   map[uuid.UUID]*types.Team{},
		members: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (f *fakeDB) fail(method string) error {
	return f.failOn[method]
}

func inScope(createdAt time.Time, userID, teamID uuid.UUID, scope analytics.Scope) bool {
	if !scope.Start.IsZero() && createdAt.Before(scope.Start) {
		return false
	}
	if !scope.End.IsZero() && createdAt.After(scope.End) {
		return false
	}
	if scope.HasUser() && userID != scope.UserID {
		return false
	}
	if scope.HasTeam() && teamID != scope.TeamID {
		return false
	}
	return true
}

func filterScope[T any](records []T, scope analytics.Scope, key func(T) (time.Time, uuid.UUID, uuid.UUID)) []T {
	out := []T{}
	for _, r := range records {
		created, user, team := key(r)
		if inScope(created, user, team, scope) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) CreateUser(_ context.Context, name, email, role, passwordHash string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateUser"); err != nil {
		return uuid.Nil, err
	}
	for _, u := range f.users {
		if u.Email == db.NormalizeEmail(email) {
			return uuid.Nil, fmt.Errorf("duplicate email %s", email)
		}
	}
	now := time.Now().UTC()
	u := &db.User{ID: uuid.New(), Name: name, Email: db.NormalizeEmail(email), Role: role, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeDB) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == db.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := f.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (f *fakeDB) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user not found: %s", id)
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeDB) CreateTeam(_ context.Context, name string, createdBy uuid.UUID) (*types.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team := &types.Team{ID: uuid.New(), Name: name, CreatedBy: createdBy, CreatedAt: time.Now().UTC()}
	f.teams[team.ID] = team
	f.members[team.ID] = map[uuid.UUID]bool{createdBy: true}
	return team, nil
}

func (f *fakeDB) GetTeam(_ context.Context, id uuid.UUID) (*types.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetTeam"); err != nil {
		return nil, err
	}
	return f.teams[id], nil
}

func (f *fakeDB) AddTeamMember(_ context.Context, teamID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[teamID] == nil {
		return errors.New("unknown team")
	}
	f.members[teamID][userID] = true
	return nil
}

func (f *fakeDB) IsTeamMember(_ context.Context, teamID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[teamID][userID], nil
}

func (f *fakeDB) ListUserTeams(_ context.Context, userID uuid.UUID) ([]types.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	teams := []types.Team{}
	for id, m := range f.members {
		if m[userID] {
			teams = append(teams, *f.teams[id])
		}
	}
	return teams, nil
}

// SaveAnalysis applies every write or none. A forced InsertDocument failure
// aborts it like a failed document insert inside the transaction.
func (f *fakeDB) SaveAnalysis(_ context.Context, a *db.Analysis) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("SaveAnalysis"); err != nil {
		return uuid.Nil, err
	}
	if len(a.Documents) > 0 {
		if err := f.fail("InsertDocument"); err != nil {
			return uuid.Nil, fmt.Errorf("failed to record document %q: %w", a.Documents[0].Name, err)
		}
	}

	si := types.StoredInsight{ID: uuid.New(), TeamID: a.TeamID, UserID: a.UserID, Insight: a.Insight, CreatedAt: time.Now().UTC()}
	f.insights = append(f.insights, si)
	f.upsertMetrics(a.Metrics)
	f.upsertRisks(a.Risks)
	for i := range a.Documents {
		f.insertDocument(&a.Documents[i])
	}
	return si.ID, nil
}

func (f *fakeDB) ListInsights(_ context.Context, teamID uuid.UUID, limit int) ([]types.StoredInsight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.StoredInsight{}
	for _, si := range slices.Backward(f.insights) {
		if si.TeamID == teamID && (limit <= 0 || len(out) < limit) {
			out = append(out, si)
		}
	}
	return out, nil
}

func (f *fakeDB) SaveSnapshot(_ context.Context, s *types.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.snapshots {
		if existing.ID == s.ID {
			return nil
		}
	}
	f.snapshots = append(f.snapshots, *s)
	return nil
}

func (f *fakeDB) ListSnapshots(_ context.Context, filters db.SnapshotFilters) ([]types.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.Snapshot{}
	for _, s := range slices.Backward(f.snapshots) {
		switch {
		case filters.Type != "" && s.Type != filters.Type:
		case filters.TeamID != uuid.Nil && s.TeamID != filters.TeamID:
		case filters.TeamID == uuid.Nil && filters.NoTeam && s.TeamID != uuid.Nil:
		case filters.Limit > 0 && len(out) >= filters.Limit:
		default:
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeDB) upsertMetrics(metrics []types.TeamMetric) {
	for _, m := range metrics {
		i := slices.IndexFunc(f.metrics, func(e types.TeamMetric) bool { return e.TeamID == m.TeamID && e.Sprint == m.Sprint })
		if i >= 0 {
			f.metrics[i].Velocity, f.metrics[i].CompletionRate = m.Velocity, m.CompletionRate
			continue
		}
		m.ID = uuid.New()
		f.metrics = append(f.metrics, m)
	}
}

func (f *fakeDB) upsertRisks(scores []types.TeamRiskScore) {
	for _, r := range scores {
		i := slices.IndexFunc(f.risks, func(e types.TeamRiskScore) bool { return e.TeamID == r.TeamID && e.Sprint == r.Sprint })
		if i >= 0 {
			f.risks[i].RiskScore = r.RiskScore
			continue
		}
		r.ID = uuid.New()
		f.risks = append(f.risks, r)
	}
}

// seedMetrics stores team metrics directly, outside any analysis.
func (f *fakeDB) seedMetrics(metrics []types.TeamMetric) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertMetrics(metrics)
}

func (f *fakeDB) InsertDocument(_ context.Context, doc *types.DocumentRecord) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertDocument"); err != nil {
		return uuid.Nil, err
	}
	return f.insertDocument(doc), nil
}

func (f *fakeDB) insertDocument(doc *types.DocumentRecord) uuid.UUID {
	rec := *doc
	rec.ID = uuid.New()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	f.documents = append(f.documents, rec)
	return rec.ID
}

func (f *fakeDB) IncrementDocumentViews(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.documents {
		if f.documents[i].ID == id {
			f.documents[i].ViewCount++
			return nil
		}
	}
	return fmt.Errorf("%w: %s", db.ErrDocumentNotFound, id)
}

func (f *fakeDB) InsertActivity(_ context.Context, event *types.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertActivity"); err != nil {
		return err
	}
	f.activities = append(f.activities, *event)
	return nil
}

func (f *fakeDB) InsertQueryLog(_ context.Context, entry *types.QueryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, *entry)
	return nil
}

func (f *fakeDB) ListActivities(_ context.Context, scope analytics.Scope) ([]types.ActivityEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterScope(f.activities, scope, func(e types.ActivityEvent) (time.Time, uuid.UUID, uuid.UUID) {
		return e.CreatedAt, e.UserID, e.TeamID
	}), nil
}

func (f *fakeDB) ListTeamMetrics(_ context.Context, scope analytics.Scope) ([]types.TeamMetric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListTeamMetrics"); err != nil {
		return nil, err
	}
	return filterScope(f.metrics, scope, func(m types.TeamMetric) (time.Time, uuid.UUID, uuid.UUID) {
		return m.CreatedAt, uuid.Nil, m.TeamID
	}), nil
}

func (f *fakeDB) ListRiskScores(_ context.Context, scope analytics.Scope) ([]types.TeamRiskScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterScope(f.risks, scope, func(r types.TeamRiskScore) (time.Time, uuid.UUID, uuid.UUID) {
		return r.CreatedAt, uuid.Nil, r.TeamID
	}), nil
}

func (f *fakeDB) ListDocuments(_ context.Context, scope analytics.Scope) ([]types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterScope(f.documents, scope, func(d types.DocumentRecord) (time.Time, uuid.UUID, uuid.UUID) {
		return d.CreatedAt, d.UserID, d.TeamID
	}), nil
}

func (f *fakeDB) ListQueryLogs(_ context.Context, scope analytics.Scope) ([]types.QueryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filterScope(f.queries, scope, func(q types.QueryLog) (time.Time, uuid.UUID, uuid.UUID) {
		return q.CreatedAt, q.UserID, q.TeamID
	}), nil
}

func (f *fakeDB) CountUsers(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}
