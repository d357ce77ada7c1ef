// Package memory is an in-process EventStore used by unit tests (cmd/worker
// always uses the Postgres store). It guards all state with a single
// sync.Mutex, mirroring the teacher's InMemoryGoalCache pattern, with write
// locking throughout since this store (unlike that read-mostly cache) takes
// writes on every event.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/store"
	"github.com/google/uuid"
)

type missionKey struct {
	userID     string
	t          domain.MissionType
	cycleStart time.Time
}

// Store is a goroutine-safe in-memory EventStore.
type Store struct {
	mu sync.Mutex

	users  map[string]*domain.User
	games  map[string]*domain.Game
	logins map[string]domain.LoginDay
	launches map[string]domain.GameLaunch
	sessions map[string]domain.PlaySession

	missions map[missionKey]*domain.Mission
	rewards  map[string]*domain.Reward // key: userID+"|"+period

	outbox   map[int64]*domain.OutboxEntry
	nextID   int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		games:    make(map[string]*domain.Game),
		logins:   make(map[string]domain.LoginDay),
		launches: make(map[string]domain.GameLaunch),
		sessions: make(map[string]domain.PlaySession),
		missions: make(map[missionKey]*domain.Mission),
		rewards:  make(map[string]*domain.Reward),
		outbox:   make(map[int64]*domain.OutboxEntry),
	}
}

// SeedUser registers a user directly, bypassing the login flow, for tests.
func (s *Store) SeedUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *Store) EnsureGame(ctx context.Context, name string) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Name == name {
			return g, nil
		}
	}
	g := &domain.Game{ID: uuid.NewString(), Name: name, CreatedAt: clock.Now()}
	s.games[g.ID] = g
	return g, nil
}

func loginKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (s *Store) RecordLogin(ctx context.Context, userID string, loginDate time.Time, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := clock.TruncateToDate(loginDate)
	k := loginKey(userID, day)
	if _, exists := s.logins[k]; exists {
		return false, nil
	}
	s.logins[k] = domain.LoginDay{UserID: userID, LoginDate: day, EventID: eventID, CreatedAt: clock.Now()}
	return true, nil
}

func launchKey(userID, gameID string, launchDate time.Time) string {
	return userID + "|" + gameID + "|" + launchDate.Format("2006-01-02")
}

func (s *Store) RecordLaunch(ctx context.Context, userID, gameID, eventID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := clock.TruncateToDate(at)
	k := launchKey(userID, gameID, day)
	if _, exists := s.launches[k]; exists {
		return false, nil
	}
	s.launches[k] = domain.GameLaunch{UserID: userID, GameID: gameID, EventID: eventID, LaunchDate: day, FirstSeen: at, CreatedAt: clock.Now()}
	return true, nil
}

func (s *Store) RecordPlaySession(ctx context.Context, userID, gameID, eventID string, score int, playedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[eventID]; exists {
		return false, nil
	}
	s.sessions[eventID] = domain.PlaySession{
		ID: int64(len(s.sessions) + 1), UserID: userID, GameID: gameID,
		EventID: eventID, Score: score, PlayedAt: playedAt, CreatedAt: clock.Now(),
	}
	return true, nil
}

func (s *Store) LoginDaysSince(ctx context.Context, userID string, since time.Time) ([]domain.LoginDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LoginDay
	for _, l := range s.logins {
		if l.UserID == userID && !l.LoginDate.Before(clock.TruncateToDate(since)) {
			out = append(out, l)
		}
	}
	sortLoginDaysDesc(out)
	return out, nil
}

func sortLoginDaysDesc(days []domain.LoginDay) {
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].LoginDate.After(days[j-1].LoginDate); j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}

func (s *Store) DistinctGamesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sinceDay := clock.TruncateToDate(since)
	seen := make(map[string]bool)
	for _, l := range s.launches {
		if l.UserID == userID && !l.LaunchDate.Before(sinceDay) {
			seen[l.GameID] = true
		}
	}
	return len(seen), nil
}

func (s *Store) PlaySessionStatsSince(ctx context.Context, userID string, since time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count, sum := 0, 0
	for _, p := range s.sessions {
		if p.UserID == userID && !p.PlayedAt.Before(since) {
			count++
			sum += p.Score
		}
	}
	return count, sum, nil
}

func (s *Store) ActiveMissions(ctx context.Context, userID string) ([]domain.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for k, m := range s.missions {
		if k.userID != userID {
			continue
		}
		if !found || m.CycleStart.After(latest) {
			latest = m.CycleStart
			found = true
		}
	}
	if !found || !clock.WithinCycle(latest, clock.Now()) {
		return nil, nil
	}

	var out []domain.Mission
	for k, m := range s.missions {
		if k.userID == userID && k.cycleStart.Equal(latest) {
			out = append(out, *m)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Type < out[j-1].Type; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *Store) InsertMissionsIfAbsent(ctx context.Context, userID string, types []domain.MissionType, cycleStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cycleStart = clock.TruncateToDate(cycleStart)
	for _, t := range types {
		k := missionKey{userID, t, cycleStart}
		if _, exists := s.missions[k]; exists {
			continue
		}
		s.missions[k] = &domain.Mission{
			ID: uuid.NewString(), UserID: userID, Type: t, CycleStart: cycleStart,
			Status: domain.MissionStatusInProgress, CreatedAt: clock.Now(), UpdatedAt: clock.Now(),
		}
	}
	count := 0
	for k := range s.missions {
		if k.userID == userID && k.cycleStart.Equal(cycleStart) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CompleteMission(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := missionKey{userID, t, clock.TruncateToDate(cycleStart)}
	m, exists := s.missions[k]
	if !exists || m.Status != domain.MissionStatusInProgress {
		return false, nil
	}
	m.Status = domain.MissionStatusCompleted
	m.CompletedAt = &completedAt
	m.UpdatedAt = clock.Now()
	return true, nil
}

func (s *Store) UpdateProgress(ctx context.Context, userID string, t domain.MissionType, cycleStart time.Time, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := missionKey{userID, t, clock.TruncateToDate(cycleStart)}
	m, exists := s.missions[k]
	if !exists || m.Status != domain.MissionStatusInProgress {
		return nil
	}
	m.Progress = progress
	m.UpdatedAt = clock.Now()
	return nil
}

func rewardKey(userID, period string) string { return userID + "|" + period }

func (s *Store) InsertRewardIfAbsent(ctx context.Context, userID, period string, points int, distributedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rewardKey(userID, period)
	if _, exists := s.rewards[k]; exists {
		return false, nil
	}
	s.rewards[k] = &domain.Reward{ID: int64(len(s.rewards) + 1), UserID: userID, Period: period, Points: points, DistributedAt: distributedAt}
	return true, nil
}

func (s *Store) AddPoints(ctx context.Context, userID string, points int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, exists := s.users[userID]
	if !exists {
		return 0, nil
	}
	u.Points += points
	return 1, nil
}

func (s *Store) RewardsForUser(ctx context.Context, userID string) ([]domain.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Reward
	for _, r := range s.rewards {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].DistributedAt.After(out[j-1].DistributedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *Store) EnqueueOutbox(ctx context.Context, entry domain.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.outbox {
		if e.EventID == entry.EventID {
			return nil
		}
	}
	s.nextID++
	entry.ID = s.nextID
	entry.Status = domain.OutboxStatusPending
	entry.RetryCount = 0
	entry.CreatedAt = clock.Now()
	entry.UpdatedAt = clock.Now()
	s.outbox[entry.ID] = &entry
	return nil
}

func (s *Store) DueOutboxEntries(ctx context.Context, now time.Time, limit int) ([]domain.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OutboxEntry
	for _, e := range s.outbox {
		if e.Status == domain.OutboxStatusPending && !e.NextRetryAt.After(now) {
			out = append(out, *e)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].NextRetryAt.Before(out[j-1].NextRetryAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteOutboxEntry(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outbox, id)
	return nil
}

func (s *Store) MarkOutboxRetry(ctx context.Context, id int64, nextRetryAt time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.outbox[id]
	if !exists {
		return nil
	}
	e.RetryCount++
	e.NextRetryAt = nextRetryAt
	e.ErrorMessage = errMsg
	e.UpdatedAt = clock.Now()
	if e.RetryCount >= e.MaxRetries {
		e.Status = domain.OutboxStatusFailed
	}
	return nil
}

func (s *Store) FailOutboxEntry(ctx context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.outbox[id]
	if !exists {
		return nil
	}
	e.Status = domain.OutboxStatusFailed
	e.ErrorMessage = errMsg
	e.UpdatedAt = clock.Now()
	return nil
}

// BeginTx returns a transaction view over the same store. Each write made
// through it takes the store's lock and applies immediately; Commit and
// Rollback are no-ops, so Rollback does not undo writes already made
// through the "tx".
func (s *Store) BeginTx(ctx context.Context) (store.EventStoreTx, error) {
	return &tx{Store: s}, nil
}

type tx struct {
	*Store
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

var _ store.EventStore = (*Store)(nil)
