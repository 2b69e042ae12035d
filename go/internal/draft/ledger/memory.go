package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// MemoryLedger implements Ledger using in-memory storage. A transaction holds
// the write lock for its whole duration and undoes its writes on failure.
type MemoryLedger struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	leagues  map[uuid.UUID]models.League
	teams    map[uuid.UUID]models.FantasyTeam
	players  map[uuid.UUID]models.Player
	rosters  map[uuid.UUID][]models.Roster // by fantasy team
	configs  map[uuid.UUID]models.DraftConfiguration
	progress map[uuid.UUID]models.DraftProgress
	slots    map[uuid.UUID][]models.PickSlot // by league, index = pick number - 1
	outbox   []models.OutboxEvent
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger(clock clockwork.Clock) *MemoryLedger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLedger{
		clock:    clock,
		leagues:  make(map[uuid.UUID]models.League),
		teams:    make(map[uuid.UUID]models.FantasyTeam),
		players:  make(map[uuid.UUID]models.Player),
		rosters:  make(map[uuid.UUID][]models.Roster),
		configs:  make(map[uuid.UUID]models.DraftConfiguration),
		progress: make(map[uuid.UUID]models.DraftProgress),
		slots:    make(map[uuid.UUID][]models.PickSlot),
	}
}

var _ Ledger = (*MemoryLedger)(nil)

func (m *MemoryLedger) Close() error {
	return nil
}

// Seed inserts the fixture's records, skipping any that already exist
func (m *MemoryLedger) Seed(ctx context.Context, f Fixture) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f = f.Normalize(m.clock.Now())
	for _, l := range f.Leagues {
		if _, ok := m.leagues[l.ID]; !ok {
			m.leagues[l.ID] = cloneLeague(l)
		}
	}
	for _, t := range f.Teams {
		if _, ok := m.leagues[t.LeagueID]; !ok {
			return fmt.Errorf("team %s references unknown league %s", t.ID, t.LeagueID)
		}
		if _, ok := m.teams[t.ID]; !ok {
			m.teams[t.ID] = t
		}
	}
	for _, p := range f.Players {
		if _, ok := m.players[p.ID]; !ok {
			m.players[p.ID] = p
		}
	}
	return nil
}

// --- Reader ---

func (m *MemoryLedger) GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLeague(leagueID)
}

func (m *MemoryLedger) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.teamsByLeague(leagueID), nil
}

func (m *MemoryLedger) GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getConfig(leagueID)
}

func (m *MemoryLedger) GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProgress(leagueID)
}

func (m *MemoryLedger) ListPickSlots(ctx context.Context, leagueID uuid.UUID) ([]models.PickSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := m.slots[leagueID]
	out := make([]models.PickSlot, len(slots))
	for i, s := range slots {
		out[i] = cloneSlot(s)
	}
	return out, nil
}

func (m *MemoryLedger) GetRoster(ctx context.Context, teamID uuid.UUID) ([]models.Roster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Roster(nil), m.rosters[teamID]...), nil
}

func (m *MemoryLedger) GetAllPlayers(ctx context.Context) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]models.Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	sortPlayers(players)
	return players, nil
}

func (m *MemoryLedger) GetPlayersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]models.Player, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		p, ok := m.players[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		players = append(players, p)
	}
	sortPlayers(players)
	return players, nil
}

// --- OutboxStore ---

func (m *MemoryLedger) FetchUnsentOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []models.OutboxEvent
	for _, ev := range m.outbox {
		if ev.SentAt != nil {
			continue
		}
		events = append(events, ev)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (m *MemoryLedger) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*models.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ev := range m.outbox {
		if ev.ID == id && ev.SentAt == nil {
			out := ev
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryLedger) MarkOutboxSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.outbox {
		if m.outbox[i].ID == id {
			sentAt := at
			m.outbox[i].SentAt = &sentAt
			return nil
		}
	}
	return ErrNotFound
}

// --- transactions ---

// RunInTx runs fn with exclusive access to the ledger. If fn returns an error
// or panics, every write it made is undone.
func (m *MemoryLedger) RunInTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{m: m}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(tx)
}

type memoryTx struct {
	m    *MemoryLedger
	undo []func()
}

func (tx *memoryTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memoryTx) GetLeague(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	return tx.m.getLeague(leagueID)
}

func (tx *memoryTx) GetTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.FantasyTeam, error) {
	return tx.m.teamsByLeague(leagueID), nil
}

func (tx *memoryTx) GetDraftConfiguration(ctx context.Context, leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	return tx.m.getConfig(leagueID)
}

func (tx *memoryTx) GetProgress(ctx context.Context, leagueID uuid.UUID) (*models.DraftProgress, error) {
	return tx.m.getProgress(leagueID)
}

func (tx *memoryTx) GetPickSlot(ctx context.Context, leagueID uuid.UUID, pickNumber int) (*models.PickSlot, error) {
	slots := tx.m.slots[leagueID]
	if pickNumber < 1 || pickNumber > len(slots) {
		return nil, ErrNotFound
	}
	s := cloneSlot(slots[pickNumber-1])
	return &s, nil
}

func (tx *memoryTx) IsPlayerDrafted(ctx context.Context, leagueID, playerID uuid.UUID) (bool, error) {
	return tx.m.isPlayerDrafted(leagueID, playerID), nil
}

func (tx *memoryTx) CreateDraft(ctx context.Context, cfg models.DraftConfiguration, progress models.DraftProgress, slots []models.PickSlot) error {
	leagueID := cfg.LeagueID
	if _, ok := tx.m.configs[leagueID]; ok {
		return fmt.Errorf("draft already exists for league %s", leagueID)
	}
	for i, s := range slots {
		if s.PickNumber != i+1 || s.LeagueID != leagueID {
			return fmt.Errorf("pick slots must be dense and ordered, slot %d has pick number %d", i, s.PickNumber)
		}
	}

	arena := make([]models.PickSlot, len(slots))
	for i, s := range slots {
		arena[i] = cloneSlot(s)
	}

	tx.m.configs[leagueID] = cloneConfig(cfg)
	tx.m.progress[leagueID] = cloneProgress(progress)
	tx.m.slots[leagueID] = arena
	tx.undo = append(tx.undo, func() {
		delete(tx.m.configs, leagueID)
		delete(tx.m.progress, leagueID)
		delete(tx.m.slots, leagueID)
	})
	return nil
}

func (tx *memoryTx) AssignPlayer(ctx context.Context, leagueID uuid.UUID, pickNumber int, playerID uuid.UUID, at time.Time) error {
	slots := tx.m.slots[leagueID]
	if pickNumber < 1 || pickNumber > len(slots) {
		return ErrNotFound
	}
	if slots[pickNumber-1].IsFilled() || tx.m.isPlayerDrafted(leagueID, playerID) {
		return ErrConflict
	}

	pid := playerID
	pickedAt := at
	slots[pickNumber-1].PlayerID = &pid
	slots[pickNumber-1].PickedAt = &pickedAt
	tx.undo = append(tx.undo, func() {
		slots[pickNumber-1].PlayerID = nil
		slots[pickNumber-1].PickedAt = nil
	})
	return nil
}

func (tx *memoryTx) AdvanceProgress(ctx context.Context, expectedPick int, next models.DraftProgress) error {
	prev, ok := tx.m.progress[next.LeagueID]
	if !ok {
		return ErrNotFound
	}
	if prev.IsComplete || prev.CurrentPickNumber != expectedPick {
		return ErrConflict
	}

	tx.m.progress[next.LeagueID] = cloneProgress(next)
	tx.undo = append(tx.undo, func() {
		tx.m.progress[next.LeagueID] = prev
	})
	return nil
}

func (tx *memoryTx) SetDraftStatus(ctx context.Context, leagueID uuid.UUID, status models.DraftStatus) error {
	prev, ok := tx.m.leagues[leagueID]
	if !ok {
		return ErrNotFound
	}

	updated := cloneLeague(prev)
	updated.DraftStatus = status
	updated.UpdatedAt = tx.m.clock.Now()
	tx.m.leagues[leagueID] = updated
	tx.undo = append(tx.undo, func() {
		tx.m.leagues[leagueID] = prev
	})
	return nil
}

func (tx *memoryTx) AddPlayerToRoster(ctx context.Context, entry models.Roster) error {
	existing := tx.m.rosters[entry.FantasyTeamID]
	for _, r := range existing {
		if r.PlayerID == entry.PlayerID {
			return nil
		}
	}

	teamID := entry.FantasyTeamID
	tx.m.rosters[teamID] = append(existing, entry)
	tx.undo = append(tx.undo, func() {
		tx.m.rosters[teamID] = existing
	})
	return nil
}

func (tx *memoryTx) InsertOutboxEvent(ctx context.Context, event models.OutboxEvent) error {
	n := len(tx.m.outbox)
	tx.m.outbox = append(tx.m.outbox, event)
	tx.undo = append(tx.undo, func() {
		tx.m.outbox = tx.m.outbox[:n]
	})
	return nil
}

// --- helpers, callers hold mu ---

func (m *MemoryLedger) getLeague(leagueID uuid.UUID) (*models.League, error) {
	l, ok := m.leagues[leagueID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneLeague(l)
	return &out, nil
}

func (m *MemoryLedger) getConfig(leagueID uuid.UUID) (*models.DraftConfiguration, error) {
	cfg, ok := m.configs[leagueID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneConfig(cfg)
	return &out, nil
}

func (m *MemoryLedger) getProgress(leagueID uuid.UUID) (*models.DraftProgress, error) {
	p, ok := m.progress[leagueID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProgress(p)
	return &out, nil
}

func (m *MemoryLedger) teamsByLeague(leagueID uuid.UUID) []models.FantasyTeam {
	var teams []models.FantasyTeam
	for _, t := range m.teams {
		if t.LeagueID == leagueID {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].ID.String() < teams[j].ID.String()
	})
	return teams
}

func (m *MemoryLedger) isPlayerDrafted(leagueID, playerID uuid.UUID) bool {
	for _, s := range m.slots[leagueID] {
		if s.PlayerID != nil && *s.PlayerID == playerID {
			return true
		}
	}
	return false
}

func sortPlayers(players []models.Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID.String() < players[j].ID.String()
	})
}

func cloneLeague(l models.League) models.League {
	settings := make(models.RosterSettings, len(l.RosterSettings))
	for k, v := range l.RosterSettings {
		settings[k] = v
	}
	l.RosterSettings = settings
	return l
}

func cloneConfig(c models.DraftConfiguration) models.DraftConfiguration {
	c.DraftOrder = append([]uuid.UUID(nil), c.DraftOrder...)
	settings := make(models.RosterSettings, len(c.RosterSettings))
	for k, v := range c.RosterSettings {
		settings[k] = v
	}
	c.RosterSettings = settings
	return c
}

func cloneProgress(p models.DraftProgress) models.DraftProgress {
	if p.CurrentTeamID != nil {
		id := *p.CurrentTeamID
		p.CurrentTeamID = &id
	}
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		p.CompletedAt = &at
	}
	return p
}

func cloneSlot(s models.PickSlot) models.PickSlot {
	if s.PlayerID != nil {
		id := *s.PlayerID
		s.PlayerID = &id
	}
	if s.PickedAt != nil {
		at := *s.PickedAt
		s.PickedAt = &at
	}
	return s
}
