package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
	"github.com/sirupsen/logrus"
)

// memDB is an in-memory stand-in for Postgres. One mutex guards everything,
// which gives Book the same serialisation the room row lock gives in SQL.
type memDB struct {
	mu           sync.Mutex
	rooms        map[uuid.UUID]*models.Room
	rules        map[uuid.UUID][]models.AvailabilityRule
	blocks       []models.UnavailabilityBlock
	reservations []models.Reservation
	// bookDelay widens the window between the state read and the insert
	bookDelay time.Duration
}

func newMemDB() *memDB {
	return &memDB{
		rooms: map[uuid.UUID]*models.Room{},
		rules: map[uuid.UUID][]models.AvailabilityRule{},
	}
}

func (m *memDB) addRoom(name string, active bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.rooms[id] = &models.Room{ID: id, Name: name, IsActive: active, Color: models.DefaultRoomColor}
	return id
}

func (m *memDB) setRule(roomID uuid.UUID, day scheduling.DayOfWeek, start, end string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := scheduling.MustTimeRange(start, end)
	m.rules[roomID] = append(m.rules[roomID], models.AvailabilityRule{
		ID: uuid.New(), RoomID: roomID, DayOfWeek: day, StartTime: window.Start, EndTime: window.End,
	})
}

func (m *memDB) addBlock(roomID uuid.UUID, date, start, end string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := scheduling.MustTimeRange(start, end)
	m.blocks = append(m.blocks, models.UnavailabilityBlock{
		ID: uuid.New(), RoomID: roomID, Date: date, StartTime: window.Start, EndTime: window.End,
	})
}

func (m *memDB) addReservation(roomID uuid.UUID, date, start, end string, status models.ReservationStatus) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	window := scheduling.MustTimeRange(start, end)
	id := uuid.New()
	m.reservations = append(m.reservations, models.Reservation{
		ID: id, RoomID: roomID, Date: date, StartTime: window.Start, EndTime: window.End,
		CustomerName: "Existing", Status: status,
	})
	return id
}

func (m *memDB) activeCount(roomID uuid.UUID, date string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.reservations {
		if r.RoomID == roomID && r.Date == date && r.IsActive() {
			n++
		}
	}
	return n
}

// dayState must be called with mu held
func (m *memDB) dayState(roomID uuid.UUID, date string) (scheduling.DayState, error) {
	d, err := scheduling.ParseDate(date)
	if err != nil {
		return scheduling.DayState{}, err
	}
	day := scheduling.WeekdayOf(d)

	var rule *models.AvailabilityRule
	for i, r := range m.rules[roomID] {
		if r.DayOfWeek == day {
			rule = &m.rules[roomID][i]
		}
	}
	var blocks []models.UnavailabilityBlock
	for _, b := range m.blocks {
		if b.RoomID == roomID && b.Date == date {
			blocks = append(blocks, b)
		}
	}
	var reservations []models.Reservation
	for _, r := range m.reservations {
		if r.RoomID == roomID && r.Date == date && r.IsActive() {
			reservations = append(reservations, r)
		}
	}
	return database.BuildDayState(day, rule, blocks, reservations), nil
}

// ---- RoomStore ----

type memRooms struct{ db *memDB }

func (s memRooms) Create(_ context.Context, room *models.Room) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	room.ID = uuid.New()
	room.CreatedAt = time.Now()
	room.UpdatedAt = room.CreatedAt
	copied := *room
	s.db.rooms[room.ID] = &copied
	return nil
}

func (s memRooms) GetByID(_ context.Context, id uuid.UUID) (*models.Room, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	room, ok := s.db.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, database.ErrNotFound)
	}
	copied := *room
	return &copied, nil
}

func (s memRooms) List(_ context.Context, filter models.RoomFilter) ([]models.Room, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rooms := []models.Room{}
	for _, r := range s.db.rooms {
		if filter.Active != nil && r.IsActive != *filter.Active {
			continue
		}
		rooms = append(rooms, *r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}

func (s memRooms) Update(_ context.Context, room *models.Room) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.rooms[room.ID]; !ok {
		return database.ErrNotFound
	}
	copied := *room
	s.db.rooms[room.ID] = &copied
	return nil
}

func (s memRooms) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	room, ok := s.db.rooms[id]
	if !ok {
		return database.ErrNotFound
	}
	room.IsActive = active
	return nil
}

// ---- RuleStore ----

type memRules struct{ db *memDB }

func (s memRules) ListByRoom(_ context.Context, roomID uuid.UUID) ([]models.AvailabilityRule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rules := append([]models.AvailabilityRule{}, s.db.rules[roomID]...)
	sort.Slice(rules, func(i, j int) bool { return rules[i].DayOfWeek.Index() < rules[j].DayOfWeek.Index() })
	return rules, nil
}

func (s memRules) GetForDay(_ context.Context, roomID uuid.UUID, day scheduling.DayOfWeek) (*models.AvailabilityRule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.rules[roomID] {
		if r.DayOfWeek == day {
			rule := r
			return &rule, nil
		}
	}
	return nil, nil
}

func (s memRules) ReplaceForRoom(_ context.Context, roomID uuid.UUID, rules []models.AvailabilityRule) ([]models.AvailabilityRule, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	saved := make([]models.AvailabilityRule, 0, len(rules))
	for _, r := range rules {
		r.ID = uuid.New()
		r.RoomID = roomID
		saved = append(saved, r)
	}
	s.db.rules[roomID] = saved
	return saved, nil
}

// ---- BlockStore ----

type memBlocks struct{ db *memDB }

func (s memBlocks) Create(_ context.Context, block *models.UnavailabilityBlock) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.rooms[block.RoomID]; !ok {
		return database.ErrNotFound
	}
	block.ID = uuid.New()
	block.OverlappingReservations = nil
	for _, r := range s.db.reservations {
		if r.RoomID == block.RoomID && r.Date == block.Date && r.IsActive() && r.Range().Overlaps(block.Range()) {
			block.OverlappingReservations = append(block.OverlappingReservations, r.ID)
		}
	}
	s.db.blocks = append(s.db.blocks, *block)
	return nil
}

func (s memBlocks) GetByID(_ context.Context, id uuid.UUID) (*models.UnavailabilityBlock, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, b := range s.db.blocks {
		if b.ID == id {
			block := b
			return &block, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s memBlocks) ListByRoom(_ context.Context, roomID uuid.UUID, filter models.BlockFilter) ([]models.UnavailabilityBlock, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	blocks := []models.UnavailabilityBlock{}
	for _, b := range s.db.blocks {
		if b.RoomID != roomID {
			continue
		}
		if filter.Date != "" && b.Date != filter.Date {
			continue
		}
		if filter.From != "" && b.Date < filter.From {
			continue
		}
		if filter.To != "" && b.Date > filter.To {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (s memBlocks) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i, b := range s.db.blocks {
		if b.ID == id {
			s.db.blocks = append(s.db.blocks[:i], s.db.blocks[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

// ---- ReservationStore ----

type memReservations struct{ db *memDB }

func (s memReservations) Book(_ context.Context, res *models.Reservation, check database.BookingCheck) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	room, ok := s.db.rooms[res.RoomID]
	if !ok {
		return fmt.Errorf("failed to lock room %s: %w", res.RoomID, database.ErrNotFound)
	}
	if !room.IsActive {
		return fmt.Errorf("room %s: %w", res.RoomID, database.ErrRoomInactive)
	}

	state, err := s.db.dayState(res.RoomID, res.Date)
	if err != nil {
		return err
	}
	if err := check(state); err != nil {
		return err
	}
	if s.db.bookDelay > 0 {
		time.Sleep(s.db.bookDelay)
	}

	res.ID = uuid.New()
	res.RoomName = room.Name
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	s.db.reservations = append(s.db.reservations, *res)
	return nil
}

func (s memReservations) LoadDayState(_ context.Context, roomID uuid.UUID, date string) (scheduling.DayState, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.dayState(roomID, date)
}

func (s memReservations) ListActiveForDate(_ context.Context, roomID uuid.UUID, date string) ([]models.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Reservation{}
	for _, r := range s.db.reservations {
		if r.RoomID == roomID && r.Date == date && r.IsActive() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s memReservations) List(_ context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.Reservation{}
	for _, r := range s.db.reservations {
		if filter.RoomID != nil && r.RoomID != *filter.RoomID {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s memReservations) find(id uuid.UUID) (int, error) {
	for i, r := range s.db.reservations {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("reservation %s: %w", id, database.ErrNotFound)
}

func (s memReservations) GetByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i, err := s.find(id)
	if err != nil {
		return nil, err
	}
	res := s.db.reservations[i]
	return &res, nil
}

func (s memReservations) UpdateStatus(_ context.Context, id uuid.UUID, status models.ReservationStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i, err := s.find(id)
	if err != nil {
		return err
	}
	s.db.reservations[i].Status = status
	return nil
}

func (s memReservations) UpdateDetails(_ context.Context, res *models.Reservation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i, err := s.find(res.ID)
	if err != nil {
		return err
	}
	s.db.reservations[i] = *res
	return nil
}

func (s memReservations) Delete(_ context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	i, err := s.find(id)
	if err != nil {
		return err
	}
	s.db.reservations = append(s.db.reservations[:i], s.db.reservations[i+1:]...)
	return nil
}

// ---- AdminUserStore / RefreshTokenStore ----

type memAdmins struct {
	mu     sync.Mutex
	admins map[uuid.UUID]*models.AdminUser
}

func newMemAdmins() *memAdmins {
	return &memAdmins{admins: map[uuid.UUID]*models.AdminUser{}}
}

func (s *memAdmins) GetByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *memAdmins) GetByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memAdmins) Create(_ context.Context, admin *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Email == admin.Email {
			return fmt.Errorf("failed to create admin user: %w", database.ErrConflict)
		}
	}
	admin.ID = uuid.New()
	copied := *admin
	s.admins[admin.ID] = &copied
	return nil
}

func (s *memAdmins) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.admins[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
	}
	return nil
}

func (s *memAdmins) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return database.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

type memRefreshTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.AdminRefreshToken
}

func newMemRefreshTokens() *memRefreshTokens {
	return &memRefreshTokens{tokens: map[string]*models.AdminRefreshToken{}}
}

func (s *memRefreshTokens) Store(_ context.Context, adminID uuid.UUID, token, _, _ string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = &models.AdminRefreshToken{ID: uuid.New(), AdminUserID: adminID, ExpiresAt: expiresAt}
	return nil
}

func (s *memRefreshTokens) Get(_ context.Context, token string) (*models.AdminRefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memRefreshTokens) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.Revoked {
		return database.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (s *memRefreshTokens) RevokeAllForAdmin(_ context.Context, adminID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.AdminUserID == adminID {
			t.Revoked = true
		}
	}
	return nil
}

func (s *memRefreshTokens) UpdateLastUsed(context.Context, string) error { return nil }

// ---- Auditor / limiter ----

type recordingAuditor struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, event AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

func (a *recordingAuditor) last() AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events[len(a.events)-1]
}

type countingLimiter struct {
	mu    sync.Mutex
	max   int
	count map[string]int
}

func newCountingLimiter(max int) *countingLimiter {
	return &countingLimiter{max: max, count: map[string]int{}}
}

func (l *countingLimiter) CheckBookingRateLimit(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count[ip] >= l.max {
		return &RateLimitError{Message: "too many booking requests", RetryAfter: time.Now().Add(time.Hour), Type: "ip"}
	}
	return nil
}

func (l *countingLimiter) RecordBookingRequest(_ context.Context, ip string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count[ip]++
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }
