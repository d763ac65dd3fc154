package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhire_backend/internal/models"
)

// MemoryStore keeps every table in process memory. It backs the
// application when no database is configured and holds the legacy
// professionals directory loaded from the seed file. Records are stored by
// value so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	professionals map[string]models.ProfessionalProfile // by user id
	organizers    map[string]models.OrganizerProfile    // by user id
	conversations map[string]models.Conversation
	messages      map[string][]models.Message // by conversation id, sorted
	requests      map[string]models.ServiceRequest
	payments      map[string]models.Payment
	feedback      []models.Feedback
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		professionals: make(map[string]models.ProfessionalProfile),
		organizers:    make(map[string]models.OrganizerProfile),
		conversations: make(map[string]models.Conversation),
		messages:      make(map[string][]models.Message),
		requests:      make(map[string]models.ServiceRequest),
		payments:      make(map[string]models.Payment),
	}
}

type memoryTxKey struct{}

// memoryTx collects the undo steps of the writes made inside one
// transaction.
type memoryTx struct {
	undo []func()
}

// WithinTx serializes transactions. When fn fails only the writes made
// through the transaction's ctx are reverted, newest first.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memoryTx{}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// record registers undo when ctx belongs to a transaction. Callers hold mu.
func record(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

// recordEntry registers the restoration of m[k] to its current state.
func recordEntry[K comparable, V any](ctx context.Context, m map[K]V, k K) {
	if ctx.Value(memoryTxKey{}) == nil {
		return
	}
	prev, existed := m[k]
	record(ctx, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// --- users ---

type memoryUserRepository struct{ s *MemoryStore }

func (s *MemoryStore) Users() UserRepository { return &memoryUserRepository{s} }

func (r *memoryUserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrUserAlreadyExists
		}
	}
	user.EnsureID()
	recordEntry(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memoryUserRepository) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.find(func(u *models.User) bool { return u.VerificationToken == token })
}

func (r *memoryUserRepository) FindByResetToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.find(func(u *models.User) bool { return u.ResetToken == token })
}

func (r *memoryUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(&u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return ErrUserAlreadyExists
		}
	}
	user.Touch()
	recordEntry(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) CountByRole(_ context.Context, role models.UserRole) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- refresh tokens ---

type memoryRefreshTokenRepository struct{ s *MemoryStore }

func (s *MemoryStore) RefreshTokens() RefreshTokenRepository { return &memoryRefreshTokenRepository{s} }

func (r *memoryRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.EnsureID()
	recordEntry(ctx, r.s.refreshTokens, token.Token)
	r.s.refreshTokens[token.Token] = *token
	return nil
}

func (r *memoryRefreshTokenRepository) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rt, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	return &rt, nil
}

func (r *memoryRefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.refreshTokens[token]; !ok {
		return ErrRefreshTokenNotFound
	}
	recordEntry(ctx, r.s.refreshTokens, token)
	delete(r.s.refreshTokens, token)
	return nil
}

func (r *memoryRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, rt := range r.s.refreshTokens {
		if rt.UserID == userID {
			recordEntry(ctx, r.s.refreshTokens, k)
			delete(r.s.refreshTokens, k)
		}
	}
	return nil
}

func (r *memoryRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, rt := range r.s.refreshTokens {
		if rt.ExpiresAt.Before(before) {
			recordEntry(ctx, r.s.refreshTokens, k)
			delete(r.s.refreshTokens, k)
			n++
		}
	}
	return n, nil
}

// --- profiles ---

type memoryProfileRepository struct{ s *MemoryStore }

func (s *MemoryStore) Profiles() ProfileRepository { return &memoryProfileRepository{s} }

func (r *memoryProfileRepository) CreateProfessional(ctx context.Context, p *models.ProfessionalProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.professionals[p.UserID]; ok {
		return ErrProfileAlreadyExists
	}
	p.EnsureID()
	p.Services = append([]string(nil), p.Services...)
	recordEntry(ctx, r.s.professionals, p.UserID)
	r.s.professionals[p.UserID] = *p
	return nil
}

func (r *memoryProfileRepository) CreateOrganizer(ctx context.Context, p *models.OrganizerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.organizers[p.UserID]; ok {
		return ErrProfileAlreadyExists
	}
	p.EnsureID()
	recordEntry(ctx, r.s.organizers, p.UserID)
	r.s.organizers[p.UserID] = *p
	return nil
}

func (r *memoryProfileRepository) FindProfessionalByUserID(_ context.Context, userID string) (*models.ProfessionalProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.professionals[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.Services = append([]string(nil), p.Services...)
	return &p, nil
}

func (r *memoryProfileRepository) FindOrganizerByUserID(_ context.Context, userID string) (*models.OrganizerProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.organizers[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func (r *memoryProfileRepository) UpdateProfessional(ctx context.Context, p *models.ProfessionalProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.professionals[p.UserID]; !ok {
		return ErrProfileNotFound
	}
	p.Touch()
	p.Services = append([]string(nil), p.Services...)
	recordEntry(ctx, r.s.professionals, p.UserID)
	r.s.professionals[p.UserID] = *p
	return nil
}

func (r *memoryProfileRepository) UpdateOrganizer(ctx context.Context, p *models.OrganizerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.organizers[p.UserID]; !ok {
		return ErrProfileNotFound
	}
	p.Touch()
	recordEntry(ctx, r.s.organizers, p.UserID)
	r.s.organizers[p.UserID] = *p
	return nil
}

func (r *memoryProfileRepository) SearchProfessionals(_ context.Context, f ProfessionalFilter) ([]models.ProfessionalProfile, int64, error) {
	r.s.mu.RLock()
	matched := make([]models.ProfessionalProfile, 0, len(r.s.professionals))
	for _, p := range r.s.professionals {
		if !f.IncludeHidden && !p.IsPublic {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if city := strings.TrimSpace(f.City); city != "" && !strings.EqualFold(p.City, city) {
			continue
		}
		if f.MinRate != nil && p.HourlyRate < *f.MinRate {
			continue
		}
		if f.MaxRate != nil && p.HourlyRate > *f.MaxRate {
			continue
		}
		if !p.Matches(f.Query) {
			continue
		}
		p.Services = append([]string(nil), p.Services...)
		matched = append(matched, p)
	}
	r.s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case SortRateAsc:
			if a.HourlyRate != b.HourlyRate {
				return a.HourlyRate < b.HourlyRate
			}
		case SortRateDesc:
			if a.HourlyRate != b.HourlyRate {
				return a.HourlyRate > b.HourlyRate
			}
		case SortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		default:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		}
		return a.ID < b.ID
	})

	return window(matched, f.Page), int64(len(matched)), nil
}

func (r *memoryProfileRepository) DisplayNames(_ context.Context, userIDs []string) (map[string]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	names := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if p, ok := r.s.professionals[id]; ok {
			names[id] = p.DisplayName
		} else if o, ok := r.s.organizers[id]; ok {
			names[id] = o.DisplayName
		}
	}
	return names, nil
}

// --- conversations & messages ---

type memoryConversationRepository struct{ s *MemoryStore }

func (s *MemoryStore) Conversations() ConversationRepository { return &memoryConversationRepository{s} }

func (r *memoryConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.OrganizerID == conv.OrganizerID && c.ProfessionalID == conv.ProfessionalID && c.EventName == conv.EventName {
			return ErrConversationExists
		}
	}
	conv.EnsureID()
	recordEntry(ctx, r.s.conversations, conv.ID)
	r.s.conversations[conv.ID] = *conv
	return nil
}

func (r *memoryConversationRepository) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return &c, nil
}

func (r *memoryConversationRepository) FindByTriple(_ context.Context, organizerID, professionalID, eventName string) (*models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.conversations {
		if c.OrganizerID == organizerID && c.ProfessionalID == professionalID && c.EventName == eventName {
			found := c
			return &found, nil
		}
	}
	return nil, ErrConversationNotFound
}

func (r *memoryConversationRepository) List(_ context.Context, f ConversationFilter) ([]models.Conversation, int64, error) {
	r.s.mu.RLock()
	var matched []models.Conversation
	for _, c := range r.s.conversations {
		switch f.Role {
		case models.UserRoleOrganizer:
			if c.OrganizerID != f.UserID {
				continue
			}
		case models.UserRoleProfessional:
			if c.ProfessionalID != f.UserID {
				continue
			}
		default:
			if !c.HasParticipant(f.UserID) {
				continue
			}
		}
		if f.Status != "" {
			if c.Status != f.Status {
				continue
			}
		} else if !f.IncludeArchived && c.Status == models.ConversationStatusArchived {
			continue
		}
		matched = append(matched, c)
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].SortTime(), matched[j].SortTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return matched[i].ID < matched[j].ID
	})
	return window(matched, f.Page), int64(len(matched)), nil
}

func (r *memoryConversationRepository) UpdateStatus(ctx context.Context, id string, from, to models.ConversationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	if c.Status != from {
		return ErrStaleStatus
	}
	recordEntry(ctx, r.s.conversations, id)
	c.Status = to
	c.Touch()
	r.s.conversations[id] = c
	return nil
}

func (r *memoryConversationRepository) RecordActivity(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	recordEntry(ctx, r.s.conversations, id)
	if c.LastMessageAt == nil || at.After(*c.LastMessageAt) {
		last := at
		c.LastMessageAt = &last
	}
	c.Touch()
	r.s.conversations[id] = c
	return nil
}

func (r *memoryConversationRepository) SetLastRead(ctx context.Context, id string, role models.UserRole, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	marker := &c.ProfessionalLastReadAt
	if role == models.UserRoleOrganizer {
		marker = &c.OrganizerLastReadAt
	}
	if *marker != nil && !at.After(**marker) {
		return nil
	}
	recordEntry(ctx, r.s.conversations, id)
	readAt := at
	*marker = &readAt
	r.s.conversations[id] = c
	return nil
}

func (r *memoryConversationRepository) ArchiveIdle(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.conversations {
		if c.Status == models.ConversationStatusClosed && c.SortTime().Before(before) {
			recordEntry(ctx, r.s.conversations, id)
			c.Status = models.ConversationStatusArchived
			c.Touch()
			r.s.conversations[id] = c
			n++
		}
	}
	return n, nil
}

func (r *memoryConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conversations[msg.ConversationID]; !ok {
		return ErrConversationNotFound
	}
	msg.EnsureID()
	convID, msgID := msg.ConversationID, msg.ID
	record(ctx, func() {
		list := r.s.messages[convID]
		for i := range list {
			if list[i].ID == msgID {
				r.s.messages[convID] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	})
	list := append(r.s.messages[msg.ConversationID], *msg)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Less(&list[j]) })
	r.s.messages[msg.ConversationID] = list
	return nil
}

func (r *memoryConversationRepository) ListMessages(_ context.Context, conversationID string, cursor MessageCursor) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Message{}
	for _, m := range r.s.messages[conversationID] {
		if cursor.After != nil {
			if m.CreatedAt.Before(*cursor.After) {
				continue
			}
			if m.CreatedAt.Equal(*cursor.After) && (cursor.AfterID == "" || m.ID <= cursor.AfterID) {
				continue
			}
		}
		out = append(out, m)
		if cursor.Limit > 0 && len(out) == cursor.Limit {
			break
		}
	}
	return out, nil
}

func (r *memoryConversationRepository) LastMessage(_ context.Context, conversationID string) (*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := r.s.messages[conversationID]
	if len(list) == 0 {
		return nil, ErrMessageNotFound
	}
	last := list[len(list)-1]
	return &last, nil
}

func unreadFor(m *models.Message, userID string) bool {
	return !m.Read && m.SenderType != models.SenderSystem && m.SenderID != userID
}

func (r *memoryConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	list := r.s.messages[conversationID]
	for i := range list {
		if unreadFor(&list[i], readerID) {
			prev := list[i]
			record(ctx, func() {
				for j, m := range r.s.messages[prev.ConversationID] {
					if m.ID == prev.ID {
						r.s.messages[prev.ConversationID][j] = prev
						return
					}
				}
			})
			list[i].Read = true
			readAt := at
			list[i].ReadAt = &readAt
			n++
		}
	}
	return n, nil
}

func (r *memoryConversationRepository) UnreadCounts(_ context.Context, userID string, conversationIDs []string) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int64, len(conversationIDs))
	for _, id := range conversationIDs {
		for i := range r.s.messages[id] {
			if unreadFor(&r.s.messages[id][i], userID) {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (r *memoryConversationRepository) CountUnread(_ context.Context, userID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for id, c := range r.s.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		for i := range r.s.messages[id] {
			if unreadFor(&r.s.messages[id][i], userID) {
				n++
			}
		}
	}
	return n, nil
}

// --- service requests ---

type memoryServiceRequestRepository struct{ s *MemoryStore }

func (s *MemoryStore) ServiceRequests() ServiceRequestRepository {
	return &memoryServiceRequestRepository{s}
}

func (r *memoryServiceRequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req.EnsureID()
	recordEntry(ctx, r.s.requests, req.ID)
	r.s.requests[req.ID] = *req
	return nil
}

func (r *memoryServiceRequestRepository) FindByID(_ context.Context, id string) (*models.ServiceRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, ErrServiceRequestNotFound
	}
	return &req, nil
}

func (f ServiceRequestFilter) matches(req *models.ServiceRequest) bool {
	if f.OrganizerID != "" && req.OrganizerID != f.OrganizerID {
		return false
	}
	if f.ProfessionalID != "" && req.ProfessionalID != f.ProfessionalID {
		return false
	}
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if f.EventAfter != nil && req.EventDate.Before(*f.EventAfter) {
		return false
	}
	return true
}

func (r *memoryServiceRequestRepository) List(_ context.Context, f ServiceRequestFilter) ([]models.ServiceRequest, int64, error) {
	r.s.mu.RLock()
	var matched []models.ServiceRequest
	for _, req := range r.s.requests {
		if f.matches(&req) {
			matched = append(matched, req)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return window(matched, f.Page), int64(len(matched)), nil
}

func (r *memoryServiceRequestRepository) UpdateIfStatus(ctx context.Context, req *models.ServiceRequest, expected models.ServiceRequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok {
		return ErrServiceRequestNotFound
	}
	if current.Status != expected {
		return ErrStaleStatus
	}
	req.Touch()
	recordEntry(ctx, r.s.requests, req.ID)
	r.s.requests[req.ID] = *req
	return nil
}

func (r *memoryServiceRequestRepository) ListOverdue(_ context.Context, at time.Time, limit int) ([]models.ServiceRequest, error) {
	r.s.mu.RLock()
	var out []models.ServiceRequest
	for _, req := range r.s.requests {
		if req.Overdue(at) {
			out = append(out, req)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryServiceRequestRepository) CountByStatus(_ context.Context, f ServiceRequestFilter) (map[models.ServiceRequestStatus]int64, error) {
	f.Status = ""
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[models.ServiceRequestStatus]int64)
	for _, req := range r.s.requests {
		if f.matches(&req) {
			counts[req.Status]++
		}
	}
	return counts, nil
}

// --- payments ---

type memoryPaymentRepository struct{ s *MemoryStore }

func (s *MemoryStore) Payments() PaymentRepository { return &memoryPaymentRepository{s} }

func (r *memoryPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.ProviderIntentID == p.ProviderIntentID {
			return ErrPaymentAlreadyExists
		}
	}
	p.EnsureID()
	recordEntry(ctx, r.s.payments, p.ID)
	r.s.payments[p.ID] = *p
	return nil
}

func (r *memoryPaymentRepository) FindByID(_ context.Context, id string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (r *memoryPaymentRepository) FindByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.payments {
		if p.ProviderIntentID == intentID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (r *memoryPaymentRepository) FindOpenByRequest(ctx context.Context, serviceRequestID string) (*models.Payment, error) {
	list, _ := r.ListByRequest(ctx, serviceRequestID)
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Open() {
			return &list[i], nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (r *memoryPaymentRepository) ListByRequest(_ context.Context, serviceRequestID string) ([]models.Payment, error) {
	r.s.mu.RLock()
	out := []models.Payment{}
	for _, p := range r.s.payments {
		if p.ServiceRequestID == serviceRequestID {
			out = append(out, p)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryPaymentRepository) Update(ctx context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[p.ID]; !ok {
		return ErrPaymentNotFound
	}
	p.Touch()
	recordEntry(ctx, r.s.payments, p.ID)
	r.s.payments[p.ID] = *p
	return nil
}

// --- feedback ---

type memoryFeedbackRepository struct{ s *MemoryStore }

func (s *MemoryStore) Feedback() FeedbackRepository { return &memoryFeedbackRepository{s} }

func (r *memoryFeedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	fb.EnsureID()
	id := fb.ID
	record(ctx, func() {
		for i := range r.s.feedback {
			if r.s.feedback[i].ID == id {
				r.s.feedback = append(r.s.feedback[:i:i], r.s.feedback[i+1:]...)
				return
			}
		}
	})
	r.s.feedback = append(r.s.feedback, *fb)
	return nil
}

func (r *memoryFeedbackRepository) List(_ context.Context, f FeedbackFilter) ([]models.Feedback, int64, error) {
	r.s.mu.RLock()
	var matched []models.Feedback
	for i := len(r.s.feedback) - 1; i >= 0; i-- {
		fb := r.s.feedback[i]
		if f.Sentiment != "" && fb.Sentiment != f.Sentiment {
			continue
		}
		matched = append(matched, fb)
	}
	r.s.mu.RUnlock()
	return window(matched, f.Page), int64(len(matched)), nil
}
