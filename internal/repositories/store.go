package repositories

import "gorm.io/gorm"

// Store bundles every repository behind one backend.
type Store struct {
	Users           UserRepository
	RefreshTokens   RefreshTokenRepository
	Profiles        ProfileRepository
	Conversations   ConversationRepository
	ServiceRequests ServiceRequestRepository
	Payments        PaymentRepository
	Feedback        FeedbackRepository
	Tx              Transactor
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:           NewUserRepository(db),
		RefreshTokens:   NewRefreshTokenRepository(db),
		Profiles:        NewProfileRepository(db),
		Conversations:   NewConversationRepository(db),
		ServiceRequests: NewServiceRequestRepository(db),
		Payments:        NewPaymentRepository(db),
		Feedback:        NewFeedbackRepository(db),
		Tx:              NewGormTransactor(db),
	}
}

// NewInMemoryStore wires every repository to the same in-memory tables.
func NewInMemoryStore() (*Store, *MemoryStore) {
	m := NewMemoryStore()
	return &Store{
		Users:           m.Users(),
		RefreshTokens:   m.RefreshTokens(),
		Profiles:        m.Profiles(),
		Conversations:   m.Conversations(),
		ServiceRequests: m.ServiceRequests(),
		Payments:        m.Payments(),
		Feedback:        m.Feedback(),
		Tx:              m,
	}, m
}
