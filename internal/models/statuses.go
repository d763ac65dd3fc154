package models

type UserStatus string
type UserRole string
type ServiceRequestStatus string
type PaymentStatus string
type PaymentIntentStatus string
type ConversationStatus string
type SenderType string
type Sentiment string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleOrganizer    UserRole = "organizer"
	UserRoleProfessional UserRole = "professional"
	UserRoleAdmin        UserRole = "admin"

	RequestStatusPending   ServiceRequestStatus = "pending"
	RequestStatusAccepted  ServiceRequestStatus = "accepted"
	RequestStatusDeclined  ServiceRequestStatus = "declined"
	RequestStatusExpired   ServiceRequestStatus = "expired"
	RequestStatusPaid      ServiceRequestStatus = "paid"
	RequestStatusCompleted ServiceRequestStatus = "completed"

	// Payment state of a service request.
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	// State of a single payment intent.
	IntentStatusRequiresPayment PaymentIntentStatus = "requires_payment"
	IntentStatusProcessing      PaymentIntentStatus = "processing"
	IntentStatusSucceeded       PaymentIntentStatus = "succeeded"
	IntentStatusFailed          PaymentIntentStatus = "failed"
	IntentStatusCanceled        PaymentIntentStatus = "canceled"

	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusClosed   ConversationStatus = "closed"
	ConversationStatusArchived ConversationStatus = "archived"

	SenderOrganizer    SenderType = "organizer"
	SenderProfessional SenderType = "professional"
	SenderSystem       SenderType = "system"

	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleOrganizer, UserRoleProfessional, UserRoleAdmin:
		return true
	}
	return false
}

var requestTransitions = map[ServiceRequestStatus][]ServiceRequestStatus{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusDeclined, RequestStatusExpired},
	RequestStatusAccepted: {RequestStatusPaid},
	RequestStatusPaid:     {RequestStatusCompleted},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s ServiceRequestStatus) CanTransitionTo(next ServiceRequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ServiceRequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusDeclined,
		RequestStatusExpired, RequestStatusPaid, RequestStatusCompleted:
		return true
	}
	return false
}

var conversationTransitions = map[ConversationStatus][]ConversationStatus{
	ConversationStatusActive:   {ConversationStatusClosed, ConversationStatusArchived},
	ConversationStatusClosed:   {ConversationStatusActive, ConversationStatusArchived},
	ConversationStatusArchived: {ConversationStatusActive},
}

func (s ConversationStatus) CanTransitionTo(next ConversationStatus) bool {
	for _, allowed := range conversationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ConversationStatus) Valid() bool {
	_, ok := conversationTransitions[s]
	return ok
}

func (s PaymentIntentStatus) Final() bool {
	return s == IntentStatusSucceeded || s == IntentStatusFailed || s == IntentStatusCanceled
}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// ServiceCategory groups professionals in the directory.
type ServiceCategory string

const (
	CategoryPhotographer ServiceCategory = "photographer"
	CategoryCaterer      ServiceCategory = "caterer"
	CategoryDJ           ServiceCategory = "dj"
	CategoryFlorist      ServiceCategory = "florist"
	CategoryVenue        ServiceCategory = "venue"
	CategoryPlanner      ServiceCategory = "planner"
	CategoryBartender    ServiceCategory = "bartender"
	CategoryMusician     ServiceCategory = "musician"
	CategoryDecorator    ServiceCategory = "decorator"
	CategoryOther        ServiceCategory = "other"
)

var categories = map[ServiceCategory]struct{}{
	CategoryPhotographer: {}, CategoryCaterer: {}, CategoryDJ: {}, CategoryFlorist: {},
	CategoryVenue: {}, CategoryPlanner: {}, CategoryBartender: {}, CategoryMusician: {},
	CategoryDecorator: {}, CategoryOther: {},
}

func (c ServiceCategory) Valid() bool {
	_, ok := categories[c]
	return ok
}
