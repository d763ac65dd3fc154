package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
	maxMessageLength    = 4000
)

// Realtime notification kinds pushed through the Notifier.
const (
	NotifyMessageNew       = "message.new"
	NotifyConversationRead = "conversation.read"
)

type ConversationService interface {
	Start(ctx context.Context, userID string, role models.UserRole, req *dto.StartConversationRequest) (*dto.ConversationResponse, error)
	List(ctx context.Context, userID string, role models.UserRole, q *dto.ConversationListQuery) (*dto.PaginatedResponse, error)
	Get(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error)
	Close(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error)
	Archive(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error)
	Reopen(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error)

	SendMessage(ctx context.Context, conversationID, userID string, role models.UserRole, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, conversationID, userID string, q *dto.MessageListQuery) (*dto.MessageListResponse, error)
	MarkRead(ctx context.Context, conversationID, userID string) (*dto.MarkReadResponse, error)
	UnreadCounts(ctx context.Context, userID string, role models.UserRole) (*dto.UnreadCountsResponse, error)
}

type conversationService struct {
	store     *repositories.Store
	publisher events.Publisher
	notifier  Notifier
	now       func() time.Time
}

func NewConversationService(store *repositories.Store, publisher events.Publisher, notifier Notifier) ConversationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &conversationService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		now:       utcNow,
	}
}

// Start returns the conversation for (organizer, professional, event name),
// creating it when it does not exist yet.
func (s *conversationService) Start(ctx context.Context, userID string, role models.UserRole, req *dto.StartConversationRequest) (*dto.ConversationResponse, error) {
	if role != models.UserRoleOrganizer {
		return nil, apperrors.ErrInvalidUserRole
	}
	if req.ProfessionalID == userID {
		return nil, apperrors.ErrInvalidOperation("conversation", "Cannot start a conversation with yourself")
	}
	name, err := eventName(req.EventName)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Profiles.FindProfessionalByUserID(ctx, req.ProfessionalID); err != nil {
		return nil, mapProfileError(err)
	}

	conv, created, err := getOrCreateConversation(ctx, s.store.Conversations, userID, req.ProfessionalID, name, req.EventDate)
	if errors.Is(err, repositories.ErrConversationExists) {
		conv, err = s.store.Conversations.FindByTriple(ctx, userID, req.ProfessionalID, name)
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if created {
		logger.CtxInfo(ctx, "conversation started", "conversation_id", conv.ID, "professional_id", req.ProfessionalID)
	}
	resp, err := s.buildResponse(ctx, conv, userID)
	if err != nil {
		return nil, err
	}
	resp.Created = created
	return resp, nil
}

func (s *conversationService) List(ctx context.Context, userID string, role models.UserRole, q *dto.ConversationListQuery) (*dto.PaginatedResponse, error) {
	filter := repositories.ConversationFilter{
		UserID: userID,
		Role:   role,
		Status: q.Status,
		Page:   q.ToPage(),
	}
	convs, total, err := s.store.Conversations.List(ctx, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	ids := make([]string, 0, len(convs))
	others := make([]string, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].ID)
		others = append(others, convs[i].OtherParticipant(userID))
	}
	unread, err := s.store.Conversations.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	names, err := s.store.Profiles.DisplayNames(ctx, others)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.ConversationResponse, 0, len(convs))
	for i := range convs {
		resp := dto.NewConversationResponse(&convs[i])
		resp.UnreadCount = unread[convs[i].ID]
		resp.Counterpart = counterpart(&convs[i], userID, names)
		last, err := s.store.Conversations.LastMessage(ctx, convs[i].ID)
		switch {
		case err == nil:
			resp.LastMessage = dto.NewMessageResponse(last)
		case !errors.Is(err, repositories.ErrMessageNotFound):
			return nil, apperrors.InternalError(err)
		}
		items = append(items, resp)
	}
	return dto.NewPaginatedResponse(items, total, filter.Page), nil
}

func (s *conversationService) Get(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error) {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, conv, userID)
}

func (s *conversationService) Close(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error) {
	return s.transition(ctx, conversationID, userID, models.ConversationStatusClosed)
}

func (s *conversationService) Archive(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error) {
	return s.transition(ctx, conversationID, userID, models.ConversationStatusArchived)
}

func (s *conversationService) Reopen(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error) {
	return s.transition(ctx, conversationID, userID, models.ConversationStatusActive)
}

func (s *conversationService) transition(ctx context.Context, conversationID, userID string, next models.ConversationStatus) (*dto.ConversationResponse, error) {
	conv, err := s.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !conv.Status.CanTransitionTo(next) {
		return nil, apperrors.ErrInvalidStatus("conversation", "Cannot change conversation from "+string(conv.Status)+" to "+string(next))
	}
	if err := s.store.Conversations.UpdateStatus(ctx, conv.ID, conv.Status, next); err != nil {
		return nil, mapConversationError(err)
	}
	conv.Status = next
	logger.CtxInfo(ctx, "conversation status changed", "conversation_id", conv.ID, "status", next)
	return s.buildResponse(ctx, conv, userID)
}

func (s *conversationService) SendMessage(ctx context.Context, conversationID, userID string, role models.UserRole, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" || len([]rune(content)) > maxMessageLength {
		return nil, apperrors.NewBadRequestError("Message content must be between 1 and 4000 characters")
	}

	var senderType models.SenderType
	switch role {
	case models.UserRoleOrganizer:
		senderType = models.SenderOrganizer
	case models.UserRoleProfessional:
		senderType = models.SenderProfessional
	default:
		return nil, apperrors.ErrInvalidUserRole
	}

	var msg *models.Message
	var conv *models.Conversation
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		conv, err = s.participantConversation(ctx, conversationID, userID)
		if err != nil {
			return err
		}
		if conv.Status != models.ConversationStatusActive {
			return apperrors.ErrConversationNotActive
		}
		msg, err = appendMessage(ctx, s.store.Conversations, conv, userID, senderType, content, s.now())
		return err
	})
	if err != nil {
		return nil, mapConversationError(err)
	}

	metrics.MessagesSent.WithLabelValues(string(senderType)).Inc()
	resp := dto.NewMessageResponse(msg)
	recipient := conv.OtherParticipant(userID)
	s.notifier.NotifyUsers([]string{recipient, userID}, NotifyMessageNew, resp)
	publishEvent(ctx, s.publisher, events.MessageSent, events.MessagePayload{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       userID,
		SenderType:     string(senderType),
		RecipientIDs:   []string{recipient},
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	})
	return resp, nil
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID, userID string, q *dto.MessageListQuery) (*dto.MessageListResponse, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	cursor := repositories.MessageCursor{AfterID: q.AfterID, Limit: q.Limit}
	if cursor.Limit <= 0 {
		cursor.Limit = defaultMessageLimit
	}
	if cursor.Limit > maxMessageLimit {
		cursor.Limit = maxMessageLimit
	}
	if q.After != "" {
		after, err := time.Parse(time.RFC3339Nano, q.After)
		if err != nil {
			return nil, apperrors.ValidationError(map[string]string{"after": "must be an RFC3339 timestamp"})
		}
		after = after.UTC()
		cursor.After = &after
	} else if q.AfterID != "" {
		return nil, apperrors.ValidationError(map[string]string{"after_id": "requires after"})
	}

	msgs, err := s.store.Conversations.ListMessages(ctx, conversationID, cursor)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.MessageListResponse{Messages: make([]*dto.MessageResponse, 0, len(msgs))}
	for i := range msgs {
		resp.Messages = append(resp.Messages, dto.NewMessageResponse(&msgs[i]))
	}
	if n := len(msgs); n > 0 {
		last := msgs[n-1].CreatedAt
		resp.NextAfter = &last
		resp.NextAfterID = msgs[n-1].ID
	} else if cursor.After != nil {
		resp.NextAfter = cursor.After
		resp.NextAfterID = cursor.AfterID
	}
	return resp, nil
}

// MarkRead flags every unread message from the other party and advances
// the caller's read marker. Messages that are already read are untouched.
func (s *conversationService) MarkRead(ctx context.Context, conversationID, userID string) (*dto.MarkReadResponse, error) {
	now := s.now()
	var marked int64
	var conv *models.Conversation
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		conv, err = s.participantConversation(ctx, conversationID, userID)
		if err != nil {
			return err
		}
		marked, err = s.store.Conversations.MarkRead(ctx, conv.ID, userID, now)
		if err != nil {
			return err
		}
		role := models.UserRoleProfessional
		if conv.OrganizerID == userID {
			role = models.UserRoleOrganizer
		}
		return s.store.Conversations.SetLastRead(ctx, conv.ID, role, now)
	})
	if err != nil {
		return nil, mapConversationError(err)
	}

	if marked > 0 {
		s.notifier.NotifyUsers([]string{conv.OtherParticipant(userID)}, NotifyConversationRead, map[string]any{
			"conversation_id": conv.ID,
			"reader_id":       userID,
			"read_at":         now,
		})
	}
	return &dto.MarkReadResponse{Marked: marked}, nil
}

func (s *conversationService) UnreadCounts(ctx context.Context, userID string, role models.UserRole) (*dto.UnreadCountsResponse, error) {
	total, err := s.store.Conversations.CountUnread(ctx, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.UnreadCountsResponse{Total: total, Conversations: map[string]int64{}}
	if total == 0 {
		return resp, nil
	}

	filter := repositories.ConversationFilter{
		UserID:          userID,
		Role:            role,
		IncludeArchived: true,
		Page:            repositories.Page{Page: 1, PageSize: repositories.MaxPageSize},
	}
	for {
		convs, count, err := s.store.Conversations.List(ctx, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		ids := make([]string, 0, len(convs))
		for i := range convs {
			ids = append(ids, convs[i].ID)
		}
		counts, err := s.store.Conversations.UnreadCounts(ctx, userID, ids)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		for id, n := range counts {
			if n > 0 {
				resp.Conversations[id] = n
			}
		}
		if int64(filter.Page.Offset()+len(convs)) >= count || len(convs) == 0 {
			break
		}
		filter.Page.Page++
	}
	return resp, nil
}

func (s *conversationService) participantConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := s.store.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, mapConversationError(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.ErrConversationAccessDenied
	}
	return conv, nil
}

func (s *conversationService) buildResponse(ctx context.Context, conv *models.Conversation, userID string) (*dto.ConversationResponse, error) {
	resp := dto.NewConversationResponse(conv)

	counts, err := s.store.Conversations.UnreadCounts(ctx, userID, []string{conv.ID})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	resp.UnreadCount = counts[conv.ID]

	last, err := s.store.Conversations.LastMessage(ctx, conv.ID)
	switch {
	case err == nil:
		resp.LastMessage = dto.NewMessageResponse(last)
	case !errors.Is(err, repositories.ErrMessageNotFound):
		return nil, apperrors.InternalError(err)
	}

	other := conv.OtherParticipant(userID)
	names, err := s.store.Profiles.DisplayNames(ctx, []string{other})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	resp.Counterpart = counterpart(conv, userID, names)
	return resp, nil
}

func counterpart(conv *models.Conversation, userID string, names map[string]string) *dto.ParticipantResponse {
	other := conv.OtherParticipant(userID)
	role := models.UserRoleProfessional
	if other == conv.OrganizerID {
		role = models.UserRoleOrganizer
	}
	return &dto.ParticipantResponse{UserID: other, Role: role, DisplayName: names[other]}
}

// getOrCreateConversation looks the triple up first; the unique index still
// guards concurrent creators, who get ErrConversationExists.
func getOrCreateConversation(ctx context.Context, repo repositories.ConversationRepository, organizerID, professionalID, name string, eventDate *time.Time) (*models.Conversation, bool, error) {
	name = strings.TrimSpace(name)
	conv, err := repo.FindByTriple(ctx, organizerID, professionalID, name)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, repositories.ErrConversationNotFound) {
		return nil, false, err
	}

	conv = &models.Conversation{
		OrganizerID:    organizerID,
		ProfessionalID: professionalID,
		EventName:      name,
		EventDate:      eventDate,
		Status:         models.ConversationStatusActive,
	}
	if err := repo.Create(ctx, conv); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// appendMessage stores a message and moves the conversation's activity
// marker forward.
func appendMessage(ctx context.Context, repo repositories.ConversationRepository, conv *models.Conversation, senderID string, senderType models.SenderType, content string, at time.Time) (*models.Message, error) {
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		SenderType:     senderType,
		Content:        content,
	}
	msg.CreatedAt = at
	if err := repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := repo.RecordActivity(ctx, conv.ID, msg.CreatedAt); err != nil {
		return nil, err
	}
	if conv.LastMessageAt == nil || msg.CreatedAt.After(*conv.LastMessageAt) {
		conv.LastMessageAt = &msg.CreatedAt
	}
	return msg, nil
}

func mapConversationError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound
	case errors.Is(err, repositories.ErrConversationExists):
		return apperrors.ErrConflict(err, "conversation", "Conversation already exists")
	case errors.Is(err, repositories.ErrStaleStatus):
		return apperrors.ErrInvalidStatus("conversation", "Conversation status changed, reload and retry")
	}
	return apperrors.InternalError(err)
}
