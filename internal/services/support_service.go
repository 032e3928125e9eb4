package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"github.com/ArowuTest/loyaltybot-backend/pkg/relay"
)

// SupportService relays user questions to the staff chat and answers back
type SupportService struct {
	core
	gateway     relay.Gateway
	staffChatID int64
}

// NewSupportService creates a new SupportService
func NewSupportService(opts Options, gateway relay.Gateway, staffChatID int64) *SupportService {
	return &SupportService{core: newCore(opts), gateway: gateway, staffChatID: staffChatID}
}

// CreateTicket forwards a question to the staff chat and stores the ticket
// under the id of the relayed message
func (s *SupportService) CreateTicket(ctx context.Context, req models.CreateTicketRequest) (*models.SupportTicket, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, errors.New("question must not be empty")
	}

	text := fmt.Sprintf("Question from user %d:\n\n%s\n\nReply to this message to answer.", req.ExternalID, question)
	messageID, err := s.gateway.Send(ctx, s.staffChatID, text)
	if err != nil {
		return nil, fmt.Errorf("relay question: %w", err)
	}

	ticket := &models.SupportTicket{
		ExternalID:     req.ExternalID,
		Question:       question,
		GroupMessageID: messageID,
		CreatedAt:      s.now(),
	}
	if err := s.store.Repositories().Tickets.Create(ctx, ticket); err != nil {
		return nil, classify("create_ticket", err)
	}
	s.logger.Info("Support ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("external_id", req.ExternalID),
		zap.Int64("group_message_id", messageID))
	return ticket, nil
}

// AnswerTicket delivers a staff reply to the user who asked
func (s *SupportService) AnswerTicket(ctx context.Context, req models.AnswerTicketRequest) (*models.SupportTicket, error) {
	tickets := s.store.Repositories().Tickets
	ticket, err := tickets.FindByGroupMessage(ctx, req.GroupMessageID)
	if err != nil {
		return nil, s.ticketErr("answer_ticket", err)
	}

	text := fmt.Sprintf("Answer from support:\n\n%s", strings.TrimSpace(req.Answer))
	if _, err := s.gateway.Send(ctx, ticket.ExternalID, text); err != nil {
		return nil, fmt.Errorf("relay answer: %w", err)
	}

	if err := tickets.MarkAnswered(ctx, ticket.ID, req.Answer, s.now()); err != nil {
		return nil, s.ticketErr("answer_ticket", err)
	}
	return tickets.FindByID(ctx, ticket.ID)
}

// CloseTicket marks a ticket closed
func (s *SupportService) CloseTicket(ctx context.Context, ticketID int64) error {
	if err := s.store.Repositories().Tickets.Close(ctx, ticketID); err != nil {
		return s.ticketErr("close_ticket", err)
	}
	return nil
}

// ListUserTickets returns a user's tickets, newest first
func (s *SupportService) ListUserTickets(ctx context.Context, externalID int64, limit int) ([]*models.SupportTicket, error) {
	tickets, err := s.store.Repositories().Tickets.FindByUser(ctx, externalID, clampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit))
	return tickets, classify("list_tickets", err)
}

func (s *SupportService) ticketErr(operation string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTicketNotFound
	}
	return classify(operation, err)
}
