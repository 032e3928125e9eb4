package sqlite

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"gorm.io/gorm"
)

// Compile-time check to ensure SupportTicketRepository implements the interface
var _ repositories.SupportTicketRepository = (*SupportTicketRepository)(nil)

// SupportTicketRepository handles SQLite operations for SupportTicket
type SupportTicketRepository struct {
	db *gorm.DB
}

// Create inserts a new ticket
func (r *SupportTicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(ticket).Error)
}

// FindByID finds a ticket by ID
func (r *SupportTicketRepository) FindByID(ctx context.Context, id int64) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.db.WithContext(ctx).First(&ticket, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

// FindByGroupMessage finds the ticket relayed as the given staff chat message
func (r *SupportTicketRepository) FindByGroupMessage(ctx context.Context, groupMessageID int64) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.db.WithContext(ctx).First(&ticket, "group_message_id = ?", groupMessageID).Error; err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

// MarkAnswered stores the staff answer
func (r *SupportTicketRepository) MarkAnswered(ctx context.Context, id int64, answer string, at time.Time) error {
	return r.update(ctx, id, map[string]interface{}{
		"is_answered": true,
		"answer_text": answer,
		"answered_at": at,
	})
}

// Close marks a ticket as closed
func (r *SupportTicketRepository) Close(ctx context.Context, id int64) error {
	return r.update(ctx, id, map[string]interface{}{"is_closed": true})
}

// FindByUser returns a user's tickets, newest first
func (r *SupportTicketRepository) FindByUser(ctx context.Context, externalID int64, limit int) ([]*models.SupportTicket, error) {
	var tickets []*models.SupportTicket
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, translate(err)
}

func (r *SupportTicketRepository) update(ctx context.Context, id int64, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.SupportTicket{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
