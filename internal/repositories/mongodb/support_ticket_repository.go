package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure SupportTicketRepository implements the interface
var _ repositories.SupportTicketRepository = (*SupportTicketRepository)(nil)

// SupportTicketRepository handles MongoDB operations for SupportTicket
type SupportTicketRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// Create inserts a new ticket
func (r *SupportTicketRepository) Create(ctx context.Context, ticket *models.SupportTicket) error {
	id, err := nextID(ctx, r.counters, ticketCollection)
	if err != nil {
		return err
	}
	ticket.ID = id
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	_, err = r.collection.InsertOne(ctx, ticket)
	return translate(err)
}

// FindByID finds a ticket by ID
func (r *SupportTicketRepository) FindByID(ctx context.Context, id int64) (*models.SupportTicket, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByGroupMessage finds the ticket relayed as the given staff chat message
func (r *SupportTicketRepository) FindByGroupMessage(ctx context.Context, groupMessageID int64) (*models.SupportTicket, error) {
	return r.findOne(ctx, bson.M{"groupMessageId": groupMessageID})
}

// MarkAnswered stores the staff answer
func (r *SupportTicketRepository) MarkAnswered(ctx context.Context, id int64, answer string, at time.Time) error {
	return r.set(ctx, id, bson.M{"isAnswered": true, "answerText": answer, "answeredAt": at})
}

// Close marks a ticket as closed
func (r *SupportTicketRepository) Close(ctx context.Context, id int64) error {
	return r.set(ctx, id, bson.M{"isClosed": true})
}

// FindByUser returns a user's tickets, newest first
func (r *SupportTicketRepository) FindByUser(ctx context.Context, externalID int64, limit int) ([]*models.SupportTicket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"externalId": externalID}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var tickets []*models.SupportTicket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, translate(err)
	}
	if tickets == nil {
		tickets = []*models.SupportTicket{}
	}
	return tickets, nil
}

func (r *SupportTicketRepository) findOne(ctx context.Context, filter bson.M) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	if err := r.collection.FindOne(ctx, filter).Decode(&ticket); err != nil {
		return nil, translate(err)
	}
	return &ticket, nil
}

func (r *SupportTicketRepository) set(ctx context.Context, id int64, fields bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
