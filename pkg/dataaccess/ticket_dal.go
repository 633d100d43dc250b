package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ticketDalName = "ticket_dal"

	mongoStore  = "mongo"
	memoryStore = "memory"
)

// TicketDal stores the state of tickets.
type TicketDal interface {
	// SaveTicket creates or replaces a ticket.
	SaveTicket(ctx context.Context, ticket *entities.TicketRecord) error

	// GetTicket gets a ticket by its channel. ErrTicketNotFound is returned when there is no record.
	GetTicket(ctx context.Context, guildID, channelID string) (*entities.TicketRecord, error)
}

type ticketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client
}

// NewTicketDal creates a new ticket data access layer. When MongoDB is not connected, tickets are kept in memory.
func NewTicketDal(logger *slog.Logger) TicketDal {
	l := logger.With(slog.String(logging.KeyDal, ticketDalName))

	if MongoDB == nil {
		l.Warn("MongoDB is not connected, ticket state will be kept in memory")
		return NewMemoryTicketDal()
	}

	return &ticketDal{
		l:      l,
		client: MongoDB,
	}
}

func (d *ticketDal) collection() *mongo.Collection {
	return d.client.Database(MongoDatabase).Collection(ticketsCollection)
}

func (d *ticketDal) SaveTicket(ctx context.Context, ticket *entities.TicketRecord) error {
	done := monitoring.Query(mongoStore, "save_ticket")

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, bson.M{
		"guild_id":   ticket.GuildID,
		"channel_id": ticket.ChannelID,
	}, bson.M{"$set": ticket}, opts)
	done(err)
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	return nil
}

func (d *ticketDal) GetTicket(ctx context.Context, guildID, channelID string) (*entities.TicketRecord, error) {
	done := monitoring.Query(mongoStore, "get_ticket")

	ticket := new(entities.TicketRecord)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done(nil)
		return nil, ErrTicketNotFound
	}
	done(err)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	return ticket, nil
}
