package dataaccess

import (
	"context"
	"sync"

	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
)

type memoryTicketDal struct {
	mu      sync.RWMutex
	tickets map[string]entities.TicketRecord
}

// NewMemoryTicketDal creates a ticket data access layer that only lives as long as the process.
func NewMemoryTicketDal() TicketDal {
	return &memoryTicketDal{
		tickets: make(map[string]entities.TicketRecord),
	}
}

func memoryKey(guildID, channelID string) string {
	return guildID + "/" + channelID
}

func (d *memoryTicketDal) SaveTicket(_ context.Context, ticket *entities.TicketRecord) error {
	defer monitoring.Query(memoryStore, "save_ticket")(nil)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.tickets[memoryKey(ticket.GuildID, ticket.ChannelID)] = *ticket
	monitoring.MemoryTickets.Set(float64(len(d.tickets)))
	return nil
}

func (d *memoryTicketDal) GetTicket(_ context.Context, guildID, channelID string) (*entities.TicketRecord, error) {
	defer monitoring.Query(memoryStore, "get_ticket")(nil)

	d.mu.RLock()
	defer d.mu.RUnlock()
	ticket, ok := d.tickets[memoryKey(guildID, channelID)]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return &ticket, nil
}
