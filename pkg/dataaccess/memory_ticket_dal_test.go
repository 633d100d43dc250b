package dataaccess

import (
	"context"
	"testing"

	"github.com/Jacobbrewer1/ticketbot/pkg/custom"
	"github.com/Jacobbrewer1/ticketbot/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestMemoryTicketDal(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryTicketDal()

	_, err := d.GetTicket(ctx, "1", "2")
	require.ErrorIs(t, err, ErrTicketNotFound)

	rec := &entities.TicketRecord{
		ID:          "abc",
		GuildID:     "1",
		ChannelID:   "2",
		ChannelName: "store-issue-wolf",
		State:       entities.TicketStateOpen,
		CreatedAt:   custom.Now(),
	}
	require.NoError(t, d.SaveTicket(ctx, rec))

	// The stored record is a copy.
	rec.State = entities.TicketStateArchived
	got, err := d.GetTicket(ctx, "1", "2")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateOpen, got.State)

	require.NoError(t, d.SaveTicket(ctx, rec))
	got, err = d.GetTicket(ctx, "1", "2")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStateArchived, got.State)

	_, err = d.GetTicket(ctx, "other", "2")
	require.ErrorIs(t, err, ErrTicketNotFound)
}
