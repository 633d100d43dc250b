package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketState_CanTransition(t *testing.T) {
	tests := []struct {
		from TicketState
		to   TicketState
		want bool
	}{
		{TicketStateOpen, TicketStatePendingClose, true},
		{TicketStateOpen, TicketStateArchived, true},
		{TicketStatePendingClose, TicketStateArchived, true},
		{TicketStatePendingClose, TicketStateOpen, false},
		{TicketStateArchived, TicketStateOpen, false},
		{TicketStateArchived, TicketStatePendingClose, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTicketRecord_Transition(t *testing.T) {
	rec := &TicketRecord{ChannelName: "store-issue-wolf", State: TicketStateOpen}

	require.NoError(t, rec.Transition(TicketStatePendingClose))
	require.NoError(t, rec.Transition(TicketStatePendingClose), "staying in the same state is allowed")
	require.NoError(t, rec.Transition(TicketStateArchived))
	require.Error(t, rec.Transition(TicketStateOpen))
	require.Equal(t, TicketStateArchived, rec.State)
}

func TestTicketRequest_ChannelName(t *testing.T) {
	tests := []struct {
		name     string
		category string
		username string
		want     string
	}{
		{"single word", "Store Issue", "wolf", "store-issue-wolf"},
		{"mixed case user", "General Support", "Big Wolf", "general-support-big-wolf"},
		{"two spaces", "Punishment Appeal", "cub", "punishment-appeal-cub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &TicketRequest{
				Username: tt.username,
				Category: &TicketCategory{Name: tt.category},
			}
			require.Equal(t, tt.want, req.ChannelName())
		})
	}
}
