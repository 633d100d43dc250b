package main

import (
	"github.com/Jacobbrewer1/ticketbot/pkg/messages"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
)

// userMessage is the reply sent when an interaction fails with an error of the given kind.
func userMessage(k platform.Kind) string {
	switch k {
	case platform.KindNotFound:
		return messages.ErrUserGone
	case platform.KindUnauthorized:
		return messages.ErrUserBotForbidden
	case platform.KindTransient:
		return messages.ErrUserTransient
	default:
		return messages.ErrUserErrorProcessing
	}
}
