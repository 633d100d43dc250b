package platform

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
)

// Kind describes how a failed platform call should be handled.
type Kind int

const (
	// KindFatal is anything that is not understood. It is reported and logged.
	KindFatal Kind = iota

	// KindNotFound means the remote object does not exist. Callers that provision objects create it.
	KindNotFound

	// KindUnauthorized means the bot is missing a permission on the platform.
	KindUnauthorized

	// KindTransient means the call may succeed if the user tries again.
	KindTransient
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// CodeInvalidFormBody is the API error code for a rejected request body. Discord answers a create or edit that
// references a missing parent with it instead of an unknown-channel error.
const CodeInvalidFormBody = 50035

// ErrNotFound is returned by Platform implementations that do not talk to Discord (the test fake) for missing
// objects. Classify treats it as KindNotFound.
var ErrNotFound = errors.New("not found")

// Classify maps an error returned by a platform call to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}

	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	rlErr := new(discordgo.RateLimitError)
	if errors.As(err, &rlErr) {
		return KindTransient
	}

	restErr := new(discordgo.RESTError)
	if errors.As(err, &restErr) {
		return classifyREST(restErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	return KindFatal
}

func classifyREST(err *discordgo.RESTError) Kind {
	if err.Message != nil {
		switch err.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownGuild,
			discordgo.ErrCodeUnknownUser:
			return KindNotFound
		case discordgo.ErrCodeMissingAccess,
			discordgo.ErrCodeMissingPermissions:
			return KindUnauthorized
		}
	}

	if err.Response == nil {
		return KindFatal
	}

	switch code := err.Response.StatusCode; {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusForbidden:
		return KindUnauthorized
	case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
		return KindTransient
	default:
		return KindFatal
	}
}

// IsNotFound reports whether the error means the remote object does not exist.
func IsNotFound(err error) bool {
	return err != nil && Classify(err) == KindNotFound
}

// IsInvalidForm reports whether the request body was rejected.
func IsInvalidForm(err error) bool {
	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Message != nil && restErr.Message.Code == CodeInvalidFormBody
}
