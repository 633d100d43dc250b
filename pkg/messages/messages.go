package messages

// Replies sent back to users. Ephemeral unless stated otherwise.
const (
	ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

	ErrUserTransient = "Discord is having trouble right now. Please try again in a moment."

	ErrUserBotForbidden = "I do not have permission to do that in this server. Please contact an administrator."

	ErrUserGone = "That channel or role no longer exists."

	ErrUserNoPermission = "You do not have permission to use this command."

	ErrUserAdminOnly = "You must be an administrator to use this command."

	ErrUserUnknownCategory = "That ticket type is not available anymore."

	ErrUserEmptyAnswer = "Please answer every question in the form."

	ErrUserEmptyValue = "Please provide a value for this command."

	ErrUserNotGuild = "This command can only be used in a server."

	ErrUserNotCategory = "That channel is not a category."

	TicketCreated = "✅ Your ticket has been created: <#%s>"

	// CloseRequest is public.
	CloseRequest = "<@&%s> Close request: %s"

	ChannelRenamed = "Channel renamed to `%s`."

	ChannelMoved = "Channel moved to %s."

	MemberAdded = "<@%s> has been added to the ticket."

	MemberRemoved = "<@%s> has been removed from the ticket."

	TicketClosing = "Closing this ticket and saving the transcript..."
)
