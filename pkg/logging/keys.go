package logging

const (
	// EnvLogLevel is the environment variable for the log level.
	EnvLogLevel = `LOG_LEVEL`
)

const (
	// KeyApp is the key for the application name.
	KeyApp = "app"

	// KeyError is the key for errors.
	KeyError = "err"

	// KeyDal is the key for the data access layer name.
	KeyDal = "dal"

	// KeyGuild is the key for guild IDs.
	KeyGuild = "guild_id"

	// KeyChannel is the key for channel IDs.
	KeyChannel = "channel_id"

	// KeyUser is the key for user IDs.
	KeyUser = "user_id"

	// KeyCommand is the key for slash command and component names.
	KeyCommand = "command"
)
