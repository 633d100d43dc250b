package config

import "time"

const (
	// AppName is the name of the application.
	AppName = "ticketbot"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	// EnvCategoriesFile is the environment variable for a ticket category catalogue that replaces the built-in one.
	EnvCategoriesFile = `CATEGORIES_FILE`

	// EnvHandlerTimeout is the environment variable for how long an interaction may take.
	EnvHandlerTimeout = `HANDLER_TIMEOUT`

	// EnvCloseTimeout is the environment variable for how long closing a ticket may take.
	EnvCloseTimeout = `CLOSE_TIMEOUT`

	// EnvTranscriptMaxMessages is the environment variable for the number of messages read into a transcript.
	EnvTranscriptMaxMessages = `TRANSCRIPT_MAX_MESSAGES`
)

const (
	defaultMonitoringPort = "8080"
	defaultHandlerTimeout = 30 * time.Second
	defaultCloseTimeout   = 2 * time.Minute
)

var (
	// BotToken is the token for the bot.
	BotToken string

	// ApplicationId is the ID of the application. When empty, the ID of the bot user is used once connected.
	ApplicationId string

	// MongoUri is the URI for the MongoDB database. Ticket records are kept in memory when it is empty.
	MongoUri string

	// MonitoringPort is the port for the monitoring server.
	MonitoringPort string

	// CategoriesFile is the path of the ticket category catalogue. The built-in catalogue is used when it is empty.
	CategoriesFile string

	// HandlerTimeout bounds the handling of one interaction.
	HandlerTimeout time.Duration

	// CloseTimeout bounds closing a ticket, which reads the whole channel history.
	CloseTimeout time.Duration

	// TranscriptMaxMessages is the number of messages read before a transcript is truncated. Zero means the default.
	TranscriptMaxMessages int
)
