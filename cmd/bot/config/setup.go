package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess/connection"
)

// ErrMissingBotToken is returned when no bot token is configured.
var ErrMissingBotToken = errors.New("no bot token provided")

// Parse reads the configuration from the environment.
func Parse(l *slog.Logger) error {
	if envBT := os.Getenv(EnvBotToken); envBT != "" {
		l.Debug("Found bot token in environment", slog.String("key", EnvBotToken))
		BotToken = envBT
	}

	if envAppId := os.Getenv(EnvApplicationId); envAppId != "" {
		l.Debug("Found application ID in environment", slog.String("key", EnvApplicationId))
		ApplicationId = envAppId
	}

	if envMongoUri := os.Getenv(EnvMongoUri); envMongoUri != "" {
		l.Debug("Found MongoDB URI in environment", slog.String("key", EnvMongoUri))
		MongoUri = envMongoUri
	}

	if envMonitoringPort := os.Getenv(EnvMonitoringPort); envMonitoringPort != "" {
		l.Debug("Found monitoring port in environment", slog.String("key", EnvMonitoringPort))
		MonitoringPort = envMonitoringPort
	} else {
		MonitoringPort = defaultMonitoringPort
		l.Info("No monitoring port provided in environment, defaulting to "+defaultMonitoringPort, slog.String("key", EnvMonitoringPort))
	}

	if envCategories := os.Getenv(EnvCategoriesFile); envCategories != "" {
		l.Debug("Found categories file in environment", slog.String("key", EnvCategoriesFile))
		CategoriesFile = envCategories
	}

	var err error
	HandlerTimeout, err = durationEnv(EnvHandlerTimeout, defaultHandlerTimeout)
	if err != nil {
		return err
	}

	CloseTimeout, err = durationEnv(EnvCloseTimeout, defaultCloseTimeout)
	if err != nil {
		return err
	}

	if envMax := os.Getenv(EnvTranscriptMaxMessages); envMax != "" {
		n, err := strconv.Atoi(envMax)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s %q: must be a positive number", EnvTranscriptMaxMessages, envMax)
		}
		TranscriptMaxMessages = n
	}

	if BotToken == "" {
		return ErrMissingBotToken
	}

	l.Debug("All required environment variables have been provided")
	return nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	} else if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}

// ConnectMongo connects to MongoDB when a URI is configured. Ticket records are kept in memory otherwise.
func ConnectMongo(l *slog.Logger) error {
	if MongoUri == "" {
		l.Info("No MongoDB URI provided, ticket records will not survive a restart", slog.String("key", EnvMongoUri))
		return nil
	}

	mongoConn := new(connection.MongoDB)
	mongoConn.ConnectionString = MongoUri

	db, err := mongoConn.Connect(dataaccess.MongoDatabase)
	if err != nil {
		return fmt.Errorf("error connecting to mongo: %w", err)
	}

	dataaccess.MongoDB = db

	l.Debug("Connected to MongoDB", slog.String("key", EnvMongoUri))
	return nil
}
