package dataaccess

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB is the Mongo client. This is a connection pool. It is nil when no MongoDB URI is configured.
var MongoDB *mongo.Client

// MongoDatabase is the name of the database tickets are stored in.
const MongoDatabase = "ticketbot"

const ticketsCollection = "tickets"

// ErrTicketNotFound is returned when there is no record for a ticket channel.
var ErrTicketNotFound = errors.New("ticket not found")
