package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName      string             `json:"firstName" bson:"firstName"`
	LastName       string             `json:"lastName" bson:"lastName"`
	Email          string             `json:"email" bson:"email"`
	PasswordHash   string             `json:"-" bson:"password"` // Do not expose this in JSON responses
	RefreshTokenID string             `json:"-" bson:"refreshTokenId"`
}

// Speaker identifies who produced a history entry.
type Speaker string

const (
	SpeakerUser Speaker = "USER"
	SpeakerBot  Speaker = "BOT"
)

// HistoryEntry is one turn of a conversation. Consecutive entries by the
// same speaker are an accepted state: an interrupted bot reply that resumes
// appends a second BOT entry rather than merging.
type HistoryEntry struct {
	Speaker Speaker `json:"speaker" bson:"speaker"`
	Text    string  `json:"text" bson:"text"`
}

type Conversation struct {
	OID    primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ID     string             `json:"id" bson:"id"` // client-generated UUID
	UserID string             `json:"user_id" bson:"user_id"`
	Name   string             `json:"name" bson:"name"`
	// EditTime is the locale-formatted string clients display. It is not a
	// sort key; recency ordering uses UpdatedAt.
	EditTime  string         `json:"edit_time" bson:"edit_time"`
	UpdatedAt time.Time      `json:"-" bson:"updated_at"`
	History   []HistoryEntry `json:"history" bson:"history"`
}

// Item is a catalog product. Populated by the external ingestion process;
// read-only from this service's perspective. Price and URL are keyed by
// retailer, so one document can carry several offers.
type Item struct {
	OID                primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	ID                 string             `json:"id" bson:"id"` // scraped external id
	Name               string             `json:"name" bson:"name"`
	Brand              string             `json:"brand" bson:"brand"`
	ImgURL             string             `json:"img_url" bson:"img_url"`
	Price              map[string]float64 `json:"price" bson:"price"`
	URL                map[string]string  `json:"url" bson:"url"`
	Categories         []string           `json:"categories" bson:"categories"`
	AvgReviews         float64            `json:"avg_reviews" bson:"avg_reviews"`
	CountReviews       int                `json:"count_reviews" bson:"count_reviews"`
	GeneralInformation string             `json:"general_information" bson:"general_information"`
	Ingredients        string             `json:"ingredients" bson:"ingredients"`
	Directions         string             `json:"directions" bson:"directions"`
	Warnings           string             `json:"warnings" bson:"warnings"`
	Score              float64            `json:"score,omitempty" bson:"score,omitempty"` // text-search relevance, set by SearchItemsText
}
