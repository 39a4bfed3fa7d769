package models

import (
	"gorm.io/gorm"
)

// Message is a chat entry scoped to exactly one deal. Sender and receiver
// are always the deal's seller and one of its bidders; nothing else ever
// mutates a message except the read flag.
type Message struct {
	gorm.Model
	DealID     uint   `json:"dealID" gorm:"index;not null"`
	Deal       *Deal  `json:"deal,omitempty"`
	SenderID   uint   `json:"senderID" gorm:"index;not null"`
	Sender     User   `json:"sender" gorm:"foreignKey:SenderID"`
	ReceiverID uint   `json:"receiverID" gorm:"index;not null"`
	Receiver   User   `json:"receiver" gorm:"foreignKey:ReceiverID"`
	Content    string `json:"content" gorm:"type:text;not null"`
	Read       bool   `json:"read" gorm:"default:false"`
}
