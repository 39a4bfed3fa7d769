package services

import (
	"fmt"
	"strings"

	"deal-market-server/models"
	"deal-market-server/storage"
)

// MessageService persists the per-deal chat thread and resolves which of
// the deal's two parties receives each message.
type MessageService struct {
	notify Notifier
}

func NewMessageService(notify Notifier) *MessageService {
	return &MessageService{notify: notify}
}

// resolveReceiver picks the counterpart: the seller talks to the accepted
// bid's buyer, falling back to the first bidder in submission order;
// bidders always talk to the seller. Zero means no receiver exists yet.
func resolveReceiver(deal *models.Deal, senderID uint) uint {
	if deal.IsSeller(senderID) {
		if accepted := deal.AcceptedBid(); accepted != nil {
			return accepted.BuyerID
		}
		if len(deal.Bids) > 0 {
			return deal.Bids[0].BuyerID
		}
		return 0
	}
	return deal.SellerID
}

func (s *MessageService) Send(dealID, senderID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrValidation)
	}

	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsSeller(senderID) && !deal.HasBidder(senderID) {
		return nil, fmt.Errorf("%w: not a participant of this deal", ErrForbidden)
	}

	receiverID := resolveReceiver(deal, senderID)
	if receiverID == 0 {
		return nil, fmt.Errorf("%w: no valid receiver found", ErrValidation)
	}

	msg := models.Message{
		DealID:     dealID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := storage.DB.Create(&msg).Error; err != nil {
		return nil, err
	}
	storage.DB.Preload("Sender").Preload("Receiver").First(&msg, msg.ID)

	s.notify.PublishToRoom(dealID, EventReceiveMessage, msg)
	s.notify.PublishToUser(receiverID, EventReceiveMessage, msg)

	return &msg, nil
}

// ListForDeal returns the caller's view of a deal thread in chat order.
func (s *MessageService) ListForDeal(dealID, callerID uint) ([]models.Message, error) {
	deal, err := loadDeal(dealID)
	if err != nil {
		return nil, err
	}
	if !deal.IsSeller(callerID) && !deal.HasBidder(callerID) {
		return nil, fmt.Errorf("%w: not a participant of this deal", ErrForbidden)
	}

	var msgs []models.Message
	err = storage.DB.
		Where("deal_id = ? AND (sender_id = ? OR receiver_id = ?)", dealID, callerID, callerID).
		Preload("Sender").
		Preload("Receiver").
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListSentByUser returns every message the caller sent, newest first.
func (s *MessageService) ListSentByUser(callerID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := storage.DB.
		Where("sender_id = ?", callerID).
		Preload("Deal").
		Preload("Sender").
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

type LatestMessage struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// ConversationSummary is the inbox view: one entry per deal the caller has
// chatted in, carrying the latest message and the counterpart's identity.
type ConversationSummary struct {
	DealID          uint          `json:"dealId"`
	DealTitle       string        `json:"dealTitle"`
	Price           float64       `json:"price"`
	LatestMessage   LatestMessage `json:"latestMessage"`
	CounterpartID   uint          `json:"counterpartId"`
	CounterpartName string        `json:"counterpartName"`
}

// ListConversationSummaries groups the caller's messages by deal, skipping
// completed deals, and keeps only the most recent message per deal.
func (s *MessageService) ListConversationSummaries(callerID uint) ([]ConversationSummary, error) {
	var msgs []models.Message
	err := storage.DB.
		Where("sender_id = ? OR receiver_id = ?", callerID, callerID).
		Preload("Deal").
		Preload("Sender").
		Preload("Receiver").
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return summarizeConversations(msgs, callerID), nil
}

// summarizeConversations expects messages newest-first.
func summarizeConversations(msgs []models.Message, callerID uint) []ConversationSummary {
	seen := make(map[uint]bool)
	summaries := []ConversationSummary{}
	for i := range msgs {
		msg := &msgs[i]
		deal := msg.Deal
		if deal == nil || deal.ID == 0 || deal.Status == models.DealStatusCompleted {
			continue
		}
		if seen[deal.ID] {
			continue
		}
		seen[deal.ID] = true

		counterpart := msg.Receiver
		if msg.ReceiverID == callerID {
			counterpart = msg.Sender
		}
		summaries = append(summaries, ConversationSummary{
			DealID:          deal.ID,
			DealTitle:       deal.Title,
			Price:           deal.Price,
			LatestMessage:   LatestMessage{ID: msg.ID, Text: msg.Content},
			CounterpartID:   counterpart.ID,
			CounterpartName: counterpart.Name,
		})
	}
	return summaries
}
