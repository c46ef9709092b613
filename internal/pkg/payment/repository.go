package payment

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/getyoursite/getyoursite/app/models"
)

// Repository provides the DB operations used by the checkout and webhook
// services. Transactions are an append-only ledger: rows are created and
// updated, never deleted.
type Repository interface {
	CreateTransaction(tx *models.PaymentTransaction) error
	GetTransactionBySessionID(sessionID string) (*models.PaymentTransaction, error)
	AttachProviderSession(localRef, sessionID string) error
	// MarkTransactionPaid transitions pending -> paid exactly once. The
	// guard on payment_status makes replays and concurrent deliveries
	// no-ops; it reports whether this call performed the transition.
	MarkTransactionPaid(sessionID, status, eventType, eventID string) (bool, error)
	UpdateTransactionStatus(sessionID, status, paymentStatus string) error
	CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateTransaction(tx *models.PaymentTransaction) error {
	return r.db.Create(tx).Error
}

func (r *gormRepository) GetTransactionBySessionID(sessionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.Where("session_id = ?", sessionID).First(&tx).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *gormRepository) AttachProviderSession(localRef, sessionID string) error {
	return r.db.Model(&models.PaymentTransaction{}).
		Where("session_id = ?", localRef).
		Update("session_id", sessionID).Error
}

func (r *gormRepository) MarkTransactionPaid(sessionID, status, eventType, eventID string) (bool, error) {
	now := time.Now()
	tx := r.db.Model(&models.PaymentTransaction{}).
		Where("session_id = ? AND payment_status <> ?", sessionID, models.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"status":         status,
			"event_type":     eventType,
			"event_id":       eventID,
			"completed_at":   &now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) UpdateTransactionStatus(sessionID, status, paymentStatus string) error {
	return r.db.Model(&models.PaymentTransaction{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": paymentStatus,
		}).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
