package payment

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/getyoursite/getyoursite/app/models"
)

// fakeRepository is the in-memory Repository used across the package
// tests. It mirrors the guarded-update semantics of the GORM version.
type fakeRepository struct {
	mu           sync.Mutex
	transactions map[string]*models.PaymentTransaction
	events       map[string]*models.PaymentWebhookEvent
	nextEventID  uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		transactions: make(map[string]*models.PaymentTransaction),
		events:       make(map[string]*models.PaymentWebhookEvent),
	}
}

func (f *fakeRepository) CreateTransaction(tx *models.PaymentTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tx
	f.transactions[tx.SessionID] = &cp
	return nil
}

func (f *fakeRepository) GetTransactionBySessionID(sessionID string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[sessionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeRepository) AttachProviderSession(localRef, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[localRef]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.transactions, localRef)
	tx.SessionID = sessionID
	f.transactions[sessionID] = tx
	return nil
}

func (f *fakeRepository) MarkTransactionPaid(sessionID, status, eventType, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[sessionID]
	if !ok || tx.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	now := time.Now()
	tx.PaymentStatus = models.PaymentStatusPaid
	tx.Status = status
	tx.EventType = eventType
	tx.EventID = eventID
	tx.CompletedAt = &now
	return true, nil
}

func (f *fakeRepository) UpdateTransactionStatus(sessionID, status, paymentStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx, ok := f.transactions[sessionID]; ok {
		tx.Status = status
		tx.PaymentStatus = paymentStatus
	}
	return nil
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := f.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	f.nextEventID++
	cp := *event
	cp.ID = f.nextEventID
	f.events[key] = &cp
	out := cp
	return true, &out, nil
}

func (f *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, ev := range f.events {
		if ev.ID == id {
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
		}
	}
	return nil
}

// stubProvider scripts provider answers and records what it was asked.
type stubProvider struct {
	mu             sync.Mutex
	createParams   []CreateSessionParams
	createSession  Session
	createErr      error
	statuses       map[string]SessionStatus
	getErr         error
	verifyEvent    Event
	verifyErr      error
	rowsAtCreation int
	repo           *fakeRepository
}

func (s *stubProvider) CreateSession(_ context.Context, params CreateSessionParams) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createParams = append(s.createParams, params)
	if s.repo != nil {
		s.repo.mu.Lock()
		s.rowsAtCreation = len(s.repo.transactions)
		s.repo.mu.Unlock()
	}
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	return s.createSession, nil
}

func (s *stubProvider) GetSession(_ context.Context, id string) (SessionStatus, error) {
	if s.getErr != nil {
		return SessionStatus{}, s.getErr
	}
	status, ok := s.statuses[id]
	if !ok {
		return SessionStatus{}, ErrSessionNotFound
	}
	return status, nil
}

func (s *stubProvider) VerifyEvent([]byte, string) (Event, error) {
	if s.verifyErr != nil {
		return Event{}, s.verifyErr
	}
	return s.verifyEvent, nil
}
