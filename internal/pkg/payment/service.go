package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/getyoursite/getyoursite/app/models"
)

// CheckoutResult is the payload returned to the client after a checkout
// session was opened.
type CheckoutResult struct {
	URL       string
	SessionID string
	Amount    int64 // cents
	Currency  string
	PizzaName string
	Status    string
	Message   string
	IsTest    bool
}

// StatusSnapshot is the provider-reported state of a checkout session
// enriched with the local ledger entry.
type StatusSnapshot struct {
	SessionID     string
	Status        string
	PaymentStatus string
	AmountTotal   int64 // cents
	Currency      string
	PizzaName     string
	Metadata      map[string]string
	IsTest        bool
}

// Service drives checkout creation and status reads. The catalog is the
// only price source; the provider is the only payment authority.
type Service struct {
	catalog  *Catalog
	provider Provider
	repo     Repository
}

// NewService wires the checkout service.
func NewService(catalog *Catalog, provider Provider, repo Repository) *Service {
	return &Service{catalog: catalog, provider: provider, repo: repo}
}

// NewServiceFromDB is the convenience constructor used by the controllers.
func NewServiceFromDB(db *gorm.DB, provider Provider) *Service {
	return NewService(DefaultCatalog(), provider, NewRepository(db))
}

// CreateCheckout opens a hosted checkout session for the given catalog
// package. host and proto come from the inbound request so the same
// backend serves every site hostname; any client-supplied amount is
// ignored by construction. The pending ledger row is written before the
// provider call, so a provider timeout can never leave a half-written
// record — the call's result only updates it.
func (s *Service) CreateCheckout(ctx context.Context, packageID, host, proto string, metadata map[string]string) (*CheckoutResult, error) {
	pkg, ok := s.catalog.Get(packageID)
	if !ok {
		return nil, ErrUnknownPackage
	}

	if proto == "" {
		proto = "https"
	}
	originURL := fmt.Sprintf("%s://%s", proto, host)
	successURL := originURL + "/pizza/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := originURL + "/pizza"

	meta := map[string]string{
		"package_id": pkg.ID,
		"pizza_name": pkg.Name,
		"source":     "lucky_pizza_lannilis",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	if pkg.IsTest && pkg.Amount == 0 {
		return s.createTestCheckout(pkg, successURL, meta)
	}

	// Pending row first, keyed by a local reference until the provider
	// assigns the session id.
	localRef := "init_" + uuid.New().String()
	record := &models.PaymentTransaction{
		SessionID:     localRef,
		PackageID:     pkg.ID,
		PizzaName:     pkg.Name,
		Amount:        pkg.Amount,
		Currency:      pkg.Currency,
		Status:        models.TransactionStatusInitiated,
		PaymentStatus: models.PaymentStatusPending,
		MetadataJSON:  marshalMetadata(meta),
	}
	if err := s.repo.CreateTransaction(record); err != nil {
		log.Printf("failed to persist pending transaction for package %s: %v", pkg.ID, err)
		return nil, ErrProviderUnavailable
	}

	sess, err := s.provider.CreateSession(ctx, CreateSessionParams{
		Amount:      pkg.Amount,
		Currency:    pkg.Currency,
		ProductName: pkg.Name,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
		Metadata:    meta,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.AttachProviderSession(localRef, sess.ID); err != nil {
		// The provider session exists; it stays the source of truth and a
		// later status query reconstructs state. Alert for reconciliation.
		log.Printf("RECONCILE: provider session %s created but ledger update failed: %v", sess.ID, err)
	}

	return &CheckoutResult{
		URL:       sess.URL,
		SessionID: sess.ID,
		Amount:    pkg.Amount,
		Currency:  pkg.Currency,
		PizzaName: pkg.Name,
	}, nil
}

// createTestCheckout short-circuits the provider for the free demo pizza:
// the order is confirmed immediately and recorded as a completed test
// transaction.
func (s *Service) createTestCheckout(pkg Package, successURL string, meta map[string]string) (*CheckoutResult, error) {
	sessionID := "cs_test_free_" + uuid.New().String()[:8]
	meta["is_test_free"] = "true"

	record := &models.PaymentTransaction{
		SessionID:     sessionID,
		PackageID:     pkg.ID,
		PizzaName:     pkg.Name,
		Amount:        0,
		Currency:      pkg.Currency,
		Status:        models.TransactionStatusTestSuccess,
		PaymentStatus: models.PaymentStatusCompletedTest,
		MetadataJSON:  marshalMetadata(meta),
		TestMode:      true,
	}
	if err := s.repo.CreateTransaction(record); err != nil {
		log.Printf("failed to persist test transaction: %v", err)
		return nil, ErrProviderUnavailable
	}

	return &CheckoutResult{
		URL:       strings.ReplaceAll(successURL, "{CHECKOUT_SESSION_ID}", sessionID),
		SessionID: sessionID,
		Amount:    0,
		Currency:  pkg.Currency,
		PizzaName: pkg.Name,
		Status:    models.TransactionStatusTestSuccess,
		Message:   "Pizza gratuite - commande confirmée automatiquement!",
		IsTest:    true,
	}, nil
}

// GetStatus returns the current session state. The provider is the source
// of truth for paid sessions; the local ledger is reconciled on the way
// through and answers alone only for test-mode sessions.
func (s *Service) GetStatus(ctx context.Context, sessionID string) (*StatusSnapshot, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	record, recordErr := s.repo.GetTransactionBySessionID(sessionID)
	if recordErr != nil && !errors.Is(recordErr, gorm.ErrRecordNotFound) {
		return nil, recordErr
	}

	if record != nil && record.TestMode {
		return &StatusSnapshot{
			SessionID:     sessionID,
			Status:        record.Status,
			PaymentStatus: record.PaymentStatus,
			AmountTotal:   record.Amount,
			Currency:      record.Currency,
			PizzaName:     record.PizzaName,
			Metadata:      unmarshalMetadata(record.MetadataJSON),
			IsTest:        true,
		}, nil
	}

	status, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if record == nil {
		log.Printf("RECONCILE: no local transaction for provider session %s", sessionID)
	} else {
		s.reconcile(record, status)
	}

	snapshot := &StatusSnapshot{
		SessionID:     sessionID,
		Status:        status.Status,
		PaymentStatus: status.PaymentStatus,
		AmountTotal:   status.AmountTotal,
		Currency:      strings.ToUpper(status.Currency),
		Metadata:      status.Metadata,
	}
	if record != nil {
		snapshot.PizzaName = record.PizzaName
	}
	return snapshot, nil
}

// reconcile folds the provider-reported state into the local ledger row.
// The paid transition goes through the status-guarded update so a webhook
// racing this read cannot double-apply it.
func (s *Service) reconcile(record *models.PaymentTransaction, status SessionStatus) {
	switch {
	case status.PaymentStatus == models.PaymentStatusPaid && !record.IsPaid():
		transitioned, err := s.repo.MarkTransactionPaid(record.SessionID, status.Status, "status_poll", "")
		if err != nil {
			log.Printf("RECONCILE: failed to mark %s paid: %v", record.SessionID, err)
		} else if transitioned {
			log.Printf("transaction %s updated to paid", record.SessionID)
		}
	case (status.Status == models.TransactionStatusExpired || status.Status == "canceled") &&
		record.Status != status.Status:
		if err := s.repo.UpdateTransactionStatus(record.SessionID, status.Status, status.PaymentStatus); err != nil {
			log.Printf("RECONCILE: failed to update %s to %s: %v", record.SessionID, status.Status, err)
		}
	}
}

func marshalMetadata(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(raw)
}

func unmarshalMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil
	}
	return meta
}
