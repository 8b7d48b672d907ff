package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
	"investledger-backend/internal/storage"
	"investledger-backend/internal/utils"
)

// ProofPolicy limits what may be uploaded as deposit proof.
type ProofPolicy struct {
	AllowedTypes []string
	URLExpiry    time.Duration
}

func (p ProofPolicy) allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

type depositService struct {
	tx          repository.Transactor
	catRepo     repository.CategoryRepository
	invRepo     repository.InvestmentRepository
	balanceRepo repository.BalanceRepository
	txRepo      repository.TransactionRepository
	ledger      LedgerService
	investments InvestmentService
	store       storage.Storage
	proofs      ProofPolicy
	bank        domain.BankDetails
	publisher   events.Publisher
	now         func() time.Time
}

func NewDepositService(
	tx repository.Transactor,
	catRepo repository.CategoryRepository,
	invRepo repository.InvestmentRepository,
	balanceRepo repository.BalanceRepository,
	txRepo repository.TransactionRepository,
	ledger LedgerService,
	investments InvestmentService,
	store storage.Storage,
	proofs ProofPolicy,
	bank domain.BankDetails,
	publisher events.Publisher,
) DepositService {
	return &depositService{
		tx:          tx,
		catRepo:     catRepo,
		invRepo:     invRepo,
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		ledger:      ledger,
		investments: investments,
		store:       store,
		proofs:      proofs,
		bank:        bank,
		publisher:   publisher,
		now:         time.Now,
	}
}

// CreateDeposit opens a PENDING_PAYMENT investment, its empty balance and the
// PENDING deposit row. The amount is band-checked before anything is written.
func (s *depositService) CreateDeposit(ctx context.Context, actor domain.Actor, req DepositRequest) (*DepositReceipt, error) {
	logger.EnterMethod("depositService.CreateDeposit", "userID", actor.UserID, "category", req.CategoryCode)

	if actor.UserID == 0 {
		return nil, domain.ErrUnauthorized
	}
	code := strings.ToUpper(strings.TrimSpace(req.CategoryCode))
	if code == "" {
		return nil, domain.NewValidationError("investment_category_code", "is required")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be greater than zero")
	}
	if !req.Amount.Equal(utils.RoundMoney(req.Amount)) {
		return nil, domain.NewValidationError("amount", "must have at most %d decimal places", utils.MoneyScale)
	}

	cat, err := s.catRepo.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewValidationError("investment_category_code", "unknown category %s", code)
	}
	if err != nil {
		return nil, err
	}
	if !cat.IsActive {
		return nil, domain.NewValidationError("investment_category_code", "%s is not accepting deposits", code)
	}
	if err := cat.CheckAmount(req.Amount); err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err)
		return nil, err
	}

	inv := domain.NewInvestment(actor.UserID, cat, req.Amount)
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Deposit into %s", cat.Name)
	}

	var tx *domain.Transaction
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.invRepo.Create(ctx, inv); err != nil {
			return err
		}
		if err := s.balanceRepo.Create(ctx, domain.NewInvestorBalance(inv.ID)); err != nil {
			return err
		}
		tx = &domain.Transaction{
			Reference:    uuid.NewString(),
			UserID:       actor.UserID,
			InvestmentID: &inv.ID,
			Type:         domain.TransactionTypeDeposit,
			Status:       domain.TransactionStatusPending,
			Amount:       req.Amount,
			Description:  description,
		}
		return s.txRepo.Create(ctx, tx)
	})
	if err != nil {
		logger.ExitMethodWithError("depositService.CreateDeposit", err)
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:          events.DepositCreated,
		UserID:        actor.UserID,
		InvestmentID:  inv.ID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
		Metadata:      map[string]string{"category": cat.Code},
	})
	logger.ExitMethod("depositService.CreateDeposit", "reference", tx.Reference, "investmentID", inv.ID)
	return &DepositReceipt{Transaction: tx, Investment: inv, BankDetails: s.bank}, nil
}

// pendingOwnDeposit loads a deposit the actor may attach proof to.
func (s *depositService) pendingOwnDeposit(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if actor.UserID == 0 || tx.UserID != actor.UserID {
		return nil, domain.ErrUnauthorized
	}
	if tx.Type != domain.TransactionTypeDeposit {
		return nil, domain.NewValidationError("transaction_id", "is not a deposit")
	}
	if tx.Status != domain.TransactionStatusPending {
		return nil, fmt.Errorf("%w: deposit %d is %s", domain.ErrInvalidTransition, transactionID, tx.Status)
	}
	return tx, nil
}

func (s *depositService) ProofUploadURL(ctx context.Context, actor domain.Actor, transactionID int64, contentType string) (*ProofUpload, error) {
	tx, err := s.pendingOwnDeposit(ctx, actor, transactionID)
	if err != nil {
		return nil, err
	}
	if !s.proofs.allows(contentType) {
		return nil, domain.NewValidationError("content_type", "must be one of %s", strings.Join(s.proofs.AllowedTypes, ", "))
	}

	key, err := storage.ProofKey(tx.UserID, tx.ID, contentType)
	if err != nil {
		return nil, domain.NewValidationError("content_type", "%v", err)
	}
	url, err := s.store.GeneratePresignedUploadURL(ctx, key, contentType, s.proofs.URLExpiry)
	if err != nil {
		return nil, err
	}
	return &ProofUpload{Key: key, UploadURL: url, ExpiresAt: s.now().Add(s.proofs.URLExpiry).UTC()}, nil
}

func (s *depositService) AttachProof(ctx context.Context, actor domain.Actor, transactionID int64, key string) (*domain.Transaction, error) {
	tx, err := s.pendingOwnDeposit(ctx, actor, transactionID)
	if err != nil {
		return nil, err
	}
	if !storage.OwnsKey(key, tx.UserID, tx.ID) {
		return nil, domain.NewValidationError("key", "does not belong to this deposit")
	}

	exists, size, err := s.store.FileExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists || size == 0 {
		return nil, domain.NewValidationError("key", "has not been uploaded")
	}

	if err := s.txRepo.SetProofURL(ctx, tx.ID, key); err != nil {
		return nil, err
	}
	tx.ProofURL = &key
	logger.Info("Deposit proof attached", "transaction_id", tx.ID, "key", key, "size", size)
	return tx, nil
}

func (s *depositService) ProofDownloadURL(ctx context.Context, actor domain.Actor, transactionID int64) (string, error) {
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return "", err
	}
	if err := requireOwner(actor, tx.UserID); err != nil {
		return "", err
	}
	if tx.ProofURL == nil {
		return "", fmt.Errorf("%w: deposit %d has no proof", domain.ErrNotFound, transactionID)
	}
	return s.store.GeneratePresignedDownloadURL(ctx, *tx.ProofURL, s.proofs.URLExpiry)
}

// ApproveDeposit confirms the funds arrived: the deposit becomes APPROVED,
// the principal is locked and the investment is activated, all in one
// transaction. An investment that is no longer PENDING_PAYMENT is refused.
func (s *depositService) ApproveDeposit(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var tx *domain.Transaction
	var inv *domain.Investment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.txRepo.GetByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Type != domain.TransactionTypeDeposit {
			return domain.NewValidationError("transaction_id", "is not a deposit")
		}
		if !domain.CanTransitionTransaction(tx.Status, domain.TransactionStatusApproved) {
			return fmt.Errorf("%w: deposit %d is %s", domain.ErrInvalidTransition, transactionID, tx.Status)
		}
		if tx.InvestmentID == nil {
			return fmt.Errorf("%w: deposit %d has no investment", domain.ErrIntegrity, transactionID)
		}

		inv, err = s.invRepo.GetByIDForUpdate(ctx, *tx.InvestmentID)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvestmentStatusPendingPayment {
			return fmt.Errorf("%w: investment %d is already %s", domain.ErrInvalidTransition, inv.ID, inv.Status)
		}

		if err := s.txRepo.UpdateStatus(ctx, tx.ID, domain.TransactionStatusPending, domain.TransactionStatusApproved, processedBy(actor), now); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyDeposit(ctx, inv.ID, tx.Amount); err != nil {
			return err
		}
		inv, err = s.investments.Activate(ctx, inv.ID, now)
		if err != nil {
			return err
		}

		tx.Status = domain.TransactionStatusApproved
		tx.ProcessedBy = processedBy(actor)
		tx.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deposit approved", "transaction_id", tx.ID, "investment_id", inv.ID, "admin_id", actor.UserID)
	events.Emit(ctx, s.publisher, events.Event{
		Type:          events.DepositApproved,
		UserID:        tx.UserID,
		InvestmentID:  inv.ID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
	})
	return tx, nil
}

// RejectDeposit refuses a pending deposit and rejects the unfunded
// investment behind it.
func (s *depositService) RejectDeposit(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var tx *domain.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = s.txRepo.GetByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if tx.Type != domain.TransactionTypeDeposit {
			return domain.NewValidationError("transaction_id", "is not a deposit")
		}
		if !domain.CanTransitionTransaction(tx.Status, domain.TransactionStatusRejected) {
			return fmt.Errorf("%w: deposit %d is %s", domain.ErrInvalidTransition, transactionID, tx.Status)
		}
		if err := s.txRepo.UpdateStatus(ctx, tx.ID, domain.TransactionStatusPending, domain.TransactionStatusRejected, processedBy(actor), now); err != nil {
			return err
		}
		if tx.InvestmentID != nil {
			inv, err := s.invRepo.GetByIDForUpdate(ctx, *tx.InvestmentID)
			if err != nil {
				return err
			}
			if inv.Status == domain.InvestmentStatusPendingPayment {
				if err := s.invRepo.UpdateStatus(ctx, inv.ID, inv.Status, domain.InvestmentStatusRejected); err != nil {
					return err
				}
			}
		}
		tx.Status = domain.TransactionStatusRejected
		tx.ProcessedBy = processedBy(actor)
		tx.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:          events.DepositRejected,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
	})
	return tx, nil
}
