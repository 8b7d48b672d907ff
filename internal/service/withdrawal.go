package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
	"investledger-backend/internal/utils"
)

type withdrawalService struct {
	tx          repository.Transactor
	catRepo     repository.CategoryRepository
	invRepo     repository.InvestmentRepository
	balanceRepo repository.BalanceRepository
	txRepo      repository.TransactionRepository
	ledger      LedgerService
	penalties   *PenaltyCalculator
	publisher   events.Publisher
	now         func() time.Time
}

func NewWithdrawalService(
	tx repository.Transactor,
	catRepo repository.CategoryRepository,
	invRepo repository.InvestmentRepository,
	balanceRepo repository.BalanceRepository,
	txRepo repository.TransactionRepository,
	ledger LedgerService,
	penalties *PenaltyCalculator,
	publisher events.Publisher,
) WithdrawalService {
	return &withdrawalService{
		tx:          tx,
		catRepo:     catRepo,
		invRepo:     invRepo,
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		ledger:      ledger,
		penalties:   penalties,
		publisher:   publisher,
		now:         time.Now,
	}
}

func validateWithdrawalAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "must be greater than zero")
	}
	if !amount.Equal(utils.RoundMoney(amount)) {
		return domain.NewValidationError("amount", "must have at most %d decimal places", utils.MoneyScale)
	}
	return nil
}

// withdrawable loads an investment the actor owns together with its category.
// Investments never funded have nothing to withdraw.
func (s *withdrawalService) withdrawable(ctx context.Context, actor domain.Actor, investmentID int64) (*domain.Investment, *domain.InvestmentCategory, error) {
	inv, err := s.invRepo.GetByID(ctx, investmentID)
	if err != nil {
		return nil, nil, err
	}
	if actor.UserID == 0 || inv.UserID != actor.UserID {
		return nil, nil, domain.ErrUnauthorized
	}
	if inv.StartDate == nil {
		return nil, nil, domain.NewValidationError("investment_id", "investment has not been funded")
	}
	cat, err := s.catRepo.GetByID(ctx, inv.CategoryID)
	if err != nil {
		return nil, nil, err
	}
	return inv, cat, nil
}

func (s *withdrawalService) QuoteWithdrawal(ctx context.Context, actor domain.Actor, investmentID int64, amount decimal.Decimal, early bool) (*WithdrawalQuote, error) {
	if err := validateWithdrawalAmount(amount); err != nil {
		return nil, err
	}
	_, cat, err := s.withdrawable(ctx, actor, investmentID)
	if err != nil {
		return nil, err
	}
	bal, err := s.balanceRepo.GetByInvestmentID(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	return s.penalties.Quote(amount, early, bal, cat)
}

// RequestWithdrawal records a PENDING withdrawal with its destination and,
// for early withdrawals touching principal, the penalty. Funds leave the
// ledger only on approval, which checks the ceiling again.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, actor domain.Actor, req WithdrawalRequest) (*WithdrawalReceipt, error) {
	logger.EnterMethod("withdrawalService.RequestWithdrawal", "userID", actor.UserID, "investmentID", req.InvestmentID)

	detail := &domain.WithdrawalDetail{
		BankName:          strings.TrimSpace(req.BankName),
		AccountHolderName: strings.TrimSpace(req.AccountHolderName),
		AccountNumber:     strings.TrimSpace(req.AccountNumber),
	}
	if err := detail.Validate(); err != nil {
		return nil, err
	}
	if err := validateWithdrawalAmount(req.Amount); err != nil {
		return nil, err
	}

	inv, cat, err := s.withdrawable(ctx, actor, req.InvestmentID)
	if err != nil {
		return nil, err
	}

	var (
		tx      *domain.Transaction
		penalty *domain.WithdrawalPenalty
		quote   *WithdrawalQuote
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		bal, err := s.balanceRepo.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		quote, err = s.penalties.Quote(req.Amount, req.EarlyWithdrawal, bal, cat)
		if err != nil {
			return err
		}

		kind := "Withdrawal"
		if req.EarlyWithdrawal {
			kind = "Early withdrawal"
		}
		description := fmt.Sprintf("%s to %s %s", kind, detail.BankName, maskAccount(detail.AccountNumber))
		tx = &domain.Transaction{
			Reference:       uuid.NewString(),
			UserID:          actor.UserID,
			InvestmentID:    &inv.ID,
			Type:            domain.TransactionTypeWithdrawal,
			Status:          domain.TransactionStatusPending,
			Amount:          req.Amount,
			Description:     description,
			EarlyWithdrawal: req.EarlyWithdrawal,
		}
		if err := s.txRepo.Create(ctx, tx); err != nil {
			return err
		}

		detail.TransactionID = tx.ID
		if err := s.txRepo.CreateWithdrawalDetail(ctx, detail); err != nil {
			return err
		}

		if quote.Penalty.IsPositive() {
			penalty = &domain.WithdrawalPenalty{
				TransactionID: tx.ID,
				Percentage:    quote.PenaltyPercent(),
				Amount:        quote.Penalty,
			}
			if err := s.txRepo.CreatePenalty(ctx, penalty); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("withdrawalService.RequestWithdrawal", err)
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:          events.WithdrawalRequested,
		UserID:        actor.UserID,
		InvestmentID:  inv.ID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
		Metadata: map[string]string{
			"penalty": quote.Penalty.StringFixed(2),
			"net":     quote.Net.StringFixed(2),
		},
	})
	logger.ExitMethod("withdrawalService.RequestWithdrawal", "reference", tx.Reference, "net", quote.Net.StringFixed(2))
	return &WithdrawalReceipt{Transaction: tx, Detail: detail, Penalty: penalty, Quote: quote}, nil
}

// ApproveWithdrawal debits the gross amount from the ledger. The ceiling and
// the quoted penalty are re-checked against the balance at approval time.
func (s *withdrawalService) ApproveWithdrawal(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	tx, err := s.review(ctx, actor, transactionID, domain.TransactionStatusPending, domain.TransactionStatusApproved,
		func(ctx context.Context, tx *domain.Transaction) error {
			if tx.InvestmentID == nil {
				return fmt.Errorf("%w: withdrawal %d has no investment", domain.ErrIntegrity, tx.ID)
			}
			inv, err := s.invRepo.GetByIDForUpdate(ctx, *tx.InvestmentID)
			if err != nil {
				return err
			}
			if err := s.checkPenalty(ctx, tx, inv); err != nil {
				return err
			}
			split, err := s.ledger.ApplyWithdrawal(ctx, *tx.InvestmentID, tx.Amount, tx.EarlyWithdrawal)
			if err != nil {
				return err
			}
			logger.Info("Withdrawal debited", "transaction_id", tx.ID,
				"from_principal", split.FromPrincipal.StringFixed(2), "from_available", split.FromAvailable.StringFixed(2))
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.WithdrawalApproved, tx)
	return tx, nil
}

// checkPenalty re-prices tx against the balance it is about to debit, at the
// rate recorded on request. Approval is refused when the penalty no longer
// matches the one quoted to the investor, which happens when principal was
// released or other withdrawals were approved in between.
func (s *withdrawalService) checkPenalty(ctx context.Context, tx *domain.Transaction, inv *domain.Investment) error {
	bal, err := s.balanceRepo.GetForUpdate(ctx, inv.ID)
	if err != nil {
		return err
	}
	split, err := bal.SplitWithdrawal(tx.Amount, tx.EarlyWithdrawal)
	if err != nil {
		return err
	}

	quoted := decimal.Zero
	current := decimal.Zero
	recorded, err := s.txRepo.GetPenalty(ctx, tx.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if split.FromPrincipal.IsPositive() {
			cat, err := s.catRepo.GetByID(ctx, inv.CategoryID)
			if err != nil {
				return err
			}
			current = utils.FractionOf(split.FromPrincipal, s.penalties.RateFor(cat))
		}
	case err != nil:
		return err
	default:
		quoted = recorded.Amount
		current = utils.FractionOf(split.FromPrincipal, recorded.Percentage.Div(decimal.NewFromInt(100)))
	}

	if !current.Equal(quoted) {
		logger.Warn("Withdrawal penalty drifted since request", "transaction_id", tx.ID,
			"quoted", quoted.StringFixed(2), "current", current.StringFixed(2))
		return fmt.Errorf("%w: withdrawal %d was quoted a penalty of %s but would now incur %s; reject and resubmit",
			domain.ErrInvalidTransition, tx.ID, quoted.StringFixed(2), current.StringFixed(2))
	}
	return nil
}

func (s *withdrawalService) RejectWithdrawal(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	tx, err := s.review(ctx, actor, transactionID, domain.TransactionStatusPending, domain.TransactionStatusRejected, nil)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.WithdrawalRejected, tx)
	return tx, nil
}

// MarkWithdrawalPaid records that the bank transfer went out.
func (s *withdrawalService) MarkWithdrawalPaid(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error) {
	tx, err := s.review(ctx, actor, transactionID, domain.TransactionStatusApproved, domain.TransactionStatusPaid, nil)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.WithdrawalPaid, tx)
	return tx, nil
}

// review moves a withdrawal from -> to under a row lock and runs apply in the
// same transaction.
func (s *withdrawalService) review(
	ctx context.Context,
	actor domain.Actor,
	transactionID int64,
	from, to domain.TransactionStatus,
	apply func(ctx context.Context, tx *domain.Transaction) error,
) (*domain.Transaction, error) {
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
		if tx.Type != domain.TransactionTypeWithdrawal {
			return domain.NewValidationError("transaction_id", "is not a withdrawal")
		}
		if tx.Status != from || !domain.CanTransitionTransaction(from, to) {
			return fmt.Errorf("%w: withdrawal %d is %s", domain.ErrInvalidTransition, transactionID, tx.Status)
		}
		if err := s.txRepo.UpdateStatus(ctx, tx.ID, from, to, processedBy(actor), now); err != nil {
			return err
		}
		if apply != nil {
			if err := apply(ctx, tx); err != nil {
				return err
			}
		}
		tx.Status = to
		tx.ProcessedBy = processedBy(actor)
		tx.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Withdrawal reviewed", "transaction_id", tx.ID, "status", to, "admin_id", actor.UserID)
	return tx, nil
}

func (s *withdrawalService) emit(ctx context.Context, typ events.Type, tx *domain.Transaction) {
	ev := events.Event{
		Type:          typ,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Status:        string(tx.Status),
	}
	if tx.InvestmentID != nil {
		ev.InvestmentID = *tx.InvestmentID
	}
	events.Emit(ctx, s.publisher, ev)
}

func maskAccount(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}
