package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
	"investledger-backend/internal/utils"
)

type payoutService struct {
	tx          repository.Transactor
	invRepo     repository.InvestmentRepository
	balanceRepo repository.BalanceRepository
	txRepo      repository.TransactionRepository
	ledger      LedgerService
	publisher   events.Publisher
}

func NewPayoutService(
	tx repository.Transactor,
	invRepo repository.InvestmentRepository,
	balanceRepo repository.BalanceRepository,
	txRepo repository.TransactionRepository,
	ledger LedgerService,
	publisher events.Publisher,
) PayoutService {
	return &payoutService{
		tx:          tx,
		invRepo:     invRepo,
		balanceRepo: balanceRepo,
		txRepo:      txRepo,
		ledger:      ledger,
		publisher:   publisher,
	}
}

// PayPeriod pays one ROI period in its own store transaction. The investment
// row is re-read under lock so a concurrent or repeated run sees the advanced
// counter and does nothing.
func (s *payoutService) PayPeriod(ctx context.Context, investmentID int64, period int, now time.Time) (*PeriodPayout, error) {
	out := &PeriodPayout{InvestmentID: investmentID, Period: period, Amount: decimal.Zero}
	var userID int64

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invRepo.GetByIDForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		userID = inv.UserID
		if inv.Status != domain.InvestmentStatusActive {
			return nil
		}
		if inv.LastROIPeriodPaid >= period {
			return nil
		}
		if period != inv.LastROIPeriodPaid+1 {
			return fmt.Errorf("%w: investment %d would skip from period %d to %d",
				domain.ErrIntegrity, investmentID, inv.LastROIPeriodPaid, period)
		}
		if period > inv.DuePeriod(now) {
			return fmt.Errorf("%w: investment %d period %d has not elapsed", domain.ErrIntegrity, investmentID, period)
		}

		bal, err := s.balanceRepo.GetForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}

		roi := utils.MonthlyROI(bal.PrincipalLocked, inv.ROIRateSnapshot)
		if roi.IsPositive() {
			paidAt := now.UTC()
			p := period
			tx := &domain.Transaction{
				Reference:    uuid.NewString(),
				UserID:       inv.UserID,
				InvestmentID: &inv.ID,
				Type:         domain.TransactionTypeInterest,
				Status:       domain.TransactionStatusPaid,
				Amount:       roi,
				Description:  fmt.Sprintf("ROI payout for period %d of %d", period, inv.DurationMonths),
				ROIPeriod:    &p,
				ProcessedAt:  &paidAt,
			}
			if err := s.txRepo.Create(ctx, tx); err != nil {
				return err
			}
			if _, err := s.ledger.ApplyROIPayout(ctx, investmentID, roi); err != nil {
				return err
			}
			out.Transaction = tx
			out.Amount = roi
		}

		if err := s.invRepo.AdvanceROIPeriod(ctx, investmentID, period); err != nil {
			return err
		}
		out.Advanced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Transaction != nil {
		events.Emit(ctx, s.publisher, events.Event{
			Type:          events.ROIPaid,
			UserID:        userID,
			InvestmentID:  investmentID,
			TransactionID: out.Transaction.ID,
			Reference:     out.Transaction.Reference,
			Amount:        out.Amount,
			Status:        string(domain.TransactionStatusPaid),
			Metadata:      map[string]string{"period": strconv.Itoa(period)},
		})
	}
	return out, nil
}

// ProcessInvestment pays every elapsed, unpaid period of inv in increasing
// order and returns how many it advanced. Periods another run already paid
// are skipped. It stops at the first error.
func (s *payoutService) ProcessInvestment(ctx context.Context, inv *domain.Investment, now time.Time) (int, error) {
	due := inv.DuePeriod(now)
	if due <= inv.LastROIPeriodPaid {
		return 0, nil
	}

	paid := 0
	for period := inv.LastROIPeriodPaid + 1; period <= due; period++ {
		res, err := s.PayPeriod(ctx, inv.ID, period, now)
		if err != nil {
			return paid, fmt.Errorf("period %d: %w", period, err)
		}
		if !res.Advanced {
			continue
		}
		paid++
		if res.Amount.IsZero() {
			logger.Warn("Zero ROI period advanced", "investment_id", inv.ID, "period", period)
		}
	}
	return paid, nil
}
