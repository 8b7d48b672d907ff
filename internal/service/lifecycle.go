package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
)

type investmentService struct {
	tx          repository.Transactor
	invRepo     repository.InvestmentRepository
	balanceRepo repository.BalanceRepository
	ledger      LedgerService
	publisher   events.Publisher
	now         func() time.Time
}

func NewInvestmentService(
	tx repository.Transactor,
	invRepo repository.InvestmentRepository,
	balanceRepo repository.BalanceRepository,
	ledger LedgerService,
	publisher events.Publisher,
) InvestmentService {
	return &investmentService{
		tx:          tx,
		invRepo:     invRepo,
		balanceRepo: balanceRepo,
		ledger:      ledger,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (s *investmentService) GetInvestment(ctx context.Context, actor domain.Actor, id int64) (*InvestmentView, error) {
	inv, err := s.invRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, inv.UserID); err != nil {
		return nil, err
	}
	bal, err := s.balanceRepo.GetByInvestmentID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &InvestmentView{Investment: inv, Balance: bal}, nil
}

func (s *investmentService) ListMyInvestments(ctx context.Context, actor domain.Actor) ([]domain.Investment, error) {
	if actor.UserID == 0 {
		return nil, domain.ErrUnauthorized
	}
	return s.invRepo.ListByUser(ctx, actor.UserID)
}

func (s *investmentService) Activate(ctx context.Context, id int64, now time.Time) (*domain.Investment, error) {
	var inv *domain.Investment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvestmentStatusPendingPayment {
			return fmt.Errorf("%w: investment %d is %s, not awaiting payment", domain.ErrInvalidTransition, id, inv.Status)
		}
		start, end := inv.ActivationWindow(now)
		if err := s.invRepo.Activate(ctx, id, start, end); err != nil {
			return err
		}
		inv.Status = domain.InvestmentStatusActive
		inv.StartDate = &start
		inv.EndDate = &end
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Investment activated", "investment_id", id, "start", inv.StartDate, "end", inv.EndDate)
	return inv, nil
}

func (s *investmentService) Pause(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	return s.transition(ctx, actor, id, []domain.InvestmentStatus{domain.InvestmentStatusActive}, domain.InvestmentStatusPaused)
}

// Resume only leaves PAUSED. PENDING_PAYMENT -> ACTIVE goes through deposit
// approval.
func (s *investmentService) Resume(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	return s.transition(ctx, actor, id, []domain.InvestmentStatus{domain.InvestmentStatusPaused}, domain.InvestmentStatusActive)
}

func (s *investmentService) Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	return s.transition(ctx, actor, id, nil, domain.InvestmentStatusCompleted)
}

func (s *investmentService) Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	return s.transition(ctx, actor, id, nil, domain.InvestmentStatusCancelled)
}

func (s *investmentService) Reject(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	return s.transition(ctx, actor, id, nil, domain.InvestmentStatusRejected)
}

// transition moves id to `to` under a row lock. When from is non-empty the
// current status must be one of it as well as allowed by the table. Leaving a
// funded status for a terminal one releases the locked principal.
func (s *investmentService) transition(ctx context.Context, actor domain.Actor, id int64, from []domain.InvestmentStatus, to domain.InvestmentStatus) (*domain.Investment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var inv *domain.Investment
	var prev domain.InvestmentStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		prev = inv.Status
		if !allowedFrom(prev, from) || !domain.CanTransition(prev, to) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, to)
		}
		if err := s.invRepo.UpdateStatus(ctx, id, prev, to); err != nil {
			return err
		}
		if prev.IsFunded() && to.IsTerminal() {
			released, err := s.ledger.ReleasePrincipal(ctx, id)
			if err != nil {
				return err
			}
			logger.Info("Principal released", "investment_id", id, "amount", released.StringFixed(2), "status", to)
		}
		inv.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitStatus(ctx, inv, prev)
	return inv, nil
}

func allowedFrom(status domain.InvestmentStatus, from []domain.InvestmentStatus) bool {
	if len(from) == 0 {
		return true
	}
	for _, f := range from {
		if f == status {
			return true
		}
	}
	return false
}

func (s *investmentService) Mature(ctx context.Context, id int64, now time.Time) (bool, error) {
	var inv *domain.Investment
	var prev domain.InvestmentStatus
	matured := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.invRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		prev = inv.Status
		if prev != domain.InvestmentStatusActive || !inv.IsMatured(now) {
			return nil
		}
		if err := s.invRepo.UpdateStatus(ctx, id, prev, domain.InvestmentStatusCompleted); err != nil {
			return err
		}
		if _, err := s.ledger.ReleasePrincipal(ctx, id); err != nil {
			return err
		}
		inv.Status = domain.InvestmentStatusCompleted
		matured = true
		return nil
	})
	if err != nil || !matured {
		return false, err
	}

	logger.Info("Investment matured", "investment_id", id, "end", inv.EndDate)
	s.emitStatus(ctx, inv, prev)
	return true, nil
}

func (s *investmentService) emitStatus(ctx context.Context, inv *domain.Investment, prev domain.InvestmentStatus) {
	events.Emit(ctx, s.publisher, events.Event{
		Type:         events.InvestmentStatusChanged,
		UserID:       inv.UserID,
		InvestmentID: inv.ID,
		Amount:       inv.PrincipalAmount,
		Status:       string(inv.Status),
		Metadata: map[string]string{
			"previous_status":      string(prev),
			"last_roi_period_paid": strconv.Itoa(inv.LastROIPeriodPaid),
		},
	})
}
