package service

import (
	"context"
	"errors"
	"fmt"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/repository"
)

type transactionService struct {
	txRepo      repository.TransactionRepository
	deposits    DepositService
	withdrawals WithdrawalService
}

func NewTransactionService(txRepo repository.TransactionRepository, deposits DepositService, withdrawals WithdrawalService) TransactionService {
	return &transactionService{txRepo: txRepo, deposits: deposits, withdrawals: withdrawals}
}

func (s *transactionService) typeOf(ctx context.Context, actor domain.Actor, id int64) (domain.TransactionType, error) {
	if err := requireAdmin(actor); err != nil {
		return "", err
	}
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return tx.Type, nil
}

func (s *transactionService) Approve(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error) {
	typ, err := s.typeOf(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch typ {
	case domain.TransactionTypeDeposit:
		return s.deposits.ApproveDeposit(ctx, actor, id)
	case domain.TransactionTypeWithdrawal:
		return s.withdrawals.ApproveWithdrawal(ctx, actor, id)
	}
	return nil, fmt.Errorf("%w: %s transactions are not reviewed", domain.ErrInvalidTransition, typ)
}

func (s *transactionService) Reject(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error) {
	typ, err := s.typeOf(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	switch typ {
	case domain.TransactionTypeDeposit:
		return s.deposits.RejectDeposit(ctx, actor, id)
	case domain.TransactionTypeWithdrawal:
		return s.withdrawals.RejectWithdrawal(ctx, actor, id)
	}
	return nil, fmt.Errorf("%w: %s transactions are not reviewed", domain.ErrInvalidTransition, typ)
}

func (s *transactionService) MarkPaid(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error) {
	typ, err := s.typeOf(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if typ != domain.TransactionTypeWithdrawal {
		return nil, fmt.Errorf("%w: only withdrawals are paid out", domain.ErrInvalidTransition)
	}
	return s.withdrawals.MarkWithdrawalPaid(ctx, actor, id)
}

func (s *transactionService) GetTransaction(ctx context.Context, actor domain.Actor, id int64) (*TransactionView, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, tx.UserID); err != nil {
		return nil, err
	}

	view := &TransactionView{Transaction: tx}
	if tx.Type != domain.TransactionTypeWithdrawal {
		return view, nil
	}
	if view.Detail, err = s.txRepo.GetWithdrawalDetail(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if view.Penalty, err = s.txRepo.GetPenalty(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return view, nil
}

// ListTransactions scopes investors to their own rows. Admins may filter by
// any user or none.
func (s *transactionService) ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	if !actor.IsAdmin() {
		if actor.UserID == 0 {
			return nil, 0, domain.ErrUnauthorized
		}
		filter.UserID = actor.UserID
	}
	filter.Normalize()
	return s.txRepo.List(ctx, filter)
}
