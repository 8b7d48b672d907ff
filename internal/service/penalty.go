package service

import (
	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/utils"
)

// WithdrawalQuote is the gross/penalty/net breakdown of a withdrawal.
// PenaltyRate is a fraction; the stored WithdrawalPenalty uses percent.
type WithdrawalQuote struct {
	Amount           decimal.Decimal `json:"amount"`
	Early            bool            `json:"early_withdrawal"`
	Ceiling          decimal.Decimal `json:"ceiling"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	PenaltyRate      decimal.Decimal `json:"penalty_rate"`
	Penalty          decimal.Decimal `json:"penalty"`
	Net              decimal.Decimal `json:"net"`
}

// PenaltyPercent is the rate as stored on the penalty row.
func (q *WithdrawalQuote) PenaltyPercent() decimal.Decimal {
	return q.PenaltyRate.Mul(decimal.NewFromInt(100))
}

// PenaltyCalculator prices early withdrawals. The category override wins
// over the platform default.
type PenaltyCalculator struct {
	defaultRate decimal.Decimal
}

func NewPenaltyCalculator(defaultRate decimal.Decimal) *PenaltyCalculator {
	return &PenaltyCalculator{defaultRate: defaultRate}
}

// RateFor returns the penalty fraction that applies to cat.
func (c *PenaltyCalculator) RateFor(cat *domain.InvestmentCategory) decimal.Decimal {
	if cat != nil && cat.EarlyWithdrawalPenaltyRate.Valid {
		return cat.EarlyWithdrawalPenaltyRate.Decimal
	}
	return c.defaultRate
}

// Quote prices amount against bal. Only the part drawn from locked principal
// is penalised; interest is never charged.
func (c *PenaltyCalculator) Quote(amount decimal.Decimal, early bool, bal *domain.InvestorBalance, cat *domain.InvestmentCategory) (*WithdrawalQuote, error) {
	split, err := bal.SplitWithdrawal(amount, early)
	if err != nil {
		return nil, err
	}

	q := &WithdrawalQuote{
		Amount:           amount,
		Early:            early,
		Ceiling:          bal.WithdrawalCeiling(early),
		PrincipalPortion: split.FromPrincipal,
		PenaltyRate:      decimal.Zero,
		Penalty:          decimal.Zero,
	}
	if early && split.FromPrincipal.IsPositive() {
		q.PenaltyRate = c.RateFor(cat)
		q.Penalty = utils.FractionOf(split.FromPrincipal, q.PenaltyRate)
	}
	q.Net = amount.Sub(q.Penalty)
	return q, nil
}
