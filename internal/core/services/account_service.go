package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
)

var ErrAirdropDisabled = errors.New("airdrop disabled")

type AccountConfig struct {
	AirdropEnabled bool
	AirdropMax     uint64
}

// AccountService exposes the base-tier settlement balances. Airdrop is a
// development faucet and is off unless configured.
type AccountService struct {
	cfg    AccountConfig
	ledger ports.AccountLedger
	logger *slog.Logger
}

func NewAccountService(cfg AccountConfig, ledger ports.AccountLedger, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{cfg: cfg, ledger: ledger, logger: logger}
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

func (s *AccountService) Airdrop(ctx context.Context, account uuid.UUID, amount uint64) (*BalanceResponse, error) {
	if !s.cfg.AirdropEnabled {
		return nil, ErrAirdropDisabled
	}
	if account == uuid.Nil || amount == 0 {
		return nil, fmt.Errorf("%w: account and a positive amount are required", domain.ErrInvalidInput)
	}
	if s.cfg.AirdropMax > 0 && amount > s.cfg.AirdropMax {
		return nil, fmt.Errorf("%w: airdrop capped at %d", domain.ErrInvalidInput, s.cfg.AirdropMax)
	}

	if err := s.ledger.Credit(ctx, account, amount); err != nil {
		return nil, err
	}
	s.logger.Info("airdrop credited", "account", account.String(), "amount", amount)
	return s.Balance(ctx, account)
}

func (s *AccountService) Balance(ctx context.Context, account uuid.UUID) (*BalanceResponse, error) {
	balance, err := s.ledger.Balance(ctx, account)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{Account: account.String(), Balance: balance}, nil
}
