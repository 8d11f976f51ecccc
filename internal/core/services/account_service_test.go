package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/memory"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

func TestAccountService_Airdrop(t *testing.T) {
	store := memory.NewStore()
	svc := services.NewAccountService(services.AccountConfig{AirdropEnabled: true, AirdropMax: 500}, store, nil)
	account := uuid.New()

	resp, err := svc.Airdrop(context.Background(), account, 200)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), resp.Balance)

	resp, err = svc.Airdrop(context.Background(), account, 300)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), resp.Balance)

	_, err = svc.Airdrop(context.Background(), account, 501)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Airdrop(context.Background(), account, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Airdrop(context.Background(), uuid.Nil, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAccountService_AirdropDisabled(t *testing.T) {
	svc := services.NewAccountService(services.AccountConfig{}, memory.NewStore(), nil)

	_, err := svc.Airdrop(context.Background(), uuid.New(), 1)

	assert.ErrorIs(t, err, services.ErrAirdropDisabled)
}

func TestAccountService_BalanceOfUnknownAccount(t *testing.T) {
	svc := services.NewAccountService(services.AccountConfig{}, memory.NewStore(), nil)
	account := uuid.New()

	resp, err := svc.Balance(context.Background(), account)

	require.NoError(t, err)
	assert.Equal(t, account.String(), resp.Account)
	assert.Zero(t, resp.Balance)
}
