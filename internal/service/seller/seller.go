package seller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
)

const maxNameLength = 100

type SellerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *SellerService {
	return &SellerService{
		storage: storage,
	}
}

// Create registers seller with zero balance.
// Balance grows through approved credit requests only
func (s *SellerService) Create(ctx context.Context, name string) (models.Seller, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return models.Seller{}, fmt.Errorf("seller name should be 1..%d characters: %w", maxNameLength, apperrors.ErrSellerNameInvalid)
	}

	seller, err := s.storage.Seller().CreateSeller(ctx, name)
	if err != nil {
		return seller, apperrors.NewOperationError("create seller", nil, err)
	}

	return seller, nil
}

func (s *SellerService) Get(ctx context.Context, sellerID uuid.UUID) (models.Seller, error) {
	seller, err := s.storage.Seller().GetSeller(ctx, sellerID, false)
	if err != nil {
		return seller, passOrFail("get seller", err)
	}

	return seller, nil
}

func (s *SellerService) List(ctx context.Context) ([]models.Seller, error) {
	sellers, err := s.storage.Seller().ListSellers(ctx)
	if err != nil {
		return nil, apperrors.NewOperationError("list sellers", nil, err)
	}

	return sellers, nil
}

// Transactions returns seller and its ledger oldest first
func (s *SellerService) Transactions(ctx context.Context, sellerID uuid.UUID) (models.Seller, []models.CreditTransaction, error) {
	seller, err := s.Get(ctx, sellerID)
	if err != nil {
		return seller, nil, err
	}

	transactions, err := s.storage.Ledger().ListTransactions(ctx, sellerID)
	if err != nil {
		return seller, nil, apperrors.NewOperationError("list seller transactions", nil, err)
	}

	return seller, transactions, nil
}

func passOrFail(op string, err error) error {
	if errors.Is(err, apperrors.ErrSellerNotFound) {
		return err
	}
	return apperrors.NewOperationError(op, nil, err)
}
