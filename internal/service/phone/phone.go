package phone

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/recharge/internal/apperrors"
	"github.com/nkiryanov/recharge/internal/models"
	"github.com/nkiryanov/recharge/internal/repository"
	"github.com/nkiryanov/recharge/internal/service/validate"
)

type PhoneService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *PhoneService {
	return &PhoneService{
		storage: storage,
	}
}

// Create registers active phone number
func (s *PhoneService) Create(ctx context.Context, number string) (models.PhoneNumber, error) {
	number = strings.TrimSpace(number)
	if err := validate.PhoneNumber(number); err != nil {
		return models.PhoneNumber{}, err
	}

	phone, err := s.storage.PhoneNumber().CreatePhoneNumber(ctx, number, true)
	if err != nil {
		return phone, passOrFail("create phone number", err)
	}

	return phone, nil
}

func (s *PhoneService) Get(ctx context.Context, phoneID uuid.UUID) (models.PhoneNumber, error) {
	phone, err := s.storage.PhoneNumber().GetPhoneNumber(ctx, phoneID)
	if err != nil {
		return phone, passOrFail("get phone number", err)
	}

	return phone, nil
}

// SetActive switches number on or off. Charges to inactive number are refused
func (s *PhoneService) SetActive(ctx context.Context, phoneID uuid.UUID, active bool) (models.PhoneNumber, error) {
	phone, err := s.storage.PhoneNumber().SetActive(ctx, phoneID, active)
	if err != nil {
		return phone, passOrFail("update phone number", err)
	}

	return phone, nil
}

func passOrFail(op string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrPhoneNumberNotFound),
		errors.Is(err, apperrors.ErrPhoneNumberTaken):
		return err
	default:
		return apperrors.NewOperationError(op, nil, err)
	}
}
