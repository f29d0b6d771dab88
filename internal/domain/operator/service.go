package operator

import (
	"context"
	"errors"
)

// Service resolves a user identity to its operator feature record. Lookups
// are fail-fast: any miss returns a typed error immediately, no retries.
type Service struct {
	users   UserDirectory
	records Repository
}

func NewService(users UserDirectory, records Repository) *Service {
	return &Service{users: users, records: records}
}

// ResolveFeatures maps userID -> phone -> normalized phone -> feature record.
func (s *Service) ResolveFeatures(ctx context.Context, userID string) (*Record, error) {
	phone, err := s.users.PhoneNumberByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if phone == "" {
		return nil, ErrMissingPhone
	}

	normalized := NormalizePhone(phone)
	record, err := s.records.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, &RecordNotFoundError{Number: normalized}
		}
		return nil, err
	}
	return record, nil
}

// CheckNumber reports whether a phone number exists in the operator dataset.
// Used as the registration gate and by the signup form's live check.
func (s *Service) CheckNumber(ctx context.Context, phoneNumber string) (*Record, bool, error) {
	normalized := NormalizePhone(phoneNumber)
	if normalized == "" {
		return nil, false, ErrMissingPhone
	}
	record, err := s.records.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record, true, nil
}
