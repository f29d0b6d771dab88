package operator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type userDirectoryMock struct {
	phones map[string]string
}

func (m *userDirectoryMock) PhoneNumberByUserID(_ context.Context, userID string) (string, error) {
	phone, ok := m.phones[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return phone, nil
}

type recordRepoMock struct {
	records map[string]*Record
}

func (m *recordRepoMock) GetByPhone(_ context.Context, phoneNumber string) (*Record, error) {
	if r, ok := m.records[phoneNumber]; ok {
		return r, nil
	}
	return nil, ErrRecordNotFound
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: " +243 812 345 678 ", want: "243812345678"},
		{in: "+243812345678", want: "243812345678"},
		{in: "243812345678", want: "243812345678"},
		{in: "243\t812\n345678", want: "243812345678"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveFeatures(t *testing.T) {
	record := &Record{PhoneNumber: "243812345678", Features: FeatureVector{AvgBalance: 12000}}
	svc := NewService(
		&userDirectoryMock{phones: map[string]string{"u1": " +243 812 345 678 "}},
		&recordRepoMock{records: map[string]*Record{"243812345678": record}},
	)

	got, err := svc.ResolveFeatures(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PhoneNumber != "243812345678" || got.Features.AvgBalance != 12000 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestResolveFeaturesUserNotFound(t *testing.T) {
	svc := NewService(&userDirectoryMock{phones: map[string]string{}}, &recordRepoMock{})

	_, err := svc.ResolveFeatures(context.Background(), "ghost")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveFeaturesMissingPhone(t *testing.T) {
	svc := NewService(&userDirectoryMock{phones: map[string]string{"u1": ""}}, &recordRepoMock{})

	_, err := svc.ResolveFeatures(context.Background(), "u1")
	if !errors.Is(err, ErrMissingPhone) {
		t.Fatalf("expected ErrMissingPhone, got %v", err)
	}
}

func TestResolveFeaturesRecordNotFound(t *testing.T) {
	svc := NewService(
		&userDirectoryMock{phones: map[string]string{"u1": "+243 999 000 111"}},
		&recordRepoMock{records: map[string]*Record{}},
	)

	_, err := svc.ResolveFeatures(context.Background(), "u1")
	var notFound *RecordNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected RecordNotFoundError, got %v", err)
	}
	if notFound.Number != "243999000111" {
		t.Fatalf("error must carry the normalized number, got %q", notFound.Number)
	}
	if !strings.Contains(notFound.Error(), "243999000111") {
		t.Fatalf("message must include the searched number: %q", notFound.Error())
	}
}

func TestCheckNumber(t *testing.T) {
	record := &Record{PhoneNumber: "243812345678"}
	svc := NewService(
		&userDirectoryMock{},
		&recordRepoMock{records: map[string]*Record{"243812345678": record}},
	)

	got, exists, err := svc.CheckNumber(context.Background(), " +243 812 345 678 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || got == nil {
		t.Fatalf("expected hit for a known number")
	}

	got, exists, err = svc.CheckNumber(context.Background(), "243000000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists || got != nil {
		t.Fatalf("expected miss for an unknown number")
	}

	if _, _, err := svc.CheckNumber(context.Background(), "  "); !errors.Is(err, ErrMissingPhone) {
		t.Fatalf("expected ErrMissingPhone for blank input, got %v", err)
	}
}
