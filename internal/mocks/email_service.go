package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"blood-donation/internal/domain"
)

type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendContactsProvided(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error {
	args := m.Called(ctx, toEmail, recipientName, req)
	return args.Error(0)
}

func (m *EmailService) SendRequestRejected(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error {
	args := m.Called(ctx, toEmail, recipientName, req)
	return args.Error(0)
}

func (m *EmailService) SendDonationCompleted(ctx context.Context, toEmail, recipientName string, unit *domain.BloodUnit) error {
	args := m.Called(ctx, toEmail, recipientName, unit)
	return args.Error(0)
}
