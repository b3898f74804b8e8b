package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/awolverp/xuiclient/internal/config"
	"github.com/awolverp/xuiclient/pkg/protocols"
	"github.com/awolverp/xuiclient/pkg/xuiclient"
)

// PanelService manages the XUI panel API client for a single panel
type PanelService struct {
	client *xuiclient.Client
	config *config.Config
	logger *logrus.Logger
}

// NewPanelService creates a new panel service
func NewPanelService(cfg *config.Config, logger *logrus.Logger) (*PanelService, error) {
	client, err := xuiclient.New(xuiclient.Options{
		URL:                cfg.Panel.URL,
		Username:           cfg.Panel.User,
		Password:           cfg.Panel.Password,
		Dialect:            xuiclient.Dialect(cfg.Panel.Dialect),
		InsecureSkipVerify: cfg.Panel.Insecure,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	return &PanelService{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// Client exposes the underlying API client
func (s *PanelService) Client() *xuiclient.Client {
	return s.client
}

// GetStatus gets the server status from the panel
func (s *PanelService) GetStatus(ctx context.Context) (*xuiclient.ServerStatus, error) {
	return s.client.ServerStatus(ctx)
}

// GetInbounds gets the inbounds from the panel
func (s *PanelService) GetInbounds(ctx context.Context) ([]*protocols.Inbound, error) {
	return s.client.Inbounds(ctx)
}

// GetInbound gets a single inbound, falling back to the list endpoint for
// panels without a get endpoint
func (s *PanelService) GetInbound(ctx context.Context, id int) (*protocols.Inbound, error) {
	in, err := s.client.Inbound(ctx, id)
	if err == nil {
		return in, nil
	}
	var unsupported *xuiclient.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		return nil, err
	}

	inbounds, err := s.client.Inbounds(ctx)
	if err != nil {
		return nil, err
	}
	for _, in := range inbounds {
		if in.ID == id {
			return in, nil
		}
	}
	return nil, &xuiclient.APIError{Operation: "get inbound", Message: "inbound not found"}
}

// AccessLink builds the shareable link for an inbound client
func (s *PanelService) AccessLink(ctx context.Context, inboundID, clientIndex int) (string, error) {
	in, err := s.GetInbound(ctx, inboundID)
	if err != nil {
		return "", err
	}
	return in.AccessLink(s.config.Panel.Hostname, protocols.LinkOptions{ClientIndex: clientIndex})
}

// GetOnlineClients gets the online client emails from the panel
func (s *PanelService) GetOnlineClients(ctx context.Context) ([]string, error) {
	return s.client.OnlineClients(ctx)
}

// GetAllClientEmails gets every client email known to the panel
func (s *PanelService) GetAllClientEmails(ctx context.Context) ([]string, error) {
	inbounds, err := s.GetInbounds(ctx)
	if err != nil {
		return nil, err
	}

	var emails []string
	for _, inbound := range inbounds {
		for _, stat := range inbound.ClientStats {
			emails = append(emails, stat.Email)
		}
	}

	return emails, nil
}
