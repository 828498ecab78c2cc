// Package tunnel optionally exposes the local HTTP listener through an ngrok
// endpoint. Disabled by default; purely additive to the normal listener.
package tunnel

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok/v2"

	"cadenza/internal/config"
)

// Service represents the ngrok tunnel service
type Service struct {
	config *config.TunnelConfig
	logger *logrus.Logger
	agent  ngrok.Agent
	tunnel ngrok.EndpointForwarder
}

// NewService creates a new tunnel service instance. Returns (nil, nil) when
// the tunnel is disabled; a nil *Service is safe to use.
func NewService(cfg *config.TunnelConfig, logger *logrus.Logger) (*Service, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	// Env overrides already ran, so an empty token means it is set nowhere
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("tunnel enabled but no auth token set (NGROK_AUTHTOKEN or tunnel.auth_token)")
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		return nil, fmt.Errorf("failed to create ngrok agent: %w", err)
	}

	return &Service{
		config: cfg,
		logger: logger,
		agent:  agent,
	}, nil
}

// Start forwards a public endpoint to the local address.
func (s *Service) Start(ctx context.Context, localAddress string) error {
	if s == nil {
		return nil // Service is disabled
	}

	var endpointOpts []ngrok.EndpointOption
	if s.config.Domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL(s.config.Domain))
	}

	tunnel, err := s.agent.Forward(ctx, ngrok.WithUpstream(localAddress), endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to create tunnel: %w", err)
	}
	s.tunnel = tunnel

	s.logger.WithFields(logrus.Fields{
		"public_url": tunnel.URL().String(),
		"upstream":   localAddress,
	}).Info("Tunnel active")

	return nil
}

// PublicURL returns the public URL of the tunnel, or "" when not running.
func (s *Service) PublicURL() string {
	if s == nil || s.tunnel == nil {
		return ""
	}
	return s.tunnel.URL().String()
}

// Stop closes the tunnel.
func (s *Service) Stop() error {
	if s == nil || s.tunnel == nil {
		return nil
	}
	s.logger.Info("Stopping tunnel")
	return s.tunnel.Close()
}
