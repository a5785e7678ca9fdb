// Package storefront — подключения магазина: обмен кода авторизации,
// список подключений, смена провайдера доставки.
package storefront

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/WishfulLabs/SellerBox/internal/models"
)

var ErrStateMismatch = errors.New("oauth state mismatch")

// Gateway — read-сторона API подключений.
type Gateway interface {
	ListConnections(ctx context.Context, userID string) ([]models.StorefrontConnection, error)
}

// AuthExchanger выполняет команды против serverless endpoint'ов платформы.
type AuthExchanger interface {
	ExchangeAuthCode(ctx context.Context, userID, authCode string) (map[string]any, error)
	UpdateShippingProvider(ctx context.Context, userID, providerID string) (map[string]any, error)
}

// Recorder пишет audit trail команд, best-effort.
type Recorder interface {
	RecordCommand(ctx context.Context, userID, kind, subjectID string, payload []byte) error
}

type Service struct {
	gw        Gateway
	exchanger AuthExchanger
	recorder  Recorder
}

func New(gw Gateway, exchanger AuthExchanger, recorder Recorder) *Service {
	return &Service{gw: gw, exchanger: exchanger, recorder: recorder}
}

func (s *Service) ListConnections(ctx context.Context, userID string) ([]models.StorefrontConnection, error) {
	conns, err := s.gw.ListConnections(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list connections")
	}
	if conns == nil {
		conns = []models.StorefrontConnection{}
	}
	return conns, nil
}

// ExchangeAuthCode завершает OAuth-редирект платформы. state должен
// совпасть со значением, выданным при старте авторизации: это CSRF-защита,
// несовпадение отклоняется до похода на endpoint.
func (s *Service) ExchangeAuthCode(ctx context.Context, userID, authCode, state, savedState string) (map[string]any, error) {
	if state != savedState {
		return nil, ErrStateMismatch
	}
	if authCode == "" {
		return nil, errors.New("auth code is required")
	}

	out, err := s.exchanger.ExchangeAuthCode(ctx, userID, authCode)
	if err != nil {
		return nil, errors.Wrap(err, "exchange auth code")
	}

	if s.recorder != nil {
		payload, _ := json.Marshal(map[string]string{"userId": userID})
		if err := s.recorder.RecordCommand(ctx, userID, "exchange_auth_code", userID, payload); err != nil {
			slog.Warn("record auth exchange", "user_id", userID, "error", err.Error())
		}
	}
	return out, nil
}

// Disconnect — на платформе нет API отключения; фиксируем намерение
// в логе и отвечаем успехом, чтобы дашборд мог скрыть подключение.
func (s *Service) Disconnect(ctx context.Context, userID, connectionID string) error {
	slog.Info("storefront disconnect requested", "user_id", userID, "connection_id", connectionID)
	if s.recorder != nil {
		if err := s.recorder.RecordCommand(ctx, userID, "disconnect", connectionID, nil); err != nil {
			slog.Warn("record disconnect", "user_id", userID, "error", err.Error())
		}
	}
	return nil
}

func (s *Service) UpdateShippingProvider(ctx context.Context, userID, providerID string) (map[string]any, error) {
	if providerID == "" {
		return nil, errors.New("provider id is required")
	}

	out, err := s.exchanger.UpdateShippingProvider(ctx, userID, providerID)
	if err != nil {
		return nil, errors.Wrap(err, "update shipping provider")
	}

	if s.recorder != nil {
		payload, _ := json.Marshal(map[string]string{"providerId": providerID})
		if err := s.recorder.RecordCommand(ctx, userID, "update_shipping_provider", providerID, payload); err != nil {
			slog.Warn("record provider update", "user_id", userID, "error", err.Error())
		}
	}
	return out, nil
}
