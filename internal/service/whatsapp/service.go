package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/config"
	"github.com/mamadbah2/rigcost/internal/domain/models"
	client "github.com/mamadbah2/rigcost/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService pushes cost notifications to WhatsApp.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	SendSummary(ctx context.Context, text string) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendSummary sends a cost summary to the configured report recipient.
func (s *MetaWhatsAppService) SendSummary(ctx context.Context, text string) error {
	return s.SendOutbound(ctx, models.OutboundMessageRequest{To: s.cfg.ReportRecipient, Message: text})
}

// SendOutbound sends one text message.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	if strings.TrimSpace(req.To) == "" {
		return errors.New("message recipient is empty")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message body is empty")
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		return err
	}

	messageID := ""
	if len(resp.Messages) > 0 {
		messageID = resp.Messages[0].ID
	}
	s.logger.Info("whatsapp message sent", zap.String("to", req.To), zap.String("message_id", messageID))
	return nil
}
