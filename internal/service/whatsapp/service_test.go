package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/rigcost/internal/config"
	"github.com/mamadbah2/rigcost/internal/domain/models"
	client "github.com/mamadbah2/rigcost/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
}

func (c *recordingClient) SendTextMessage(ctx context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		panic("send without deadline")
	}
	c.sent = append(c.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestSendSummaryGoesToRecipient(t *testing.T) {
	rc := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ReportRecipient: "15550001111"}, rc, nil)

	require.NoError(t, svc.SendSummary(context.Background(), "Drilling | AFE: $2,500"))
	require.Len(t, rc.sent, 1)
	assert.Equal(t, "15550001111", rc.sent[0].To)
	assert.Equal(t, "Drilling | AFE: $2,500", rc.sent[0].Body)
}

func TestSendOutboundRejectsEmpty(t *testing.T) {
	rc := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, rc, nil)

	assert.Error(t, svc.SendSummary(context.Background(), "text"))
	assert.Error(t, svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "  "}))
	assert.Empty(t, rc.sent)
}
