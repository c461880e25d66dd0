package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

func createTestAlert() Alert {
	return Alert{
		OrderID: "ord_123",
		BatchID: "b-1",
		Lines: []UnresolvedLine{
			{Index: 2, Descriptor: "tshirt-XS-Purple", ErrorCode: "UNRESOLVED_VARIANT", Message: "no variant matched", ProductID: "71"},
		},
	}
}

func createTestConfig() Config {
	return Config{TopicARN: "arn:aws:sns:eu-west-2:123456789012:ops", From: "shop@example.com", To: []string{"ops@example.com"}}
}

func TestNotifyUnresolved_BothChannels(t *testing.T) {
	pub := new(mockPublisher)
	sender := new(mockSender)

	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var alert Alert
		if err := json.Unmarshal([]byte(*in.Message), &alert); err != nil {
			return false
		}
		return *in.TopicArn == createTestConfig().TopicARN && alert.OrderID == "ord_123" && len(alert.Lines) == 1
	})).Return(&sns.PublishOutput{}, nil).Once()

	sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return *in.Source == "shop@example.com" &&
			in.Destination.ToAddresses[0] == "ops@example.com" &&
			*in.Message.Subject.Data == "Order ord_123: 1 unresolved line(s)"
	})).Return(&ses.SendEmailOutput{}, nil).Once()

	n := NewOperatorNotifier(createTestConfig(), pub, sender, logger.NewTestLogger(t))
	require.NoError(t, n.NotifyUnresolved(context.Background(), createTestAlert()))

	pub.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestNotifyUnresolved_SkipsUnconfiguredChannels(t *testing.T) {
	pub := new(mockPublisher)
	n := NewOperatorNotifier(Config{}, pub, nil, logger.NewTestLogger(t))

	require.NoError(t, n.NotifyUnresolved(context.Background(), createTestAlert()))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotifyUnresolved_NoLines(t *testing.T) {
	pub := new(mockPublisher)
	n := NewOperatorNotifier(createTestConfig(), pub, nil, logger.NewTestLogger(t))

	require.NoError(t, n.NotifyUnresolved(context.Background(), Alert{OrderID: "ord_1"}))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestNotifyUnresolved_FailureStillTriesEmail(t *testing.T) {
	pub := new(mockPublisher)
	sender := new(mockSender)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(&ses.SendEmailOutput{}, nil).Once()

	n := NewOperatorNotifier(createTestConfig(), pub, sender, logger.NewTestLogger(t))
	err := n.NotifyUnresolved(context.Background(), createTestAlert())

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotificationFailed, apperrors.Code(err))
	assert.Contains(t, err.Error(), "sns")
	sender.AssertExpectations(t)
}

func TestRenderText(t *testing.T) {
	text := RenderText(createTestAlert())
	assert.Contains(t, text, "Order ord_123 (batch b-1) was held")
	assert.Contains(t, text, "- line 2: tshirt-XS-Purple [UNRESOLVED_VARIANT] no variant matched (product 71)")
}
