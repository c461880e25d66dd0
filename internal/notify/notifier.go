// Package notify alerts operators about order lines that could not be
// resolved to a fulfillment variant.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
)

type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// UnresolvedLine is one order line that failed resolution.
type UnresolvedLine struct {
	Index      int    `json:"index"`
	Descriptor string `json:"descriptor"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
	ProductID  string `json:"productId,omitempty"`
}

type Alert struct {
	OrderID string           `json:"orderId"`
	BatchID string           `json:"batchId"`
	Lines   []UnresolvedLine `json:"lines"`
}

type Config struct {
	TopicARN string
	From     string
	To       []string
}

// OperatorNotifier publishes alerts to an SNS topic and e-mails them through
// SES. Either channel is skipped when unconfigured.
type OperatorNotifier struct {
	publisher Publisher
	sender    EmailSender
	config    Config
	logger    logger.Logger
}

func NewOperatorNotifier(config Config, publisher Publisher, sender EmailSender, log logger.Logger) *OperatorNotifier {
	return &OperatorNotifier{
		publisher: publisher,
		sender:    sender,
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"component": "operator-notifier"}),
	}
}

func (n *OperatorNotifier) snsEnabled() bool {
	return n.publisher != nil && n.config.TopicARN != ""
}

func (n *OperatorNotifier) sesEnabled() bool {
	return n.sender != nil && n.config.From != "" && len(n.config.To) > 0
}

// NotifyUnresolved sends alert on every configured channel. Both channels are
// attempted; the first failure is returned.
func (n *OperatorNotifier) NotifyUnresolved(ctx context.Context, alert Alert) error {
	if len(alert.Lines) == 0 {
		return nil
	}

	var firstErr error
	if n.snsEnabled() {
		if err := n.publish(ctx, alert); err != nil {
			firstErr = apperrors.NewNotificationFailedError("sns", err)
			n.logger.Error("failed to publish unresolved alert", map[string]interface{}{
				"orderId": alert.OrderID,
				"error":   err.Error(),
			})
		}
	}

	if n.sesEnabled() {
		if err := n.email(ctx, alert); err != nil {
			if firstErr == nil {
				firstErr = apperrors.NewNotificationFailedError("ses", err)
			}
			n.logger.Error("failed to e-mail unresolved alert", map[string]interface{}{
				"orderId": alert.OrderID,
				"error":   err.Error(),
			})
		}
	}

	if firstErr == nil {
		n.logger.Info("operator alerted about unresolved lines", map[string]interface{}{
			"orderId": alert.OrderID,
			"batchId": alert.BatchID,
			"lines":   len(alert.Lines),
		})
	}
	return firstErr
}

func (n *OperatorNotifier) publish(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Subject:  aws.String(subject(alert)),
		Message:  aws.String(string(body)),
	})
	return err
}

func (n *OperatorNotifier) email(ctx context.Context, alert Alert) error {
	_, err := n.sender.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: n.config.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject(alert))},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(RenderText(alert))},
			},
		},
		Source: aws.String(n.config.From),
	})
	return err
}

func subject(alert Alert) string {
	return fmt.Sprintf("Order %s: %d unresolved line(s)", alert.OrderID, len(alert.Lines))
}

// RenderText formats the alert as a plain-text e-mail body.
func RenderText(alert Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s (batch %s) was held: %d line(s) could not be matched to a fulfillment variant.\n\n",
		alert.OrderID, alert.BatchID, len(alert.Lines))
	for _, l := range alert.Lines {
		fmt.Fprintf(&b, "- line %d: %s [%s] %s", l.Index, l.Descriptor, l.ErrorCode, l.Message)
		if l.ProductID != "" {
			fmt.Fprintf(&b, " (product %s)", l.ProductID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
