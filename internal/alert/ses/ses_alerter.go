package ses

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"folio/internal/domain"
	"folio/internal/port"
)

// SendEmailAPI is the subset of the SES v2 client the alerter calls.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesAlerter struct {
	client      SendEmailAPI
	fromAddress string
	toAddresses []string
}

// NewSESAlerter creates a new SES-backed Alerter.
func NewSESAlerter(region, fromAddress string, toAddresses []string) (port.Alerter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewSESAlerterWithAPI(sesv2.NewFromConfig(cfg), fromAddress, toAddresses), nil
}

// NewSESAlerterWithAPI wraps an already-constructed SES client (for testing).
func NewSESAlerterWithAPI(client SendEmailAPI, fromAddress string, toAddresses []string) port.Alerter {
	return &sesAlerter{
		client:      client,
		fromAddress: fromAddress,
		toAddresses: toAddresses,
	}
}

func (a *sesAlerter) NotifyInconsistency(ctx context.Context, inc domain.Inconsistency) error {
	subject := fmt.Sprintf("[folio] %s left %s on one backend", inc.Operation, inc.CorrelationID)
	textBody := buildInconsistencyText(inc)

	_, err := a.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &a.fromAddress,
		Destination: &types.Destination{
			ToAddresses: a.toAddresses,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildInconsistencyText(inc domain.Inconsistency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Operation:          %s\n", inc.Operation)
	fmt.Fprintf(&b, "Correlation id:     %s\n", inc.CorrelationID)
	fmt.Fprintf(&b, "Storage key:        %s\n", inc.Key)
	if inc.Slug != "" {
		fmt.Fprintf(&b, "Publication slug:   %s\n", inc.Slug)
	}
	fmt.Fprintf(&b, "In storage:         %t\n", inc.StorageExists)
	fmt.Fprintf(&b, "Published:          %t\n", inc.PublicationExists)
	fmt.Fprintf(&b, "Occurred at:        %s\n", inc.OccurredAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "\n%s\n", inc.Detail)
	b.WriteString("\nRetract the remaining side or resubmit once the cause is fixed.\n")
	return b.String()
}
