package services

import (
	"bytes"
	"context"
	"fmt"

	"donation-api/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesRawSender interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESService sends receipts through Amazon SES. Raw MIME is used so the PDF
// can be attached.
type SESService struct {
	api      sesRawSender
	from     string
	fromName string
}

// NewSESService loads the default AWS configuration chain.
func NewSESService(ctx context.Context, region, from, fromName string) (*SESService, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logging.Errorf("Could not load default config: %v", err)
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &SESService{api: ses.NewFromConfig(cfg), from: from, fromName: fromName}, nil
}

func (s *SESService) SendReceipt(ctx context.Context, receipt Receipt) error {
	msg, err := buildReceiptMessage(s.from, s.fromName, receipt)
	if err != nil {
		return err
	}
	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	out, err := s.api.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(s.from),
		Destinations: []string{receipt.To},
		RawMessage:   &types.RawMessage{Data: raw.Bytes()},
	})
	if err != nil {
		return fmt.Errorf("failed to send receipt via ses: %w", err)
	}

	logging.Infof("Receipt sent via SES - to: %s, message_id: %s", receipt.To, aws.ToString(out.MessageId))
	return nil
}
