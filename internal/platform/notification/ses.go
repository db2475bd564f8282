package notification

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the part of the SES client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers e-mail through Amazon SES.
type SESSender struct {
	client SESAPI
	from   string
}

func NewSESSender(client SESAPI, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

// NewSESSenderFromConfig builds the SES client from an AWS config.
func NewSESSenderFromConfig(cfg aws.Config, from string) *SESSender {
	return NewSESSender(ses.NewFromConfig(cfg), from)
}

func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(s.from),
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
