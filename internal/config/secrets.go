// AngelaMos | 2026
// secrets.go

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the slice of the Secrets Manager client used at startup.
type SecretGetter interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveStripeSecrets replaces the Stripe keys with the values stored under
// SecretName. The secret is either a bare API key or a JSON object with
// secret_key and webhook_secret fields.
func ResolveStripeSecrets(ctx context.Context, sm SecretGetter, c *StripeConfig) error {
	if c.SecretName == "" {
		return nil
	}

	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &c.SecretName,
	})
	if err != nil {
		return fmt.Errorf("get secret %s: %w", c.SecretName, err)
	}
	if out.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", c.SecretName)
	}

	raw := strings.TrimSpace(*out.SecretString)
	if !strings.HasPrefix(raw, "{") {
		c.SecretKey = raw
		return nil
	}

	var parsed struct {
		SecretKey     string `json:"secret_key"`
		WebhookSecret string `json:"webhook_secret"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fmt.Errorf("parse secret %s: %w", c.SecretName, err)
	}

	if parsed.SecretKey != "" {
		c.SecretKey = parsed.SecretKey
	}
	if parsed.WebhookSecret != "" {
		c.WebhookSecret = parsed.WebhookSecret
	}

	return nil
}
