// AngelaMos | 2026
// presign.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/config"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

const defaultPresignExpiry = 15 * time.Minute

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Upload is a presigned PUT the client performs directly against the bucket.
type Upload struct {
	URL       string            `json:"upload_url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	Key       string            `json:"key"`
	PublicURL string            `json:"public_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}

type Presigner struct {
	client        *s3.PresignClient
	bucket        string
	publicBaseURL string
	expiry        time.Duration
}

// NewPresigner builds an S3 presign client. Path-style addressing is used
// when awsCfg carries a custom endpoint, which is what LocalStack and MinIO
// expect.
func NewPresigner(awsCfg aws.Config, cfg config.StorageConfig) *Presigner {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = awsCfg.BaseEndpoint != nil
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	return &Presigner{
		client: s3.NewPresignClient(client, func(o *s3.PresignOptions) {
			o.Expires = expiry
		}),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		expiry:        expiry,
	}
}

// PresignProductImage signs an upload of one image for productID.
func (p *Presigner) PresignProductImage(
	ctx context.Context,
	productID, contentType string,
) (*Upload, error) {
	key, err := ProductImageKey(productID, contentType)
	if err != nil {
		return nil, err
	}

	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	headers := make(map[string]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	return &Upload{
		URL:       req.URL,
		Method:    req.Method,
		Headers:   headers,
		Key:       key,
		PublicURL: p.publicBaseURL + "/" + key,
		ExpiresAt: time.Now().Add(p.expiry).UTC(),
	}, nil
}

func ProductImageKey(productID, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	return fmt.Sprintf("products/%s/%s.%s", productID, uuid.New().String(), ext), nil
}
