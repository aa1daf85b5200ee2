// Package amazon wraps the S3, Transcribe and Polly APIs used by the
// toolkit behind small interfaces that tests can fake.
package amazon

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
)

type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Option func(*options)

type options struct {
	observer     ObserverFunc
	waitObserver func(status string, duration time.Duration)
}

func WithObserver(observer ObserverFunc) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithWaitObserver reports how long a job poll ran and the terminal status.
func WithWaitObserver(fn func(status string, duration time.Duration)) Option {
	return func(o *options) {
		o.waitObserver = fn
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o options) observe(endpoint string, started time.Time, err error) {
	if o.observer != nil {
		o.observer(endpoint, statusOf(err), time.Since(started))
	}
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

// Clients bundles the SDK clients built from one shared AWS config.
type Clients struct {
	S3         *s3.Client
	Transcribe *transcribe.Client
	Polly      *polly.Client
}

func LoadClients(ctx context.Context, region string) (Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return Clients{}, err
	}
	return NewClients(cfg), nil
}

func NewClients(cfg aws.Config) Clients {
	return Clients{
		S3:         s3.NewFromConfig(cfg),
		Transcribe: transcribe.NewFromConfig(cfg),
		Polly:      polly.NewFromConfig(cfg),
	}
}
