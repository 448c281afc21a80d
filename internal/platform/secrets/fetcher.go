package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultVersion = "latest"

type secretManagerClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

var clientFactory = func(ctx context.Context, opts ...option.ClientOption) (secretManagerClient, error) {
	return secretmanager.NewClient(ctx, opts...)
}

// Fetcher resolves secret:// references through Google Secret Manager with
// in-process caching. References take the form
// secret://projects/<project>/secrets/<name>[@version].
type Fetcher struct {
	client     secretManagerClient
	ownsClient bool
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// Option customises Fetcher construction.
type Option func(*Fetcher)

// WithLogger sets the logger used for diagnostic output.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithClient injects a pre-built Secret Manager client (used by tests).
func WithClient(client secretManagerClient) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher constructs a Fetcher, dialing Secret Manager unless a client was injected.
func NewFetcher(ctx context.Context, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		logger: zap.NewNop(),
		cache:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		client, err := clientFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets: dial secret manager: %w", err)
		}
		f.client = client
		f.ownsClient = true
	}
	return f, nil
}

// Resolve fetches the secret payload for the given reference, serving
// repeated lookups from cache.
func (f *Fetcher) Resolve(ctx context.Context, ref string) (string, error) {
	name, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	f.mu.RLock()
	cached, ok := f.cache[name]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	resp, err := f.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		f.logger.Warn("secret access failed", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("secrets: access %s: %w", name, err)
	}
	value := string(resp.GetPayload().GetData())

	f.mu.Lock()
	f.cache[name] = value
	f.mu.Unlock()
	return value, nil
}

// Close releases the underlying client when owned by the fetcher.
func (f *Fetcher) Close() error {
	if f == nil || f.client == nil || !f.ownsClient {
		return nil
	}
	return f.client.Close()
}

func parseReference(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if !strings.HasPrefix(trimmed, "secret://") {
		return "", errors.New("secrets: reference must start with secret://")
	}
	path := strings.TrimPrefix(trimmed, "secret://")

	version := defaultVersion
	if idx := strings.LastIndex(path, "@"); idx >= 0 {
		version = strings.TrimSpace(path[idx+1:])
		path = path[:idx]
	}
	path = strings.Trim(path, "/")
	if path == "" || version == "" {
		return "", fmt.Errorf("secrets: malformed reference %q", ref)
	}

	if strings.HasPrefix(path, "projects/") {
		return fmt.Sprintf("%s/versions/%s", path, version), nil
	}

	// Short form project/name.
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("secrets: malformed reference %q", ref)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", parts[0], parts[1], version), nil
}
