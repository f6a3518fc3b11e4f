package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dominichul/phonefactor/internal/pkg/goerror"
	"github.com/dominichul/phonefactor/internal/pkg/instrument"
	"github.com/dominichul/phonefactor/internal/twofactor/entity"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const wizardKeyPrefix = "twofactor:wizard:"

// Cache holds setup wizard sessions in Redis. Keys are HMAC digests of the
// opaque session token, computed by the usecase layer.
type Cache struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewCache(client *redis.Client, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("twofactor.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) SaveWizardSession(ctx context.Context, key string, sess entity.WizardSession, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "SaveWizardSession")
	defer func() { c.endSpan(span, err) }()

	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	err = c.client.Set(ctx, wizardKeyPrefix+key, payload, ttl).Err()
	return err
}

func (c *Cache) GetWizardSession(ctx context.Context, key string) (sess *entity.WizardSession, err error) {
	ctx, span := c.startSpan(ctx, "GetWizardSession")
	defer func() { c.endSpan(span, err) }()

	payload, err := c.client.Get(ctx, wizardKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	sess = &entity.WizardSession{}
	if err = json.Unmarshal(payload, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Cache) DeleteWizardSession(ctx context.Context, key string) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteWizardSession")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, wizardKeyPrefix+key).Err()
	return err
}
