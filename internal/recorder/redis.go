package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalSentinel/internal/model"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	keyPending = "signals:pending"
	keyAll     = "signals:all"
	keyBar     = "bar:"
)

// RedisConfig configures the Redis recorder.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	Prefix   string // optional key namespace
}

// RedisRecorder stores each record as a msgpack blob under signal:{id} and indexes
// ids in sorted sets scored by emission time. bar:{strategy}:{emitted} claims the
// strategy bar before the record is written.
type RedisRecorder struct {
	client *goredis.Client
	prefix string
	log    zerolog.Logger
}

// signalDoc is the msgpack payload stored per record.
type signalDoc struct {
	ID              string  `msgpack:"id"`
	Symbol          string  `msgpack:"symbol"`
	IntervalMinutes int     `msgpack:"interval"`
	StrategyID      string  `msgpack:"strategy"`
	Kind            string  `msgpack:"kind"`
	Reason          string  `msgpack:"reason"`
	EntryPrice      float64 `msgpack:"entry"`
	EmittedAt       int64   `msgpack:"emitted_at"`
	Result          string  `msgpack:"result,omitempty"`
	ExitPrice       float64 `msgpack:"exit,omitempty"`
	PnL             float64 `msgpack:"pnl,omitempty"`
	VerifiedAt      int64   `msgpack:"verified_at,omitempty"`
}

// NewRedisRecorder connects and pings the server.
func NewRedisRecorder(cfg RedisConfig, log zerolog.Logger) (*RedisRecorder, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	r := &RedisRecorder{client: client, prefix: cfg.Prefix, log: log.With().Str("component", "redis").Logger()}
	r.log.Info().Str("addr", cfg.Addr).Msg("redis recorder connected")
	return r, nil
}

func (r *RedisRecorder) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += p
	}
	return k
}

func (r *RedisRecorder) signalKey(id string) string { return r.key("signal:", id) }

func (r *RedisRecorder) RecordSignal(ctx context.Context, rec model.SignalRecord) error {
	blob, err := msgpack.Marshal(toDoc(rec))
	if err != nil {
		return fmt.Errorf("encode signal %s: %w", rec.ID, err)
	}
	bar := r.key(keyBar, barKey(rec))
	claimed, err := r.client.SetNX(ctx, bar, rec.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim bar for signal %s: %w", rec.ID, err)
	}
	if !claimed {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrDuplicateSignal)
	}
	ok, err := r.client.SetNX(ctx, r.signalKey(rec.ID), blob, 0).Result()
	if err != nil || !ok {
		r.client.Del(ctx, bar)
	}
	if err != nil {
		return fmt.Errorf("store signal %s: %w", rec.ID, err)
	}
	if !ok {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrDuplicateSignal)
	}

	z := &goredis.Z{Score: score(rec.EmittedAt), Member: rec.ID}
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, r.key(keyAll), z)
		pipe.ZAdd(ctx, r.key(keyPending), z)
		return nil
	})
	if err != nil {
		return fmt.Errorf("index signal %s: %w", rec.ID, err)
	}
	return nil
}

func (r *RedisRecorder) GetSignal(ctx context.Context, id string) (model.SignalRecord, error) {
	return r.load(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (r *RedisRecorder) load(ctx context.Context, c getter, id string) (model.SignalRecord, error) {
	blob, err := c.Get(ctx, r.signalKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.SignalRecord{}, fmt.Errorf("signal %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.SignalRecord{}, fmt.Errorf("load signal %s: %w", id, err)
	}
	var doc signalDoc
	if err := msgpack.Unmarshal(blob, &doc); err != nil {
		return model.SignalRecord{}, fmt.Errorf("decode signal %s: %w", id, err)
	}
	return doc.record(), nil
}

func (r *RedisRecorder) OldestPending(ctx context.Context) (model.SignalRecord, error) {
	ids, err := r.client.ZRange(ctx, r.key(keyPending), 0, 0).Result()
	if err != nil {
		return model.SignalRecord{}, fmt.Errorf("pending signals: %w", err)
	}
	if len(ids) == 0 {
		return model.SignalRecord{}, fmt.Errorf("pending signal: %w", model.ErrNotFound)
	}
	return r.GetSignal(ctx, ids[0])
}

// ListSignals walks the index newest first. Symbol filtering happens client side.
func (r *RedisRecorder) ListSignals(ctx context.Context, f Filter) ([]model.SignalRecord, error) {
	index := keyAll
	if f.PendingOnly {
		index = keyPending
	}
	ids, err := r.client.ZRevRange(ctx, r.key(index), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	var out []model.SignalRecord
	for _, id := range ids {
		rec, err := r.GetSignal(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !f.match(rec) {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// ResolveSignal watches the record key so a concurrent resolver aborts the transaction.
func (r *RedisRecorder) ResolveSignal(ctx context.Context, rec model.SignalRecord) error {
	if err := terminal(rec); err != nil {
		return err
	}
	key := r.signalKey(rec.ID)
	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		cur, err := r.load(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		if cur.Resolved() {
			return fmt.Errorf("signal %s: %w", rec.ID, model.ErrAlreadyResolved)
		}
		cur.Result = rec.Result
		cur.ExitPrice = rec.ExitPrice
		cur.PnL = rec.PnL
		cur.VerifiedAt = rec.VerifiedAt
		blob, err := msgpack.Marshal(toDoc(cur))
		if err != nil {
			return fmt.Errorf("encode signal %s: %w", rec.ID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, blob, 0)
			pipe.ZRem(ctx, r.key(keyPending), rec.ID)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, goredis.TxFailedErr) {
		return fmt.Errorf("signal %s: %w", rec.ID, model.ErrAlreadyResolved)
	}
	return err
}

func (r *RedisRecorder) Close() error {
	r.log.Info().Msg("closing redis recorder")
	return r.client.Close()
}

func score(t time.Time) float64 { return float64(t.UnixMilli()) }

func toDoc(rec model.SignalRecord) signalDoc {
	doc := signalDoc{
		ID:              rec.ID,
		Symbol:          rec.Symbol,
		IntervalMinutes: rec.IntervalMinutes,
		StrategyID:      rec.StrategyID,
		Kind:            string(rec.Kind),
		Reason:          rec.Reason,
		EntryPrice:      rec.EntryPrice,
		EmittedAt:       rec.EmittedAt.UnixNano(),
		Result:          string(rec.Result),
		ExitPrice:       rec.ExitPrice,
		PnL:             rec.PnL,
	}
	if !rec.VerifiedAt.IsZero() {
		doc.VerifiedAt = rec.VerifiedAt.UnixNano()
	}
	return doc
}

func (d signalDoc) record() model.SignalRecord {
	rec := model.SignalRecord{
		ID:              d.ID,
		Symbol:          d.Symbol,
		IntervalMinutes: d.IntervalMinutes,
		StrategyID:      d.StrategyID,
		Kind:            model.SignalKind(d.Kind),
		Reason:          d.Reason,
		EntryPrice:      d.EntryPrice,
		EmittedAt:       time.Unix(0, d.EmittedAt).UTC(),
		Result:          model.Result(d.Result),
		ExitPrice:       d.ExitPrice,
		PnL:             d.PnL,
	}
	if d.VerifiedAt != 0 {
		rec.VerifiedAt = time.Unix(0, d.VerifiedAt).UTC()
	}
	return rec
}
