package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"movies/internal/biz"
	"movies/internal/conf"

	"github.com/glebarez/sqlite"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewTransaction,
	NewMovieRepo,
	NewGenreRepo,
	NewRatingRepo,
)

const defaultCacheTTL = 15 * time.Minute

// Data encapsulates database and cache connections
type Data struct {
	db       *gorm.DB
	rdb      *redis.Client
	cacheTTL time.Duration
	log      *log.Helper
}

// NewData creates Data instance with database and Redis connections
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(log.With(logger, "module", "data"))

	db, err := openDB(c.Database, logger)
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(valueOr(c.Database.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(valueOr(c.Database.MaxOpenConns, 100))
	sqlDB.SetConnMaxLifetime(durationOr(c.Database.ConnMaxLifetime, time.Hour))

	l.Infof("database connected successfully (driver=%s)", db.Dialector.Name())

	if c.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			l.Errorf("failed to migrate database: %v", err)
			return nil, nil, err
		}
	}

	data := &Data{
		db:       db,
		rdb:      openRedis(c.Redis, l),
		cacheTTL: defaultCacheTTL,
		log:      l,
	}
	if c.Redis != nil && c.Redis.Ttl != nil {
		data.cacheTTL = c.Redis.Ttl.AsDuration()
	}

	if c.Seed != nil && c.Seed.Dir != "" {
		if err := data.Seed(context.Background(), c.Seed.Dir); err != nil {
			l.Errorf("failed to seed database: %v", err)
			return nil, nil, err
		}
	}

	cleanup := func() {
		l.Info("closing data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				l.Errorf("failed to close redis: %v", err)
			}
		}
		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				l.Errorf("failed to close database: %v", err)
			}
		}
	}

	return data, cleanup, nil
}

func openDB(c *conf.Data_Database, logger log.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "", "postgres":
		dialector = postgres.Open(c.Source)
	case "sqlite":
		dialector = sqlite.Open(c.Source)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger, durationOr(c.SlowThreshold, 200*time.Millisecond)),
	})
}

func openRedis(c *conf.Data_Redis, l *log.Helper) *redis.Client {
	if c == nil || c.Addr == "" {
		l.Info("redis not configured, cache disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		ReadTimeout:  c.ReadTimeout.AsDuration(),
		WriteTimeout: c.WriteTimeout.AsDuration(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// Redis is optional, continue without it
		l.Warnf("failed to connect to redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	l.Info("redis connected successfully")
	return rdb
}

// Migrate creates or updates the movies, genres and ratings tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Movie{}, &Genre{}, &Rating{})
}

type contextTxKey struct{}

// txState is the transaction bound to a context plus the cache keys to drop
// once it commits.
type txState struct {
	db    *gorm.DB
	evict []string
}

// NewTransaction exposes Data as the biz transaction manager.
func NewTransaction(d *Data) biz.Transaction {
	return d
}

// InTx runs fn in a transaction. Nested calls join the outer transaction.
func (d *Data) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(contextTxKey{}).(*txState); ok {
		return fn(ctx)
	}

	st := &txState{}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st.db = tx
		return fn(context.WithValue(ctx, contextTxKey{}, st))
	})
	if err != nil {
		return err
	}
	d.evictNow(ctx, st.evict...)
	return nil
}

// DB returns the transaction bound to ctx, or the pool.
func (d *Data) DB(ctx context.Context) *gorm.DB {
	if st, ok := ctx.Value(contextTxKey{}).(*txState); ok {
		return st.db
	}
	return d.db.WithContext(ctx)
}

func (d *Data) inTx(ctx context.Context) bool {
	_, ok := ctx.Value(contextTxKey{}).(*txState)
	return ok
}

// evict drops cache keys, deferred until commit inside a transaction.
func (d *Data) evict(ctx context.Context, keys ...string) {
	if d.rdb == nil || len(keys) == 0 {
		return
	}
	if st, ok := ctx.Value(contextTxKey{}).(*txState); ok {
		st.evict = append(st.evict, keys...)
		return
	}
	d.evictNow(ctx, keys...)
}

// evictNow deletes keys and bumps their versions so that loads which started
// before the eviction cannot store what they read.
func (d *Data) evictNow(ctx context.Context, keys ...string) {
	if d.rdb == nil || len(keys) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	_, err := d.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, versionKey(key))
			if d.cacheTTL > 0 {
				pipe.Expire(ctx, versionKey(key), d.cacheTTL)
			}
		}
		return nil
	})
	if err != nil {
		d.log.Warnf("failed to evict cache keys %v: %v", keys, err)
	}
}

// cacheVersion is the eviction count of a key seen by cacheGet.
type cacheVersion struct {
	value string
	valid bool
}

var errStaleCache = errors.New("cache key evicted during load")

// cacheGet reports whether key was found and decoded into v. On a miss the
// returned version goes to cacheSet with the freshly loaded value. Reads
// inside a transaction bypass the cache.
func (d *Data) cacheGet(ctx context.Context, key string, v interface{}) (cacheVersion, bool) {
	if d.rdb == nil || d.inTx(ctx) {
		return cacheVersion{}, false
	}
	vals, err := d.rdb.MGet(ctx, key, versionKey(key)).Result()
	if err != nil {
		d.log.Warnf("cache get %s: %v", key, err)
		return cacheVersion{}, false
	}
	ver := cacheVersion{valid: true}
	ver.value, _ = vals[1].(string)

	cached, ok := vals[0].(string)
	if !ok {
		return ver, false
	}
	if err := json.Unmarshal([]byte(cached), v); err != nil {
		return ver, false
	}
	d.log.Debugf("cache hit: %s", key)
	return ver, true
}

// cacheSet stores v unless key was evicted since ver was read.
func (d *Data) cacheSet(ctx context.Context, key string, ver cacheVersion, v interface{}) {
	if d.rdb == nil || !ver.valid || d.inTx(ctx) {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	vkey := versionKey(key)
	err = d.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != ver.value {
			return errStaleCache
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, d.cacheTTL)
			return nil
		})
		return err
	}, vkey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleCache), errors.Is(err, redis.TxFailedErr):
		d.log.Debugf("cache set %s skipped: evicted during load", key)
	default:
		d.log.Warnf("cache set %s: %v", key, err)
	}
}

func versionKey(key string) string {
	return key + ":version"
}

func movieKey(id int64) string {
	return fmt.Sprintf("movie:%d", id)
}

const (
	ratingStatsKey        = "ratings:statistics"
	ratingDistributionKey = "ratings:distribution"
)

func valueOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func durationOr(d *conf.Duration, def time.Duration) time.Duration {
	if v := d.AsDuration(); v > 0 {
		return v
	}
	return def
}
