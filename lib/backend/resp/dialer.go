// Package resp implements backend.IDialer for servers speaking the Redis protocol (RESP).
//
// Single nodes are reached with a go-redis Client, clusters with a go-redis ClusterClient
// which does its own slot based key routing. Both are connected eagerly with a PING so
// an unreachable server surfaces at dial time and not on the first operation.
package resp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
)

var Logger = logger.GetLogger("backend")

// Options holds the settings shared by all connections of a dialer
type Options struct {
	Username string
	Password string
	DB       int // ignored for clusters
	PoolSize int // 0 = go-redis default
}

// dialer implements backend.IDialer using go-redis
type dialer struct {
	opts Options
}

// NewDialer creates a new RESP dialer. opts may be nil.
func NewDialer(opts *Options) backend.IDialer {
	if opts == nil {
		opts = &Options{}
	}
	return &dialer{opts: *opts}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.IDialer)
// --------------------------------------------------------------------------

func (d *dialer) GetName() string {
	return "resp"
}

func (d *dialer) DialNode(addr string, timeout time.Duration) (backend.IBackend, error) {
	opts := &redis.Options{
		Addr:       addr,
		Username:   d.opts.Username,
		Password:   d.opts.Password,
		DB:         d.opts.DB,
		PoolSize:   d.opts.PoolSize,
		MaxRetries: -1, // retries are up to the caller
	}
	if timeout > 0 {
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}

	return connect(redis.NewClient(opts), timeout)
}

func (d *dialer) DialCluster(addrs []string, timeout time.Duration) (backend.IBackend, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no cluster addresses provided")
	}

	opts := &redis.ClusterOptions{
		Addrs:      addrs,
		Username:   d.opts.Username,
		Password:   d.opts.Password,
		PoolSize:   d.opts.PoolSize,
		MaxRetries: -1,
	}
	if timeout > 0 {
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}

	return connect(redis.NewClusterClient(opts), timeout)
}

// connect pings the server once, the client is closed again if that fails
func connect(cmd redis.UniversalClient, timeout time.Duration) (backend.IBackend, error) {
	c := &client{cmd: cmd, timeout: timeout}

	ctx, cancel := c.context()
	defer cancel()

	if err := cmd.Ping(ctx).Err(); err != nil {
		if closeErr := cmd.Close(); closeErr != nil {
			Logger.Debugf("closing client after failed ping: %v", closeErr)
		}
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return c, nil
}

// --------------------------------------------------------------------------
// Backend
// --------------------------------------------------------------------------

// client wraps a go-redis client (single node or cluster) as backend.IBackend
type client struct {
	cmd     redis.UniversalClient
	timeout time.Duration
}

func (c *client) context() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(context.Background(), c.timeout)
	}
	return context.WithCancel(context.Background())
}

func (c *client) Get(key string) ([]byte, bool, error) {
	ctx, cancel := c.context()
	defer cancel()

	value, err := c.cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *client) Set(key string, value []byte) error {
	ctx, cancel := c.context()
	defer cancel()

	reply, err := c.cmd.Set(ctx, key, value, 0).Result()
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%w: %q", backend.ErrUnexpectedReply, reply)
	}
	return nil
}

func (c *client) Close() error {
	return c.cmd.Close()
}
