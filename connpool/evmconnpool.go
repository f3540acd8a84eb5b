package connpool

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	defaultRetryMax = 3
	retryWaitMin    = 200 * time.Millisecond
	retryWaitMax    = 2 * time.Second
)

type evmOptions struct {
	logger   zerolog.Logger
	retryMax int
}

type EvmOption func(o *evmOptions)

func WithLogger(l zerolog.Logger) EvmOption {
	return func(o *evmOptions) { o.logger = l }
}

// WithRetryMax sets how often a failed http request to the node is retried.
func WithRetryMax(n int) EvmOption {
	return func(o *evmOptions) { o.retryMax = n }
}

type EvmPool struct {
	*Pool
	url string
}

// NewEvmPool 初始化 evm rpc 连接池，http 节点的请求失败时会重试
func NewEvmPool(ctx context.Context, rawUrl string, maxConnect int, opts ...EvmOption) *EvmPool {
	o := evmOptions{logger: zerolog.Nop(), retryMax: defaultRetryMax}
	for _, opt := range opts {
		opt(&o)
	}

	return &EvmPool{
		url: rawUrl,
		Pool: NewPool(int32(maxConnect), func() (Closeable, error) {
			client, err := dial(ctx, rawUrl, o)
			if err != nil {
				return nil, err
			}
			return client, nil
		}),
	}
}

func dial(ctx context.Context, rawUrl string, o evmOptions) (*rpc.Client, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		hc := retryablehttp.NewClient()
		hc.RetryMax = o.retryMax
		hc.RetryWaitMin = retryWaitMin
		hc.RetryWaitMax = retryWaitMax
		hc.Logger = retryLogger{l: o.logger.With().Str("rpc", u.Host).Logger()}
		return rpc.DialHTTPWithClient(rawUrl, hc.StandardClient())
	default:
		return rpc.DialContext(ctx, rawUrl)
	}
}

func (e *EvmPool) URL() string { return e.url }

func (e *EvmPool) Call(f func(*ethclient.Client, *rpc.Client) error) error {
	return e.Pool.Call(func(closeable Closeable) error {
		c := closeable.(*rpc.Client)
		return f(ethclient.NewClient(c), c)
	})
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	l zerolog.Logger
}

func (r retryLogger) Error(msg string, kv ...interface{}) { r.l.Error().Fields(kv).Msg(msg) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.l.Warn().Fields(kv).Msg(msg) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.l.Debug().Fields(kv).Msg(msg) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.l.Trace().Fields(kv).Msg(msg) }

// Registry 按 rpc 地址缓存连接池
type Registry struct {
	ctx        context.Context
	maxConnect int
	opts       []EvmOption
	pools      map[string]*EvmPool
	l          sync.Mutex
}

func NewRegistry(ctx context.Context, maxConnect int, opts ...EvmOption) *Registry {
	return &Registry{
		ctx:        ctx,
		maxConnect: maxConnect,
		opts:       opts,
		pools:      make(map[string]*EvmPool),
	}
}

func (r *Registry) Get(rpcUrl string) *EvmPool {
	r.l.Lock()
	defer r.l.Unlock()
	if p, ok := r.pools[rpcUrl]; ok {
		return p
	}
	p := NewEvmPool(r.ctx, rpcUrl, r.maxConnect, r.opts...)
	r.pools[rpcUrl] = p
	return p
}

func (r *Registry) Close() {
	r.l.Lock()
	defer r.l.Unlock()
	for u, p := range r.pools {
		p.Close()
		delete(r.pools, u)
	}
}
