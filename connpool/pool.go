package connpool

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrConnect = errors.New("connect error")
	ErrClosed  = errors.New("pool closed")
)

type Closeable interface {
	Close()
}

// Pool 基础连接池，支持最大连接数配置
// 回调返回 ErrConnect 时连接被丢弃，否则放回池中复用
type Pool struct {
	New    func() (Closeable, error)
	ch     chan Closeable
	sem    chan struct{}
	closed atomic.Bool
	// mu 保证 Close 之后不会再有连接放回 ch
	mu sync.Mutex
}

func NewPool(maxCount int32, f func() (Closeable, error)) *Pool {
	if maxCount < 1 {
		maxCount = 1
	}
	return &Pool{
		New: f,
		ch:  make(chan Closeable, maxCount),
		sem: make(chan struct{}, maxCount),
	}
}

func (c *Pool) Call(f func(closeable Closeable) error) error {
	if c.closed.Load() {
		return ErrClosed
	}

	// 达到上限时等待其它调用归还
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	conn, err := c.get()
	if err != nil {
		return errors.Join(ErrConnect, err)
	}

	err = f(conn)

	if errors.Is(err, ErrConnect) || !c.put(conn) {
		conn.Close()
	}
	return err
}

// InUse 返回正在被回调使用的连接数
func (c *Pool) InUse() int {
	return len(c.sem)
}

// Idle 返回池中空闲连接数
func (c *Pool) Idle() int {
	return len(c.ch)
}

// Close closes idle connections. Connections in use are closed when returned.
func (c *Pool) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Swap(true) {
		return
	}
	for {
		select {
		case conn := <-c.ch:
			conn.Close()
		default:
			return
		}
	}
}

// get 从连接池获取空闲连接，没有则新建
func (c *Pool) get() (Closeable, error) {
	select {
	case conn := <-c.ch:
		return conn, nil
	default:
		conn, err := c.New()
		if err != nil {
			return nil, err
		}
		if conn == nil {
			return nil, ErrConnect
		}
		return conn, nil
	}
}

// put 把连接放回连接池，池已关闭或已满时返回 false
func (c *Pool) put(o Closeable) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return false
	}
	select {
	case c.ch <- o:
		return true
	default:
		return false
	}
}
