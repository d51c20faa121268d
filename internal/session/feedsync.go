package session

import (
	"sync"
	"sync/atomic"
)

// Counter 动态流同步计数器。由 App 持有并通过构造函数注入，
// 消费方比较上次看到的值来决定是否重新拉取
type Counter struct {
	value atomic.Uint64

	mu   sync.Mutex
	subs map[chan uint64]struct{}
}

func NewCounter() *Counter {
	return &Counter{subs: make(map[chan uint64]struct{})}
}

func (c *Counter) Value() uint64 {
	return c.value.Load()
}

// ForceUpdate 计数加一并通知订阅者。自增与投递在同一把锁内，
// 订阅者收到的值严格递增
func (c *Counter) ForceUpdate() uint64 {
	c.mu.Lock()
	v := c.value.Add(1)
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
			// 订阅者处理较慢时丢弃旧值，保证最终收到较新的值
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
	c.mu.Unlock()
	return v
}

func (c *Counter) Changed(lastSeen uint64) bool {
	return c.Value() != lastSeen
}

// Subscribe 返回接收新值的通道和取消函数
func (c *Counter) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}
