package dag

import (
	"time"
)

// tokenBucket 并发准入令牌桶（内部结构）
// 不是连续补充令牌的经典实现：每隔interval把令牌数整体重置为
// max - inFlight（容量减去在途数量），两次重置之间只消耗不补充。
// 因此任意时刻在途节点数不会超过max，且准入速率至多每interval刷新一次。
type tokenBucket struct {
	max        int
	interval   time.Duration
	tokens     int
	lastRefill time.Time
}

func newTokenBucket(max int, interval time.Duration) *tokenBucket {
	return &tokenBucket{
		max:        max,
		interval:   interval,
		tokens:     max,
		lastRefill: time.Now(),
	}
}

// refill 重置检查：距上次重置超过interval时，令牌数重置为 max - inFlight
func (b *tokenBucket) refill(inFlight int) {
	if time.Since(b.lastRefill) > b.interval {
		b.tokens = b.max - inFlight
		b.lastRefill = time.Now()
	}
}

// take 消耗一个令牌，没有剩余令牌时返回false
func (b *tokenBucket) take() bool {
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// untilRefill 距下一次重置生效的等待时长
func (b *tokenBucket) untilRefill() time.Duration {
	d := b.interval - time.Since(b.lastRefill)
	if d < 0 {
		d = 0
	}
	// 重置条件是严格大于interval，多等1ms保证醒来后重置一定生效
	return d + time.Millisecond
}
