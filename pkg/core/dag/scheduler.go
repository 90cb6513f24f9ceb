package dag

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

const defaultRefillInterval = 100 * time.Millisecond

// Options 调度运行选项（对外导出）
type Options struct {
	MaxTokens      int           // 最大在途节点数（<=0 时默认为1）
	RefillInterval time.Duration // 令牌重置周期（<=0 时默认为100ms）
	Workers        int           // Worker数量（<=0 时默认为 max(1, CPU核数-1)）
}

// withDefaults 应用默认值（内部方法）
func (o Options) withDefaults() Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1
	}
	if o.RefillInterval <= 0 {
		o.RefillInterval = defaultRefillInterval
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU() - 1
		if o.Workers < 1 {
			o.Workers = 1
		}
	}
	return o
}

// completion Worker回报的完成事件（内部结构）
// Worker只回报值和错误，不直接修改图状态
type completion[T comparable] struct {
	value T
	err   error
}

// Run 并发执行整个依赖图（对外导出）
// 每个节点只在其全部前置依赖成功完成后执行，且恰好执行一次。
// 在途节点数受 Options.MaxTokens 约束，准入速率受 RefillInterval 约束。
// process从Worker协程并发调用，必须自身并发安全。
//
// 阻塞直到所有节点完成、失败或被阻塞：
//   - 全部成功时返回nil；
//   - 有节点失败时返回 *RunError（失败节点的传递下游被标记为阻塞，
//     无关分支仍执行完毕）；
//   - ctx取消时停止准入、等待Worker退出后返回包装的ctx错误。
//
// 图的pending计数、就绪队列和完成计数只由本协程修改（单写者），
// Worker只通过任务/完成通道与本协程交换值。
func (g *Graph[T]) Run(ctx context.Context, process func(T) error, opts Options) error {
	if process == nil {
		return fmt.Errorf("process函数不能为空")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	opts = opts.withDefaults()

	total := g.Size()
	if total == 0 {
		return nil
	}

	// 通道容量取节点总数，准入和结果回报都不会阻塞对方
	taskQueue := make(chan T, total)
	doneQueue := make(chan completion[T], total)
	shutdown := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer wg.Done()
			runWorker(taskQueue, doneQueue, shutdown, process)
		}()
	}

	bucket := newTokenBucket(opts.MaxTokens, opts.RefillInterval)
	inFlight := 0
	failed := make(map[T]error)
	blocked := make(map[T]bool)
	var blockedOrder []T
	canceled := false

	settled := func() int {
		return g.finished + len(failed) + len(blockedOrder)
	}

	apply := func(c completion[T]) {
		inFlight--
		if c.err != nil {
			failed[c.value] = &TaskError[T]{Value: c.value, Cause: c.err}
			// 上游失败，整棵传递下游子树标记为阻塞
			for _, d := range g.TransitiveDependents(c.value) {
				if !blocked[d] {
					blocked[d] = true
					blockedOrder = append(blockedOrder, d)
				}
			}
			return
		}
		if _, err := g.Finish(c.value); err != nil {
			// 不应发生：Worker对每个准入节点只回报一次
			failed[c.value] = err
		}
	}

	for settled() < total {
		// 准入阶段：在令牌允许的范围内把就绪节点推入任务队列
		for g.ReadyLen() > 0 {
			bucket.refill(inFlight)
			if !bucket.take() {
				break
			}
			v, _ := g.PopReady()
			inFlight++
			taskQueue <- v
		}

		if settled() >= total {
			break
		}
		if inFlight == 0 && g.ReadyLen() == 0 {
			// 不动点：没有在途、没有就绪但仍有未完成节点，
			// 说明剩余节点的依赖永远无法满足（运行期兜底，构图时已做环检测）
			close(shutdown)
			wg.Wait()
			return &CycleError[T]{Path: g.Remaining()}
		}

		// 完成阶段：等待完成事件、下一次令牌重置或取消
		var refillC <-chan time.Time
		var timer *time.Timer
		if g.ReadyLen() > 0 {
			timer = time.NewTimer(bucket.untilRefill())
			refillC = timer.C
		}

		select {
		case c := <-doneQueue:
			apply(c)
			// 顺手清空已到达的其余完成事件
		drain:
			for {
				select {
				case c := <-doneQueue:
					apply(c)
				default:
					break drain
				}
			}
		case <-refillC:
			// 醒来后回到准入阶段重新评估令牌
		case <-ctx.Done():
			canceled = true
		}
		if timer != nil {
			timer.Stop()
		}
		if canceled {
			break
		}
	}

	close(shutdown)
	wg.Wait()

	if canceled {
		return fmt.Errorf("调度被取消（已完成 %d/%d）: %w", g.finished, total, ctx.Err())
	}
	if len(failed) > 0 {
		return &RunError[T]{Failed: failed, Blocked: blockedOrder}
	}
	return nil
}

// runWorker Worker主循环（内部方法）
// 阻塞等待任务，执行后把结果推入完成队列；shutdown关闭后优先退出。
// process的panic会被恢复并转换为失败回报，不会让Worker悄悄死掉。
func runWorker[T comparable](taskQueue <-chan T, doneQueue chan<- completion[T], shutdown <-chan struct{}, process func(T) error) {
	for {
		select {
		case <-shutdown:
			return
		default:
		}

		select {
		case <-shutdown:
			return
		case v := <-taskQueue:
			doneQueue <- completion[T]{value: v, err: safeProcess(process, v)}
		}
	}
}

// safeProcess 执行process并把panic转换为错误（内部方法）
func safeProcess[T comparable](process func(T) error, v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("节点 %v 执行时发生panic: %v", v, r)
		}
	}()
	return process(v)
}
