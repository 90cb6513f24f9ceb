package dag

// Node 依赖图节点（对外导出）
// Value是工作项的唯一标识；pending是尚未完成的前置依赖数量；
// dependents是依赖该节点的下游节点列表（构图时通过反向边插入，构图后不再修改）。
type Node[T comparable] struct {
	Value      T
	pending    int
	finished   bool
	dependents []*Node[T]
}

// Pending 返回尚未完成的前置依赖数量（对外导出）
func (n *Node[T]) Pending() int {
	return n.pending
}

// Finished 返回节点是否已完成（对外导出）
func (n *Node[T]) Finished() bool {
	return n.finished
}

// Graph 依赖图结构（对外导出）
// 持有全部节点。构图是单线程的一次性操作；运行期间所有状态
// （pending计数、就绪队列、完成计数）只由调度主协程修改，Worker不直接触碰。
type Graph[T comparable] struct {
	nodes      map[T]*Node[T]
	order      []T // 节点首次出现的顺序
	readyQueue []T // pending==0 的待执行节点
	finished   int // 已完成的节点总数

	mirror *mirrorDAG[T] // go-dag 镜像（结构查询与二次环检测）
}

// Size 返回节点总数（对外导出）
func (g *Graph[T]) Size() int {
	return len(g.nodes)
}

// FinishedCount 返回已完成的节点总数（对外导出）
func (g *Graph[T]) FinishedCount() int {
	return g.finished
}

// Contains 判断值是否存在于图中（对外导出）
func (g *Graph[T]) Contains(v T) bool {
	_, ok := g.nodes[v]
	return ok
}

// Values 返回所有节点值，按首次出现顺序（对外导出）
func (g *Graph[T]) Values() []T {
	out := make([]T, len(g.order))
	copy(out, g.order)
	return out
}

// ReadyLen 返回当前就绪队列的长度（对外导出）
func (g *Graph[T]) ReadyLen() int {
	return len(g.readyQueue)
}

// PopReady 从就绪队列头部取出一个节点值（对外导出）
// 队列为空时返回零值和false。
func (g *Graph[T]) PopReady() (T, bool) {
	if len(g.readyQueue) == 0 {
		var zero T
		return zero, false
	}
	v := g.readyQueue[0]
	g.readyQueue = g.readyQueue[1:]
	return v, true
}

// Dependents 返回直接依赖v的下游节点值列表（对外导出）
func (g *Graph[T]) Dependents(v T) []T {
	node, ok := g.nodes[v]
	if !ok {
		return nil
	}
	out := make([]T, 0, len(node.dependents))
	for _, d := range node.dependents {
		out = append(out, d.Value)
	}
	return out
}

// TransitiveDependents 返回v的全部传递下游节点（对外导出）
// 用于上游失败时标记整棵受影响的子树。
func (g *Graph[T]) TransitiveDependents(v T) []T {
	seen := map[T]bool{v: true}
	queue := []T{v}
	var out []T
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		node, ok := g.nodes[cur]
		if !ok {
			continue
		}
		for _, d := range node.dependents {
			if !seen[d.Value] {
				seen[d.Value] = true
				out = append(out, d.Value)
				queue = append(queue, d.Value)
			}
		}
	}
	return out
}

// Remaining 返回尚未完成的节点值列表，按首次出现顺序（对外导出）
func (g *Graph[T]) Remaining() []T {
	var out []T
	for _, v := range g.order {
		if !g.nodes[v].finished {
			out = append(out, v)
		}
	}
	return out
}
