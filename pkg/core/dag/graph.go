package dag

import (
	"crypto/sha256"
	"fmt"

	godag "github.com/begmaroman/go-dag"
)

// mirrorVertex go-dag镜像节点（实现 go-dag 的 Identifiable 接口）
type mirrorVertex[T comparable] struct {
	id    string
	value T
}

// ID 实现 Identifiable 接口
func (v *mirrorVertex[T]) ID() string {
	return v.id
}

// Hash 实现 Hashable 接口，按ID散列
// go-dag 的默认散列走JSON序列化，非导出字段会让所有节点散列成同一个值，
// 第二个 AddVertex 就会报重复节点，所以必须自带散列。
func (v *mirrorVertex[T]) Hash() (godag.VHash, error) {
	return godag.VHash(sha256.Sum256([]byte(v.id))), nil
}

// mirrorDAG go-dag镜像（内部结构）
// 计数模型（pending/dependents）由Graph自己持有，镜像只负责结构性查询
// （根节点、父子关系）以及AddEdge时的二次环检测。
// 注意：go-dag 的图结构是只读管理入度的，不能承载运行期计数。
type mirrorDAG[T comparable] struct {
	dag *godag.DAG[*mirrorVertex[T]]
	ids map[T]string
}

func newMirrorDAG[T comparable]() *mirrorDAG[T] {
	return &mirrorDAG[T]{
		dag: godag.NewDAG[*mirrorVertex[T]](),
		ids: make(map[T]string),
	}
}

// addVertex 添加镜像节点，按加入顺序分配稳定的字符串ID
func (m *mirrorDAG[T]) addVertex(value T) error {
	if _, exists := m.ids[value]; exists {
		return nil
	}
	id := fmt.Sprintf("n%d", len(m.ids))
	if _, err := m.dag.AddVertex(&mirrorVertex[T]{id: id, value: value}); err != nil {
		return fmt.Errorf("添加镜像节点失败: %v, Error=%w", value, err)
	}
	m.ids[value] = id
	return nil
}

// addEdge 添加边 dep -> value（前置 -> 后置）
func (m *mirrorDAG[T]) addEdge(dep, value T) error {
	if err := m.dag.AddEdge(m.ids[dep], m.ids[value]); err != nil {
		// go-dag 在 AddEdge 时会自动检测环，这里作为DFS检测之后的兜底
		return fmt.Errorf("添加边失败: %v -> %v, Error=%w", dep, value, err)
	}
	return nil
}

// roots 返回所有根节点的值（入度为0的节点）
// GetRoots 返回的是 ID -> VHash 映射，取值要再走一次 GetVertex。
func (m *mirrorDAG[T]) roots() []T {
	rootVertices := m.dag.GetRoots()
	out := make([]T, 0, len(rootVertices))
	for id := range rootVertices {
		if v, err := m.dag.GetVertex(id); err == nil {
			out = append(out, v.value)
		}
	}
	return out
}

// NewGraph 从邻接表构建依赖图（对外导出）
// dependencyGraph: 值 -> 该值的前置依赖列表。
// 值在作为key或依赖首次出现时隐式建点，因此只出现在依赖列表里的值
// 同样是合法节点（pending为0、无依赖）。
// 构图时做一次完整的环检测，存在环时返回 *CycleError 而不是留给运行期挂死。
func NewGraph[T comparable](dependencyGraph map[T][]T) (*Graph[T], error) {
	g := &Graph[T]{
		nodes:  make(map[T]*Node[T]),
		mirror: newMirrorDAG[T](),
	}

	// 1. 建点并插入反向边
	// pending按声明的依赖边数累加；dep的dependents追加value节点。
	children := make(map[T][]T) // 临时邻接表：前置 -> 后置，用于环检测
	for value, deps := range dependencyGraph {
		node := g.getOrCreate(value)
		node.pending += len(deps)
		for _, dep := range deps {
			depNode := g.getOrCreate(dep)
			depNode.dependents = append(depNode.dependents, node)
			children[dep] = append(children[dep], value)
		}
	}
	for _, v := range g.order {
		if _, exists := children[v]; !exists {
			children[v] = nil
		}
	}

	// 2. 一次性检测环（三色标记DFS）
	if cyclePath, hasCycle := detectCycleDFS(children); hasCycle {
		return nil, &CycleError[T]{Path: cyclePath}
	}

	// 3. 构建 go-dag 镜像（已确认无环，AddEdge不应失败）
	for _, v := range g.order {
		if err := g.mirror.addVertex(v); err != nil {
			return nil, err
		}
	}
	// 同一条依赖声明两次（如 {"B": ["A","A"]}）在计数模型里是自洽的，
	// 但 go-dag 会报重复边，镜像前先去重。
	type edge struct{ from, to T }
	seen := make(map[edge]struct{})
	for value, deps := range dependencyGraph {
		for _, dep := range deps {
			if _, dup := seen[edge{dep, value}]; dup {
				continue
			}
			seen[edge{dep, value}] = struct{}{}
			if err := g.mirror.addEdge(dep, value); err != nil {
				return nil, err
			}
		}
	}

	// 4. 用镜像的根节点播种就绪队列（根节点即pending==0的节点）
	for _, v := range g.mirror.roots() {
		g.readyQueue = append(g.readyQueue, v)
	}

	return g, nil
}

// getOrCreate 获取或创建节点（内部方法）
func (g *Graph[T]) getOrCreate(v T) *Node[T] {
	if node, exists := g.nodes[v]; exists {
		return node
	}
	node := &Node[T]{Value: v}
	g.nodes[v] = node
	g.order = append(g.order, v)
	return node
}

// Finish 标记节点已完成并晋升新就绪的下游节点（对外导出）
// 递减每个下游节点的pending计数，降到0的节点追加到就绪队列并随返回值给出。
// 每个节点只允许完成一次。只能由调度主协程调用。
func (g *Graph[T]) Finish(v T) ([]T, error) {
	node, ok := g.nodes[v]
	if !ok {
		return nil, fmt.Errorf("节点 %v 不存在", v)
	}
	if node.finished {
		return nil, fmt.Errorf("节点 %v 已完成，不能重复完成", v)
	}

	node.finished = true
	g.finished++

	var newlyReady []T
	for _, d := range node.dependents {
		d.pending--
		if d.pending == 0 {
			g.readyQueue = append(g.readyQueue, d.Value)
			newlyReady = append(newlyReady, d.Value)
		}
	}
	return newlyReady, nil
}

// detectCycleDFS 使用三色标记DFS检测邻接表中是否存在环
// children: 前置节点 -> 后置节点列表。存在环时返回环路径。
func detectCycleDFS[T comparable](children map[T][]T) ([]T, bool) {
	// 0=白色（未访问），1=灰色（正在访问），2=黑色（已访问完毕）
	color := make(map[T]int, len(children))
	parent := make(map[T]T)
	var cyclePath []T

	var dfs func(v T) bool
	dfs = func(v T) bool {
		color[v] = 1
		for _, child := range children[v] {
			switch color[child] {
			case 0:
				parent[child] = v
				if dfs(child) {
					return true
				}
			case 1:
				// 灰色节点上的后向边，构建环路径
				cyclePath = append(cyclePath, child)
				cur := v
				for cur != child {
					cyclePath = append(cyclePath, cur)
					cur = parent[cur]
				}
				cyclePath = append(cyclePath, child)
				return true
			}
		}
		color[v] = 2
		return false
	}

	for v := range children {
		if color[v] == 0 {
			if dfs(v) {
				return cyclePath, true
			}
		}
	}
	return nil, false
}
