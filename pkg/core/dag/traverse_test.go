package dag

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVertex struct {
	id      string
	parents []*mockVertex
}

func (v *mockVertex) ID() string              { return v.id }
func (v *mockVertex) Parents() []*mockVertex { return v.parents }

func vtx(id string, parents ...*mockVertex) *mockVertex {
	return &mockVertex{id: id, parents: parents}
}

// assertParentsFirst 每个顶点的所有父顶点都排在它前面
func assertParentsFirst(t *testing.T, order []*mockVertex) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, v := range order {
		pos[v.id] = i
	}
	for _, v := range order {
		for _, p := range v.parents {
			pp, ok := pos[p.id]
			require.True(t, ok, "父顶点 %s 不在结果中", p.id)
			assert.Less(t, pp, pos[v.id], "%s 应排在 %s 之前", p.id, v.id)
		}
	}
}

func TestTraverse_SingleEdge(t *testing.T) {
	a := vtx("A")
	b := vtx("B", a)

	got := IDs(Traverse(b))
	if diff := cmp.Diff([]string{"A", "B"}, got); diff != "" {
		t.Errorf("遍历顺序错误 (-want +got):\n%s", diff)
	}
}

func TestTraverse_Diamond(t *testing.T) {
	a := vtx("A")
	b := vtx("B", a)
	c := vtx("C", a)
	d := vtx("D", b, c)

	order := Traverse(d)
	assert.Len(t, order, 4)
	assert.Equal(t, "A", order[0].id)
	assert.Equal(t, "D", order[3].id)
	assertParentsFirst(t, order)
}

func TestTraverse_MultipleStartsDeduplicated(t *testing.T) {
	a := vtx("A")
	b := vtx("B", a)
	c := vtx("C", a, b)

	order := Traverse(c, b, c, a)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, IDs(order))
	assertParentsFirst(t, order)
}

func TestTraverse_IdentityByID(t *testing.T) {
	a1 := vtx("A")
	a2 := vtx("A")
	b := vtx("B", a1)
	c := vtx("C", a2)

	order := Traverse(b, c)
	assert.Len(t, order, 3, "同ID的不同对象视为同一顶点")
}

// simpleTree 每个顶点依赖前面最多三个顶点
func simpleTree(n int) []*mockVertex {
	vs := make([]*mockVertex, n)
	for i := 0; i < n; i++ {
		var parents []*mockVertex
		for j := i - 3; j < i; j++ {
			if j >= 0 {
				parents = append(parents, vs[j])
			}
		}
		vs[i] = vtx(fmt.Sprintf("n%d", i), parents...)
	}
	return vs
}

func TestTraverse_SimpleTree(t *testing.T) {
	vs := simpleTree(40)
	order := Traverse(vs[len(vs)-1])
	assert.Len(t, order, 40)
	assertParentsFirst(t, order)
}

func TestTraverse_DeepChain(t *testing.T) {
	const depth = 100000
	var prev *mockVertex
	for i := 0; i < depth; i++ {
		if prev == nil {
			prev = vtx("c0")
			continue
		}
		prev = vtx(fmt.Sprintf("c%d", i), prev)
	}

	order := Traverse(prev)
	require.Len(t, order, depth)
	assert.Equal(t, "c0", order[0].id)
	assert.Equal(t, fmt.Sprintf("c%d", depth-1), order[depth-1].id)
}

func TestTraverse_Empty(t *testing.T) {
	assert.Empty(t, Traverse[*mockVertex]())
}

func TestLevels(t *testing.T) {
	a := vtx("A")
	b := vtx("B", a)
	c := vtx("C", a)
	d := vtx("D", b, c)
	e := vtx("E")

	levels := Levels(Traverse(d, e))
	require.Len(t, levels, 3)
	assert.ElementsMatch(t, []string{"A", "E"}, IDs(levels[0]))
	assert.ElementsMatch(t, []string{"B", "C"}, IDs(levels[1]))
	assert.Equal(t, []string{"D"}, IDs(levels[2]))
}
