package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/nodetree/pkg/nodeerrors"
)

type service struct {
	Kind  string `json:"kind"`
	Port  int    `json:"port"`
	Owner struct {
		Team string `json:"team"`
	} `json:"owner"`
}

// fixtureTree builds:
//
//	. (root)
//	├── web      service{kind: http, port: 80, team: edge}
//	│   ├── api  service{kind: http, port: 8080, team: core}
//	│   └── [1]  "cache"
//	└── db       map{kind: sql, port: 5432}
//	    └── api  map{kind: grpc}
func fixtureTree(t *testing.T) map[string]*Node {
	t.Helper()
	webSvc := service{Kind: "http", Port: 80}
	webSvc.Owner.Team = "edge"
	apiSvc := &service{Kind: "http", Port: 8080}
	apiSvc.Owner.Team = "core"

	nodes := map[string]*Node{
		"root":   MustNew("root"),
		"web":    MustNew(webSvc, WithName("web")),
		"api":    MustNew(apiSvc, WithName("api")),
		"cache":  MustNew("cache"),
		"db":     MustNew(map[string]any{"kind": "sql", "port": 5432}, WithName("db")),
		"dbapi":  MustNew(map[string]any{"kind": "grpc"}, WithName("api")),
		"orphan": MustNew("orphan", WithName("orphan")),
	}
	_, err := nodes["web"].Add(nodes["api"], nodes["cache"])
	require.NoError(t, err)
	require.NoError(t, nodes["db"].AddChild(nodes["dbapi"]))
	_, err = nodes["root"].Add(nodes["web"], nodes["db"])
	require.NoError(t, err)
	return nodes
}

func TestSearchForByName(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]

	got, err := root.SearchFor(ByName("api"))
	require.NoError(t, err)
	assert.Same(t, nodes["api"], got, "pre-order finds web/api before db/api")

	got, err = nodes["db"].SearchFor(ByName("api"))
	require.NoError(t, err)
	assert.Same(t, nodes["dbapi"], got, "search is scoped to the receiver's subtree")

	all, err := root.SearchAll(ByName("api"))
	require.NoError(t, err)
	assert.Equal(t, []*Node{nodes["api"], nodes["dbapi"]}, all)
}

func TestSearchIncludesReceiver(t *testing.T) {
	nodes := fixtureTree(t)
	got, err := nodes["web"].SearchFor(ByName("web"))
	require.NoError(t, err)
	assert.Same(t, nodes["web"], got)
}

func TestSearchByPredicate(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]

	leaves, err := root.SearchAll(ByPredicate(func(n *Node) bool { return n.IsLeaf() }))
	require.NoError(t, err)
	assert.Equal(t, []*Node{nodes["api"], nodes["cache"], nodes["dbapi"]}, leaves)

	got, err := root.SearchFor(ByPredicate(func(n *Node) bool { return n.Value() == "cache" }))
	require.NoError(t, err)
	assert.Same(t, nodes["cache"], got)
}

func TestSearchNoMatch(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]
	never := ByPredicate(func(*Node) bool { return false })

	got, err := root.SearchFor(never)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := root.SearchAll(never)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	// a node outside the tree is never found
	got, err = root.SearchFor(ByName("orphan"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchByAttr(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]

	tests := []struct {
		name string
		opts []SearchOption
		want []*Node
	}{
		{"depth 2", []SearchOption{ByAttr(AttrDepth, 2)}, []*Node{nodes["api"], nodes["cache"], nodes["dbapi"]}},
		{"index 1", []SearchOption{ByAttr(AttrIndex, 1)}, []*Node{nodes["cache"], nodes["db"]}},
		{"len 2", []SearchOption{ByAttr(AttrLen, 2)}, []*Node{root, nodes["web"]}},
		{"size 5", []SearchOption{ByAttr(AttrSize, 5)}, []*Node{root}},
		{"value", []SearchOption{ByAttr(AttrValue, "cache")}, []*Node{nodes["cache"]}},
		{"name and depth", []SearchOption{ByAttr(AttrName, "api"), ByAttr(AttrDepth, 2)}, []*Node{nodes["api"], nodes["dbapi"]}},
		{"name and index", []SearchOption{ByName("api"), ByAttr(AttrIndex, 0), ByAttr(AttrSize, 0)}, []*Node{nodes["api"], nodes["dbapi"]}},
		{"float depth", []SearchOption{ByAttr(AttrDepth, 1.0)}, []*Node{nodes["web"], nodes["db"]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.SearchAll(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchByValueAttr(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]

	tests := []struct {
		name string
		opts []SearchOption
		want []*Node
	}{
		{"struct json tag and map key", []SearchOption{ByValueAttr("kind", "http")}, []*Node{nodes["web"], nodes["api"]}},
		{"map key", []SearchOption{ByValueAttr("kind", "grpc")}, []*Node{nodes["dbapi"]}},
		{"numeric across types", []SearchOption{ByValueAttr("port", 5432.0)}, []*Node{nodes["db"]}},
		{"nested struct field", []SearchOption{ByValueAttr("owner.team", "core")}, []*Node{nodes["api"]}},
		{"field name", []SearchOption{ByValueAttr("Owner.Team", "edge")}, []*Node{nodes["web"]}},
		{"combined with name", []SearchOption{ByName("api"), ByValueAttr("kind", "http")}, []*Node{nodes["api"]}},
		{"missing path", []SearchOption{ByValueAttr("replicas", 3)}, []*Node{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.SearchAll(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchByExpr(t *testing.T) {
	nodes := fixtureTree(t)
	root := nodes["root"]

	tests := []struct {
		name string
		expr string
		want []*Node
	}{
		{"name", `_.name == "db"`, []*Node{nodes["db"]}},
		{"value field", `_.value.kind == "http"`, []*Node{nodes["web"], nodes["api"]}},
		{"nested value", `_.value.owner.team == "core"`, []*Node{nodes["api"]}},
		{"structure", `_.leaf && _.depth == 2`, []*Node{nodes["api"], nodes["cache"], nodes["dbapi"]}},
		{"path", `_.path.startsWith("./db")`, []*Node{nodes["db"], nodes["dbapi"]}},
		{"errors count as no match", `_.value.port > 1000`, []*Node{nodes["api"], nodes["db"]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.SearchAll(ByExpr(tt.expr))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchValueAttrAndExprAgree(t *testing.T) {
	type meta struct {
		Owner string `json:"owner"`
	}
	tests := []struct {
		name  string
		value any
		path  string
		want  any
		expr  string
	}{
		{"struct inside typed map", map[string]meta{"x": {Owner: "core"}}, "x.owner", "core", `_.value.x.owner == "core"`},
		{"struct inside generic map", map[string]any{"x": &meta{Owner: "core"}}, "x.owner", "core", `_.value.x.owner == "core"`},
		{"struct inside list", []meta{{Owner: "edge"}}, "0.owner", "edge", `_.value[0].owner == "edge"`},
		{"non-string map keys", map[any]any{"k": 1}, "k", 1, `_.value.k == 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := MustNew(tt.value)

			byAttr, err := root.SearchFor(ByValueAttr(tt.path, tt.want))
			require.NoError(t, err)
			assert.Same(t, root, byAttr)

			byExpr, err := root.SearchFor(ByExpr(tt.expr))
			require.NoError(t, err)
			assert.Same(t, root, byExpr)
		})
	}
}

func TestSearchByValueAttrLargeIntegers(t *testing.T) {
	root := MustNew(map[string]any{"id": int64(1<<53 + 1)})

	got, err := root.SearchFor(ByValueAttr("id", int64(1<<53)))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = root.SearchFor(ByValueAttr("id", int64(1<<53+1)))
	require.NoError(t, err)
	assert.Same(t, root, got)
}

func TestSearchValidation(t *testing.T) {
	root, _, _ := scenarioTree(t)

	tests := []struct {
		name string
		opts []SearchOption
		want error
	}{
		{"no criteria", nil, nodeerrors.ErrArgument},
		{"only nil options", []SearchOption{nil}, nodeerrors.ErrArgument},
		{"nil predicate", []SearchOption{ByPredicate(nil)}, nodeerrors.ErrType},
		{"invalid name", []SearchOption{ByName("1bad")}, nodeerrors.ErrNaming},
		{"empty name", []SearchOption{ByName("")}, nodeerrors.ErrNaming},
		{"unknown attr", []SearchOption{ByAttr("colour", "red")}, nodeerrors.ErrArgument},
		{"non-string name attr", []SearchOption{ByAttr(AttrName, 3)}, nodeerrors.ErrType},
		{"empty value path", []SearchOption{ByValueAttr(" ", 1)}, nodeerrors.ErrArgument},
		{"bad expression", []SearchOption{ByExpr("_.name ==")}, nodeerrors.ErrArgument},
		{"non-bool expression", []SearchOption{ByExpr("1 + 1")}, nodeerrors.ErrArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := root.SearchFor(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)

			all, err := root.SearchAll(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, all)
		})
	}
}

func TestSearchValidatesBeforeTraversal(t *testing.T) {
	root, _, _ := scenarioTree(t)
	calls := 0
	counting := ByPredicate(func(*Node) bool {
		calls++
		return false
	})
	_, err := root.SearchAll(counting, ByAttr("bogus", 1))
	require.Error(t, err)
	assert.Equal(t, 0, calls)

	_, err = root.SearchAll(counting)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
