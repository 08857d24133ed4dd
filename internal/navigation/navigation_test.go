package navigation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
- name: Home
  href: /
- name: Finance
  children:
    - name: Billing
      children:
        - name: Invoices
          href: /invoices
          permission: invoices.read
    - name: Salaries
      href: /salaries
      permission: salaries.read
- name: Admin
  children:
    - name: Users
      href: /users
      permission: users.manage
`

func mustParse(t *testing.T, src string) []Node {
	t.Helper()
	nodes, err := Parse([]byte(src))
	require.NoError(t, err)
	return nodes
}

func TestParseResolvesNodeKinds(t *testing.T) {
	nodes := mustParse(t, sample)
	want := []Node{
		Leaf{Name: "Home", Href: "/"},
		Group{Name: "Finance", Children: []Node{
			Group{Name: "Billing", Children: []Node{
				Leaf{Name: "Invoices", Href: "/invoices", Permission: "invoices.read"},
			}},
			Leaf{Name: "Salaries", Href: "/salaries", Permission: "salaries.read"},
		}},
		Group{Name: "Admin", Children: []Node{
			Leaf{Name: "Users", Href: "/users", Permission: "users.manage"},
		}},
	}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsAmbiguousNodes(t *testing.T) {
	cases := map[string]string{
		"both":       "- name: X\n  href: /x\n  children:\n    - name: Y\n      href: /y\n",
		"neither":    "- name: X\n",
		"nameless":   "- href: /x\n",
		"duplicate":  "- name: X\n  href: /a\n- name: X\n  href: /b\n",
		"nested":     "- name: G\n  children:\n    - name: Inner\n",
		"group perm": "- name: G\n  permission: p\n  children:\n    - name: A\n      href: /a\n",
	}
	for name, src := range cases {
		_, err := Parse([]byte(src))
		assert.ErrorIs(t, err, ErrInvalidTree, name)
	}
}

func TestFilterDropsEmptyGroups(t *testing.T) {
	nodes := mustParse(t, sample)

	got := Filter(nodes, []string{"invoices.read"})
	want := []Node{
		Leaf{Name: "Home", Href: "/"},
		Group{Name: "Finance", Children: []Node{
			Group{Name: "Billing", Children: []Node{
				Leaf{Name: "Invoices", Href: "/invoices", Permission: "invoices.read"},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}

	assert.Len(t, Filter(nodes, nil), 1)
	// source tree untouched
	assert.Len(t, nodes[1].(Group).Children, 2)
}

func TestStack(t *testing.T) {
	s := NewStack(mustParse(t, sample))

	s.Pop()
	assert.Equal(t, 0, s.Depth())
	assert.Len(t, s.Current(), 3)

	require.NoError(t, s.Walk("Finance/Billing"))
	assert.Equal(t, []string{"Finance", "Billing"}, s.Breadcrumb())
	require.Len(t, s.Current(), 1)
	assert.Equal(t, "Invoices", s.Current()[0].Label())

	s.Pop()
	assert.Equal(t, []string{"Finance"}, s.Breadcrumb())

	assert.Error(t, s.Open("Salaries"))
	assert.Error(t, s.Walk("Finance/Nope"))

	s.Reset()
	assert.Empty(t, s.Breadcrumb())
}

func TestDefaultTreeLoads(t *testing.T) {
	nodes, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)

	s := NewStack(nodes)
	assert.NoError(t, s.Walk("Finance/Billing"))
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	nodes, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNodeJSON(t *testing.T) {
	out, err := json.Marshal([]Node{Group{Name: "G", Children: []Node{Leaf{Name: "L", Href: "/l"}}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"group","name":"G","children":[{"type":"leaf","name":"L","href":"/l"}]}]`, string(out))
}
