// Package navigation resolves the sidebar and quick-menu trees and filters them by permission.
package navigation

import "encoding/json"

// Node is either a Leaf or a Group.
type Node interface {
	Label() string
	node()
}

// Leaf is a navigable link.
type Leaf struct {
	Name       string
	Href       string
	Icon       string
	Permission string
}

// Group is a titled set of child nodes.
type Group struct {
	Name     string
	Icon     string
	Children []Node
}

func (l Leaf) Label() string  { return l.Name }
func (g Group) Label() string { return g.Name }

func (Leaf) node()  {}
func (Group) node() {}

// Child returns the direct child group called name.
func (g Group) Child(name string) (Group, bool) {
	return findGroup(g.Children, name)
}

func findGroup(nodes []Node, name string) (Group, bool) {
	for _, n := range nodes {
		if grp, ok := n.(Group); ok && grp.Name == name {
			return grp, true
		}
	}
	return Group{}, false
}

func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string `json:"type"`
		Name       string `json:"name"`
		Href       string `json:"href"`
		Icon       string `json:"icon,omitempty"`
		Permission string `json:"permission,omitempty"`
	}{"leaf", l.Name, l.Href, l.Icon, l.Permission})
}

func (g Group) MarshalJSON() ([]byte, error) {
	children := g.Children
	if children == nil {
		children = []Node{}
	}
	return json.Marshal(struct {
		Type     string `json:"type"`
		Name     string `json:"name"`
		Icon     string `json:"icon,omitempty"`
		Children []Node `json:"children"`
	}{"group", g.Name, g.Icon, children})
}
