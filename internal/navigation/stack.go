package navigation

import (
	"fmt"
	"strings"
)

// Stack tracks the groups opened in the quick menu.
type Stack struct {
	root   []Node
	opened []Group
}

// NewStack starts at root.
func NewStack(root []Node) *Stack {
	return &Stack{root: root}
}

// Push opens g.
func (s *Stack) Push(g Group) {
	s.opened = append(s.opened, g)
}

// Open pushes the child group called name of the current level.
func (s *Stack) Open(name string) error {
	g, ok := findGroup(s.Current(), name)
	if !ok {
		return fmt.Errorf("no group %q under %q", name, strings.Join(s.Breadcrumb(), "/"))
	}
	s.Push(g)
	return nil
}

// Walk resets the stack and opens each segment of a slash separated path.
func (s *Stack) Walk(path string) error {
	s.Reset()
	for _, seg := range strings.Split(path, "/") {
		if seg = strings.TrimSpace(seg); seg == "" {
			continue
		}
		if err := s.Open(seg); err != nil {
			return err
		}
	}
	return nil
}

// Pop closes the innermost group. At the root it does nothing.
func (s *Stack) Pop() {
	if len(s.opened) == 0 {
		return
	}
	s.opened = s.opened[:len(s.opened)-1]
}

// Current returns the nodes visible at the current level.
func (s *Stack) Current() []Node {
	if len(s.opened) == 0 {
		return s.root
	}
	return s.opened[len(s.opened)-1].Children
}

// Breadcrumb lists the opened group names from the root down.
func (s *Stack) Breadcrumb() []string {
	crumbs := make([]string, len(s.opened))
	for i, g := range s.opened {
		crumbs[i] = g.Name
	}
	return crumbs
}

// Depth is the number of opened groups.
func (s *Stack) Depth() int { return len(s.opened) }

// Reset returns to the root.
func (s *Stack) Reset() {
	s.opened = s.opened[:0]
}
