package navigation

// Filter keeps leaves the caller may open and groups that still have content.
// A leaf without a permission is visible to everyone.
func Filter(nodes []Node, perms []string) []Node {
	allowed := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		allowed[p] = struct{}{}
	}
	return filter(nodes, allowed)
}

func filter(nodes []Node, allowed map[string]struct{}) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case Leaf:
			if v.Permission == "" {
				out = append(out, v)
				continue
			}
			if _, ok := allowed[v.Permission]; ok {
				out = append(out, v)
			}
		case Group:
			children := filter(v.Children, allowed)
			if len(children) > 0 {
				v.Children = children
				out = append(out, v)
			}
		}
	}
	return out
}
