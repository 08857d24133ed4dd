package navigation

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed navigation.yaml
var defaultTree []byte

// ErrInvalidTree wraps every structural problem found while loading.
var ErrInvalidTree = errors.New("invalid navigation tree")

type rawNode struct {
	Name       string    `yaml:"name"`
	Href       string    `yaml:"href"`
	Icon       string    `yaml:"icon"`
	Permission string    `yaml:"permission"`
	Children   []rawNode `yaml:"children"`
}

// Default returns the embedded tree.
func Default() ([]Node, error) {
	return Parse(defaultTree)
}

// LoadFile reads a tree from path, or the embedded tree when path is empty.
func LoadFile(path string) ([]Node, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open navigation file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML tree from r.
func Load(r io.Reader) ([]Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read navigation: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and resolves it into leaves and groups.
func Parse(data []byte) ([]Node, error) {
	var raw []rawNode
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	return resolve(raw, nil)
}

func resolve(raw []rawNode, parents []string) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		path := strings.Join(append(append([]string{}, parents...), r.Name), "/")
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: %s: name is required", ErrInvalidTree, path)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate sibling name", ErrInvalidTree, path)
		}
		seen[name] = struct{}{}

		hasHref, hasChildren := r.Href != "", len(r.Children) > 0
		switch {
		case hasHref && hasChildren:
			return nil, fmt.Errorf("%w: %s: node has both href and children", ErrInvalidTree, path)
		case !hasHref && !hasChildren:
			return nil, fmt.Errorf("%w: %s: node needs href or children", ErrInvalidTree, path)
		case hasHref:
			nodes = append(nodes, Leaf{Name: name, Href: r.Href, Icon: r.Icon, Permission: r.Permission})
		default:
			if r.Permission != "" {
				return nil, fmt.Errorf("%w: %s: groups cannot carry a permission", ErrInvalidTree, path)
			}
			children, err := resolve(r.Children, append(parents, name))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, Group{Name: name, Icon: r.Icon, Children: children})
		}
	}
	return nodes, nil
}
