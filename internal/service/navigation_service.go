package service

import (
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/navigation"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
)

// QuickMenu is one level of the quick navigation menu.
type QuickMenu struct {
	Breadcrumb []string          `json:"breadcrumb"`
	Items      []navigation.Node `json:"items"`
}

// NavigationService serves the sidebar tree filtered per caller.
type NavigationService struct {
	tree   []navigation.Node
	logger *zap.Logger
}

// NewNavigationService loads the tree from file, or the embedded default when file is empty.
func NewNavigationService(file string, logger *zap.Logger) (*NavigationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		tree []navigation.Node
		err  error
	)
	if file != "" {
		tree, err = navigation.LoadFile(file)
	} else {
		tree, err = navigation.Default()
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("navigation tree loaded", zap.String("file", file), zap.Int("top_level", len(tree)))
	return &NavigationService{tree: tree, logger: logger}, nil
}

// Tree returns the nodes the permissions allow.
func (s *NavigationService) Tree(perms []models.Permission) []navigation.Node {
	nodes := navigation.Filter(s.tree, perms)
	if nodes == nil {
		nodes = []navigation.Node{}
	}
	return nodes
}

// Quick walks the filtered tree down path, for example "Finance/Billing".
func (s *NavigationService) Quick(perms []models.Permission, path string) (*QuickMenu, error) {
	stack := navigation.NewStack(s.Tree(perms))
	if err := stack.Walk(path); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "navigation path not found")
	}
	items := stack.Current()
	if items == nil {
		items = []navigation.Node{}
	}
	return &QuickMenu{Breadcrumb: stack.Breadcrumb(), Items: items}, nil
}
