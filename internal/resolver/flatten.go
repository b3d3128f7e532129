package resolver

import "etsy/lister/internal/domain"

// MaxFlatCategories caps the whole flattened taxonomy, not each level
const MaxFlatCategories = 50

// Flatten turns a taxonomy tree into a pre-order list of "Parent > Child" paths,
// keeping at most MaxFlatCategories entries.
func Flatten(nodes []domain.CategoryNode) []domain.FlatCategory {
	return FlattenWithPrefix(nodes, "", MaxFlatCategories)
}

// FlattenWithPrefix flattens nodes below pathPrefix. The result is the first limit entries
// of the depth-first pre-order walk; limit <= 0 disables the cap.
// Sibling order is kept and duplicate paths are not merged.
func FlattenWithPrefix(nodes []domain.CategoryNode, pathPrefix string, limit int) []domain.FlatCategory {
	result := make([]domain.FlatCategory, 0, capacityHint(len(nodes), limit))
	if len(nodes) == 0 {
		return result
	}

	type pending struct {
		node   *domain.CategoryNode
		prefix string
	}

	// Children are pushed in reverse so the next sibling in input order is popped first
	stack := make([]pending, 0, len(nodes))
	push := func(children []domain.CategoryNode, prefix string) {
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: &children[i], prefix: prefix})
		}
	}
	push(nodes, pathPrefix)

	for len(stack) > 0 {
		if limit > 0 && len(result) >= limit {
			break
		}

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := top.node.Name
		if top.prefix != "" {
			path = top.prefix + domain.CategoryPathSeparator + top.node.Name
		}

		result = append(result, domain.FlatCategory{ID: top.node.ID, Name: path})
		push(top.node.Children, path)
	}

	return result
}

func capacityHint(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
