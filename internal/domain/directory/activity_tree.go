package directory

// childrenIndex groups activities by parent ID (0 for roots) preserving input order.
func childrenIndex(activities []Activity) map[int64][]Activity {
	index := make(map[int64][]Activity, len(activities))
	for _, a := range activities {
		index[a.ParentKey()] = append(index[a.ParentKey()], a)
	}
	return index
}

// BuildTree arranges a flat activity list into a forest of root activities.
// Roots are level 1 and nodes deeper than maxLevel are cut off. The tree is
// built in a single pass over the list.
func BuildTree(activities []Activity, maxLevel int) []*Activity {
	index := childrenIndex(activities)
	return buildNodes(index, 0, 1, maxLevel)
}

// Subtree returns the activity with the given ID and its descendants nested
// up to depth levels below it, or nil when the ID is unknown.
func Subtree(activities []Activity, id int64, depth int) *Activity {
	for _, a := range activities {
		if a.ID != id {
			continue
		}
		node := a
		node.Children = buildNodes(childrenIndex(activities), id, 1, depth)
		return &node
	}
	return nil
}

// DescendantIDs returns the ID of the activity and of every descendant down to
// maxLevel levels, where the activity itself is level 1.
func DescendantIDs(activities []Activity, id int64, maxLevel int) []int64 {
	if maxLevel < 1 {
		return nil
	}
	index := childrenIndex(activities)
	ids := []int64{id}
	frontier := []int64{id}
	seen := map[int64]struct{}{id: {}}
	for level := 2; level <= maxLevel && len(frontier) > 0; level++ {
		var next []int64
		for _, parent := range frontier {
			for _, child := range index[parent] {
				if _, ok := seen[child.ID]; ok {
					continue
				}
				seen[child.ID] = struct{}{}
				ids = append(ids, child.ID)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}
	return ids
}

// IsDescendant reports whether candidate sits somewhere below ancestor.
func IsDescendant(activities []Activity, ancestor, candidate int64) bool {
	parents := make(map[int64]int64, len(activities))
	for _, a := range activities {
		parents[a.ID] = a.ParentKey()
	}
	seen := make(map[int64]struct{})
	for cur := parents[candidate]; cur != 0; cur = parents[cur] {
		if cur == ancestor {
			return true
		}
		if _, loop := seen[cur]; loop {
			return false
		}
		seen[cur] = struct{}{}
	}
	return false
}

func buildNodes(index map[int64][]Activity, parentID int64, level, maxLevel int) []*Activity {
	if level > maxLevel {
		return []*Activity{}
	}
	children := index[parentID]
	nodes := make([]*Activity, 0, len(children))
	for _, a := range children {
		node := a
		node.Children = buildNodes(index, a.ID, level+1, maxLevel)
		nodes = append(nodes, &node)
	}
	return nodes
}
