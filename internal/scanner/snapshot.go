package scanner

// Snapshot is the machine-readable index contract: a tree-shaped record
// mirroring Area→Category→ID that external tooling consumes instead of
// re-scanning the filesystem.
type Snapshot struct {
	Root        string         `json:"root"`
	Areas       []AreaNode     `json:"areas"`
	Orphans     []string       `json:"orphans,omitempty"`
	Unreachable []string       `json:"broken_symlinks,omitempty"`
}

// AreaNode is one area in a snapshot.
type AreaNode struct {
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Categories []CategoryNode `json:"categories"`
	Orphans    []string       `json:"orphans,omitempty"`
}

// CategoryNode is one category in a snapshot.
type CategoryNode struct {
	Number  int      `json:"number"`
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	IDs     []IDNode `json:"ids"`
	Orphans []string `json:"orphans,omitempty"`
}

// IDNode is one ID in a snapshot.
type IDNode struct {
	Ref        string `json:"id"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	IsFile     bool   `json:"is_file,omitempty"`
	IsSymlink  bool   `json:"is_symlink,omitempty"`
	Mismatched bool   `json:"mismatched,omitempty"`
}

// Snapshot serializes the index into its machine-readable form.
func (s *System) Snapshot() *Snapshot {
	snap := &Snapshot{Root: s.Root}
	for _, o := range s.Orphans {
		snap.Orphans = append(snap.Orphans, o.Path)
	}
	for _, u := range s.Unreachable {
		snap.Unreachable = append(snap.Unreachable, u.Path)
	}
	for _, area := range s.Areas {
		node := AreaNode{
			Start: area.Area.Start,
			End:   area.Area.End,
			Name:  area.Area.Name,
			Path:  area.Path,
		}
		for _, o := range area.Orphans {
			node.Orphans = append(node.Orphans, o.Path)
		}
		for _, cat := range area.Categories {
			catNode := CategoryNode{
				Number: cat.Category.Number,
				Name:   cat.Category.Name,
				Path:   cat.Path,
			}
			for _, o := range cat.Orphans {
				catNode.Orphans = append(catNode.Orphans, o.Path)
			}
			for _, id := range cat.IDs {
				catNode.IDs = append(catNode.IDs, IDNode{
					Ref:        id.ID.Ref(),
					Name:       id.ID.Name,
					Path:       id.Path,
					IsFile:     id.IsFile,
					IsSymlink:  id.IsSymlink,
					Mismatched: id.Mismatched(cat),
				})
			}
			node.Categories = append(node.Categories, catNode)
		}
		snap.Areas = append(snap.Areas, node)
	}
	return snap
}
