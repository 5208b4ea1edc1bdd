package syntax

// Pattern is the parsed form of one regexp literal. It is immutable once
// returned by Parse.
type Pattern struct {
	Source string
	Flags  Flags
	Root   *Node

	// Groups is the arena of capturing groups indexed by group number.
	// Groups[0] is nil and stands for the whole pattern.
	Groups []*Node

	// Names maps a group name to its group numbers. Onigmo allows several
	// groups to share a name.
	Names map[string][]int
}

// NumGroups returns the number of capturing groups.
func (p *Pattern) NumGroups() int {
	return len(p.Groups) - 1
}

// GroupBody returns the sub-pattern executed by a call to group i.
// Group 0 is the whole pattern.
func (p *Pattern) GroupBody(i int) *Node {
	if i == 0 {
		return p.Root
	}
	if i < 0 || i >= len(p.Groups) {
		return nil
	}
	return p.Groups[i]
}

// GroupName returns the name of group i, or "" for unnamed groups.
func (p *Pattern) GroupName(i int) string {
	if i <= 0 || i >= len(p.Groups) {
		return ""
	}
	return p.Groups[i].Name
}
