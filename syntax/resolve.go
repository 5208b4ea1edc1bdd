package syntax

// finish numbers the capturing groups, builds the Pattern and resolves every
// backreference, call and conditional.
func (p *parser) finish(root *Node) (*Pattern, error) {
	named := false
	for _, g := range p.groups {
		if g.Name != "" {
			named = true
			break
		}
	}
	// Onigmo: once a pattern has named groups, plain parentheses no longer
	// capture and the named groups are numbered among themselves.
	if named {
		n := 0
		for _, g := range p.groups {
			if g.Name == "" {
				g.Group, g.Index = GroupNonCapture, 0
				continue
			}
			n++
			g.Index = n
		}
	}

	pat := &Pattern{
		Source: p.src,
		Flags:  p.flags,
		Root:   root,
		Groups: []*Node{nil},
		Names:  make(map[string][]int),
	}
	for _, g := range p.groups {
		if g.Group != GroupCapture {
			continue
		}
		pat.Groups = append(pat.Groups, g)
		if g.Name != "" {
			pat.Names[g.Name] = append(pat.Names[g.Name], g.Index)
		}
	}

	for _, r := range p.refs {
		if err := p.resolve(pat, r, named); err != nil {
			return nil, err
		}
	}
	return pat, nil
}

// resolve sets Ref.Index for one reference. Backreferences and conditionals
// see only groups opened before them; calls may refer forward.
func (p *parser) resolve(pat *Pattern, pr pendingRef, named bool) error {
	ref := pr.node.Ref
	pos := pr.node.Pos
	before := p.groups[:pr.opened]
	captured := 0
	for _, g := range before {
		if g.Group == GroupCapture {
			captured++
		}
	}

	switch {
	case ref.Name != "":
		idx := pat.Names[ref.Name]
		if len(idx) == 0 {
			return p.error(ErrUndefinedName, pos)
		}
		if pr.kind == refCall {
			if len(idx) > 1 {
				return p.error(ErrMultiplexCall, pos)
			}
			ref.Index = idx[0]
			return nil
		}
		ref.Index = 0
		for _, g := range before {
			if g.Group == GroupCapture && g.Name == ref.Name {
				ref.Index = g.Index
			}
		}
		if ref.Index == 0 {
			return p.error(ErrUndefinedName, pos)
		}

	case ref.relative:
		if named {
			return p.error(ErrNumberedRefWithNames, pos)
		}
		idx := captured + ref.num + 1
		if ref.num > 0 {
			idx = captured + ref.num
		}
		if idx < 1 || idx > pat.NumGroups() || pr.kind != refCall && idx > captured {
			return p.error(ErrUndefinedGroup, pos)
		}
		ref.Index = idx

	default:
		if pr.kind == refCall && ref.num == 0 {
			ref.Index = 0
			return nil
		}
		if named {
			return p.error(ErrNumberedRefWithNames, pos)
		}
		limit := captured
		if pr.kind == refCall {
			limit = pat.NumGroups()
		}
		if ref.num < 1 || ref.num > limit {
			return p.error(ErrUndefinedGroup, pos)
		}
		ref.Index = ref.num
	}
	return nil
}
