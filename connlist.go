package irsim

// linkToList appends n to list unless it has already been visited.
func (s *Session) linkToList(n NodeID, list []NodeID) []NodeID {
	nd := &s.nodes[n]
	if nd.flags&Visited == 0 {
		nd.flags |= Visited
		list = append(list, n)
	}
	return list
}

// connectTransistors resolves the terminals of all transistors read so far
// and links them to their nodes. Transistors whose terminals are shorted or
// both on a power rail are set aside as capacitors. It returns the nodes
// whose terminal lists changed.
func (s *Session) connectTransistors() []NodeID {
	var list []NodeID
	for i := range s.trans {
		t := &s.trans[i]
		t.gate = s.canonical(t.gate)
		t.source = s.canonical(t.source)
		t.drain = s.canonical(t.drain)
		if t.typ&AlwaysOn != 0 {
			t.state = Weak
		} else {
			t.state = Unknown
		}
		t.tflags = 0

		s.numTrans[t.typ.BaseType()]++
		src, drn := &s.nodes[t.source], &s.nodes[t.drain]
		if t.source == t.drain || src.flags&drn.flags&PowerRail != 0 {
			t.typ |= TCap
			s.numShorted++
			continue
		}
		// always on devices do not depend on their gate
		if t.typ&AlwaysOn == 0 {
			g := &s.nodes[t.gate]
			g.gates = append(g.gates, t.id)
		}
		if src.flags&PowerRail == 0 {
			src.terms = append(src.terms, t.id)
			list = s.linkToList(t.source, list)
		}
		if drn.flags&PowerRail == 0 {
			drn.terms = append(drn.terms, t.id)
			list = s.linkToList(t.drain, list)
		}
	}
	return list
}

// makeParallel merges transistors with the same gate, source and drain
// into compound transistors.
func (s *Session) makeParallel(list []NodeID) {
	for _, nid := range list {
		n := &s.nodes[nid]
		for l1 := 0; l1 < len(n.terms); l1++ {
			t1 := n.terms[l1]
			typ := s.trans[t1].typ
			if typ&(GateList|Ored) != 0 {
				continue
			}
			for l2 := l1 + 1; l2 < len(n.terms); l2++ {
				t2 := n.terms[l2]
				if tr1, tr2 := &s.trans[t1], &s.trans[t2]; tr1.gate != tr2.gate || !tr1.sameTerms(tr2) || typ != tr2.typ&^Ored {
					continue
				}
				if s.trans[t1].typ&Ored == 0 {
					t1 = s.newCompound(t1)
					s.numOred[typ.BaseType()]++
				}
				tr1, tr2 := &s.trans[t1], &s.trans[t2]
				r1, r2 := tr1.r, tr2.r
				tr1.r = &Resists{
					Static:  combine(r1.Static, r2.Static),
					DynHigh: combine(r1.DynHigh, r2.DynHigh),
					DynLow:  combine(r1.DynLow, r2.DynLow),
				}

				g := &s.nodes[tr2.gate]
				g.gates = removeTrans(g.gates, t2)
				if tr2.source == nid {
					d := &s.nodes[tr2.drain]
					d.terms = removeTrans(d.terms, t2)
				} else {
					src := &s.nodes[tr2.source]
					src.terms = removeTrans(src.terms, t2)
				}
				n.terms = removeTrans(n.terms, t2)
				l2--

				if tr2.typ&Ored != 0 {
					// move the members of t2 to t1
					m := tr2.link
					for {
						mt := &s.trans[m]
						mt.owner = t1
						if mt.link == nilTrans {
							mt.link = tr1.link
							break
						}
						m = mt.link
					}
					tr1.link = tr2.link
					tr2.link = nilTrans
					tr2.typ |= OrList
					tr2.owner = t1
				} else {
					tr2.typ |= OrList
					tr2.owner = t1
					tr2.link = tr1.link
					tr1.link = t2
					s.numOred[typ.BaseType()]++
				}
			}
		}
		n.flags &^= Visited
	}
}

// newCompound replaces t in the network with a new compound transistor
// having t as its first member.
func (s *Session) newCompound(t TransID) TransID {
	id := TransID(len(s.trans))
	old := s.trans[t]
	r := *old.r
	s.trans = append(s.trans, Trans{
		s:       s,
		id:      id,
		gate:    old.gate,
		source:  old.source,
		drain:   old.drain,
		typ:     (old.typ &^ OrList) | Ored,
		state:   old.state,
		tflags:  old.tflags,
		length:  old.length,
		width:   old.width,
		x:       old.x,
		y:       old.y,
		r:       &r,
		link:    t,
		owner:   nilTrans,
		sI:      emptyIval,
		dI:      emptyIval,
		parLink: nilTrans,
	})
	replaceTrans(s.nodes[old.gate].gates, t, id)
	replaceTrans(s.nodes[old.source].terms, t, id)
	replaceTrans(s.nodes[old.drain].terms, t, id)
	ot := &s.trans[t]
	ot.typ |= OrList
	ot.owner = id
	ot.link = nilTrans
	return id
}

// buildConnList links the nodes electrically connected to n through
// transistors that are not off, starting with n. The transistor caches are
// reset. In the RC model loops are broken and parallel transistors are
// grouped.
func (s *Session) buildConnList(n NodeID) {
	nPar := 0
	seed := &s.nodes[n]
	seed.flags &^= Visited
	s.withDriven = false

	next := n
	seed.nlink = n
	this := n
	for {
		for _, tid := range s.nodes[this].terms {
			t := &s.trans[tid]
			if t.state == Off {
				continue
			}
			if t.tflags&crossed != 0 {
				t.tflags &^= crossed
				continue
			}
			t.sThev, t.dThev = nil, nil
			t.sI, t.dI = emptyIval, emptyIval
			t.parLink = nilTrans

			oid := t.other(this)
			other := &s.nodes[oid]
			if other.flags&Input != 0 {
				s.withDriven = true
				continue
			}
			t.tflags |= crossed

			switch {
			case other.nlink == nilNode:
				other.flags &^= Visited
				other.nlink = n
				s.nodes[next].nlink = oid
				next = oid
				other.trans = tid
			case s.cfg.Model != RC:
			case s.trans[other.trans].sameTerms(t):
				tran := &s.trans[other.trans]
				if tran.tflags&parallel != 0 {
					t.parLink = s.parallel[tran.nPar]
				} else {
					if nPar >= MaxParallel {
						if !s.parallelWarned {
							s.log.Warn("too many transistors in parallel, simulation results may be inaccurate",
								"max", MaxParallel, "node", s.nodes[this].name, "other", other.name)
							s.parallelWarned = true
						}
						t.tflags |= pbroken
						continue
					}
					tran.nPar = int8(nPar)
					nPar++
					tran.tflags |= parallel
				}
				s.parallel[tran.nPar] = tid
				t.tflags |= pbroken
			default:
				// loop
				t.tflags |= broken
			}
		}
		this = s.nodes[this].nlink
		if this == n {
			break
		}
	}
	s.nodes[next].nlink = nilNode
}

// undoConnList clears the stage list starting at n along with the per stage
// transistor state.
func (s *Session) undoConnList(n NodeID) {
	for id := n; id != nilNode; {
		nd := &s.nodes[id]
		next := nd.nlink
		nd.nlink = nilNode
		nd.thev = nil
		for _, tid := range nd.terms {
			t := &s.trans[tid]
			t.sThev, t.dThev = nil, nil
			if t.state != Off {
				t.tflags &^= crossed | broken | pbroken | parallel
			}
		}
		id = next
	}
}
