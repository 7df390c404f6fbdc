package irsim

// ival is a node value interval in the strength lattice. Strength points are
// numbered 0 (driven high) to 8 (driven low), with 4 meaning floating. The
// zero value is the empty interval.
type ival uint8

// strength points
const (
	pDH = iota // driven high
	pWH        // weak high
	pCH        // charged high
	pcH        // charged high, no gates
	pZ         // floating
	pcL
	pCL
	pWL
	pDL
	nPoints
)

const (
	emptyIval ival = 0
	nIvals         = 1 + nPoints*(nPoints+1)/2
)

var (
	ivalBounds [nIvals][2]uint8
	ivalIndex  [nPoints][nPoints]ival
	mergeTab   [nIvals][nIvals]ival
	transmit   [nIvals][4]ival
	logicTab   [nIvals]Potential

	chargedState  [NPots]ival
	xchargedState [NPots]ival
	thevValue     [NPots]ival
)

func mkIval(lo, hi int) ival { return ivalIndex[lo][hi] }

func strength(p int) int {
	if p < pZ {
		return pZ - p
	}
	return p - pZ
}

// mergePoints returns the bounds of the value of two shorted points: the
// strongest one wins, opposite values of equal strength span the
// interval between them.
func mergePoints(a, b int) (int, int) {
	sa, sb := strength(a), strength(b)
	switch {
	case sa > sb || a == b:
		return a, a
	case sb > sa:
		return b, b
	case a < b:
		return a, b
	}
	return b, a
}

func init() {
	k := ival(1)
	for lo := 0; lo < nPoints; lo++ {
		for hi := lo; hi < nPoints; hi++ {
			ivalIndex[lo][hi] = k
			ivalBounds[k] = [2]uint8{uint8(lo), uint8(hi)}
			k++
		}
	}
	for i := ival(1); i < nIvals; i++ {
		lo1, hi1 := int(ivalBounds[i][0]), int(ivalBounds[i][1])
		for j := ival(1); j < nIvals; j++ {
			lo2, hi2 := int(ivalBounds[j][0]), int(ivalBounds[j][1])
			l, h := nPoints, -1
			for p := lo1; p <= hi1; p++ {
				for q := lo2; q <= hi2; q++ {
					a, b := mergePoints(p, q)
					if a < l {
						l = a
					}
					if b > h {
						h = b
					}
				}
			}
			mergeTab[i][j] = mkIval(l, h)
		}

		switch {
		case hi1 < pZ:
			logicTab[i] = High
		case lo1 > pZ:
			logicTab[i] = Low
		default:
			logicTab[i] = X
		}

		transmit[i][Off] = mkIval(pZ, pZ)
		transmit[i][On] = i
		ulo, uhi := lo1, hi1
		if ulo > pZ {
			ulo = pZ
		}
		if uhi < pZ {
			uhi = pZ
		}
		transmit[i][Unknown] = mkIval(ulo, uhi)
		wlo, whi := lo1, hi1
		if wlo == pDH {
			wlo = pWH
		}
		if whi == pDL {
			whi = pWL
		}
		if wlo == pDL {
			wlo = pWL
		}
		if whi == pDH {
			whi = pWH
		}
		transmit[i][Weak] = mkIval(wlo, whi)
	}

	chargedState = [NPots]ival{mkIval(pCL, pCL), mkIval(pCH, pCL), mkIval(pCH, pCL), mkIval(pCH, pCH)}
	xchargedState = [NPots]ival{mkIval(pcL, pcL), mkIval(pcH, pcL), mkIval(pcH, pcL), mkIval(pcH, pcH)}
	thevValue = [NPots]ival{mkIval(pDL, pDL), mkIval(pDH, pDL), mkIval(pDH, pDL), mkIval(pDH, pDH)}
}

// linearModel is the switch level model with unit or user delays.
type linearModel struct {
	s *Session
}

func (m *linearModel) Kind() ModelKind { return Linear }

func (m *linearModel) ComputeTransState(t *Trans) TransState { return transState(t) }

func (m *linearModel) Evaluate(n *Node) {
	s := m.s
	if n.flags&Visited != 0 {
		s.buildConnList(n.id)
	}
	for id := n.id; id != nilNode; id = s.nodes[id].nlink {
		nd := &s.nodes[id]
		if nd.flags&Input != 0 {
			continue
		}
		val := logicTab[m.thev(id)]
		var delay Time
		switch {
		case val == X:
		case nd.flags&UserDelay != 0:
			if val == Low {
				delay = nd.tphl
			} else {
				delay = nd.tplh
			}
		default:
			delay = s.cfg.UnitDelay
		}
		s.queueFinal(nd, val, delay, delay)
	}
	s.undoConnList(n.id)
}

// thev returns the value interval of node n, merging the contributions of
// every path leading away from it.
func (m *linearModel) thev(n NodeID) ival {
	s := m.s
	nd := &s.nodes[n]
	if nd.flags&Input != 0 {
		return thevValue[nd.pot]
	}
	nd.flags |= Visited
	var r ival
	if len(nd.gates) == 0 {
		r = xchargedState[nd.pot]
	} else {
		r = chargedState[nd.pot]
	}
	for _, tid := range nd.terms {
		t := &s.trans[tid]
		if t.state == Off {
			continue
		}
		if t.source == n {
			if s.nodes[t.drain].flags&Visited == 0 {
				if t.dI == emptyIval {
					t.dI = transmit[m.thev(t.drain)][t.state]
				}
				r = mergeTab[r][t.dI]
			}
		} else if s.nodes[t.source].flags&Visited == 0 {
			if t.sI == emptyIval {
				t.sI = transmit[m.thev(t.source)][t.state]
			}
			r = mergeTab[r][t.sI]
		}
	}
	s.nodes[n].flags &^= Visited
	return r
}
