package irsim

import "math"

type thevFlags uint8

const (
	tDefinite  thevFlags = 1 << iota // definite rooted path
	tUDelay                          // user delay found
	tSpike                           // charge sharing spike possible
	tDriven                          // branch driven by an input
	tRefNode                         // reference node in pure charge sharing
	tXTran                           // path through an X transistor
	tInt                             // consider input slope
	tDomDriven                       // branch driven to the dominant value
)

type rng struct{ min, max float64 }

// thev is the Thevenin equivalent of a branch of a stage as seen from a node.
type thev struct {
	link  NodeID // next node driven to the same dominant value
	flags thevFlags

	cLow, cHigh rng
	rUp, rDown  rng
	req         rng
	v           rng

	rMin, rDom, rMax float64
	cA, cD           float64
	tauD, tauA, tauP float64
	tIn              float64
	tplh, tphl       Time

	final             Potential
	tauDone, taupDone Potential
}

const (
	rLow  = 0
	rHigh = 1
)

var (
	initThev = thev{
		link:     nilNode,
		rUp:      rng{large, large},
		rDown:    rng{large, large},
		req:      rng{large, large},
		v:        rng{1, 0},
		rMin:     large,
		rDom:     large,
		rMax:     large,
		tIn:      small,
		final:    X,
		tauDone:  NPots,
		taupDone: NPots,
	}
	inputThev [NPots]thev
)

func init() {
	base := initThev
	base.flags = tDefinite | tDriven
	base.rMin = small

	lo := base
	lo.rDown = rng{small, small}
	lo.v = rng{0, 0}
	lo.final = Low

	hi := base
	hi.rUp = rng{small, small}
	hi.v = rng{1, 1}
	hi.final = High

	x := base
	x.rUp = rng{small, large}
	x.rDown = rng{small, large}

	inputThev = [NPots]thev{lo, x, x, hi}
}

type dominant struct {
	nd    NodeID
	spike bool
}

type spikeRec struct {
	chDelay float64
	drDelay float64
	peak    float64
	charge  Potential
}

// rcModel computes node values from resistance ranges and schedules them with
// RC delays. It handles charge sharing and spikes.
type rcModel struct {
	s   *Session
	dom [NPots]dominant
}

func newRCModel(s *Session) *rcModel { return &rcModel{s: s} }

func (m *rcModel) Kind() ModelKind { return RC }

func (m *rcModel) ComputeTransState(t *Trans) TransState { return transState(t) }

func (m *rcModel) Evaluate(n *Node) {
	s := m.s
	for i := range m.dom {
		m.dom[i] = dominant{nd: nilNode}
	}
	if n.flags&Visited != 0 {
		s.buildConnList(n.id)
	}
	switch {
	case !m.computeDC(n.id):
		m.cleanEvents(n.id)
	case s.withDriven:
		m.scheduleDriven()
	default:
		m.schedulePureCS(n.id)
	}
	if s.cfg.Decay != 0 && !s.withDriven {
		m.enqueueDecay(n.id)
	}
	s.undoConnList(n.id)
}

func (m *rcModel) cleanEvents(n NodeID) {
	s := m.s
	for id := n; id != nilNode; id = s.nodes[id].nlink {
		nd := &s.nodes[id]
		for nd.events != nil {
			s.puntEvent(nd, nd.events)
		}
	}
}

func (m *rcModel) enqueueDecay(n NodeID) {
	s := m.s
	for id := n; id != nilNode; id = s.nodes[id].nlink {
		nd := &s.nodes[id]
		last := nd.pot
		if nd.events != nil {
			last = nd.events.val
		}
		if last != X {
			s.enqueue(id, Decay, s.cfg.Decay, s.cfg.Decay, evDecay)
		}
	}
}

// queueFinal schedules the final value of nd, tau and delay are in ps.
func (m *rcModel) queueFinal(nd *Node, val Potential, tau, delay float64) {
	m.s.queueFinal(nd, val, PSToDelta(tau), PSToDelta(delay))
}

func (m *rcModel) queueSpike(nd *Node, spk *spikeRec) {
	s := m.s
	for nd.events != nil {
		s.puntEvent(nd, nd.events)
	}
	if spk == nil {
		return
	}
	ch := PSToDelta(spk.chDelay)
	dr := PSToDelta(spk.drDelay)
	if ch == 0 {
		ch = 1
	}
	if dr == 0 {
		dr = 1
	}
	if dr <= ch {
		return
	}
	s.enqueue(nd.id, spk.charge, ch, ch, evNormal)
	s.enqueue(nd.id, nd.pot, dr, ch, evNormal)
}

func (m *rcModel) scheduleDriven() {
	s := m.s
	for dom := Potential(0); dom < NPots; dom++ {
		for id := m.dom[dom].nd; id != nilNode; {
			nd := &s.nodes[id]
			r := m.getTau(id, nilTrans, dom)
			id = r.link

			r.tauA = r.rDom * r.cA
			r.tauD = r.rDom * r.cD
			if r.flags&tSpike != 0 {
				continue
			}
			var tau, delay float64
			switch {
			case nd.pot == r.final:
				for nd.events != nil {
					s.puntEvent(nd, nd.events)
				}
				continue
			case s.cfg.UnitDelay != 0:
				delay = DeltaToPS(s.cfg.UnitDelay)
			case r.flags&tUDelay != 0:
				switch r.final {
				case Low:
					tau = DeltaToPS(r.tphl)
				case High:
					tau = DeltaToPS(r.tplh)
				case X:
					tau = DeltaToPS(minTime(r.tphl, r.tplh))
				}
				delay = tau
			default:
				switch {
				case r.final == X:
					tau = r.rMin * r.cA
				case r.flags&tDefinite != 0:
					tau = r.rMax * r.cA
				default:
					tau = r.rDom * r.cA
				}
				if r.flags&tInt != 0 && r.tIn > 0.5 {
					delay = math.Sqrt(tau*tau + DeltaToPS(Time(r.tIn))*r.cA)
				} else {
					delay = tau
				}
			}
			m.queueFinal(nd, r.final, tau, delay)
		}

		if !m.dom[dom].spike {
			continue
		}
		for id := m.dom[dom].nd; id != nilNode; id = s.nodes[id].thev.link {
			nd := &s.nodes[id]
			r := nd.thev
			if r.flags&tSpike == 0 {
				continue
			}
			r.tauP = m.getTauP(id, nilTrans, dom)
			r.tauP *= r.rDom / r.tauA
			m.queueSpike(nd, m.computeSpike(nd, r, dom))
		}
	}
}

func (m *rcModel) schedulePureCS(nlist NodeID) {
	s := m.s
	r := s.nodes[nlist].thev
	dom := r.final
	r.flags |= tRefNode

	taup := 0.0
	for id := nlist; id != nilNode; id = s.nodes[id].nlink {
		r = m.getTau(id, nilTrans, dom)
		r.tauD = r.rDom * r.cA
		switch dom {
		case Low:
			r.tauA = r.rDom * (r.cA - r.cD*r.v.max)
		case High:
			r.tauA = r.rDom * (r.cD*(1-r.v.min) - r.cA)
		case X:
			r.tauA = r.rDom * (r.cA - r.cD*0.5)
		}
		taup += r.tauA * s.nodes[id].cap
	}

	r = s.nodes[nlist].thev
	taup /= r.cLow.min + r.cHigh.max

	for id := nlist; id != nilNode; id = s.nodes[id].nlink {
		nd := &s.nodes[id]
		r = nd.thev
		var tau, delay float64
		if r.final != nd.pot {
			switch r.final {
			case Low:
				tau = (r.tauA - taup) / (1 - r.v.max)
			case High:
				tau = (taup - r.tauA) / r.v.min
			case X:
				tau = (r.tauA - taup) * 2
			}
			if tau < 0 {
				tau = 0
			}
			if s.cfg.UnitDelay != 0 {
				delay, tau = DeltaToPS(s.cfg.UnitDelay), 0
			} else {
				delay = tau
			}
		}
		m.queueFinal(nd, r.final, tau, delay)
	}
}

// computeDC computes the final value of every node in the stage and adds
// driven nodes to the list of their dominant value. It reports whether any
// node changes.
func (m *rcModel) computeDC(nlist NodeID) bool {
	s := m.s
	anyChange := false
	for id := nlist; id != nilNode; id = s.nodes[id].nlink {
		r := m.getDCVal(id, nilTrans)
		nd := &s.nodes[id]
		nd.thev = r

		if s.withDriven {
			if r.rDown.min >= limit {
				r.v.min = 1
			} else {
				r.v.min = r.rDown.min / (r.rDown.min + r.rUp.max)
			}
			if r.rUp.min >= limit {
				r.v.max = 0
			} else {
				r.v.max = r.rDown.max / (r.rDown.max + r.rUp.min)
			}
		} else {
			r.v.min = r.cHigh.min / (r.cHigh.min + r.cLow.max)
			r.v.max = r.cHigh.max / (r.cHigh.max + r.cLow.min)
		}

		switch {
		case r.v.min >= nd.vhigh:
			r.final = High
		case r.v.max <= nd.vlow:
			r.final = Low
		default:
			r.final = X
		}

		if s.withDriven {
			// an indefinite driven value must match the charge sharing value
			if r.final != X && r.flags&tDefinite == 0 {
				cs := X
				if r.cHigh.min >= nd.vhigh*(r.cHigh.min+r.cLow.max) {
					cs = High
				} else if r.cHigh.max <= nd.vlow*(r.cHigh.max+r.cLow.min) {
					cs = Low
				}
				if cs != r.final {
					r.final = X
				}
			}
			r.link = m.dom[r.final].nd
			m.dom[r.final].nd = id

			if r.final == nd.pot && (r.final == Low && r.cHigh.min > small || r.final == High && r.cLow.min > small) {
				r.flags |= tSpike
				m.dom[r.final].spike = true
				anyChange = true
			}
		}
		if r.final != nd.pot {
			anyChange = true
		}
	}
	return anyChange
}

// getDCVal computes the charge and resistance ranges of the tree rooted at n,
// reached through tran.
func (m *rcModel) getDCVal(n NodeID, tran TransID) *thev {
	s := m.s
	nd := &s.nodes[n]
	if nd.flags&Input != 0 {
		r := inputThev[nd.pot]
		return &r
	}
	r := initThev
	switch nd.pot {
	case Low:
		r.cLow = rng{nd.cap, nd.cap}
	case X:
		r.cLow.max, r.cHigh.max = nd.cap, nd.cap
	case High:
		r.cHigh = rng{nd.cap, nd.cap}
	}
	for _, tid := range nd.terms {
		t := &s.trans[tid]
		if tid == tran || t.state == Off || t.tflags&(broken|pbroken) != 0 {
			continue
		}
		var cache *thev
		if n == t.source {
			if cache = t.dThev; cache == nil {
				cache = m.seriesOp(m.getDCVal(t.drain, tid), t)
				t.dThev = cache
			}
		} else {
			if cache = t.sThev; cache == nil {
				cache = m.seriesOp(m.getDCVal(t.source, tid), t)
				t.sThev = cache
			}
		}
		m.parallelOp(&r, cache)
	}
	if nd.flags&UserDelay != 0 {
		r.tplh, r.tphl = nd.tplh, nd.tphl
		r.flags |= tUDelay
	}
	return &r
}

func dynRes(r *Resists, typ int) float64 {
	if typ == rLow {
		return r.DynLow
	}
	return r.DynHigh
}

func minDynRes(r *Resists) float64 { return math.Min(r.DynLow, r.DynHigh) }

// getReq sets r.req to the dynamic resistance of t.
func (m *rcModel) getReq(r *thev, t *Trans, typ int) {
	m.parallelReq(r, t, func(rs *Resists) float64 { return dynRes(rs, typ) })
}

// getMinR sets r.req to the smallest dynamic resistance of t.
func (m *rcModel) getMinR(r *thev, t *Trans) {
	m.parallelReq(r, t, minDynRes)
}

// parallelReq sets r.req from the resistance res of t and of the transistors
// in parallel with it. Unknown transistors only count in the minimum and set
// the X transistor flag.
func (m *rcModel) parallelReq(r *thev, t *Trans, res func(*Resists) float64) {
	if t.tflags&parallel == 0 {
		r.req.min = res(t.r)
		if t.state == Unknown {
			r.flags |= tXTran
		} else {
			r.req.max = r.req.min
		}
		return
	}
	gmin := 1 / res(t.r)
	gmax := gmin
	if t.state == Unknown {
		gmax = 0
	}
	s := m.s
	for id := s.parallel[t.nPar]; id != nilTrans; id = s.trans[id].parLink {
		pt := &s.trans[id]
		g := 1 / res(pt.r)
		gmin += g
		if pt.state != Unknown {
			gmax += g
		}
	}
	r.req.min = 1 / gmin
	if gmax == 0 {
		r.flags |= tXTran
	} else {
		r.req.max = 1 / gmax
	}
}

// seriesOp adds t in series with r. The resistance context is chosen from
// the midpoint voltage, or from the charge if r is not driven.
func (m *rcModel) seriesOp(r *thev, t *Trans) *thev {
	if r.flags&tDriven == 0 {
		switch {
		case r.cHigh.min > r.cLow.max:
			m.getReq(r, t, rHigh)
		case r.cHigh.max < r.cLow.min:
			m.getReq(r, t, rLow)
		default:
			m.getMinR(r, t)
		}
		return r
	}

	switch {
	case r.rDown.min > r.rUp.max:
		m.getReq(r, t, rHigh)
	case r.rDown.max < r.rUp.min:
		m.getReq(r, t, rLow)
	default:
		m.getMinR(r, t)
	}

	upMin, downMin := r.rUp.min, r.rDown.min
	if upMin < limit {
		r.rUp.min += r.req.min * (1 + upMin/r.rDown.max)
	}
	if downMin < limit {
		r.rDown.min += r.req.min * (1 + downMin/r.rUp.max)
	}
	if r.flags&tXTran != 0 {
		r.flags &^= tDefinite
		r.rUp.max, r.rDown.max = large, large
	} else {
		if r.rUp.max < limit {
			r.rUp.max += r.req.max * (1 + r.rUp.max/downMin)
		}
		if r.rDown.max < limit {
			r.rDown.max += r.req.max * (1 + r.rDown.max/upMin)
		}
	}
	return r
}

func doParallel(oldr, newr float64) float64 {
	if oldr > limit {
		return newr
	}
	if newr > limit {
		return oldr
	}
	return combine(oldr, newr)
}

// parallelOp merges branch nb into r.
func (m *rcModel) parallelOp(r, nb *thev) {
	r.cLow.max += nb.cLow.max
	r.cHigh.max += nb.cHigh.max
	if nb.flags&tXTran == 0 {
		r.cLow.min += nb.cLow.min
		r.cHigh.min += nb.cHigh.min
	}

	// user delays only count on driven branches
	if nb.flags&(tDefinite|tUDelay) == tDefinite|tUDelay {
		if r.flags&tUDelay != 0 {
			r.tplh = minTime(r.tplh, nb.tplh)
			r.tphl = minTime(r.tphl, nb.tphl)
		} else {
			r.tplh, r.tphl = nb.tplh, nb.tphl
			r.flags |= tUDelay
		}
	}

	if nb.flags&tDriven == 0 {
		return
	}
	r.flags |= tDriven
	r.rUp.min = doParallel(r.rUp.min, nb.rUp.min)
	r.rDown.min = doParallel(r.rDown.min, nb.rDown.min)

	switch {
	case r.flags&nb.flags&tDefinite != 0:
		r.rUp.max = doParallel(r.rUp.max, nb.rUp.max)
		r.rDown.max = doParallel(r.rDown.max, nb.rDown.max)
	case nb.flags&tDefinite != 0:
		r.rUp.max, r.rDown.max = nb.rUp.max, nb.rDown.max
		r.flags |= tDefinite
	default:
		if nb.rUp.max < r.rUp.max {
			r.rUp.max = nb.rUp.max
		}
		if nb.rDown.max < r.rDown.max {
			r.rDown.max = nb.rDown.max
		}
	}
}

// isCurrTransition reports whether h is a transition happening now. Nodes
// that just stopped being inputs do not count.
func (m *rcModel) isCurrTransition(h *histEnt) bool {
	return h.time == m.s.curDelta && (h.inp || h.delay != 0)
}

// getTin returns the input time constant of t if its gate just switched it
// on.
func (m *rcModel) getTin(t *Trans) (float64, bool) {
	if t.state != On {
		return 0, false
	}
	h := &m.s.hist[m.s.nodes[t.gate].curr]
	if m.isCurrTransition(h) {
		return float64(h.rtime) * t.r.Static, true
	}
	return 0, false
}

func (m *rcModel) inputTau(t *Trans) (float64, bool) {
	if t.tflags&parallel == 0 {
		return m.getTin(t)
	}
	s := m.s
	tin, isInt := m.getTin(t)
	for id := s.parallel[t.nPar]; id != nilTrans; id = s.trans[id].parLink {
		if tmp, ok := m.getTin(&s.trans[id]); ok {
			if isInt {
				tin = combine(tin, tmp)
			} else {
				tin = tmp
			}
			isInt = true
		}
	}
	return tin, isInt
}

// getTau computes the first order time constant parameters of the tree
// rooted at n, reached through tran, for the dominant value dom.
func (m *rcModel) getTau(n NodeID, tran TransID, dom Potential) *thev {
	s := m.s
	nd := &s.nodes[n]
	var r *thev
	switch {
	case tran == nilTrans:
		r = nd.thev
	case s.trans[tran].source == n:
		r = s.trans[tran].sThev
	default:
		r = s.trans[tran].dThev
	}
	r.tauDone = dom

	if nd.flags&Input != 0 {
		r.tIn, r.rMin, r.cA, r.cD = 0, 0, 0, 0
		if nd.pot == dom {
			r.rDom, r.rMax = 0, 0
			r.flags |= tDomDriven
		} else {
			r.flags &^= tDomDriven | tInt
			if dom == X {
				r.rDom, r.rMax = 0, 0
			} else {
				r.rDom, r.rMax = large, large
			}
		}
		return r
	}

	if nd.thev.flags&tRefNode != 0 {
		r.rMin, r.rDom, r.rMax = 0, 0, 0
		r.cA, r.cD = 0, 0
		return r
	}

	r.rMin, r.rDom, r.rMax = large, large, large
	r.cD = nd.cap
	if dom == X {
		// X nodes are assumed charged high
		if nd.pot == Low {
			r.cA = 0
		} else {
			r.cA = nd.cap
		}
	} else if nd.pot == dom {
		r.cA = 0
	} else {
		r.cA = nd.cap
	}

	r.tIn = 0
	r.flags &^= tDomDriven | tInt
	for _, tid := range nd.terms {
		t := &s.trans[tid]
		if t.state == Off || tid == tran || t.tflags&(broken|pbroken) != 0 {
			continue
		}
		var other NodeID
		var cache *thev
		if n == t.source {
			other, cache = t.drain, t.dThev
		} else {
			other, cache = t.source, t.sThev
		}
		if cache.tauDone != dom {
			cache = m.getTau(other, tid, dom)
			// input slope only matters on the dominant path
			if cache.flags&tDomDriven != 0 {
				if tin, ok := m.inputTau(t); ok {
					cache.flags |= tInt
					cache.tIn += tin
				}
			}
			oldr := cache.rDom
			cache.rMin += cache.req.min
			cache.rDom += cache.req.min
			if cache.flags&tXTran != 0 {
				cache.rMax = large
			} else {
				cache.rMax += cache.req.max
			}

			switch {
			case cache.flags&tXTran != 0 && s.nodes[other].pot == dom:
				// the other side of an X transistor is already at dom
				cache.tauP, cache.cA, cache.cD = 0, 0, 0
			case oldr > limit:
				cache.tauP = 1
			default:
				cache.tauP = oldr / cache.rDom
				cache.cA *= cache.tauP
				cache.cD *= cache.tauP
			}
		}

		r.cA += cache.cA
		r.cD += cache.cD
		r.rMin = combine(r.rMin, cache.rMin)
		if r.rDom > limit {
			r.rDom = cache.rDom
			r.rMax = cache.rMax
		} else if cache.rDom < limit {
			r.rDom = combine(r.rDom, cache.rDom)
			r.rMax = combine(r.rMax, cache.rMax)
		}
		if cache.flags&tDomDriven != 0 {
			r.flags |= tDomDriven
		}
		if cache.flags&tInt != 0 {
			if r.flags&tInt != 0 {
				r.tIn = combine(r.tIn, cache.tIn)
			} else {
				r.tIn = cache.tIn
				r.flags |= tInt
			}
		}
	}
	return r
}

// getTauP computes the second order time constant of the stage as seen
// through n.
func (m *rcModel) getTauP(n NodeID, tran TransID, dom Potential) float64 {
	s := m.s
	nd := &s.nodes[n]
	if nd.flags&Input != 0 {
		return 0
	}
	r := nd.thev
	if r.tauDone != dom {
		r = m.getTau(n, nilTrans, dom)
		r.tauA = r.rDom * r.cA
		r.tauD = r.rDom * r.cD
	}
	taup := r.tauA * nd.cap

	for _, tid := range nd.terms {
		t := &s.trans[tid]
		if t.state == Off || tid == tran || t.tflags&(broken|pbroken) != 0 {
			continue
		}
		var other NodeID
		if t.source == n {
			other, r = t.drain, t.dThev
		} else {
			other, r = t.source, t.sThev
		}
		if r.taupDone != dom {
			r.tauP *= m.getTauP(other, tid, dom)
			r.taupDone = dom
		}
		taup += r.tauP
	}
	return taup
}

// computeSpike returns the spike caused by charge sharing on nd, or nil if
// the spike is too small to matter.
func (m *rcModel) computeSpike(nd *Node, r *thev, dom Potential) *spikeRec {
	if r.tauP <= small {
		return nil
	}
	rtype := rHigh
	if dom == Low {
		rtype = rLow
	}
	var nmos, pmos float64
	for _, tid := range nd.terms {
		t := &m.s.trans[tid]
		if t.state == Off || t.tflags&broken != 0 {
			continue
		}
		if t.typ.BaseType() == PChan {
			pmos += 1 / dynRes(t.r, rtype)
		} else {
			nmos += 1 / dynRes(t.r, rtype)
		}
	}
	var tab int
	switch {
	case nmos > npRatio*(pmos+nmos):
		tab = nlSpikeMax
		if rtype == rLow {
			tab = nlSpikeMin
		}
	case pmos > npRatio*(pmos+nmos):
		tab = nlSpikeMin
		if rtype == rLow {
			tab = nlSpikeMax
		}
	default:
		tab = linearSpike
	}

	alpha := clampIndex(int(spikeTableSize * r.tauA / (r.tauA + r.tauP - r.tauD)))
	beta := clampIndex(int(spikeTableSize * (r.tauD - r.tauA) / r.tauD))

	spk := &spikeRec{
		peak:    spikeTable[tab][beta][alpha],
		chDelay: delayTable[beta][alpha],
	}
	if dom == Low {
		if spk.peak <= nd.vlow {
			return nil
		}
		spk.charge = X
		if spk.peak >= nd.vhigh {
			spk.charge = High
		}
	} else {
		if spk.peak <= 1-nd.vhigh {
			return nil
		}
		spk.charge = X
		if spk.peak >= 1-nd.vlow {
			spk.charge = Low
		}
	}
	spk.chDelay *= r.tauA * r.tauD / r.tauP
	if r.rMax < large {
		spk.drDelay = r.rMax * r.cA
	} else {
		spk.drDelay = r.rDom * r.cA
	}
	return spk
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i > spikeTableSize {
		return spikeTableSize
	}
	return i
}

func minTime(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}
