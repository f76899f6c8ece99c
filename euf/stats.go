package euf

// Stats are statistics about the work done by a graph.
type Stats struct {
	NbMerges    int
	NbConflicts int
	NbEqs       int // How many equality atoms became true because their arguments were merged
	NbLits      int // How many values were propagated through a class
	NbThEqs     int // How many equalities were produced for plugins
	NbThDiseqs  int // How many disequalities were produced for plugins
}

// Statistics collects named counters.
type Statistics interface {
	Update(key string, value uint64)
}

// StatsMap is a Statistics adding values in a map.
type StatsMap map[string]uint64

// Update adds value to the counter named key.
func (m StatsMap) Update(key string, value uint64) {
	m[key] += value
}

// Stats returns the statistics of the graph.
func (g *Graph) Stats() Stats {
	return g.stats
}

// CollectStatistics reports the statistics of the graph and of its plugins to st.
func (g *Graph) CollectStatistics(st Statistics) {
	st.Update("euf merge", uint64(g.stats.NbMerges))
	st.Update("euf conflicts", uint64(g.stats.NbConflicts))
	st.Update("euf propagations eqs", uint64(g.stats.NbEqs))
	st.Update("euf propagations literals", uint64(g.stats.NbLits))
	st.Update("euf propagations theory eqs", uint64(g.stats.NbThEqs))
	st.Update("euf propagations theory diseqs", uint64(g.stats.NbThDiseqs))
	for _, p := range g.plugins {
		if p != nil {
			p.CollectStatistics(st)
		}
	}
}
