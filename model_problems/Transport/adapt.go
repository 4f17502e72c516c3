package Transport

import (
	"go.uber.org/zap"

	"github.com/notargets/fvadapt/grid"
)

// RestrictedValue is a running sum of child averages and the number of children in it.
type RestrictedValue struct {
	Value float64
	Count int
}

func (rv RestrictedValue) Average() float64 { return rv.Value / float64(rv.Count) }

type Phase uint8

const (
	Stable Phase = iota
	Indicating
	Marked
	Restricting
	MeshAdapting
	Prolonging
)

func (p Phase) String() string {
	return [...]string{"Stable", "Indicating", "Marked", "Restricting", "MeshAdapting", "Prolonging"}[p]
}

/*
Adaptor runs one adaptation cycle: mark, restrict the field up the hierarchy, adapt the mesh and
prolong the field onto the new leaves. A coarsened cell receives the arithmetic mean of its
children, which conserves mass because grid cells split into equal volume children.
*/
type Adaptor struct {
	Marker      *Marker
	logger      *zap.Logger
	phase       Phase
	mesh        AdaptiveMesh
	restriction *grid.PersistentContainer[RestrictedValue]
}

func NewAdaptor(mk *Marker, logger *zap.Logger) *Adaptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adaptor{
		Marker: mk,
		logger: logger,
	}
}

func (ad *Adaptor) Phase() Phase { return ad.phase }

func (ad *Adaptor) setPhase(p Phase) {
	ad.phase = p
	ad.logger.Debug("adaptation phase", zap.Stringer("phase", p))
}

// Adapt marks the mesh from c and, if anything was marked, transfers c onto the adapted mesh. The
// mapper is updated and the returned field matches it. With no marks c is returned untouched.
func (ad *Adaptor) Adapt(m AdaptiveMesh, mapper Mapper, c []float64) (cNew []float64, changed bool) {
	ad.setPhase(Indicating)
	marked := ad.Marker.Mark(m, mapper, c)
	ad.setPhase(Marked)
	if marked == 0 {
		ad.setPhase(Stable)
		return c, false
	}
	ad.logger.Debug("cells marked", zap.Int("marked", marked))
	return ad.Transfer(m, mapper, c)
}

// restrictionFor returns the restriction storage of m, zeroed, reusing it from the last cycle.
func (ad *Adaptor) restrictionFor(m AdaptiveMesh) *grid.PersistentContainer[RestrictedValue] {
	if ad.restriction == nil || ad.mesh != m {
		ad.mesh = m
		ad.restriction = grid.NewPersistentContainer[RestrictedValue](m)
		return ad.restriction
	}
	ad.restriction.Resize()
	ad.restriction.Clear()
	return ad.restriction
}

// Transfer applies the marks already set on m, carrying c across the topology change.
func (ad *Adaptor) Transfer(m AdaptiveMesh, mapper Mapper, c []float64) (cNew []float64, changed bool) {
	checkField(mapper, c)
	ad.setPhase(Restricting)
	m.PreAdapt()
	restriction := ad.restrictionFor(m)
	for level := m.MaxLevel(); level >= 0; level-- {
		for _, h := range m.LevelCells(level) {
			rv := restriction.At(h)
			if m.IsLeaf(h) {
				*rv = RestrictedValue{Value: c[mapper.Index(h)], Count: 1}
			}
			if f := m.Father(h); f != grid.NoCell {
				frv := restriction.At(f)
				frv.Value += rv.Average()
				frv.Count++
			}
		}
	}

	ad.setPhase(MeshAdapting)
	changed = m.Adapt()
	mapper.Update()
	cNew = make([]float64, mapper.Size())
	restriction.Resize()

	ad.setPhase(Prolonging)
	for level := 0; level <= m.MaxLevel(); level++ {
		for _, h := range m.LevelCells(level) {
			if !m.IsNew(h) {
				if m.IsLeaf(h) {
					cNew[mapper.Index(h)] = restriction.At(h).Average()
				}
				continue
			}
			avg := restriction.At(m.Father(h)).Average()
			if m.IsLeaf(h) {
				cNew[mapper.Index(h)] = avg
			} else {
				*restriction.At(h) = RestrictedValue{Value: avg, Count: 1}
			}
		}
	}
	m.PostAdapt()
	ad.setPhase(Stable)
	ad.logger.Debug("adapted", zap.Bool("changed", changed), zap.Int("cells", len(cNew)))
	return
}
