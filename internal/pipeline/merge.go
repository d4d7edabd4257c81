package pipeline

import (
	"strings"

	"github.com/ppiankov/dontsign/internal/model"
)

// Merged holds the union of all section findings
type Merged struct {
	PotentialRisks   []string
	ImportantClauses []string
	Recommendations  []string
}

// MergeSections unions section findings, keeping the first occurrence of
// each exact string in order and dropping blank entries. Slices are never nil.
func MergeSections(sections []*model.SectionResult) Merged {
	risks := newOrderedSet()
	clauses := newOrderedSet()
	recs := newOrderedSet()

	for _, s := range sections {
		if s == nil {
			continue
		}
		risks.addAll(s.PotentialRisks)
		clauses.addAll(s.ImportantClauses)
		recs.addAll(s.Recommendations)
	}

	return Merged{
		PotentialRisks:   risks.items,
		ImportantClauses: clauses.items,
		Recommendations:  recs.items,
	}
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) addAll(values []string) {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}
