package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

// Conflict records a value that lost a merge
type Conflict struct {
	Key     string `json:"key"`
	Winner  Source `json:"winner"`
	Kept    string `json:"kept"`
	Dropped string `json:"dropped"`
}

// Merged is the candidate produced by SpecMerger. Attribution and Conflicts
// are diagnostics and are not part of the specification.
type Merged struct {
	Candidate   spec.Specification
	Attribution map[string]Source
	Conflicts   []Conflict
}

// SpecMerger combines model and pattern partials. The source with the higher
// confidence wins every conflicting value; on an exact tie the model wins.
type SpecMerger struct{}

// NewSpecMerger creates a SpecMerger
func NewSpecMerger() *SpecMerger {
	return &SpecMerger{}
}

type mergeState struct {
	out      Merged
	entities map[string]int
	winner   Source
}

// Merge combines the partials. Either may be nil.
func (m *SpecMerger) Merge(model, pattern *Partial) Merged {
	winner, loser := model, pattern
	if winner == nil || (pattern != nil && pattern.Confidence > model.Confidence) {
		winner, loser = pattern, model
	}

	st := &mergeState{
		out: Merged{
			Candidate:   spec.Specification{Protocol: spec.ProtocolREST},
			Attribution: map[string]Source{},
		},
		entities: map[string]int{},
	}
	if winner == nil {
		return st.out
	}
	st.winner = winner.Source

	st.addEntities(winner, false)
	if loser != nil {
		st.addEntities(loser, true)
	}

	st.addEndpoints(winner)
	if loser != nil {
		st.addEndpoints(loser)
	}

	c := &st.out.Candidate
	var loserProtocol spec.Protocol
	var loserAuth *spec.AuthSpec
	var loserDB *spec.DatabaseSpec
	if loser != nil {
		loserProtocol, loserAuth, loserDB = loser.Protocol, loser.Auth, loser.Database
	}

	if p, src := st.pick("protocol", winner.Source, string(winner.Protocol), string(loserProtocol)); p != "" {
		c.Protocol = spec.Protocol(p)
		st.out.Attribution["protocol"] = src
	}
	if s, src := st.pick("auth.scheme", winner.Source, authScheme(winner.Auth), authScheme(loserAuth)); s != "" {
		c.Auth = &spec.AuthSpec{Scheme: spec.AuthScheme(s)}
		st.out.Attribution["auth.scheme"] = src
	}
	if k, src := st.pick("database.kind", winner.Source, databaseKind(winner.Database), databaseKind(loserDB)); k != "" {
		c.Database = &spec.DatabaseSpec{Kind: spec.DatabaseKind(k)}
		st.out.Attribution["database.kind"] = src
	}

	c.Confidence = combinedConfidence(winner, loser, st.entities)
	return st.out
}

// pick resolves a scalar present in one or both sources
func (st *mergeState) pick(key string, winner Source, win, lose string) (string, Source) {
	switch {
	case win != "" && lose != "" && win != lose:
		st.conflict(key, win, lose)
		return win, winner
	case win != "":
		return win, winner
	case lose != "":
		return lose, other(winner)
	}
	return "", ""
}

func (st *mergeState) conflict(key, kept, dropped string) {
	st.out.Conflicts = append(st.out.Conflicts, Conflict{Key: key, Winner: st.winner, Kept: kept, Dropped: dropped})
}

// addEntities appends the entities of a source. Entities of the losing
// source that share a canonical name with a winning entity are merged into
// it; duplicates inside one source are kept for the validator to report.
func (st *mergeState) addEntities(p *Partial, losing bool) {
	merged := map[string]bool{}
	for _, e := range p.Entities {
		key := entityKey(e.Name)
		i, exists := st.entities[key]
		if losing && exists && !merged[key] {
			merged[key] = true
			st.mergeEntity(i, e, p.Source)
			continue
		}
		if !exists {
			st.entities[key] = len(st.out.Candidate.Entities)
		}
		if losing {
			merged[key] = true
		}
		clone := e.Clone()
		st.out.Candidate.Entities = append(st.out.Candidate.Entities, clone)
		st.attributeEntity(clone, p.Source)
	}
}

func (st *mergeState) attributeEntity(e spec.Entity, src Source) {
	prefix := "entity:" + naming.Pascal(e.Name)
	st.out.Attribution[prefix] = src
	for _, f := range e.Fields {
		fkey := prefix + ".field:" + naming.Snake(f.Name)
		st.out.Attribution[fkey] = src
		for _, prop := range []string{"type", "required", "unique", "default"} {
			st.out.Attribution[fkey+"."+prop] = src
		}
	}
	for _, r := range e.Relations {
		st.out.Attribution[relationKey(r)] = src
	}
}

// mergeEntity folds a losing entity into the winning one at index i
func (st *mergeState) mergeEntity(i int, lose spec.Entity, src Source) {
	win := &st.out.Candidate.Entities[i]
	prefix := "entity:" + naming.Pascal(win.Name)

	for _, lf := range lose.Fields {
		fkey := prefix + ".field:" + naming.Snake(lf.Name)
		wf := findField(win, lf.Name)
		if wf == nil {
			win.Fields = append(win.Fields, lf.Clone())
			st.out.Attribution[fkey] = src
			for _, prop := range []string{"type", "required", "unique", "default"} {
				st.out.Attribution[fkey+"."+prop] = src
			}
			continue
		}
		if wf.Type != lf.Type {
			st.conflict(fkey+".type", string(wf.Type), string(lf.Type))
		}
		if wf.Required != lf.Required {
			st.conflict(fkey+".required", fmt.Sprint(wf.Required), fmt.Sprint(lf.Required))
		}
		if wf.Unique != lf.Unique {
			st.conflict(fkey+".unique", fmt.Sprint(wf.Unique), fmt.Sprint(lf.Unique))
		}
		switch {
		case wf.Default == nil && lf.Default != nil:
			d := *lf.Default
			wf.Default = &d
			st.out.Attribution[fkey+".default"] = src
		case wf.Default != nil && lf.Default != nil && *wf.Default != *lf.Default:
			st.conflict(fkey+".default", *wf.Default, *lf.Default)
		}
	}

	for _, lr := range lose.Relations {
		key := relationKey(lr)
		wr := findRelation(st.out.Candidate.Entities, lr)
		if wr == nil {
			win.Relations = append(win.Relations, lr)
			st.out.Attribution[key] = src
			continue
		}
		if wr.Kind != lr.Kind {
			st.conflict(relationKey(*wr)+".kind", string(wr.Kind), string(lr.Kind))
		}
	}
}

// addEndpoints appends endpoints not already present for the same entity
// and action
func (st *mergeState) addEndpoints(p *Partial) {
	for _, ep := range p.Endpoints {
		key := endpointKey(ep)
		if existing := st.findEndpoint(key); existing != nil {
			if existing.Path != ep.Path {
				st.conflict(key+".path", existing.Path, ep.Path)
			}
			if existing.AuthRequired != ep.AuthRequired {
				st.conflict(key+".authRequired", fmt.Sprint(existing.AuthRequired), fmt.Sprint(ep.AuthRequired))
			}
			continue
		}
		st.out.Candidate.Endpoints = append(st.out.Candidate.Endpoints, ep)
		st.out.Attribution[key] = p.Source
	}
}

func (st *mergeState) findEndpoint(key string) *spec.Endpoint {
	for i := range st.out.Candidate.Endpoints {
		if endpointKey(st.out.Candidate.Endpoints[i]) == key {
			return &st.out.Candidate.Endpoints[i]
		}
	}
	return nil
}

// combinedConfidence is the confidence of the single contributing source,
// or the mean of both raised by their entity agreement
func combinedConfidence(winner, loser *Partial, union map[string]int) float64 {
	if !loser.HasEntities() {
		return clamp(winner.Confidence)
	}
	if !winner.HasEntities() {
		return clamp(loser.Confidence)
	}

	shared := 0
	loserKeys := map[string]bool{}
	for _, e := range loser.Entities {
		loserKeys[entityKey(e.Name)] = true
	}
	seen := map[string]bool{}
	for _, e := range winner.Entities {
		k := entityKey(e.Name)
		if loserKeys[k] && !seen[k] {
			shared++
		}
		seen[k] = true
	}
	agreement := float64(shared) / float64(len(union))
	c := (winner.Confidence+loser.Confidence)/2 + 0.1*agreement
	return clamp(math.Round(c*100) / 100)
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func other(s Source) Source {
	if s == SourceModel {
		return SourcePattern
	}
	return SourceModel
}

func entityKey(name string) string {
	return strings.ToLower(naming.Pascal(name))
}

func relationKey(r spec.Relation) string {
	return "relation:" + naming.Pascal(r.FromEntity) + "->" + naming.Pascal(r.ToEntity)
}

func endpointKey(ep spec.Endpoint) string {
	key := "endpoint:" + naming.Pascal(ep.EntityRef) + "." + strings.ToUpper(string(ep.Action))
	if strings.EqualFold(string(ep.Action), string(spec.ActionCustom)) {
		key += ":" + strings.ToLower(ep.Path)
	}
	return key
}

func findField(e *spec.Entity, name string) *spec.Field {
	for i := range e.Fields {
		if naming.Snake(e.Fields[i].Name) == naming.Snake(name) {
			return &e.Fields[i]
		}
	}
	return nil
}

// findRelation looks for a relation between the same pair in either direction
func findRelation(entities []spec.Entity, r spec.Relation) *spec.Relation {
	from, to := entityKey(r.FromEntity), entityKey(r.ToEntity)
	for i := range entities {
		for j := range entities[i].Relations {
			cur := &entities[i].Relations[j]
			a, b := entityKey(cur.FromEntity), entityKey(cur.ToEntity)
			if (a == from && b == to) || (a == to && b == from) {
				return cur
			}
		}
	}
	return nil
}

func authScheme(a *spec.AuthSpec) string {
	if a == nil {
		return ""
	}
	return strings.ToUpper(string(a.Scheme))
}

func databaseKind(d *spec.DatabaseSpec) string {
	if d == nil {
		return ""
	}
	return strings.ToUpper(string(d.Kind))
}
