package engine

import "fmt"

// DAG is the dependency graph of a set of named phases.
type DAG struct {
	Phases   map[string]Phase
	Children map[string][]string // phase name -> dependents
	InDegree map[string]int      // phase name -> number of dependencies
}

// BuildDAG indexes phases by name and derives the dependency edges from
// each phase's DependsOn() list.
func BuildDAG(phases []Phase) (*DAG, error) {
	dag := &DAG{
		Phases:   make(map[string]Phase, len(phases)),
		Children: make(map[string][]string),
		InDegree: make(map[string]int, len(phases)),
	}

	for _, p := range phases {
		if _, dup := dag.Phases[p.Name()]; dup {
			return nil, fmt.Errorf("duplicate phase name %q", p.Name())
		}
		dag.Phases[p.Name()] = p
		dag.InDegree[p.Name()] = 0
	}

	for _, p := range phases {
		for _, dep := range p.DependsOn() {
			if _, ok := dag.Phases[dep]; !ok {
				return nil, fmt.Errorf("phase %q depends on unknown phase %q", p.Name(), dep)
			}
			dag.Children[dep] = append(dag.Children[dep], p.Name())
			dag.InDegree[p.Name()]++
		}
	}

	return dag, nil
}

// TopologicalWaves runs Kahn's algorithm and groups phases into waves:
// each wave contains every phase whose dependencies are satisfied by the
// prior waves, so a wave's phases may run concurrently (spec §4.1
// "independent phases run concurrently, bounded by worker pool size").
func TopologicalWaves(dag *DAG) ([][]Phase, error) {
	inDegree := make(map[string]int, len(dag.InDegree))
	for k, v := range dag.InDegree {
		inDegree[k] = v
	}

	var waves [][]Phase
	processed := 0

	for processed < len(dag.Phases) {
		var wave []Phase
		for name, degree := range inDegree {
			if degree == 0 {
				wave = append(wave, dag.Phases[name])
			}
		}
		if len(wave) == 0 {
			return nil, fmt.Errorf("cycle detected in phase graph")
		}

		for _, p := range wave {
			delete(inDegree, p.Name())
			processed++
			for _, child := range dag.Children[p.Name()] {
				inDegree[child]--
			}
		}

		waves = append(waves, wave)
	}

	return waves, nil
}
