package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
	"github.com/lxxca/covid-prevalence-estimate/utils"
)

const DateLayout = "2006-01-02"

// Variable names exported by the model fit.
const (
	NewCases      = "new_cases"
	NewDetections = "new_detections"
	Exposed       = "E_t"
	Infectious    = "I_t"
	Asymptomatic  = "Ia_t"
	Symptomatic   = "Is_t"
	NewExposed    = "new_E_t"
	CumExposed    = "Ecum_t"
	SpreadingRate = "lambda_t"
	Introductions = "Ein_t"
)

// Date wraps time.Time to (un)marshal as YYYY-MM-DD.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// Trace is a posterior trace exported from a fitted model.
type Trace struct {
	Population float64                    `json:"population"`
	DataBegin  Date                       `json:"data_begin"`
	DataEnd    Date                       `json:"data_end"`
	SimBegin   Date                       `json:"sim_begin"`
	SimEnd     Date                       `json:"sim_end"`
	Variables  map[string]json.RawMessage `json:"variables"`

	// mu guards ensembles; plots may read a trace concurrently.
	mu        sync.Mutex
	ensembles map[string]*model.Ensemble
}

func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*Trace, error) {
	tr := &Trace{}
	if err := json.NewDecoder(r).Decode(tr); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	if err := tr.validate(); err != nil {
		return nil, err
	}
	tr.ensembles = map[string]*model.Ensemble{}
	return tr, nil
}

// New builds a trace from in-memory ensembles.
func New(population float64, dataBegin, dataEnd, simBegin, simEnd time.Time, ensembles map[string]*model.Ensemble) (*Trace, error) {
	tr := &Trace{
		Population: population,
		DataBegin:  Date{dataBegin},
		DataEnd:    Date{dataEnd},
		SimBegin:   Date{simBegin},
		SimEnd:     Date{simEnd},
		ensembles:  map[string]*model.Ensemble{},
	}
	if err := tr.validate(); err != nil {
		return nil, err
	}
	for name, e := range ensembles {
		tr.ensembles[name] = e
	}
	return tr, nil
}

func (tr *Trace) validate() error {
	if !(tr.Population > 0) {
		return fmt.Errorf("%w: population %v", common.ErrorInvalidValue, tr.Population)
	}
	if tr.SimEnd.Before(tr.SimBegin.Time) || tr.DataEnd.Before(tr.DataBegin.Time) {
		return fmt.Errorf("%w: date range ends before it begins", common.ErrorInvalidValue)
	}
	return nil
}

// Names lists every variable available in the trace.
func (tr *Trace) Names() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	seen := map[string]bool{}
	for name := range tr.Variables {
		seen[name] = true
	}
	for name := range tr.ensembles {
		seen[name] = true
	}
	res := make([]string, 0, len(seen))
	for name := range seen {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Ensemble returns the named variable, decoding it on first use.
func (tr *Trace) Ensemble(name string) (*model.Ensemble, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if e, ok := tr.ensembles[name]; ok {
		return e, nil
	}
	raw, ok := tr.Variables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingVariable, name)
	}
	e, err := decodeEnsemble(raw)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	tr.ensembles[name] = e
	return e, nil
}

// EnsembleByDate returns the named simulation variable restricted to the
// dates [begin, end], together with those dates. The variable's first step
// is SimBegin.
func (tr *Trace) EnsembleByDate(name string, begin, end time.Time) (*model.Ensemble, []time.Time, error) {
	e, err := tr.Ensemble(name)
	if err != nil {
		return nil, nil, err
	}
	if begin.Before(tr.SimBegin.Time) {
		return nil, nil, common.ShapeError("%s: %s is before simulation start %s",
			name, begin.Format(DateLayout), tr.SimBegin.Format(DateLayout))
	}
	from := utils.DayCntBetween(tr.SimBegin.Time, begin)
	to := from + utils.DayCntBetween(begin, end) + 1
	if end.Before(begin) || to > e.Steps() {
		return nil, nil, common.ShapeError("%s: dates %s..%s need steps [%d, %d), have %d",
			name, begin.Format(DateLayout), end.Format(DateLayout), from, to, e.Steps())
	}
	sliced, err := e.SliceSteps(from, to)
	if err != nil {
		return nil, nil, err
	}
	return sliced, utils.DateRange(begin, end), nil
}

// SimulationEnsemble returns the named variable over the whole simulation
// range. Its length must match the simulation dates exactly.
func (tr *Trace) SimulationEnsemble(name string) (*model.Ensemble, []time.Time, error) {
	e, err := tr.Ensemble(name)
	if err != nil {
		return nil, nil, err
	}
	if days := utils.DayCntBetween(tr.SimBegin.Time, tr.SimEnd.Time) + 1; e.Steps() != days {
		return nil, nil, common.ShapeError("%s: %d steps for %d simulation days %s..%s",
			name, e.Steps(), days, tr.SimBegin.Format(DateLayout), tr.SimEnd.Format(DateLayout))
	}
	return e, tr.SimDates(), nil
}

func (tr *Trace) SimDates() []time.Time {
	return utils.DateRange(tr.SimBegin.Time, tr.SimEnd.Time)
}

func (tr *Trace) DataDates() []time.Time {
	return utils.DateRange(tr.DataBegin.Time, tr.DataEnd.Time)
}

func decodeEnsemble(raw json.RawMessage) (*model.Ensemble, error) {
	var rows [][]float64
	errFlat := json.Unmarshal(raw, &rows)
	if errFlat == nil {
		return model.NewEnsemble(rows)
	}
	var cube [][][]float64
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&cube); err != nil {
		return nil, fmt.Errorf("%w: want [sample][time] or [sample][1][time]: %v", common.ErrShapeMismatch, errFlat)
	}
	return model.NewEnsemble3D(cube)
}
