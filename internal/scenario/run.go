package scenario

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/board"
	"github.com/lgbarn/escort-chess-go/internal/errors"
	"github.com/lgbarn/escort-chess-go/internal/motion"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

// Tick is the fixed time step of a run in seconds.
const Tick = 1.0 / 60

// DefaultSettleTicks bounds a settle step that does not name its own limit.
const DefaultSettleTicks = 10000

// Result is the outcome of one run.
type Result struct {
	Name     string `json:"name"`
	Source   string `json:"source,omitempty"`
	Passed   bool   `json:"passed"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Layout   string `json:"layout"`
	Want     string `json:"want,omitempty"`
	Ticks    int    `json:"ticks"`
	Events   int    `json:"events"`
	Halts    int    `json:"halts"`
	Cascades int    `json:"cascades"`
	Error    string `json:"error,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Option configures Run.
type Option func(*runner)

// WithSpeed sets the traversal speed in tiles per second.
func WithSpeed(tilesPerSecond float64) Option {
	return func(r *runner) { r.speed = tilesPerSecond }
}

// WithLogger sets the logger handed to the session.
func WithLogger(l zerolog.Logger) Option {
	return func(r *runner) { r.log = l }
}

// WithObserver receives every motion event of the run.
func WithObserver(fn motion.Observer) Option {
	return func(r *runner) { r.observer = fn }
}

type runner struct {
	speed    float64
	log      zerolog.Logger
	observer motion.Observer

	sess   *session.Session
	result *Result
}

// Run executes sc on a fresh session. After the last step motion is settled
// and the placement compared with the expectation. A run fails on the first
// step that does not behave as scripted.
func Run(sc *Scenario, opts ...Option) Result {
	r := &runner{speed: motion.DefaultSpeed, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	start := time.Now()
	res := Result{Name: sc.Name, Source: sc.Source, Want: sc.Expect.Layout}
	r.result = &res
	err := r.run(sc)
	res.Elapsed = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Passed = res.Want == "" || res.Want == res.Layout
	if !res.Passed {
		res.Error = fmt.Sprintf("layout %q, want %q", res.Layout, res.Want)
	}
	return res
}

func (r *runner) run(sc *Scenario) error {
	sopts := []session.Option{session.WithSpeed(r.speed), session.WithLogger(r.log)}
	var err error
	if sc.Layout != "" {
		r.sess, err = session.NewFromLayout(sc.Layout, sopts...)
	} else {
		r.sess, err = session.NewEmpty(sc.Width, sc.Height, sopts...)
	}
	if err != nil {
		return err
	}
	r.result.Width, r.result.Height = r.sess.Size()

	for i, st := range sc.Steps {
		err := r.step(st)
		switch {
		case st.Fails && err == nil:
			return fmt.Errorf("step %d (%s): succeeded, want failure", i+1, st.Op)
		case !st.Fails && err != nil:
			return fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		if err := r.sess.CheckInvariants(); err != nil {
			return fmt.Errorf("after step %d: %w", i+1, err)
		}
	}
	if err := r.settle(DefaultSettleTicks); err != nil {
		return err
	}
	r.result.Layout = r.sess.Layout()
	return r.sess.CheckInvariants()
}

func (r *runner) step(st Step) error {
	switch st.Op {
	case OpTick:
		n := st.Ticks
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			r.record(r.sess.Tick(Tick))
			r.result.Ticks++
		}
		return nil
	case OpSettle:
		n := st.Ticks
		if n == 0 {
			n = DefaultSettleTicks
		}
		return r.settle(n)
	case OpAdd:
		kind, _ := board.ParseKind(st.Kind)
		team, _ := board.ParseTeam(st.Team)
		_, err := r.sess.AddPiece(kind, team, st.At.X(), st.At.Y())
		return err
	case OpClick:
		_, err := r.sess.Click(st.At.X(), st.At.Y())
		return err
	}

	id, err := r.pieceAt(*st.At)
	if err != nil {
		return err
	}
	switch st.Op {
	case OpMove:
		_, err = r.sess.RequestMove(id, st.To.X(), st.To.Y())
	case OpMode:
		m, _ := board.ParseMode(st.Mode)
		err = r.sess.SetMode(id, m)
	case OpToggle:
		_, err = r.sess.ToggleMode(id)
	case OpDefend:
		ally := board.NoPiece
		if st.Ally != nil {
			if ally, err = r.pieceAt(*st.Ally); err != nil {
				return err
			}
		}
		err = r.sess.SetDefendTarget(id, ally)
	case OpRemove:
		err = r.sess.RemovePiece(id)
	case OpSelect:
		_, err = r.sess.SelectPiece(id)
	}
	return err
}

func (r *runner) settle(maxTicks int) error {
	events, n := r.sess.Settle(Tick, maxTicks)
	r.record(events)
	r.result.Ticks += n
	if r.sess.Busy() {
		return fmt.Errorf("motion still in flight after %d ticks: %w", n, errors.ErrMotionInFlight)
	}
	return nil
}

func (r *runner) pieceAt(p Point) (board.PieceID, error) {
	info, err := r.sess.PieceAt(p.X(), p.Y())
	if err != nil {
		return board.NoPiece, err
	}
	return info.ID, nil
}

func (r *runner) record(events []motion.Event) {
	for _, e := range events {
		r.result.Events++
		switch e.Kind {
		case motion.EventHalted:
			r.result.Halts++
		case motion.EventCascadeIssued:
			r.result.Cascades++
		}
		if r.observer != nil {
			r.observer(e)
		}
	}
}
