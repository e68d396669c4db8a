// Package shell is the interactive console: a line-oriented REPL for
// inspecting actors, stepping the simulation, and injecting goals and items.
// It drives the same Simulation the engine and API do, so it can run against
// a live world or stand alone.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/talgya/menger/internal/actor"
	"github.com/talgya/menger/internal/engine"
	"github.com/talgya/menger/internal/persistence"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Shell wraps a simulation in a command loop.
type Shell struct {
	Sim *engine.Simulation
	DB  *persistence.DB // optional; enables the save command

	in  io.Reader
	out io.Writer
}

// New creates a shell reading commands from in and writing to out.
func New(sim *engine.Simulation, db *persistence.DB, in io.Reader, out io.Writer) *Shell {
	return &Shell{Sim: sim, DB: db, in: in, out: out}
}

// Run reads and executes commands until quit or EOF.
func (sh *Shell) Run() error {
	fmt.Fprintln(sh.out, headingStyle.Render("menger — ordinal economy console"))
	fmt.Fprintln(sh.out, dimStyle.Render(`type "help" for commands`))

	scanner := bufio.NewScanner(sh.in)
	for {
		fmt.Fprint(sh.out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(sh.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if quit := sh.execute(line); quit {
			return nil
		}
	}
}

// execute runs one command line. Returns true on quit.
func (sh *Shell) execute(line string) bool {
	args := strings.Fields(line)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help":
		sh.printHelp()
	case "actors":
		sh.cmdActors()
	case "show":
		sh.cmdShow(rest)
	case "tick":
		sh.cmdTick(rest)
	case "step":
		sh.cmdStep(rest)
	case "give-item":
		sh.cmdGiveItem(rest)
	case "register-goal":
		sh.cmdRegisterGoal(rest)
	case "remove-goal":
		sh.cmdRemoveGoal(rest)
	case "compare":
		sh.cmdCompare(rest)
	case "events":
		sh.cmdEvents(rest)
	case "stats":
		sh.cmdStats()
	case "save":
		sh.cmdSave()
	case "quit", "exit":
		return true
	default:
		sh.errorf("unknown command %q", cmd)
	}
	return false
}

func (sh *Shell) printHelp() {
	help := []struct{ cmd, desc string }{
		{"actors", "list all actors"},
		{"show <prop> <actor>", "inspect an actor: hierarchy, goals, preferences, inventory, state, outcome"},
		{"tick [n]", "advance the simulation n ticks (default 1)"},
		{"step <actor> [n]", "advance only one actor n ticks"},
		{"give-item <actor> <item>", "mint an item into an actor's inventory"},
		{"register-goal <actor> <goal> <units> [recur]", "register or re-arm a goal"},
		{"remove-goal <actor> <goal>", "deregister a goal"},
		{"compare <actor> <a> <b>", "how the actor orders two item types"},
		{"events [n]", "recent events (default 20)"},
		{"stats", "aggregate simulation statistics"},
		{"save", "persist the simulation to the database"},
		{"quit", "leave the console"},
	}
	for _, h := range help {
		fmt.Fprintf(sh.out, "  %s  %s\n", valueStyle.Render(fmt.Sprintf("%-44s", h.cmd)), h.desc)
	}
}

func (sh *Shell) cmdActors() {
	for _, snap := range sh.Sim.Snapshots() {
		active := 0
		for _, g := range snap.Goals {
			if g.Active() {
				active++
			}
		}
		fmt.Fprintf(sh.out, "%s  %s %s\n",
			valueStyle.Render(snap.ID),
			snap.Name,
			dimStyle.Render(fmt.Sprintf("(%d active goals, %d items, %s)",
				active, len(snap.Items), snap.State.Phase)))
	}
}

func (sh *Shell) cmdShow(args []string) {
	if len(args) != 2 {
		sh.errorf("usage: show <hierarchy|goals|preferences|inventory|state|outcome> <actor>")
		return
	}
	prop, id := args[0], args[1]
	snap, ok := sh.Sim.ActorSnapshot(id)
	if !ok {
		sh.errorf("unknown actor %q", id)
		return
	}

	switch prop {
	case "hierarchy", "goal-hierarchy":
		fmt.Fprintln(sh.out, headingStyle.Render(snap.Name+" — goal hierarchy (most valued first)"))
		for rank, gt := range snap.Hierarchy {
			fmt.Fprintf(sh.out, "  %2d  %s\n", rank, gt)
		}
	case "goals", "goal-registry":
		fmt.Fprintln(sh.out, headingStyle.Render(snap.Name+" — registered goals"))
		for _, g := range snap.Goals {
			status := fmt.Sprintf("%d/%d units", g.UnitsRemaining, g.UnitsRequired)
			if !g.Active() && g.Recurring() {
				status = fmt.Sprintf("satisfied, recurs in %d ticks", g.Countdown)
			}
			recur := ""
			if g.Recurring() {
				recur = fmt.Sprintf(" every %d ticks", g.RecurrenceTicks)
			}
			fmt.Fprintf(sh.out, "  %-12s %s%s\n", g.Type, status, dimStyle.Render(recur))
		}
	case "preferences", "preference-list":
		sh.showPreferences(id, snap.Name)
	case "inventory":
		fmt.Fprintln(sh.out, headingStyle.Render(snap.Name+" — inventory"))
		for _, it := range snap.Items {
			fmt.Fprintf(sh.out, "  %-10s %s\n", it.Type, dimStyle.Render(it.ID.String()))
		}
		if len(snap.Items) == 0 {
			fmt.Fprintln(sh.out, dimStyle.Render("  (empty)"))
		}
	case "state":
		fmt.Fprintf(sh.out, "phase=%s goal=%s partner=%s partner_cursor=%d bid_cursor=%d\n",
			snap.State.Phase, orDash(string(snap.State.Goal)), orDash(snap.State.PartnerID),
			snap.State.PartnerCursor, snap.State.BidCursor)
	case "outcome":
		o := snap.Outcome
		fmt.Fprintf(sh.out, "tick=%d kind=%s goal=%s item=%s partner=%s %s\n",
			o.Tick, o.Kind, orDash(string(o.Goal)), orDash(string(o.ItemT)),
			orDash(o.Partner), dimStyle.Render(o.Detail))
	default:
		sh.errorf("unknown property %q", prop)
	}
}

func (sh *Shell) showPreferences(id, name string) {
	a := sh.Sim.Actor(id)
	if a == nil {
		sh.errorf("unknown actor %q", id)
		return
	}
	fmt.Fprintln(sh.out, headingStyle.Render(name+" — preferences by item type"))
	for _, t := range a.Prefs.Types() {
		goals := a.Prefs.GoalsFor(t)
		best := "-"
		if b, err := a.BestUse(t); err == nil {
			if v, verr := a.ValueOf(t); verr == nil {
				best = fmt.Sprintf("%s (rank %d)", b, v)
			} else {
				best = string(b)
			}
		}
		fmt.Fprintf(sh.out, "  %-10s goals=%v  best=%s\n", t, goals, valueStyle.Render(best))
	}
}

func (sh *Shell) cmdTick(args []string) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			sh.errorf("usage: tick [n]")
			return
		}
		n = v
	}
	before := sh.Sim.CurrentTick()
	tick := sh.Sim.StepN(n)
	fmt.Fprintf(sh.out, "tick %d\n", tick)
	for _, e := range sh.Sim.RecentEvents(100) {
		if e.Tick > before {
			fmt.Fprintf(sh.out, "  %s %s\n", dimStyle.Render(fmt.Sprintf("[%d]", e.Tick)), e.Description)
		}
	}
}

func (sh *Shell) cmdStep(args []string) {
	if len(args) < 1 || len(args) > 2 {
		sh.errorf("usage: step <actor> [n]")
		return
	}
	n := 1
	if len(args) == 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 1 {
			sh.errorf("usage: step <actor> [n]")
			return
		}
		n = v
	}
	before := sh.Sim.CurrentTick()
	var tick uint64
	for i := 0; i < n; i++ {
		var err error
		tick, err = sh.Sim.StepActor(args[0])
		if err != nil {
			sh.errorf("%v", err)
			return
		}
	}
	fmt.Fprintf(sh.out, "tick %d\n", tick)
	for _, e := range sh.Sim.RecentEvents(100) {
		if e.Tick > before {
			fmt.Fprintf(sh.out, "  %s %s\n", dimStyle.Render(fmt.Sprintf("[%d]", e.Tick)), e.Description)
		}
	}
}

func (sh *Shell) cmdGiveItem(args []string) {
	if len(args) != 2 {
		sh.errorf("usage: give-item <actor> <item type>")
		return
	}
	item, err := sh.Sim.GiveItem(args[0], actor.ItemType(args[1]))
	if err != nil {
		sh.errorf("%v", err)
		return
	}
	fmt.Fprintf(sh.out, "gave %s %s\n", item.Type, dimStyle.Render(item.ID.String()))
}

func (sh *Shell) cmdRegisterGoal(args []string) {
	if len(args) < 3 || len(args) > 4 {
		sh.errorf("usage: register-goal <actor> <goal type> <units> [recurrence ticks]")
		return
	}
	units, err := strconv.Atoi(args[2])
	if err != nil {
		sh.errorf("units must be a number")
		return
	}
	var recurrence uint64
	if len(args) == 4 {
		recurrence, err = strconv.ParseUint(args[3], 10, 64)
		if err != nil {
			sh.errorf("recurrence must be a number of ticks")
			return
		}
	}
	if err := sh.Sim.RegisterGoal(args[0], actor.GoalType(args[1]), units, recurrence); err != nil {
		sh.errorf("%v", err)
		return
	}
	fmt.Fprintf(sh.out, "registered %s (%d units)\n", args[1], units)
}

func (sh *Shell) cmdRemoveGoal(args []string) {
	if len(args) != 2 {
		sh.errorf("usage: remove-goal <actor> <goal type>")
		return
	}
	removed, err := sh.Sim.RemoveGoal(args[0], actor.GoalType(args[1]))
	if err != nil {
		sh.errorf("%v", err)
		return
	}
	if !removed {
		fmt.Fprintln(sh.out, dimStyle.Render("no such goal registered"))
		return
	}
	fmt.Fprintf(sh.out, "removed %s\n", args[1])
}

func (sh *Shell) cmdCompare(args []string) {
	if len(args) != 3 {
		sh.errorf("usage: compare <actor> <item type a> <item type b>")
		return
	}
	c, err := sh.Sim.CompareItems(args[0], actor.ItemType(args[1]), actor.ItemType(args[2]))
	if err != nil {
		sh.errorf("%v", err)
		return
	}
	switch {
	case c < 0:
		fmt.Fprintf(sh.out, "%s is worth more than %s\n", args[1], args[2])
	case c > 0:
		fmt.Fprintf(sh.out, "%s is worth less than %s\n", args[1], args[2])
	default:
		fmt.Fprintf(sh.out, "%s and %s are worth the same\n", args[1], args[2])
	}
}

func (sh *Shell) cmdEvents(args []string) {
	n := 20
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	events := sh.Sim.RecentEvents(n)
	if len(events) == 0 {
		fmt.Fprintln(sh.out, dimStyle.Render("no events yet"))
		return
	}
	for _, e := range events {
		fmt.Fprintf(sh.out, "%s %s %s\n",
			dimStyle.Render(fmt.Sprintf("[%d]", e.Tick)),
			valueStyle.Render(fmt.Sprintf("%-6s", e.Category)),
			e.Description)
	}
}

func (sh *Shell) cmdStats() {
	st := sh.Sim.StatsSnapshot()
	fmt.Fprintf(sh.out, "tick=%d actors=%d active_goals=%d items_held=%d\n",
		sh.Sim.CurrentTick(), st.Actors, st.ActiveGoals, st.ItemsHeld)
	fmt.Fprintf(sh.out, "direct_uses=%d substitutions=%d trades=%d bids_rejected=%d no_deals=%d\n",
		st.DirectUses, st.Substitutions, st.Trades, st.BidsRejected, st.NoDeals)
}

func (sh *Shell) cmdSave() {
	if sh.DB == nil {
		sh.errorf("no database configured")
		return
	}
	if err := sh.DB.SaveSimulation(sh.Sim); err != nil {
		sh.errorf("save failed: %v", err)
		return
	}
	fmt.Fprintf(sh.out, "saved at tick %d\n", sh.Sim.CurrentTick())
}

func (sh *Shell) errorf(format string, args ...any) {
	fmt.Fprintln(sh.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
