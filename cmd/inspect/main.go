package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/policy"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to task_policy.db")
	feedback := flag.Int("feedback", 0, "show N most recent feedback rows instead of the policy table")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/task_policy.db [--feedback N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if *feedback > 0 {
		err = runFeedbackMode(st, *feedback, *jsonOut)
	} else {
		err = runPolicyMode(st, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region policy-mode

type policyRow struct {
	State  string  `json:"state"`
	Action string  `json:"action"`
	Value  float64 `json:"q_value"`
	Visits int     `json:"visits"`
}

func runPolicyMode(st *store.Store, jsonOut bool) error {
	snap, ok, err := st.LoadModel()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "no model snapshot found")
		return nil
	}

	rows := make([]policyRow, len(snap.Entries))
	for i, e := range snap.Entries {
		rows[i] = policyRow{
			State:  string(e.State),
			Action: string(e.Action),
			Value:  e.Value,
			Visits: e.Visits,
		}
	}
	// Highest-valued entry first within each state
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].Value > rows[j].Value
	})

	if jsonOut {
		return printJSON(rows)
	}

	tbl := policy.Restore(snap.Entries)
	fmt.Printf("States: %d | Entries: %d | alpha: %.2f | epsilon: %.4f\n\n",
		tbl.StateCount(), tbl.Size(), snap.LearningRate, snap.Epsilon)

	fmt.Printf("%-40s  %-18s  %8s  %6s\n", "State", "Action", "Q-Value", "Visits")
	fmt.Printf("%-40s+-%-18s+-%8s+-%6s\n",
		"----------------------------------------", "------------------", "--------", "------")
	for _, r := range rows {
		fmt.Printf("%-40s  %-18s  %8.4f  %6d\n", r.State, r.Action, r.Value, r.Visits)
	}
	return nil
}

// #endregion policy-mode

// #region feedback-mode

func runFeedbackMode(st *store.Store, limit int, jsonOut bool) error {
	entries, err := st.ListFeedback(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no feedback recorded")
		return nil
	}

	if jsonOut {
		return printJSON(entries)
	}

	fmt.Printf("%-10s  %-30s  %-18s  %4s  %s\n", "ID", "Command", "Intent", "Rate", "Time")
	fmt.Printf("%-10s+-%-30s+-%-18s+-%4s+-%s\n",
		"----------", "------------------------------", "------------------", "----", "--------------------")
	for _, fe := range entries {
		fmt.Printf("%-10s  %-30s  %-18s  %4d  %s\n",
			shortID(fe.InteractionID), truncate(fe.Command, 30), fe.Intent,
			fe.Rating, fe.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion feedback-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	// Slice by runes; commands can contain multi-byte characters
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

// #endregion output
