package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/LENAX/depman/pkg/cli/output"
	"github.com/LENAX/depman/pkg/core/engine"
	"github.com/LENAX/depman/pkg/core/node"
	"github.com/LENAX/depman/pkg/storage"
)

// renderPlan 以表格输出预演结果
func renderPlan(w io.Writer, plan *engine.PlanResult) {
	table := output.NewTable([]string{"NODE", "LEVEL", "PARENTS", "STATE", "REBUILD", "REASON"})
	for _, e := range plan.Entries {
		rebuild := "no"
		switch {
		case e.Rebuild && e.State.NeedsRebuild():
			rebuild = "yes"
		case e.Rebuild:
			rebuild = "maybe"
		}
		table.AddRow([]string{
			e.NodeID,
			strconv.Itoa(e.Level),
			joinOrDash(e.Parents),
			e.State.String(),
			rebuild,
			e.Reason,
		})
	}
	table.RenderTo(w)
	fmt.Fprintf(w, "\n%d/%d nodes may rebuild\n", len(plan.Rebuilds()), len(plan.Entries))
}

// renderRun 以表格输出一次更新的结果
func renderRun(w io.Writer, result *engine.RunResult) {
	dispatched := make(map[string]bool, len(result.Dispatched))
	for _, id := range result.Dispatched {
		dispatched[id] = true
	}

	ids := make([]string, 0, len(result.States))
	for id := range result.States {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := output.NewTable([]string{"NODE", "STATE", "ACTION"})
	for _, id := range ids {
		action := "skipped"
		switch {
		case id == result.FailedNode:
			action = "failed"
		case dispatched[id]:
			action = "executed"
		case result.States[id] == node.StateOK:
			action = "up to date"
		}
		table.AddRow([]string{id, result.States[id].String(), action})
	}
	table.RenderTo(w)
	fmt.Fprintf(w, "\nrun %s %s: %d executed, %d up to date, %dms\n",
		result.RunID, result.Status, len(result.Dispatched), len(result.UpToDate), result.Duration)
}

// renderRecord 输出节点存储记录与当前分类
func renderRecord(w io.Writer, n *node.Node, record *storage.HashRecord, current string, state node.State) {
	fmt.Fprintf(w, "Node:    %s\n", n.ID())
	fmt.Fprintf(w, "Action:  %s\n", n.Action())
	fmt.Fprintf(w, "Parents: %s\n", joinOrDash(n.ParentIDs()))
	fmt.Fprintf(w, "Current: %s\n", current)
	fmt.Fprintf(w, "State:   %s\n", state)
	if record == nil {
		fmt.Fprintln(w, "Stored:  -")
		return
	}
	fmt.Fprintf(w, "Stored:  %s\n", record.Hash)
	if !record.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated: %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if len(record.Parents) > 0 {
		fmt.Fprintln(w, "Parent snapshot:")
		for _, p := range record.Parents {
			fmt.Fprintf(w, "  %s  %s\n", p.ID, p.Hash)
		}
	}
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}
