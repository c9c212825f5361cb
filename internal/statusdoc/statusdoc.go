// Package statusdoc renders per-agent status snapshot documents.
//
// A snapshot is an operator-facing markdown file under the workspace
// directory, overwritten in full on every heartbeat. Nothing in the engine
// reads it back.
package statusdoc

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"muster/internal/fileutil"
	"muster/internal/store"
	"muster/internal/textutil"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// Snapshot carries everything a heartbeat knows about one agent at render
// time.
type Snapshot struct {
	Agent         *store.Agent
	Tasks         []*store.Task
	Notifications []*store.Notification
	GeneratedAt   time.Time
}

// Writer persists snapshots under a workspace directory.
type Writer struct {
	workspaceDir string
}

// NewWriter returns a Writer rooted at workspaceDir.
func NewWriter(workspaceDir string) *Writer {
	return &Writer{workspaceDir: workspaceDir}
}

// Path returns the snapshot file location for an agent name.
func (w *Writer) Path(agentName string) string {
	return filepath.Join(w.workspaceDir, textutil.SanitizeToken(agentName)+".md")
}

// Write renders the snapshot and atomically replaces the agent's document.
// Returns the written path.
func (w *Writer) Write(snap Snapshot) (string, error) {
	if snap.Agent == nil {
		return "", fmt.Errorf("snapshot requires an agent")
	}
	path := w.Path(snap.Agent.Name)
	if err := fileutil.WriteFileAtomic(path, []byte(Render(snap)), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Render produces the markdown body for a snapshot.
func Render(snap Snapshot) string {
	var b strings.Builder

	name := titleCaser.String(snap.Agent.Name)
	fmt.Fprintf(&b, "# %s\n\n", name)
	fmt.Fprintf(&b, "- Role: %s\n", snap.Agent.Role)
	fmt.Fprintf(&b, "- Status: %s\n", snap.Agent.Status)
	if snap.Agent.LastHeartbeat != nil {
		fmt.Fprintf(&b, "- Last heartbeat: %s\n", snap.Agent.LastHeartbeat.UTC().Format(time.RFC3339))
	} else {
		b.WriteString("- Last heartbeat: never\n")
	}
	fmt.Fprintf(&b, "- Updated: %s\n\n", snap.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Tasks\n\n")
	if len(snap.Tasks) == 0 {
		b.WriteString("No open tasks.\n")
	} else {
		b.WriteString(renderTaskTable(snap.Tasks))
		b.WriteString("\n")
	}

	b.WriteString("\n## Notifications\n\n")
	if len(snap.Notifications) == 0 {
		b.WriteString("No new notifications.\n")
	} else {
		b.WriteString(renderNotificationTable(snap.Notifications))
		b.WriteString("\n")
	}

	return b.String()
}

func renderTaskTable(tasks []*store.Task) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"ID", "Priority", "Status", "Title", "Description", "Due"})
	for _, task := range tasks {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.UTC().Format("2006-01-02")
		}
		tw.AppendRow(table.Row{
			task.ID,
			task.Priority,
			task.Status,
			task.Title,
			textutil.Truncate(task.Description, 80),
			due,
		})
	}
	return tw.RenderMarkdown()
}

func renderNotificationTable(notifications []*store.Notification) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Type", "Title", "Message", "Received"})
	for _, n := range notifications {
		tw.AppendRow(table.Row{
			n.Type,
			n.Title,
			textutil.Truncate(n.Message, 80),
			n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return tw.RenderMarkdown()
}
