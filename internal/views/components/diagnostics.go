package components

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"sketchdesk/internal/metrics"
	"sketchdesk/internal/models"
)

// DiagnosticsInfo is what the diagnostics window displays.
type DiagnosticsInfo struct {
	SessionID  string
	Record     models.ViewState
	Loaded     bool
	LoadStatus string
	LoadError  error
	LastWrite  string
	Counters   metrics.Snapshot
	Commands   []string
}

// Diagnostics is the developer panel: current record, load status, last
// write and bridge counters.
type Diagnostics struct {
	container *fyne.Container
	form      *widget.Form
	session   *widget.Label
	record    *widget.Label
	status    *widget.Label
	lastWrite *widget.Label
	counters  *widget.Label
	commands  *widget.Label
	updated   *widget.Label
	refresh   *widget.Button
}

func NewDiagnostics(onRefresh func()) *Diagnostics {
	d := &Diagnostics{
		session:   widget.NewLabel(""),
		record:    widget.NewLabel(""),
		status:    widget.NewLabel(""),
		lastWrite: widget.NewLabel(""),
		counters:  widget.NewLabel(""),
		commands:  widget.NewLabel(""),
		updated:   widget.NewLabel(""),
	}
	d.record.Wrapping = fyne.TextWrapWord
	d.commands.Wrapping = fyne.TextWrapWord

	d.form = widget.NewForm(
		widget.NewFormItem("Session", d.session),
		widget.NewFormItem("App state", d.record),
		widget.NewFormItem("Load status", d.status),
		widget.NewFormItem("Last write", d.lastWrite),
		widget.NewFormItem("Counters", d.counters),
		widget.NewFormItem("Commands", d.commands),
	)
	d.refresh = widget.NewButton("Refresh", onRefresh)
	d.container = container.NewBorder(nil, container.NewHBox(d.refresh, d.updated), nil, nil,
		container.NewVScroll(d.form))
	return d
}

func (d *Diagnostics) Update(info DiagnosticsInfo) {
	d.session.SetText(info.SessionID)
	if info.Loaded {
		d.record.SetText(FormatViewState(info.Record))
	} else {
		d.record.SetText("not loaded")
	}

	status := info.LoadStatus
	if info.LoadError != nil {
		status += ": " + info.LoadError.Error()
	}
	d.status.SetText(status)

	if info.LastWrite == "" {
		d.lastWrite.SetText("none")
	} else {
		d.lastWrite.SetText(info.LastWrite)
	}

	c := info.Counters
	d.counters.SetText(fmt.Sprintf("writes ok %.0f, failed %.0f | skipped %.0f | superseded %.0f | stale acks %.0f | retries %.0f",
		c.WritesOK, c.WritesError, c.Skipped, c.Superseded, c.StaleAcks, c.Retries))
	d.commands.SetText(strings.Join(info.Commands, ", "))
	d.updated.SetText("Updated " + time.Now().Format(time.TimeOnly))
}

// Summary returns the displayed values, one per line.
func (d *Diagnostics) Summary() string {
	return strings.Join([]string{d.record.Text, d.status.Text, d.lastWrite.Text, d.counters.Text}, "\n")
}

func (d *Diagnostics) GetContainer() *fyne.Container {
	return d.container
}
