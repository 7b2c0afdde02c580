package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/export"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

type settleState int

const (
	settleStateBrowse settleState = iota
	settleStateAmount
	settleStateFilter
	settleStateCommit
	settleStateSubmitting
)

// commitBinding outlives model copies so the huh form can write into it.
type commitBinding struct {
	method  charge.Method
	confirm bool
}

type SettlementModel struct {
	CommonModel
	desk    *settlement.Desk
	exports *export.Service
	format  *Formatter
	timeout time.Duration

	state   settleState
	snap    settlement.View
	rowIDs  []uuid.UUID
	table   table.Model
	spinner spinner.Model
	loading bool

	amountInput textinput.Model
	filterInput textinput.Model
	editing     uuid.UUID

	form    *huh.Form
	binding *commitBinding

	status string
	err    error
}

func NewSettlementModel(desk *settlement.Desk, exports *export.Service, format *Formatter, timeout time.Duration) SettlementModel {
	t := table.New(
		table.WithColumns(pendingColumns()),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ai := textinput.New()
	ai.Placeholder = "0.00"
	ai.CharLimit = 16
	ai.Width = 16

	fi := textinput.New()
	fi.Placeholder = "owner, unit or concept"
	fi.CharLimit = 64
	fi.Width = 32

	return SettlementModel{
		desk:        desk,
		exports:     exports,
		format:      format,
		timeout:     timeout,
		table:       t,
		spinner:     sp,
		amountInput: ai,
		filterInput: fi,
		snap:        desk.Snapshot(),
		loading:     true,
	}
}

func pendingColumns() []table.Column {
	return []table.Column{
		{Title: " ", Width: 3},
		{Title: "Owner", Width: 20},
		{Title: "Unit", Width: 6},
		{Title: "Concept", Width: 26},
		{Title: "Due", Width: 10},
		{Title: "Total", Width: 12},
		{Title: "Balance", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Status", Width: 14},
	}
}

func historyColumns() []table.Column {
	return []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Owner", Width: 20},
		{Title: "Unit", Width: 6},
		{Title: "Method", Width: 10},
		{Title: "Total", Width: 12},
		{Title: "Charges", Width: 40},
	}
}

var _ View = SettlementModel{}

func (m SettlementModel) Title() string {
	return fmt.Sprintf("%s · %s", m.desk.Kind().Label(), m.snap.Mode)
}

func (m SettlementModel) ShortHelp() string {
	switch m.state {
	case settleStateAmount:
		return "Enter: apply | Esc: cancel"
	case settleStateFilter:
		return "Enter: apply | Esc: clear"
	case settleStateCommit:
		return "Navigate form | Esc: cancel"
	case settleStateSubmitting:
		return "Submitting..."
	}

	if m.snap.Mode == settlement.AllHistory {
		return "Esc: back | v: pending | p: download receipt | x: export xlsx | /: filter | r: reload"
	}

	return "Esc: back | space: select | e: amount | c: commit | v: history | /: filter | r: reload"
}

func (m SettlementModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd(false))
}

func (m SettlementModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogMsg:
		m.loading = false
		m.refresh()

		if err := m.snap.Catalog.Err; err != nil {
			m.err = err
		} else {
			m.err = nil
		}

		return m, nil

	case commitMsg:
		return m.handleCommit(msg)

	case savedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("%s saved to %s", msg.what, msg.path)
		}

		return m, nil

	case spinner.TickMsg:
		if !m.loading && m.state != settleStateSubmitting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-14, 5))

		return m, nil
	}

	switch m.state {
	case settleStateBrowse:
		return m.updateBrowse(msg)
	case settleStateAmount:
		return m.updateAmount(msg)
	case settleStateFilter:
		return m.updateFilter(msg)
	case settleStateCommit:
		return m.updateCommit(msg)
	}

	return m, nil
}

func (m SettlementModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok && keyMsg.String() == "esc" {
		return m, Back
	}

	if ok && !m.loading {
		switch keyMsg.String() {
		case "r":
			m.status = ""
			m.loading = true

			return m, tea.Batch(m.spinner.Tick, m.loadCmd(false))
		case "v":
			m.status = ""
			m.loading = true

			return m, tea.Batch(m.spinner.Tick, m.loadCmd(true))
		case "/":
			m.state = settleStateFilter
			m.filterInput.SetValue(m.snap.Catalog.Filter)
			m.table.Blur()

			return m, m.filterInput.Focus()
		}

		if m.snap.Mode == settlement.AllHistory {
			switch keyMsg.String() {
			case "p":
				return m, m.downloadReceiptCmd()
			case "x":
				return m, m.exportHistoryCmd()
			}
		} else {
			switch keyMsg.String() {
			case " ", "space":
				return m.toggleCurrent()
			case "e":
				return m.enterAmountMode()
			case "c":
				return m.enterCommitMode()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m SettlementModel) currentID() (uuid.UUID, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.rowIDs) {
		return uuid.Nil, false
	}

	return m.rowIDs[idx], true
}

func (m SettlementModel) toggleCurrent() (tea.Model, tea.Cmd) {
	id, ok := m.currentID()
	if !ok {
		return m, nil
	}

	m.status = ""
	if err := m.desk.Toggle(id); err != nil {
		if errors.Is(err, charge.ErrOwnerMismatch) {
			m.status = "Only charges of the same owner can be settled together"
		} else {
			m.status = fmt.Sprintf("Error: %v", err)
		}
	}

	m.refresh()

	return m, nil
}

func (m SettlementModel) enterAmountMode() (tea.Model, tea.Cmd) {
	id, ok := m.currentID()
	if !ok {
		return m, nil
	}

	raw, selected := m.snap.Selection.Amount(id)
	if !selected {
		m.status = "Select the charge before editing its amount"
		return m, nil
	}

	m.editing = id
	m.amountInput.SetValue(raw)
	m.amountInput.CursorEnd()
	m.state = settleStateAmount
	m.table.Blur()

	return m, m.amountInput.Focus()
}

func (m SettlementModel) updateAmount(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m.backToBrowse(), nil
		case tea.KeyEnter:
			m.desk.SetAmount(m.editing, m.amountInput.Value())
			m.refresh()

			return m.backToBrowse(), nil
		}
	}

	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)

	return m, cmd
}

func (m SettlementModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.desk.SetFilter("")
			m.refresh()

			return m.backToBrowse(), nil
		case tea.KeyEnter:
			return m.backToBrowse(), nil
		}
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)

	// Filtering is local, apply it as the operator types.
	m.desk.SetFilter(m.filterInput.Value())
	m.refresh()

	return m, cmd
}

func (m SettlementModel) backToBrowse() SettlementModel {
	m.state = settleStateBrowse
	m.amountInput.Blur()
	m.filterInput.Blur()
	m.form = nil
	m.table.Focus()

	return m
}

func (m SettlementModel) enterCommitMode() (tea.Model, tea.Cmd) {
	m.refresh()

	if m.snap.Submitting {
		return m, nil
	}

	if len(m.snap.Problems) > 0 {
		m.status = "Cannot commit: " + m.snap.Problems[0].Message
		if n := len(m.snap.Problems) - 1; n > 0 {
			m.status += fmt.Sprintf(" (and %d more)", n)
		}

		return m, nil
	}

	owner := ""
	if id, ok := m.snap.Selection.Owner(); ok {
		owner = id.String()
		for _, c := range m.snap.Catalog.Index() {
			if c.OwnerID == id && c.OwnerName() != "" {
				owner = c.OwnerName()
				break
			}
		}
	}

	m.binding = &commitBinding{method: charge.MethodCash}

	options := make([]huh.Option[charge.Method], len(charge.Methods))
	for i, method := range charge.Methods {
		options[i] = huh.NewOption(methodLabel(method), method)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[charge.Method]().
				Key("method").
				Title("Payment method").
				Options(options...).
				Value(&m.binding.method),

			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Settle %d charge(s) for %s?", m.snap.Selection.Count(), owner)).
				Description("Total "+m.format.Amount(m.snap.TotalRequested)).
				Affirmative("Settle").
				Negative("Cancel").
				Value(&m.binding.confirm),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = settleStateCommit
	m.table.Blur()

	return m, m.form.Init()
}

func (m SettlementModel) updateCommit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m.backToBrowse(), nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
	case huh.StateAborted:
		return m.backToBrowse(), nil
	default:
		return m, cmd
	}

	if !m.binding.confirm {
		return m.backToBrowse(), nil
	}

	method := m.binding.method
	m = m.backToBrowse()
	m.state = settleStateSubmitting
	m.status = ""
	m.table.Blur()

	return m, tea.Batch(m.spinner.Tick, m.commitCmd(method))
}

func (m SettlementModel) handleCommit(msg commitMsg) (tea.Model, tea.Cmd) {
	m = m.backToBrowse()
	m.refresh()

	var (
		vErr *settlement.ValidationFailedError
		rErr *settlement.ReceiptUnavailableError
		sErr *settlement.RejectionError
	)

	switch {
	case msg.err == nil && msg.saveErr != nil:
		m.status = fmt.Sprintf("Payment %s recorded, but the receipt could not be saved: %v", msg.paymentID, msg.saveErr)
	case msg.err == nil:
		m.status = fmt.Sprintf("Payment %s recorded. Receipt saved to %s", msg.paymentID, msg.path)
	case errors.As(msg.err, &rErr):
		m.status = fmt.Sprintf("Payment %s recorded, but the receipt is unavailable. Download it later from the history view.", rErr.PaymentID)
	case errors.Is(msg.err, settlement.ErrOutcomeUnknown):
		m.status = "The ledger accepted the settlement but did not confirm the payment. The list was reloaded; check the history view before settling again."
	case errors.As(msg.err, &vErr):
		m.status = "Fix the highlighted problems before committing"
	case errors.As(msg.err, &sErr):
		m.status = "Rejected: " + sErr.Message
	case errors.Is(msg.err, settlement.ErrTimeout):
		m.status = "The ledger did not answer in time. Nothing was recorded; try again."
	case errors.Is(msg.err, settlement.ErrNetwork):
		m.status = "The ledger is unreachable. Nothing was recorded; try again."
	case errors.Is(msg.err, settlement.ErrSubmissionInProgress):
		m.status = "A settlement is already being submitted"
	default:
		m.status = fmt.Sprintf("Error: %v", msg.err)
	}

	return m, nil
}

func methodLabel(m charge.Method) string {
	switch m {
	case charge.MethodCash:
		return "Cash"
	case charge.MethodTransfer:
		return "Bank transfer"
	case charge.MethodCard:
		return "Card"
	case charge.MethodCheck:
		return "Check"
	}

	return string(m)
}

// refresh pulls a fresh snapshot from the desk and rebuilds the table rows.
func (m *SettlementModel) refresh() {
	prevMode := m.snap.Mode
	m.snap = m.desk.Snapshot()

	if m.snap.Mode != prevMode {
		m.table.SetRows(nil)

		if m.snap.Mode == settlement.AllHistory {
			m.table.SetColumns(historyColumns())
		} else {
			m.table.SetColumns(pendingColumns())
		}
	}

	if m.snap.Mode == settlement.AllHistory {
		m.refreshHistory()
	} else {
		m.refreshPending()
	}

	if m.table.Cursor() >= len(m.rowIDs) {
		m.table.SetCursor(max(len(m.rowIDs)-1, 0))
	}
}

func (m *SettlementModel) refreshPending() {
	charges := m.snap.Catalog.Charges
	rows := make([]table.Row, 0, len(charges))
	m.rowIDs = make([]uuid.UUID, 0, len(charges))

	for _, c := range charges {
		check, amount := "[ ]", ""
		if raw, ok := m.snap.Selection.Amount(c.ID); ok {
			check, amount = "[x]", raw
		}

		due := ""
		if c.DueDate != nil {
			due = FormatDate(*c.DueDate)
		}

		unit := ""
		if c.Owner != nil {
			unit = c.Owner.Unit
		}

		rows = append(rows, table.Row{
			check,
			c.OwnerName(),
			unit,
			c.Concept,
			due,
			m.format.Amount(c.AmountTotal),
			m.format.Amount(c.Balance()),
			amount,
			statusLabel(c.Status),
		})
		m.rowIDs = append(m.rowIDs, c.ID)
	}

	m.table.SetRows(rows)
}

func (m *SettlementModel) refreshHistory() {
	payments := m.snap.Catalog.Payments
	rows := make([]table.Row, 0, len(payments))
	m.rowIDs = make([]uuid.UUID, 0, len(payments))

	for _, p := range payments {
		concepts := make([]string, len(p.Allocations))
		for i, a := range p.Allocations {
			concepts[i] = fmt.Sprintf("%s %s", a.Concept, m.format.Amount(a.Amount))
		}

		unit := ""
		if p.Owner != nil {
			unit = p.Owner.Unit
		}

		rows = append(rows, table.Row{
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
			p.OwnerName(),
			unit,
			methodLabel(p.Method),
			m.format.Amount(p.Total),
			strings.Join(concepts, ", "),
		})
		m.rowIDs = append(m.rowIDs, p.ID)
	}

	m.table.SetRows(rows)
}

func statusLabel(s charge.Status) string {
	switch s {
	case charge.StatusPending:
		return "Pending"
	case charge.StatusPartiallyPaid:
		return "Partially paid"
	case charge.StatusPaid:
		return "Paid"
	}

	return string(s)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
)

func (m SettlementModel) View() string {
	header := titleStyle.Render(m.Title())
	if f := m.snap.Catalog.Filter; f != "" && m.state != settleStateFilter {
		header += faintStyle.Render(fmt.Sprintf("  filter: %q", f))
	}

	parts := []string{header}

	if m.err != nil {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("Could not load: %v (r to retry)", m.err)))
	}

	if m.loading {
		parts = append(parts, fmt.Sprintf("%s Loading...", m.spinner.View()))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	body := tableView
	if m.snap.Mode == settlement.PendingOnly {
		body = lipgloss.JoinHorizontal(lipgloss.Top, tableView, m.totalsPanel())
	}

	parts = append(parts, body)

	switch m.state {
	case settleStateAmount:
		parts = append(parts, "Amount: "+m.amountInput.View())
	case settleStateFilter:
		parts = append(parts, "Filter: "+m.filterInput.View())
	case settleStateSubmitting:
		parts = append(parts, fmt.Sprintf("%s Submitting settlement...", m.spinner.View()))
	}

	if m.status != "" {
		parts = append(parts, faintStyle.Render(m.status))
	}

	parts = append(parts, faintStyle.Render(m.ShortHelp()))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.state == settleStateCommit && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m SettlementModel) totalsPanel() string {
	lines := []string{
		fmt.Sprintf("Selected:    %d", m.snap.Selection.Count()),
		fmt.Sprintf("Outstanding: %s", m.format.Amount(m.snap.TotalOutstanding)),
		fmt.Sprintf("To pay:      %s", m.format.Amount(m.snap.TotalRequested)),
	}

	if m.snap.Selection.Count() > 0 {
		lines = append(lines, "")

		for _, p := range m.snap.Problems {
			lines = append(lines, errorStyle.Render("• "+p.Message))
		}

		if m.snap.CanCommit() {
			lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("Ready: press c to commit"))
		}
	}

	return lipgloss.NewStyle().
		Padding(0, 2).
		Width(44).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(strings.Join(lines, "\n"))
}

// Messages

type catalogMsg struct{}

func (m SettlementModel) loadCmd(switchMode bool) tea.Cmd {
	desk, timeout := m.desk, m.timeout
	next := settlement.PendingOnly
	if m.snap.Mode == settlement.PendingOnly {
		next = settlement.AllHistory
	}

	return func() tea.Msg {
		ctx, cancel := LedgerCtx(timeout)
		defer cancel()

		if switchMode {
			desk.SetMode(ctx, next)
		} else {
			desk.Load(ctx)
		}

		return catalogMsg{}
	}
}

type commitMsg struct {
	paymentID uuid.UUID
	path      string
	err       error
	saveErr   error
}

func (m SettlementModel) commitCmd(method charge.Method) tea.Cmd {
	desk, exports, timeout := m.desk, m.exports, m.timeout

	return func() tea.Msg {
		// Submission plus the post-commit reload.
		ctx, cancel := LedgerCtx(2 * timeout)
		defer cancel()

		receipt, err := desk.Commit(ctx, method)
		if err != nil {
			return commitMsg{err: err}
		}

		path, saveErr := exports.SaveReceipt(receipt)

		return commitMsg{paymentID: receipt.PaymentID, path: path, saveErr: saveErr}
	}
}

type savedMsg struct {
	what string
	path string
	err  error
}

func (m SettlementModel) downloadReceiptCmd() tea.Cmd {
	id, ok := m.currentID()
	if !ok {
		return nil
	}

	desk, exports, timeout := m.desk, m.exports, m.timeout

	return func() tea.Msg {
		ctx, cancel := LedgerCtx(timeout)
		defer cancel()

		receipt, err := desk.Receipt(ctx, id)
		if err != nil {
			return savedMsg{err: err}
		}

		path, err := exports.SaveReceipt(receipt)

		return savedMsg{what: "Receipt", path: path, err: err}
	}
}

func (m SettlementModel) exportHistoryCmd() tea.Cmd {
	payments := m.snap.Catalog.Payments
	if len(payments) == 0 {
		return func() tea.Msg { return savedMsg{err: errors.New("no payments to export")} }
	}

	exports, kind := m.exports, m.desk.Kind()

	return func() tea.Msg {
		path, err := exports.SavePayments(kind, payments)
		return savedMsg{what: "History", path: path, err: err}
	}
}
