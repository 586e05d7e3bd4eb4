package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/config"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/geocode"
	"github.com/treeshoptech/freedom-drains-pro/measure"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/project"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/session"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"github.com/treeshoptech/freedom-drains-pro/tui/canvas"
	"github.com/treeshoptech/freedom-drains-pro/tui/costpanel"
	"github.com/treeshoptech/freedom-drains-pro/tui/details"
	"github.com/treeshoptech/freedom-drains-pro/tui/help"
	"github.com/treeshoptech/freedom-drains-pro/tui/projectlist"
	"github.com/treeshoptech/freedom-drains-pro/tui/search"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
	"github.com/treeshoptech/freedom-drains-pro/tui/toolbar"
)

type ActiveView int

const (
	MapView ActiveView = iota
	ProjectsView
	SearchView
	DetailsView
)

const (
	toolbarWidth   = 24
	costPanelWidth = 34
	ioTimeout      = 10 * time.Second
)

// afterSave is work deferred until an in-flight save finishes.
type afterSave int

const (
	thenNothing afterSave = iota
	thenQuit
	thenNew
	thenOpen
)

// Deps are the collaborators the app is built from.
type Deps struct {
	Config   config.Config
	Store    store.Store
	Resolver geocode.Resolver
	Logger   *zap.Logger
	Clock    clock.Clock
	// OpenID, if set, is loaded on start.
	OpenID string
}

type App struct {
	cfg      config.Config
	store    store.Store
	resolver geocode.Resolver
	log      *zap.Logger
	clock    clock.Clock

	editor    *project.Editor
	sess      *session.Session
	canvas    *canvas.Canvas
	projector *render.Projector
	relay     *statusRelay

	activeView ActiveView
	showHelp   bool

	toolbar   toolbar.Model
	costPanel costpanel.Model
	projects  projectlist.Model
	search    search.Model
	details   details.Model
	helpView  help.Model

	spinner  spinner.Model
	loading  map[shared.LoaderOp]string
	feedback shared.Feedback

	saveAfterDetails bool
	then             afterSave
	thenID           string
	thenDetails      project.Details
	confirm          string
	openID           string

	width  int
	height int
}

func NewApp(deps Deps) (App, error) {
	cfg := deps.Config
	shared.InitStyles(cfg.ResolvedTheme())

	policy, err := cfg.ResolvedPolicy()
	if err != nil {
		return App{}, err
	}
	units, err := cfg.ResolvedUnitPrices()
	if err != nil {
		return App{}, err
	}
	palette, err := cfg.ResolvedPalette()
	if err != nil {
		return App{}, err
	}
	delay, err := cfg.ResolvedAutosaveDelay()
	if err != nil {
		return App{}, err
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}

	cv := canvas.New(cfg.ResolvedCenter(), cfg.ResolvedFeetPerCell())
	model := design.NewModel()
	sess := session.New(model, cv, session.WithLogger(log), session.WithUnitPrices(units))
	relay := newStatusRelay()
	editor := project.NewEditor(deps.Store, pricing.NewQuoter(policy, clk), sess,
		project.WithAutosaveDelay(delay),
		project.WithClock(clk),
		project.WithLogger(log),
		project.OnStatus(relay.publish))

	sp := spinner.New()
	sp.Spinner = shared.SpinnerKind
	sp.Style = shared.SpinnerStyle

	a := App{
		cfg:       cfg,
		store:     deps.Store,
		resolver:  deps.Resolver,
		log:       log.Named("tui"),
		clock:     clk,
		editor:    editor,
		sess:      sess,
		canvas:    cv,
		projector: render.NewProjector(model, palette, nil),
		relay:     relay,
		toolbar:   toolbar.New(palette),
		costPanel: costpanel.New(clk.Now),
		projects:  projectlist.New(clk.Now),
		search:    search.New(),
		details:   details.New(),
		helpView:  help.New(),
		spinner:   sp,
		loading:   make(map[shared.LoaderOp]string),
		openID:    deps.OpenID,
	}
	a.refresh()
	return a, nil
}

// Close stops autosaving and detaches from the design model.
func (a App) Close() {
	a.projector.Close()
	a.editor.Close()
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.relay.wait()}
	if a.openID != "" {
		id := a.openID
		cmds = append(cmds, func() tea.Msg { return shared.OpenProjectMsg{ID: id} })
	}
	return tea.Batch(cmds...)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := a.update(msg)
	next.refresh()
	return next, cmd
}

// refresh copies editor state into the side panels.
func (a *App) refresh() {
	a.toolbar.SetActive(a.sess.Tool())
	a.costPanel.SetQuote(a.editor.Quote())
	a.costPanel.SetProject(a.editor.Details(), a.editor.ID() != "")
	a.costPanel.SetStatus(a.editor.Status())
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layoutSizes()
		return a, nil

	case shared.SaveStatusMsg:
		return a, a.relay.wait()

	case shared.SaveCompleteMsg:
		delete(a.loading, shared.OpSave)
		return a.handleSaveComplete(msg)

	case shared.OpenProjectMsg:
		return a.openProject(msg.ID)

	case shared.ProjectsListedMsg:
		delete(a.loading, shared.OpLoad)
		a.projects.SetProjects(msg.Projects, msg.Err)
		return a, nil

	case shared.ProjectDeletedMsg:
		if msg.Err != nil {
			return a, a.notify(shared.FeedbackError, "Delete failed: "+msg.Err.Error())
		}
		if msg.ID == a.editor.ID() {
			a.editor.New(project.Details{})
			a.canvas.SetCenter(a.cfg.ResolvedCenter())
		}
		a.projects.SetLoading()
		spin := a.startLoading(shared.OpLoad, "Loading projects")
		return a, tea.Batch(spin, listProjectsCmd(a.store), a.notify(shared.FeedbackSuccess, "Project deleted"))

	case shared.ProjectStatusMsg:
		if msg.Err != nil {
			return a, a.notify(shared.FeedbackError, "Status change failed: "+msg.Err.Error())
		}
		a.projects.Replace(msg.Project)
		if msg.Project.ID == a.editor.ID() {
			d := a.editor.Details()
			d.Status = msg.Project.Status
			a.editor.SetDetails(d)
		}
		return a, a.notify(shared.FeedbackInfo, fmt.Sprintf("%s is now %s", msg.Project.Name, msg.Project.Status))

	case shared.SearchTickMsg:
		if a.activeView != SearchView || msg.Seq != a.search.Seq() {
			return a, nil
		}
		spin := a.startLoading(shared.OpSuggest, "Searching")
		return a, tea.Batch(spin, suggestCmd(a.resolver, a.search.Query(), msg.Seq))

	case shared.SuggestionsMsg:
		delete(a.loading, shared.OpSuggest)
		if a.search.SetSuggestions(msg) && msg.Err != nil {
			a.log.Warn("address suggest failed", zap.Error(msg.Err))
		}
		return a, nil

	case shared.PlaceResolvedMsg:
		delete(a.loading, shared.OpResolve)
		if msg.Err != nil {
			a.search.SetError(msg.Err)
			return a, nil
		}
		return a.goToPlace(msg.Place)

	case shared.CloseOverlayMsg:
		a.activeView = MapView
		return a, nil

	case shared.FeedbackMsg:
		a.feedback = msg.Feedback
		return a, clearFeedbackCmd(msg.Feedback)

	case shared.ClearFeedbackMsg:
		if a.feedback.Timestamp.Equal(msg.Timestamp) {
			a.feedback = shared.Feedback{}
		}
		return a, nil

	case spinner.TickMsg:
		if len(a.loading) == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// Route updates to the active overlay
	var cmd tea.Cmd
	switch a.activeView {
	case ProjectsView:
		a.projects, cmd = a.projects.Update(msg)
	case SearchView:
		a.search, cmd = a.search.Update(msg)
	case DetailsView:
		a.details, cmd = a.details.Update(msg)
	}
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (App, tea.Cmd) {
	if !a.overlayTyping() && key.Matches(msg, shared.Keys.Help) {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeView {
	case ProjectsView:
		return a.handleProjectsKey(msg)
	case SearchView:
		return a.handleSearchKey(msg)
	case DetailsView:
		return a.handleDetailsKey(msg)
	}
	return a.handleMapKey(msg)
}

func (a App) overlayTyping() bool {
	switch a.activeView {
	case ProjectsView:
		return a.projects.InInputMode()
	case SearchView, DetailsView:
		return true
	}
	return false
}

func (a App) handleMapKey(msg tea.KeyMsg) (App, tea.Cmd) {
	confirm := a.confirm
	a.confirm = ""

	switch {
	case key.Matches(msg, shared.Keys.Quit):
		return a.quit(confirm == "quit")

	case key.Matches(msg, shared.Keys.Escape):
		if a.canvas.Cancel() {
			return a, a.notify(shared.FeedbackInfo, "Drawing cancelled")
		}
		if a.canvas.Release() {
			return a, a.notify(shared.FeedbackInfo, "Vertex released")
		}
		if a.sess.Tool() != session.Select {
			a.selectTool(session.Select)
		}
		return a, nil

	case key.Matches(msg, shared.Keys.Up):
		a.canvas.MoveCursor(0, -1)
	case key.Matches(msg, shared.Keys.Down):
		a.canvas.MoveCursor(0, 1)
	case key.Matches(msg, shared.Keys.Left):
		a.canvas.MoveCursor(-1, 0)
	case key.Matches(msg, shared.Keys.Right):
		a.canvas.MoveCursor(1, 0)

	case key.Matches(msg, shared.Keys.Vertex):
		i, ok := a.canvas.NextVertex(1)
		if !ok {
			return a, a.notify(shared.FeedbackInfo, "Select a line or area to edit its vertices")
		}
		return a, a.notify(shared.FeedbackInfo, fmt.Sprintf("Vertex %d grabbed, shift+arrows to drag", i+1))

	case key.Matches(msg, shared.Keys.MoveUp):
		return a.moveSelected(0, -1)
	case key.Matches(msg, shared.Keys.MoveDown):
		return a.moveSelected(0, 1)
	case key.Matches(msg, shared.Keys.MoveLeft):
		return a.moveSelected(-1, 0)
	case key.Matches(msg, shared.Keys.MoveRight):
		return a.moveSelected(1, 0)

	case key.Matches(msg, shared.Keys.ZoomIn):
		a.canvas.Zoom(0.5)
	case key.Matches(msg, shared.Keys.ZoomOut):
		a.canvas.Zoom(2)
	case key.Matches(msg, shared.Keys.Recenter):
		a.recenter()

	case key.Matches(msg, shared.Keys.Click):
		return a.click()
	case key.Matches(msg, shared.Keys.Finish):
		return a.finish()
	case key.Matches(msg, shared.Keys.AltClick):
		return a.altClick()
	case key.Matches(msg, shared.Keys.Delete):
		n := a.sess.DeleteSelected()
		if n == 0 {
			return a, nil
		}
		return a, a.notify(shared.FeedbackInfo, fmt.Sprintf("Deleted %d feature(s)", n))
	case key.Matches(msg, shared.Keys.NextShape):
		a.canvas.SelectNext(1)
	case key.Matches(msg, shared.Keys.PrevShape):
		a.canvas.SelectNext(-1)
	case key.Matches(msg, shared.Keys.Undo):
		if err := a.sess.Undo(); err != nil {
			return a, a.notify(shared.FeedbackWarning, "Undo is not available")
		}

	case key.Matches(msg, shared.Keys.SelectTool):
		if t, ok := a.toolbar.ToolForKey(msg.String()); ok {
			a.selectTool(t)
		}
	case key.Matches(msg, shared.Keys.NextTool):
		a.selectTool(a.toolbar.Cycle(1))
	case key.Matches(msg, shared.Keys.PrevTool):
		a.selectTool(a.toolbar.Cycle(-1))

	case key.Matches(msg, shared.Keys.Save):
		return a.startSave()
	case key.Matches(msg, shared.Keys.Details):
		a.saveAfterDetails = false
		a.activeView = DetailsView
		return a, a.details.Edit(a.editor.Details())
	case key.Matches(msg, shared.Keys.Projects):
		a.activeView = ProjectsView
		a.projects.SetLoading()
		spin := a.startLoading(shared.OpLoad, "Loading projects")
		return a, tea.Batch(spin, listProjectsCmd(a.store))
	case key.Matches(msg, shared.Keys.Search):
		if a.resolver == nil {
			return a, a.notify(shared.FeedbackWarning, "Address search needs a geocoder token ("+config.TokenEnv+")")
		}
		a.activeView = SearchView
		return a, a.search.Open()
	case key.Matches(msg, shared.Keys.NewProj):
		return a.newProject(confirm == "new")
	}
	return a, nil
}

func (a *App) selectTool(t session.Tool) {
	if err := a.sess.SelectTool(t); err != nil {
		a.log.Warn("tool select failed", zap.Error(err))
	}
}

func (a App) click() (App, tea.Cmd) {
	tool := a.sess.Tool()
	switch {
	case tool.Places():
		f, placed, err := a.sess.HandleClick(a.canvas.Pointer())
		if err != nil {
			return a, a.notify(shared.FeedbackError, err.Error())
		}
		if placed {
			return a, a.notify(shared.FeedbackSuccess, fmt.Sprintf("Placed %s (%s)", f.Type.Title(), pricing.FormatMoney(int64(f.Price))))
		}
	case tool.Draws():
		a.canvas.AddVertex()
	default:
		if i, ok := a.canvas.GrabVertex(); ok {
			return a, a.notify(shared.FeedbackInfo, fmt.Sprintf("Vertex %d grabbed, shift+arrows to drag", i+1))
		}
		if id, ok := a.canvas.SelectAt(); ok {
			if f, found := a.editor.Model().Get(id); found {
				return a, a.notify(shared.FeedbackInfo, "Selected "+render.Text(f))
			}
		}
	}
	return a, nil
}

func (a App) finish() (App, tea.Cmd) {
	if !a.sess.Tool().Draws() {
		return a, nil
	}
	drawn, ok := a.canvas.Finish()
	if !ok {
		need := 2
		if a.sess.Tool().Mode() == session.ModeDrawPolygon {
			need = 3
		}
		return a, a.notify(shared.FeedbackWarning, fmt.Sprintf("Need at least %d points", need))
	}
	f, err := a.sess.HandleCreated(drawn)
	if err != nil {
		return a, a.notify(shared.FeedbackError, err.Error())
	}
	return a, a.notify(shared.FeedbackSuccess, "Added "+render.Text(f))
}

func (a App) altClick() (App, tea.Cmd) {
	id, ok := a.canvas.HitTest()
	if !ok {
		return a, nil
	}
	status, ok := a.sess.HandleAltClick(id)
	if !ok {
		return a, a.notify(shared.FeedbackInfo, "Only existing features can be marked failed")
	}
	f, _ := a.editor.Model().Get(id)
	if status == design.StatusFailed {
		return a, a.notify(shared.FeedbackWarning, f.Type.Title()+" marked failed")
	}
	return a, a.notify(shared.FeedbackInfo, f.Type.Title()+" marked working")
}

func (a App) moveSelected(dx, dy int) (App, tea.Cmd) {
	drawn, ok := a.canvas.Move(dx, dy)
	if !ok {
		return a, nil
	}
	if len(a.sess.HandleUpdated(drawn)) == 0 {
		a.sess.Reconcile()
		return a, a.notify(shared.FeedbackWarning, "Move rejected")
	}
	return a, nil
}

func (a *App) recenter() {
	features := a.editor.Model().Features()
	gs := make([]orb.Geometry, 0, len(features))
	for _, f := range features {
		gs = append(gs, f.Geometry)
	}
	if b, ok := measure.Bounds(gs...); ok {
		a.canvas.Fit(b)
		return
	}
	if d := a.editor.Details(); d.Lat != 0 || d.Lng != 0 {
		a.canvas.SetCenter(orb.Point{d.Lng, d.Lat})
		return
	}
	a.canvas.SetCenter(a.cfg.ResolvedCenter())
}

// startSave saves now, or opens the details form first when the project
// is missing its name or address.
func (a App) startSave() (App, tea.Cmd) {
	if err := a.editor.Details().Validate(); err != nil {
		a.saveAfterDetails = true
		a.activeView = DetailsView
		a.details.SetError(nil)
		return a, tea.Batch(a.details.Edit(a.editor.Details()),
			a.notify(shared.FeedbackWarning, "Add a project name and address to save"))
	}
	spin := a.startLoading(shared.OpSave, "Saving")
	return a, tea.Batch(spin, saveCmd(a.editor))
}

func (a App) handleSaveComplete(msg shared.SaveCompleteMsg) (App, tea.Cmd) {
	then, thenID, thenDetails := a.then, a.thenID, a.thenDetails
	a.then, a.thenID, a.thenDetails = thenNothing, "", project.Details{}

	if msg.Err != nil {
		a.log.Warn("save failed", zap.Error(msg.Err))
		if errors.Is(msg.Err, project.ErrMissingDetails) {
			a.saveAfterDetails = true
			a.activeView = DetailsView
			a.details.SetError(msg.Err)
			return a, a.details.Edit(a.editor.Details())
		}
		return a, a.notify(shared.FeedbackError, "Save failed: "+msg.Err.Error())
	}

	switch then {
	case thenQuit:
		return a, tea.Quit
	case thenNew:
		return a.resetProject(thenDetails)
	case thenOpen:
		return a.openProject(thenID)
	}
	return a, a.notify(shared.FeedbackSuccess, "Saved "+a.editor.Details().Name)
}

// guardUnsaved decides what to do with pending edits before the current
// project is replaced. It returns a command when the replacement has to
// wait for a save or for confirmation.
func (a *App) guardUnsaved(confirmed bool, then afterSave, id, confirmKey, verb string) (tea.Cmd, bool) {
	st := a.editor.Status()
	switch {
	case !st.Dirty:
		return nil, false
	case a.editor.ID() != "":
		a.then, a.thenID = then, id
		spin := a.startLoading(shared.OpSave, "Saving")
		return tea.Batch(spin, saveCmd(a.editor)), true
	case confirmed || a.editor.Model().Len() == 0:
		return nil, false
	default:
		a.confirm = confirmKey
		return a.notify(shared.FeedbackWarning, "This design was never saved. Press again to "+verb+" anyway"), true
	}
}

func (a App) quit(confirmed bool) (App, tea.Cmd) {
	if cmd, wait := a.guardUnsaved(confirmed, thenQuit, "", "quit", "quit"); wait {
		return a, cmd
	}
	return a, tea.Quit
}

func (a App) newProject(confirmed bool) (App, tea.Cmd) {
	if cmd, wait := a.guardUnsaved(confirmed, thenNew, "", "new", "discard it"); wait {
		return a, cmd
	}
	return a.resetProject(project.Details{})
}

// resetProject starts a blank project. Named projects are saved right
// away so they show up in the project list.
func (a App) resetProject(d project.Details) (App, tea.Cmd) {
	a.editor.New(d)
	a.canvas.SetCenter(a.cfg.ResolvedCenter())
	a.canvas.SetScale(a.cfg.ResolvedFeetPerCell())
	a.activeView = MapView
	if d.Validate() == nil {
		return a.startSave()
	}
	return a, a.notify(shared.FeedbackInfo, "New project")
}

func (a App) openProject(id string) (App, tea.Cmd) {
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	b, hasExt, err := a.editor.Open(ctx, id)
	if err != nil {
		a.log.Warn("open project failed", zap.String("id", id), zap.Error(err))
		return a, a.notify(shared.FeedbackError, "Open failed: "+err.Error())
	}
	d := a.editor.Details()
	switch {
	case hasExt:
		a.canvas.Fit(b)
	case d.Lat != 0 || d.Lng != 0:
		a.canvas.SetCenter(orb.Point{d.Lng, d.Lat})
	}
	a.activeView = MapView
	return a, a.notify(shared.FeedbackSuccess, "Opened "+d.Name)
}

func (a App) goToPlace(p geocode.Place) (App, tea.Cmd) {
	a.activeView = MapView
	a.canvas.SetCenter(orb.Point{p.Lng, p.Lat})
	a.canvas.SetScale(a.cfg.ResolvedFeetPerCell())

	d := a.editor.Details()
	d.Lat, d.Lng = p.Lat, p.Lng
	if strings.TrimSpace(d.Address) == "" {
		d.Address = p.Address
	}
	a.editor.SetDetails(d)
	return a, a.notify(shared.FeedbackSuccess, "Centered on "+p.Address)
}

func (a App) handleProjectsKey(msg tea.KeyMsg) (App, tea.Cmd) {
	confirm := a.confirm
	a.confirm = ""
	typing := a.projects.InInputMode()

	result := a.projects.HandleKey(msg)
	switch result.Action {
	case projectlist.ActionClose:
		return a, func() tea.Msg { return shared.CloseOverlayMsg{} }
	case projectlist.ActionOpen:
		if result.ID == a.editor.ID() {
			a.activeView = MapView
			return a, nil
		}
		if cmd, wait := a.guardUnsaved(confirm == "open", thenOpen, result.ID, "open", "open another"); wait {
			return a, cmd
		}
		return a.openProject(result.ID)
	case projectlist.ActionDelete:
		return a, deleteProjectCmd(a.store, result.ID)
	case projectlist.ActionCycleStatus:
		return a, updateStatusCmd(a.store, result.ID, result.Status)
	case projectlist.ActionCreate:
		d := project.Details{Name: result.Name, Address: result.Address}
		if cmd, wait := a.guardUnsaved(confirm == "create", thenNew, "", "create", "discard it"); wait {
			a.thenDetails = d
			return a, cmd
		}
		return a.resetProject(d)
	}

	if typing && a.projects.InInputMode() {
		var cmd tea.Cmd
		a.projects, cmd = a.projects.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) handleSearchKey(msg tea.KeyMsg) (App, tea.Cmd) {
	result := a.search.HandleKey(msg)
	switch result.Action {
	case search.ActionClose:
		return a, func() tea.Msg { return shared.CloseOverlayMsg{} }
	case search.ActionResolve:
		a.search.SetResolving(true)
		spin := a.startLoading(shared.OpResolve, "Locating")
		return a, tea.Batch(spin, resolveCmd(a.resolver, result.Candidate.ID))
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	return a, cmd
}

func (a App) handleDetailsKey(msg tea.KeyMsg) (App, tea.Cmd) {
	result, cmd := a.details.HandleKey(msg)
	switch result.Action {
	case details.ActionCancel:
		a.saveAfterDetails = false
		return a, func() tea.Msg { return shared.CloseOverlayMsg{} }
	case details.ActionSubmit:
		a.editor.SetDetails(result.Details)
		a.activeView = MapView
		if a.saveAfterDetails {
			a.saveAfterDetails = false
			return a.startSave()
		}
		return a, a.notify(shared.FeedbackInfo, "Details updated")
	}
	if cmd != nil {
		return a, cmd
	}
	a.details, cmd = a.details.Update(msg)
	return a, cmd
}

// startLoading records op as in flight. The spinner is started only when
// nothing else is loading.
func (a *App) startLoading(op shared.LoaderOp, label string) tea.Cmd {
	idle := len(a.loading) == 0
	a.loading[op] = label
	if idle {
		return a.spinner.Tick
	}
	return nil
}

// notify shows a status bar message and schedules its removal.
func (a App) notify(level shared.FeedbackLevel, text string) tea.Cmd {
	fb := shared.Feedback{Level: level, Message: text, Timestamp: a.clock.Now()}
	return func() tea.Msg { return shared.FeedbackMsg{Feedback: fb} }
}

func (a App) View() string {
	if a.showHelp {
		return a.helpView.View()
	}

	switch a.activeView {
	case ProjectsView:
		return a.projects.View()
	case SearchView:
		return a.search.ViewOverlay(a.width, a.height)
	case DetailsView:
		return a.details.View()
	}

	contentH := max(a.height-1, 1)
	cw, _ := a.canvas.Size()

	tb := lipgloss.NewStyle().Width(toolbarWidth).Height(contentH).MaxHeight(contentH).Render(a.toolbar.View())
	mapView := lipgloss.NewStyle().Width(cw).Height(contentH).MaxHeight(contentH).Render(a.canvas.View(a.projector.Items()))
	panel := shared.PanelStyle.Width(costPanelWidth - 2).Height(contentH).MaxHeight(contentH).Render(a.costPanel.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, tb, mapView, panel) + a.renderStatusBar()
}

func (a *App) layoutSizes() {
	contentH := max(a.height-1, 3)
	a.canvas.SetSize(max(a.width-toolbarWidth-costPanelWidth, 10), contentH)
	a.toolbar.SetSize(toolbarWidth, contentH)
	a.costPanel.SetSize(costPanelWidth-2, contentH)
	a.projects.SetSize(a.width, a.height)
	a.search.SetSize(a.width, a.height)
	a.details.SetSize(a.width, a.height)
	a.helpView.SetSize(a.width, a.height)
}

func (a App) renderStatusBar() string {
	parts := []string{a.sess.Tool().Title()}
	if n := len(a.canvas.Pending()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d pts (enter to finish)", n))
	}
	if i, ok := a.canvas.Vertex(); ok {
		parts = append(parts, fmt.Sprintf("vertex %d", i+1))
	}
	p := a.canvas.Pointer()
	parts = append(parts, fmt.Sprintf("%.5f, %.5f", p.Lat(), p.Lon()), fmt.Sprintf("%g ft/cell", a.canvas.FeetPerCell()))

	for _, op := range []shared.LoaderOp{shared.OpSave, shared.OpLoad, shared.OpSuggest, shared.OpResolve} {
		if label, ok := a.loading[op]; ok {
			parts = append(parts, a.spinner.View()+" "+label)
		}
	}
	if !a.feedback.Expired(a.clock.Now()) {
		parts = append(parts, a.feedback.Render())
	}

	status := strings.Join(parts, " │ ") + " │ ? for help"
	return "\n" + shared.StatusBarStyle.Width(a.width).Render(status)
}

// statusRelay hands the editor's save status, reported from the autosave
// goroutine, to the program. Only the latest status is kept.
type statusRelay struct {
	mu     sync.Mutex
	latest project.SaveStatus
	signal chan struct{}
}

func newStatusRelay() *statusRelay {
	return &statusRelay{signal: make(chan struct{}, 1)}
}

func (r *statusRelay) publish(s project.SaveStatus) {
	r.mu.Lock()
	r.latest = s
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *statusRelay) wait() tea.Cmd {
	return func() tea.Msg {
		<-r.signal
		r.mu.Lock()
		defer r.mu.Unlock()
		return shared.SaveStatusMsg{Status: r.latest}
	}
}

// --- Commands ---

func saveCmd(e *project.Editor) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		return shared.SaveCompleteMsg{Err: e.Save(ctx)}
	}
}

func listProjectsCmd(st store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		projects, err := st.List(ctx)
		return shared.ProjectsListedMsg{Projects: projects, Err: err}
	}
}

func deleteProjectCmd(st store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		return shared.ProjectDeletedMsg{ID: id, Err: st.Delete(ctx, id)}
	}
}

func updateStatusCmd(st store.Store, id string, status store.Status) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		p, err := st.UpdateStatus(ctx, id, status)
		return shared.ProjectStatusMsg{Project: p, Err: err}
	}
}

func suggestCmd(r geocode.Resolver, query string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		cands, err := r.Suggest(ctx, query)
		return shared.SuggestionsMsg{Query: query, Seq: seq, Candidates: cands, Err: err}
	}
}

func resolveCmd(r geocode.Resolver, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()
		place, err := r.Resolve(ctx, id)
		return shared.PlaceResolvedMsg{Place: place, Err: err}
	}
}

func clearFeedbackCmd(fb shared.Feedback) tea.Cmd {
	return tea.Tick(shared.FeedbackTTL(fb.Level), func(time.Time) tea.Msg {
		return shared.ClearFeedbackMsg{Timestamp: fb.Timestamp}
	})
}
