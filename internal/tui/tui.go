package tui

import (
	"context"
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/jesseduffield/gocui"
	"github.com/shenikar/incident_tracking_system/internal/client"
	"github.com/shenikar/incident_tracking_system/internal/models"
)

const (
	viewHeader  = "header"
	viewList    = "incidents"
	viewDetail  = "detail"
	viewFooter  = "footer"
	viewForm    = "form"
	viewConfirm = "confirm"
)

// UI - явное состояние клиента: список, выбор, фильтр, loading-флаг,
// строка статуса и состояние модальных окон. Глобальных переменных нет.
type UI struct {
	api *client.Client
	gui *gocui.Gui

	incidents []models.Incident
	selected  int
	filter    string

	loading bool
	status  string

	form          *formState
	formEditor    *formEditor
	confirmActive bool
	confirmID     uuid.UUID
}

type formState struct {
	incidentID uuid.UUID
	fields     []formField
	index      int
	message    string
}

type formEditor struct {
	ui *UI
}

func Run(api *client.Client) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := &UI{
		api: api,
		gui: gui,
	}
	ui.formEditor = &formEditor{ui: ui}

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	ui.loadIncidents("")

	if err := gui.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

// bindKeys - таблица диспетчеризации событий
func (u *UI) bindKeys(gui *gocui.Gui) error {
	if err := gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, u.quit); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'q', gocui.ModNone, u.quitIfIdle); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'r', gocui.ModNone, u.reload); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'f', gocui.ModNone, u.cycleFilter); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'a', gocui.ModNone, u.addIncident); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'e', gocui.ModNone, u.editIncident); err != nil {
		return err
	}
	if err := gui.SetKeybinding("", 'c', gocui.ModNone, u.closeIncident); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'j', gocui.ModNone, u.moveDown); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewList, 'k', gocui.ModNone, u.moveUp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitFormNow); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'y', gocui.ModNone, u.confirmClose); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'n', gocui.ModNone, u.declineClose); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEsc, gocui.ModNone, u.declineClose); err != nil {
		return err
	}
	return nil
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := maxY - 2
	if footerY1 < 1 {
		footerY1 = 1
	}
	footerY0 := footerY1 - 2
	if footerY0 < 1 {
		footerY0 = 1
	}
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	listWidth := maxX * 3 / 5
	if listWidth < 40 {
		listWidth = min(40, maxX-2)
	}

	listView, err := gui.SetView(viewList, 0, bodyTop, listWidth-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		listView.Title = "Incidents"
	}
	u.renderList(listView)

	detailView, err := gui.SetView(viewDetail, listWidth, bodyTop, maxX-1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		detailView.Title = "Detail"
	}
	u.renderDetail(detailView)

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.confirmActive {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(viewList)
	}

	gui.Cursor = u.form != nil

	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	loadingLabel := ""
	if u.loading {
		loadingLabel = " | Loading..."
	}
	fmt.Fprintf(view, "Incident Tracker | Filter: %s | %d incidents%s", filterLabel(u.filter), len(u.incidents), loadingLabel)
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	fmt.Fprintln(view, "a add | e edit | c close | f filter | r reload | j/k move | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderList(view *gocui.View) {
	view.Clear()
	for i, incident := range u.incidents {
		prefix := " "
		if i == u.selected {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatIncidentSummary(incident))
	}
	view.SetCursor(0, min(u.selected, len(u.incidents)-1))
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	selected := u.selectedIncident()
	if selected == nil {
		fmt.Fprint(view, "No incident selected")
		return
	}

	fmt.Fprintf(view, "Type: %s\n", selected.Type)
	fmt.Fprintf(view, "Status: %s\n", selected.Status)
	fmt.Fprintf(view, "Start: %s\n", formatDate(selected.StartDate))
	fmt.Fprintf(view, "End: %s\n", formatOptionalDate(selected.EndDate))
	fmt.Fprintf(view, "\n%s\n", selected.Description)
	if selected.Remarks != "" {
		fmt.Fprintf(view, "\nRemarks: %s\n", selected.Remarks)
	}
	if selected.Status == models.StatusClosed {
		fmt.Fprint(view, "\nClosed incidents cannot be edited or closed again.")
	}
}

func (u *UI) selectedIncident() *models.Incident {
	if u.selected < 0 || u.selected >= len(u.incidents) {
		return nil
	}
	return &u.incidents[u.selected]
}

func (u *UI) inputActive() bool {
	return u.form != nil || u.confirmActive
}

// applyIncidents принимает результат загрузки списка; вызывается только из gui.Update
func (u *UI) applyIncidents(incidents []models.Incident, err error, successStatus string) {
	if err != nil {
		u.status = err.Error()
		return
	}
	u.incidents = incidents
	if u.selected >= len(u.incidents) {
		u.selected = max(len(u.incidents)-1, 0)
	}
	u.status = successStatus
}

// loadIncidents перезагружает список в горутине; loading-флаг блокирует
// все мутирующие действия до завершения вызова
func (u *UI) loadIncidents(successStatus string) {
	if u.loading {
		return
	}
	u.loading = true
	u.status = "Loading..."
	filter := u.filter
	go func() {
		incidents, err := u.api.ListIncidents(context.Background(), filter)
		u.gui.Update(func(*gocui.Gui) error {
			u.loading = false
			u.applyIncidents(incidents, err, successStatus)
			return nil
		})
	}()
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func (u *UI) quitIfIdle(gui *gocui.Gui, view *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.quit(gui, view)
}

func (u *UI) reload(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.loading {
		return nil
	}
	u.loadIncidents("")
	return nil
}

func (u *UI) cycleFilter(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.loading {
		return nil
	}
	u.filter = nextFilter(u.filter)
	u.loadIncidents("")
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected < len(u.incidents)-1 {
		u.selected++
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.selected > 0 {
		u.selected--
	}
	return nil
}

func (u *UI) addIncident(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.loading {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil)}
	return nil
}

// editIncident запрашивает свежую запись и открывает форму редактирования.
// Закрытые инциденты редактировать нельзя.
func (u *UI) editIncident(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.loading {
		return nil
	}
	selected := u.selectedIncident()
	if selected == nil {
		return nil
	}
	if selected.Status == models.StatusClosed {
		u.status = "Closed incidents cannot be edited."
		return nil
	}

	id := selected.ID
	u.loading = true
	u.status = "Loading..."
	go func() {
		incident, err := u.api.GetIncident(context.Background(), id)
		u.gui.Update(func(*gocui.Gui) error {
			u.loading = false
			if err != nil {
				u.status = err.Error()
				return nil
			}
			u.form = &formState{incidentID: id, fields: buildFormFields(incident)}
			u.status = ""
			return nil
		})
	}()
	return nil
}

// closeIncident открывает окно подтверждения закрытия
func (u *UI) closeIncident(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.loading {
		return nil
	}
	selected := u.selectedIncident()
	if selected == nil {
		return nil
	}
	if selected.Status == models.StatusClosed {
		u.status = "Incident is already closed."
		return nil
	}

	u.confirmActive = true
	u.confirmID = selected.ID
	return nil
}

func (u *UI) confirmClose(gui *gocui.Gui, _ *gocui.View) error {
	if !u.confirmActive || u.loading {
		return nil
	}
	id := u.confirmID
	u.confirmActive = false
	_ = gui.DeleteView(viewConfirm)
	_, _ = gui.SetCurrentView(viewList)

	previousStatus := u.status
	u.loading = true
	u.status = "Closing..."
	filter := u.filter
	go func() {
		_, err := u.api.CloseIncident(context.Background(), id, "")
		var incidents []models.Incident
		var listErr error
		if err == nil {
			incidents, listErr = u.api.ListIncidents(context.Background(), filter)
		}
		u.gui.Update(func(*gocui.Gui) error {
			u.loading = false
			if err != nil {
				// Неудачное закрытие возвращает строку статуса в прежнее состояние
				u.status = previousStatus
				if err.Error() != "" {
					u.status = err.Error()
				}
				return nil
			}
			u.applyIncidents(incidents, listErr, "Incident closed successfully.")
			return nil
		})
	}()
	return nil
}

func (u *UI) declineClose(gui *gocui.Gui, _ *gocui.View) error {
	u.confirmActive = false
	_ = gui.DeleteView(viewConfirm)
	_, _ = gui.SetCurrentView(viewList)
	return nil
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(44, maxX/3)
	height := 3
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Close Incident"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, "Are you sure you want to close this incident?\n(y/n)")
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(12, max(9, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	if u.form.incidentID != uuid.Nil {
		view.Title = "Edit Incident"
	} else {
		view.Title = "New Incident"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	if u.form.message != "" {
		fmt.Fprintf(view, "\n%s\n", u.form.message)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

// submitFormNow валидирует форму и отправляет создание либо обновление.
// Ошибка валидации или API показывается внутри формы, форма остается открытой.
func (u *UI) submitFormNow(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil || u.loading {
		return nil
	}
	form := u.form
	filter := u.filter

	if form.incidentID == uuid.Nil {
		req, err := parseCreateForm(form.fields)
		if err != nil {
			form.message = err.Error()
			return nil
		}
		u.loading = true
		u.status = "Saving..."
		go func() {
			_, apiErr := u.api.CreateIncident(context.Background(), req)
			var incidents []models.Incident
			var listErr error
			if apiErr == nil {
				incidents, listErr = u.api.ListIncidents(context.Background(), filter)
			}
			u.gui.Update(func(g *gocui.Gui) error {
				u.loading = false
				if apiErr != nil {
					form.message = apiErr.Error()
					u.status = ""
					return nil
				}
				u.dismissForm(g)
				u.applyIncidents(incidents, listErr, "Incident created successfully!")
				return nil
			})
		}()
		return nil
	}

	req, err := parseUpdateForm(form.fields)
	if err != nil {
		form.message = err.Error()
		return nil
	}
	id := form.incidentID
	u.loading = true
	u.status = "Saving..."
	go func() {
		_, apiErr := u.api.UpdateIncident(context.Background(), id, req)
		var incidents []models.Incident
		var listErr error
		if apiErr == nil {
			incidents, listErr = u.api.ListIncidents(context.Background(), filter)
		}
		u.gui.Update(func(g *gocui.Gui) error {
			u.loading = false
			if apiErr != nil {
				form.message = apiErr.Error()
				u.status = ""
				return nil
			}
			u.dismissForm(g)
			u.applyIncidents(incidents, listErr, "Incident updated successfully!")
			return nil
		})
	}()
	return nil
}

func (u *UI) dismissForm(gui *gocui.Gui) {
	u.form = nil
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(viewList)
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.loading {
		return nil
	}
	u.dismissForm(gui)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	if isStatusField(field.Label) {
		switch key {
		case gocui.KeyArrowRight, gocui.KeyArrowLeft, gocui.KeySpace:
			field.Value = cycleStatus(field.Value)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}
