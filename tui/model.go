package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-session/automation"
	"go-session/debug"
	"go-session/midi"
	"go-session/sequencer"
	"go-session/theme"
)

type Model struct {
	Manager   *sequencer.Manager
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme
	quitting  bool

	// save label prompt
	saving    bool
	textInput textinput.Model
	message   string
}

type UpdateMsg struct{}

type DeviceEventMsg midi.DeviceEvent

func NewModel(manager *sequencer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme) Model {
	return Model{
		Manager:   manager,
		DeviceMgr: deviceMgr,
		Theme:     th,
		textInput: initTextInput(),
	}
}

func initTextInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "label (optional)"
	ti.Prompt = "save as: "
	ti.CharLimit = 40
	ti.Width = 40
	return ti
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.saving {
			return m.updateSavePrompt(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Manager.Stop()
			return m, tea.Quit

		case "p":
			m.Manager.TogglePlay()

		case "+", "=":
			m.Manager.SetTempo(m.Manager.Tempo() + 5)

		case "-", "_":
			m.Manager.SetTempo(m.Manager.Tempo() - 5)

		case "tab":
			m.Manager.FocusNext()

		case "ctrl+s":
			if m.Manager.Library() == nil {
				m.message = "saving disabled"
				break
			}
			m.saving = true
			m.message = ""
			cmd := m.textInput.Focus()
			return m, cmd

		case "ctrl+o":
			if err := m.Manager.Load(""); err != nil {
				debug.Log("tui", "load: %v", err)
				m.message = err.Error()
			} else {
				m.message = "loaded latest save of " + m.Manager.Project()
			}

		default:
			m.Manager.HandleKey(msg.String())
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.Manager.Attach(event.Controller)
		case midi.DeviceDisconnected:
			m.Manager.Detach(event.ID)
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m Model) updateSavePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		label := m.textInput.Value()
		m.textInput.Reset()
		m.textInput.Blur()
		m.saving = false
		filename, err := m.Manager.Save(label)
		if err != nil {
			debug.Log("tui", "save: %v", err)
			m.message = err.Error()
		} else {
			m.message = "saved " + filename
		}
		return m, nil
	case tea.KeyEsc:
		m.textInput.Reset()
		m.textInput.Blur()
		m.saving = false
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// positionString formats the playhead as bar.beat, both one-based
func positionString(st sequencer.Status) string {
	pos := st.Position
	beatInBar := int(math.Mod(math.Max(0, pos.Beat), pos.Signature.Bar()))
	return fmt.Sprintf("%3d.%d", pos.Bar()+1, beatInBar+1)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.Status()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	messageStyle := lipgloss.NewStyle().
		Foreground(m.Theme.FG()).
		Background(m.Theme.Muted()).
		Padding(0, 1)

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}

	deviceStatus := ""
	if st.Controller != "" {
		deviceStatus = " LP"
	}

	header := headerStyle.Render(fmt.Sprintf("go-session  %s  %3.0fbpm  %s  q:%s%s",
		playState, st.Tempo, positionString(st), st.Quantize, deviceStatus))
	if st.RecordMode != automation.RecordOff {
		header += activeStyle.Render(fmt.Sprintf("  REC %s", st.RecordMode))
	}
	if st.Project != "" {
		header += dimStyle.Render("  " + st.Project)
	}

	var tabs []string
	focused := m.Manager.Focused()
	for _, v := range m.Manager.Views() {
		if v == focused {
			tabs = append(tabs, headerStyle.Render("["+v.Name()+"]"))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+v.Name()+" "))
		}
	}

	help := dimStyle.Render("tab:view  p:play  +/-:tempo  ctrl+s:save  ctrl+o:load latest  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(strings.Join(tabs, " "))
	out.WriteString("\n\n")
	out.WriteString(m.Manager.View())
	out.WriteString("\n\n")
	if m.saving {
		out.WriteString(m.textInput.View())
		out.WriteString("\n")
	}
	out.WriteString(help)

	if m.message != "" {
		out.WriteString("\n")
		out.WriteString(messageStyle.Render(m.message))
	}

	return out.String()
}
