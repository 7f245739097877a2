package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsearch/internal/domain"
	"docsearch/internal/validation"
)

// Searcher is the TUI-facing subset of the search service.
type Searcher interface {
	Search(query string, maxResults int, minSimilarity float64) (*domain.SearchResponse, error)
}

// Options are the search parameters the TUI sends with every query.
type Options struct {
	MaxResults     int
	MinSimilarity  float64
	MaxQueryLength int
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   Searcher
	opts      Options
	doc       domain.DocumentInfo
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance for the indexed document doc.
func New(service Searcher, doc domain.DocumentInfo, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type query and press Enter"
	ti.Focus()
	ti.CharLimit = opts.MaxQueryLength
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		opts:     opts,
		doc:      doc,
		input:    ti,
		viewport: vp,
		status:   fmt.Sprintf("Loaded %s (%d chunks). Type to search.", doc.Filename, doc.ChunkCount),
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			m = m.search(m.input.Value())
			return m, nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) search(raw string) Model {
	if strings.TrimSpace(raw) == "" {
		return m
	}
	q, err := validation.Query(raw, 1, m.opts.MaxQueryLength)
	if err == nil {
		var resp *domain.SearchResponse
		resp, err = m.service.Search(q, m.opts.MaxResults, m.opts.MinSimilarity)
		if err == nil {
			m.results = resp.Results
			m.cursor = 0
			m.lastQuery = q
			m.status = fmt.Sprintf("%d results for %q in %s", resp.TotalFound, q, resp.SearchTime.Round(time.Microsecond))
		}
	}
	if err != nil {
		m.status = "Error: " + err.Error()
		m.results = nil
	}
	m.viewport.SetContent(m.renderCurrentResult())
	return m
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Search: " + m.doc.Filename)
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.doc.Summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		if m.lastQuery != "" {
			return "No matching chunks."
		}
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  chunk #%d  score=%.3f  %s",
		r.Rank, len(m.results), r.ChunkID, r.Score, confidenceStyle(r.Confidence()).Render(r.Confidence()))
	if r.PageNumber != nil {
		title += fmt.Sprintf("  page %d", *r.PageNumber)
	}
	return title + "\n\n" + highlightTerms(r.Text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
)

func confidenceStyle(label string) lipgloss.Style {
	switch label {
	case "High":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case "Medium":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	}
}

// highlightTerms marks every word of text that also occurs in query.
func highlightTerms(text, query string) string {
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	return wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if _, ok := qTokens[strings.ToLower(w)]; ok {
			return highlightStyle.Render(w)
		}
		return w
	})
}

func toTokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) < 2 {
			continue
		}
		m[t] = struct{}{}
	}
	return m
}
