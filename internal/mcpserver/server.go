// Package mcpserver provides an MCP (Model Context Protocol) server that exposes
// the journal to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dagaz/internal/analytics"
	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/journal"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/streak"
)

const (
	entryFormatURI = "dagaz://entry-format"
	maxListed      = 50
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *journal.Service
	streaks *streak.Engine
	stats   *analytics.Engine
}

// New creates a new MCP server with all journal tools registered.
func New(svc *journal.Service, streaks *streak.Engine, stats *analytics.Engine, version string) *Server {
	s := &Server{svc: svc, streaks: streaks, stats: stats}

	s.mcp = server.NewMCPServer(
		"Dagaz",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Case-insensitive search through entry titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read the entry of one day as a Markdown document."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day in YYYY-MM-DD format")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List entries between two days (inclusive), newest first. "+
			"Without dates the most recent entries are returned."),
		mcp.WithString("from", mcp.Description("First day, YYYY-MM-DD")),
		mcp.WithString("to", mcp.Description("Last day, YYYY-MM-DD")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("create_entry",
		mcp.WithDescription("Create the entry for one day. Content MUST follow the entry format "+
			"(YAML frontmatter with date and mood, Markdown body). Read it first via "+
			"get_entry_format or the "+entryFormatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown document in the entry format")),
	), s.createEntry)

	s.mcp.AddTool(mcp.NewTool("get_entry_format",
		mcp.WithDescription("Returns the Markdown entry format. Call this before creating entries."),
	), s.getEntryFormat)

	s.mcp.AddTool(mcp.NewTool("list_moods",
		mcp.WithDescription("List the available moods with their category and emoji."),
	), s.listMoods)

	s.mcp.AddTool(mcp.NewTool("get_streaks",
		mcp.WithDescription("Current streak, longest streak and total number of entries."),
	), s.getStreaks)

	s.mcp.AddTool(mcp.NewTool("get_mood_distribution",
		mcp.WithDescription("Percentage of entries per mood category, plus the most frequent mood."),
		mcp.WithString("from", mcp.Description("First day, YYYY-MM-DD (optional)")),
		mcp.WithString("to", mcp.Description("Last day, YYYY-MM-DD (optional)")),
	), s.getMoodDistribution)

	s.mcp.AddTool(mcp.NewTool("get_top_tags",
		mcp.WithDescription("Most used tags, highest count first."),
		mcp.WithNumber("limit", mcp.Description("Number of tags to return (default 10)")),
		mcp.WithString("from", mcp.Description("First day, YYYY-MM-DD (optional)")),
		mcp.WithString("to", mcp.Description("Last day, YYYY-MM-DD (optional)")),
	), s.getTopTags)

	s.mcp.AddResource(
		mcp.NewResource(entryFormatURI, "Entry Format",
			mcp.WithResourceDescription("Markdown format for creating journal entries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// entrySummary is the compact listing form of an entry.
type entrySummary struct {
	ID        int64    `json:"id"`
	Date      string   `json:"date"`
	Title     string   `json:"title"`
	Mood      string   `json:"mood,omitempty"`
	Tags      []string `json:"tags"`
	WordCount int      `json:"word_count"`
}

func summarize(entries []models.JournalEntry) []entrySummary {
	out := make([]entrySummary, 0, len(entries))
	for _, e := range entries {
		sum := entrySummary{
			ID:        e.ID,
			Date:      models.FormatDay(e.Date),
			Title:     e.Title,
			Tags:      e.TagNames(),
			WordCount: e.WordCount,
		}
		if e.PrimaryMood != nil {
			sum.Mood = e.PrimaryMood.Name
		}
		out = append(out, sum)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// period reads the optional from/to arguments.
func period(req mcp.CallToolRequest) (analytics.Period, error) {
	var p analytics.Period
	for _, arg := range []struct {
		key string
		dst *time.Time
	}{{"from", &p.From}, {"to", &p.To}} {
		raw := strings.TrimSpace(req.GetString(arg.key, ""))
		if raw == "" {
			continue
		}
		d, err := models.ParseDay(raw)
		if err != nil {
			return p, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", arg.key, raw)
		}
		*arg.dst = d
	}
	return p, nil
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries, err := s.svc.Find(ctx, journal.Query{Text: query})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) > maxListed {
		entries = entries[:maxListed]
	}
	return jsonResult(summarize(entries))
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	day, err := models.ParseDay(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("date: expected YYYY-MM-DD, got %q", raw)), nil
	}
	e, err := s.svc.EntryForDay(ctx, day)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no entry for %s", models.FormatDay(day))), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(FormatEntry(e)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := period(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var entries []models.JournalEntry
	if p.IsZero() {
		page, err := s.svc.ListEntries(ctx, 1, maxListed)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries = page.Entries
	} else {
		from, to := p.From, p.To
		if from.IsZero() {
			from = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		if to.IsZero() {
			to = models.Day(time.Now())
		}
		entries, err = s.svc.EntriesInRange(ctx, from, to)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(summarize(entries))
}

func (s *Server) createEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	draft, err := parser.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.ImportDraft(ctx, *draft)
	switch {
	case errors.Is(err, apperr.ErrUniqueViolation):
		return mcp.NewToolResultError(fmt.Sprintf("an entry for %s already exists", models.FormatDay(draft.Date))), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (id %d)", models.FormatDay(e.Date), e.ID)), nil
}

func (s *Server) getEntryFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      entryFormatURI,
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}

func (s *Server) listMoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	moods, err := s.svc.Moods(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(moods)
}

func (s *Server) getStreaks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.streaks.Summary(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sum)
}

func (s *Server) getMoodDistribution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := period(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.stats.Summarize(ctx, p, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"distribution":       r.MoodDistribution,
		"most_frequent_mood": r.MostFrequentMood,
		"mood_counts":        r.MoodCounts,
		"total_entries":      r.TotalEntries,
	})
}

func (s *Server) getTopTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := period(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := s.stats.MostUsedTags(ctx, p, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags)
}

// FormatEntry renders e in the entry format, so the output of read_entry can be
// edited and fed back through the importer.
func FormatEntry(e *models.JournalEntry) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "date: %s\n", models.FormatDay(e.Date))
	fmt.Fprintf(&b, "title: %q\n", e.Title)
	if e.PrimaryMood != nil {
		fmt.Fprintf(&b, "mood: %s\n", e.PrimaryMood.Name)
	}
	var secondary []string
	for _, m := range []*models.Mood{e.SecondaryMood1, e.SecondaryMood2} {
		if m != nil {
			secondary = append(secondary, m.Name)
		}
	}
	if len(secondary) > 0 {
		fmt.Fprintf(&b, "secondary_moods: [%s]\n", strings.Join(secondary, ", "))
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(e.TagNames(), ", "))
	}
	if e.Category != "" {
		fmt.Fprintf(&b, "category: %q\n", e.Category)
	}
	fmt.Fprintf(&b, "word_count: %d\n", e.WordCount)
	b.WriteString("---\n\n")
	b.WriteString(e.Content)
	if !strings.HasSuffix(e.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
