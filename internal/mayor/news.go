// News generation — converts the week's city events into broadsheet prose.
package mayor

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/cityforge/internal/llm"
	"github.com/talgya/cityforge/internal/sim"
)

// NewsIssue holds one generated news digest.
type NewsIssue struct {
	GeneratedAt time.Time `json:"generated_at"`
	Day         uint64    `json:"day"`
	Content     string    `json:"content"`
}

const newsSystemPrompt = `You are the editor of "The Gridline Gazette", the weekly broadsheet of a small simulated city. Write a short, punchy digest (under 300 words) of the week: the treasury, the people, notable construction, and any disasters or economic events. Keep a light, local-paper tone. Do not break character or reference the simulation.`

// GenerateNews creates a weekly news digest from recent city events using
// Haiku, falling back to a plain-text digest when the model is unavailable.
func GenerateNews(client *llm.Client, stats sim.Stats, events []sim.Event) *NewsIssue {
	issue := &NewsIssue{GeneratedAt: time.Now(), Day: stats.Day}

	if !client.Enabled() {
		issue.Content = fallbackNews(stats, events)
		return issue
	}

	prompt := buildNewsPrompt(stats, events)
	content, err := client.Complete(newsSystemPrompt, prompt, 600)
	if err != nil {
		issue.Content = fallbackNews(stats, events)
		return issue
	}
	issue.Content = content
	return issue
}

func buildNewsPrompt(stats sim.Stats, events []sim.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write this week's edition of The Gridline Gazette.\n\n")
	fmt.Fprintf(&b, "DAY: %d\n", stats.Day)
	fmt.Fprintf(&b, "CITY: %d residents, treasury %s, happiness %d/100, pollution %d/100\n",
		stats.Demographics.Total(), humanize.Comma(int64(stats.Money)),
		stats.Happiness, stats.PollutionLevel)
	if stats.ActiveEvent != sim.EventNone {
		fmt.Fprintf(&b, "ONGOING: %s (%d days left)\n", stats.ActiveEvent, stats.EventDuration)
	}
	b.WriteString("\n")

	if len(events) > 0 {
		b.WriteString("THIS WEEK'S EVENTS:\n")
		for _, e := range events {
			fmt.Fprintf(&b, "- Day %d [%s]: %s\n", e.Tick, e.Category, e.Description)
		}
	}
	return b.String()
}

func fallbackNews(stats sim.Stats, events []sim.Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "THE GRIDLINE GAZETTE\n")
	fmt.Fprintf(&b, "====================\n")
	fmt.Fprintf(&b, "Day %d\n\n", stats.Day)

	fmt.Fprintf(&b, "CITY REPORT\n")
	fmt.Fprintf(&b, "The city counts %d residents. Treasury: %s.\n",
		stats.Demographics.Total(), humanize.Comma(int64(stats.Money)))
	fmt.Fprintf(&b, "Happiness %d/100, safety %d/100, pollution %d/100.\n\n",
		stats.Happiness, stats.Safety, stats.PollutionLevel)

	if stats.ActiveEvent != sim.EventNone {
		fmt.Fprintf(&b, "ONGOING: %s, %d days remaining.\n\n", stats.ActiveEvent, stats.EventDuration)
	}

	if len(events) > 0 {
		fmt.Fprintf(&b, "IN BRIEF\n")
		for i, e := range events {
			if i >= 10 {
				fmt.Fprintf(&b, "...and %d more.\n", len(events)-10)
				break
			}
			fmt.Fprintf(&b, "- %s\n", e.Description)
		}
	}
	return b.String()
}

const weirdSystemPrompt = `You are the overnight desk of "The Gridline Gazette". Invent one strange-but-harmless local happening for a small simulated city (a mime convention, pigeons forming a union, a fountain running backwards). Report it in 1-2 deadpan sentences. It must have no practical consequences. Do not break character or reference the simulation.`

// NarrateWeirdEvent produces a cosmetic odd-news blurb. Returns a canned
// line when the model is unavailable so the event never goes unreported.
func NarrateWeirdEvent(client *llm.Client, stats sim.Stats) string {
	if client.Enabled() {
		prompt := fmt.Sprintf("Day %d. Population %d. Happiness %d/100. What odd thing happened overnight?",
			stats.Day, stats.Demographics.Total(), stats.Happiness)
		if text, err := client.Complete(weirdSystemPrompt, prompt, 150); err == nil {
			return strings.TrimSpace(text)
		}
	}
	return "Residents report an unusual number of perfectly circular clouds. Officials decline to comment."
}
