package mayor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/cityforge/internal/catalog"
	"github.com/talgya/cityforge/internal/llm"
)

const systemPrompt = `You are the AI Mayor of a small simulated city. Each cycle you observe the city and recommend exactly one action. You govern through the same rules a human player faces: limited money, placement rules, and slow demographic change.

## Priorities (in order)

1. SOLVENCY — Never let the treasury spiral into debt. Debt shrinks the city.
2. HOUSING AND JOBS — Population only grows while housing exceeds population; happiness collapses under unemployment.
3. HAPPINESS — High taxes, pollution, crime, and disconnected buildings all drag it down. Unhappy cities stop growing.
4. PATIENCE — "wait" is a legitimate choice. One good building beats three rushed ones.

## Available Actions

- "build" — Place a building. Use ONLY coordinates from the Valid Placements list.
- "demolish" — Remove a building at (x, y). Costs a small fee.
- "set_tax" — Set the tax rate (0.0 to 0.5).
- "take_loan" / "repay_loan" — Borrow or repay (positive amount).
- "buy_shares" / "sell_shares" — Trade the city index fund (positive count in amount).
- "set_goal" — Declare a city goal with a reward.
- "wait" — Do nothing this cycle.

## Response Format

Respond with ONLY valid JSON (no markdown, no explanation outside the JSON):
{"action": "build", "building": "residential", "x": 5, "y": 5, "reason": "Housing is full and adults outnumber homes."}

Other shapes:
{"action": "set_tax", "rate": 0.12, "reason": "..."}
{"action": "take_loan", "amount": 500, "reason": "..."}
{"action": "set_goal", "goal": {"description": "Reach 100 citizens", "target_type": "population", "target_value": 100, "reward": 500}, "reason": "..."}
{"action": "wait", "reason": "..."}

## Important Rules

- Respond ONLY with JSON. No prose, no markdown fences.
- For "build", pick coordinates from the Valid Placements list; anything else will be rejected.
- Building names: residential, commercial, industrial, road, bridge, park, school, hospital, police, fire_station, power_plant, stadium.
- Learn from the Recent Failures section: do not repeat a move that was just rejected.`

// decisionSchema is the structural contract for a model response. Guardrails
// beyond structure (affordability, placement) are enforced by the validator.
const decisionSchema = `{
  "type": "object",
  "required": ["action", "reason"],
  "properties": {
    "action": {
      "enum": ["build", "demolish", "set_tax", "take_loan", "repay_loan",
               "buy_shares", "sell_shares", "set_goal", "wait"]
    },
    "building": {"type": "string"},
    "x": {"type": "integer", "minimum": 0},
    "y": {"type": "integer", "minimum": 0},
    "rate": {"type": "number", "minimum": 0, "maximum": 0.5},
    "amount": {"type": "integer", "minimum": 1},
    "goal": {
      "type": "object",
      "required": ["description", "target_type", "target_value", "reward"],
      "properties": {
        "description": {"type": "string", "maxLength": 200},
        "target_type": {"enum": ["population", "money", "building_count"]},
        "target_value": {"type": "integer", "minimum": 1},
        "building_type": {"type": "string"},
        "reward": {"type": "integer", "minimum": 0, "maximum": 5000}
      }
    },
    "reason": {"type": "string", "maxLength": 500}
  }
}`

var compiledSchema = jsonschema.MustCompileString("decision.json", decisionSchema)

// Decision represents Haiku's recommended action.
type Decision struct {
	Action   string    `json:"action"`
	Building string    `json:"building,omitempty"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Rate     float64   `json:"rate,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Goal     *GoalSpec `json:"goal,omitempty"`
	Reason   string    `json:"reason"`
}

// GoalSpec is the goal payload inside a set_goal decision.
type GoalSpec struct {
	Description  string `json:"description"`
	TargetType   string `json:"target_type"`
	TargetValue  int    `json:"target_value"`
	BuildingType string `json:"building_type,omitempty"`
	Reward       int    `json:"reward"`
}

// waitDecision is the safe fallback when the model cannot produce a usable
// response.
func waitDecision(reason string) *Decision {
	return &Decision{Action: "wait", Reason: reason}
}

// Decide sends the snapshot to Haiku and returns a Decision. A malformed
// response gets one retry with the parse error appended; after that the
// mayor waits.
func Decide(client *llm.Client, snap *CitySnapshot, mem *FailureMemory) (*Decision, error) {
	prompt := formatSnapshot(snap)
	if failures := mem.FormatForPrompt(); failures != "" {
		prompt += failures
	}

	slog.Debug("mayor prompt", "length", len(prompt))

	d, err := decideOnce(client, prompt)
	if err == nil {
		return d, nil
	}
	slog.Warn("mayor decision malformed, retrying", "error", err)

	retry := prompt + fmt.Sprintf("\n\nYour previous response was invalid (%v). Respond again with ONLY the JSON object.", err)
	d, err = decideOnce(client, retry)
	if err != nil {
		slog.Warn("mayor decision failed twice, waiting", "error", err)
		return waitDecision("model response unusable"), nil
	}
	return d, nil
}

func decideOnce(client *llm.Client, prompt string) (*Decision, error) {
	resp, err := client.Complete(systemPrompt, prompt, 512)
	if err != nil {
		return nil, fmt.Errorf("haiku call: %w", err)
	}
	return parseDecision(resp)
}

// parseDecision extracts and validates the JSON object from a raw model
// response. The response is untrusted: it may carry markdown fences,
// leading prose, or a structurally wrong object.
func parseDecision(resp string) (*Decision, error) {
	raw, err := extractJSONObject(resp)
	if err != nil {
		return nil, err
	}

	// Structural validation against the schema before binding to the
	// struct, so an out-of-range rate or missing field fails loudly.
	var generic any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, fmt.Errorf("parse decision (raw: %s): %w", raw, err)
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("decision schema: %w", err)
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("bind decision: %w", err)
	}

	if d.Action == "build" {
		if _, ok := catalog.FromName(strings.ToLower(d.Building)); !ok {
			return nil, fmt.Errorf("unknown building %q", d.Building)
		}
	}

	return &d, nil
}

// extractJSONObject returns the first balanced top-level {...} in s,
// ignoring braces inside JSON strings.
func extractJSONObject(s string) (string, error) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}
