package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	json "github.com/goccy/go-json"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/metrics"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

const (
	// narrateMaxTokens caps Claude's response for briefing narration.
	narrateMaxTokens = 1024

	// draftMaxTokens caps Claude's response for email drafts.
	draftMaxTokens = 1024
)

// systemPrompt frames every narration and draft request.
const systemPrompt = `You are an assistant for a UK financial advisor. You help them stay on top of their client book: reviews, renewals, follow-ups, birthdays and life events. Be concise, practical and warm. Use UK terminology (pension, ISA, cover). Never invent client facts that are not in the provided data.`

// emailFormatRules is appended to every email draft prompt.
const emailFormatRules = `

FORMAT REQUIREMENTS:
- Start directly with "Subject:" line (no markdown heading)
- Then a blank line
- Then "Dear [Name]," greeting
- Write 2-4 paragraphs of body text
- End with appropriate sign-off like "Kind regards," or "Best wishes,"
- Sign off with "[Advisor Name]" as placeholder (this email will be sent by the financial advisor)
- Do NOT use any markdown headings, bold or italic formatting
- Keep it as plain text email format`

// draftPrompts maps each email type to its instruction.
var draftPrompts = map[alerts.EmailDraftType]string{
	alerts.DraftBirthday:           "Draft a warm birthday email for this client. Make it personal by referencing what you know about them (family, interests, recent conversations).",
	alerts.DraftReviewReminder:     "Draft a professional email reminding this client their annual review is due. Emphasize the value of the review and what you'll cover.",
	alerts.DraftCheckIn:            "Draft a friendly check-in email. Reference any concerns they've expressed or life events happening.",
	alerts.DraftFollowUp:           "Draft a follow-up email. Reference any commitments made or actions pending.",
	alerts.DraftPolicyRenewal:      "Draft an email about their upcoming policy renewal. Explain the importance of reviewing their cover.",
	alerts.DraftPolicyMaturity:     "Draft an email about their policy reaching maturity. Explain the options available to them.",
	alerts.DraftRetirementPlanning: "Draft an email about retirement planning. Reference their retirement timeline and any concerns.",
	alerts.DraftGeneralUpdate:      "Draft a general update email. Keep it friendly and reference recent conversations or their situation.",
}

// Narrator turns structured briefing data and client records into prose using
// Claude. When no API key is configured every method falls back to a static
// template so the rest of the system keeps working offline.
type Narrator struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// NewNarrator creates a Narrator. An empty apiKey disables the Claude backend
// and leaves only the template fallbacks.
func NewNarrator(apiKey, model string, logger *slog.Logger) *Narrator {
	n := &Narrator{model: model, logger: logger}
	if apiKey == "" {
		logger.Info("narrator: no API key configured, using template fallbacks")
		return n
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	n.client = &c
	return n
}

// Enabled reports whether the Claude backend is configured.
func (n *Narrator) Enabled() bool { return n.client != nil }

// NarrateBriefing turns the book-level briefing data into a short spoken-style
// summary. Falls back to the pre-rendered markdown briefing on any failure.
func (n *Narrator) NarrateBriefing(ctx context.Context, data clientstore.BriefingData, fallback string) string {
	if !n.Enabled() {
		return fallback
	}

	prompt := fmt.Sprintf(
		"CONTEXT:\n%s\n\nGenerate my daily briefing. What should I focus on today?",
		formatBriefingContext(data),
	)
	out, err := n.complete(ctx, prompt, narrateMaxTokens)
	if err != nil {
		n.logger.Warn("narrator: briefing narration failed, using template", "error", err)
		metrics.Inc(metrics.NarrationErrors)
		return fallback
	}
	return out
}

// DraftEmail drafts an email of the given type for a client. extra carries
// optional free-text context from the caller. Falls back to a skeleton draft
// when the backend is unavailable or errors.
func (n *Narrator) DraftEmail(ctx context.Context, client models.Client, draftType alerts.EmailDraftType, extra string) string {
	metrics.Inc(metrics.DraftTotal)
	if !n.Enabled() {
		return templateEmail(client, draftType)
	}

	instruction, ok := draftPrompts[draftType]
	if !ok {
		instruction = fmt.Sprintf("Draft a %s email for this client.", draftType)
	}

	var b strings.Builder
	b.WriteString("CLIENT DATA:\n")
	b.WriteString(clientContext(client))
	if extra != "" {
		b.WriteString("\n\nADDITIONAL CONTEXT:\n")
		b.WriteString(extra)
	}
	b.WriteString("\n\n")
	b.WriteString(instruction)
	b.WriteString(emailFormatRules)

	out, err := n.complete(ctx, b.String(), draftMaxTokens)
	if err != nil {
		n.logger.Warn("narrator: email draft failed, using template", "client_id", client.ID, "type", draftType, "error", err)
		metrics.Inc(metrics.NarrationErrors)
		return templateEmail(client, draftType)
	}
	return out
}

// ClientInsights generates a pre-contact summary for one client.
func (n *Narrator) ClientInsights(ctx context.Context, client models.Client) (string, error) {
	if !n.Enabled() {
		return "", fmt.Errorf("narrator: claude backend not configured")
	}
	prompt := fmt.Sprintf(
		"CLIENT DATA:\n%s\n\nGive me a quick briefing on this client. What should I know before contacting them?",
		clientContext(client),
	)
	out, err := n.complete(ctx, prompt, narrateMaxTokens)
	if err != nil {
		metrics.Inc(metrics.NarrationErrors)
		return "", err
	}
	return out, nil
}

// complete sends a single-turn message to Claude and returns the text reply.
func (n *Narrator) complete(ctx context.Context, prompt string, maxTokens int64) (string, error) {
	resp, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(n.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}
	var text string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text = strings.TrimSpace(resp.Content[i].Text)
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("claude request: empty response")
	}
	return text, nil
}

// formatBriefingContext renders the briefing data as compact context lines.
func formatBriefingContext(data clientstore.BriefingData) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Total clients: %d", data.TotalClients))

	if len(data.ReviewsOverdue) > 0 {
		lines = append(lines, fmt.Sprintf("\nOVERDUE REVIEWS (%d):", len(data.ReviewsOverdue)))
		for _, name := range capStrings(data.ReviewsOverdue, 5) {
			lines = append(lines, "  - "+name)
		}
	}
	if len(data.Dormant90Days) > 0 {
		lines = append(lines, fmt.Sprintf("\nDORMANT CLIENTS - NO CONTACT 90+ DAYS (%d):", len(data.Dormant90Days)))
		for _, name := range capStrings(data.Dormant90Days, 5) {
			lines = append(lines, "  - "+name)
		}
	}
	if len(data.UpcomingBirthdays) > 0 {
		lines = append(lines, "\nUPCOMING BIRTHDAYS:")
		for i, b := range data.UpcomingBirthdays {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s in %d days", b.ClientName, b.Person, b.DaysUntil))
		}
	}
	if len(data.UpcomingEvents) > 0 {
		lines = append(lines, "\nUPCOMING LIFE EVENTS:")
		for i, e := range data.UpcomingEvents {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s in %d days", e.ClientName, e.EventType, e.DaysUntil))
		}
	}
	if len(data.ExpiringPolicies) > 0 {
		lines = append(lines, "\nPOLICIES RENEWING OR MATURING:")
		for i, p := range data.ExpiringPolicies {
			if i == 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s %s in %d days", p.ClientName, p.PolicyType, p.Kind, p.DaysUntil))
		}
	}
	return strings.Join(lines, "\n")
}

// clientContext serializes a client record for LLM context.
func clientContext(client models.Client) string {
	b, err := json.MarshalIndent(client, "", "  ")
	if err != nil {
		return client.FullName()
	}
	return string(b)
}

// templateEmail produces a minimal draft skeleton for offline use.
func templateEmail(client models.Client, draftType alerts.EmailDraftType) string {
	subjects := map[alerts.EmailDraftType]string{
		alerts.DraftBirthday:           "Happy Birthday!",
		alerts.DraftReviewReminder:     "Your Annual Review",
		alerts.DraftCheckIn:            "Checking In",
		alerts.DraftFollowUp:           "Following Up",
		alerts.DraftPolicyRenewal:      "Your Upcoming Policy Renewal",
		alerts.DraftPolicyMaturity:     "Your Policy Is Maturing",
		alerts.DraftRetirementPlanning: "Planning for Your Retirement",
		alerts.DraftGeneralUpdate:      "A Quick Update",
	}
	subject, ok := subjects[draftType]
	if !ok {
		subject = "A Quick Update"
	}
	return fmt.Sprintf(
		"Subject: %s\n\nDear %s,\n\n[Draft the %s email body here.]\n\nKind regards,\n[Advisor Name]\n",
		subject, client.FirstName, strings.ReplaceAll(string(draftType), "_", " "),
	)
}

// capStrings returns at most n items from s.
func capStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
