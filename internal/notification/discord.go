package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"vulnhawk/pkg/scan"
)

type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

// DiscordNotifier delivers scan summaries to one Discord channel as colored
// embeds.
type DiscordNotifier struct {
	sg        *discordgo.Session
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token not set")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel ID not set")
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &DiscordNotifier{sg: sg, channelID: channelID}, nil
}

func severityColor(severity string) int {
	switch severity {
	case "critical":
		return 0x8B0000
	case "high":
		return 0xFF0000
	case "medium":
		return 0xFF8C00
	case "low":
		return 0xFFD700
	case "info":
		return 0x00BFFF
	default:
		return 0x808080
	}
}

// ScanCompleted posts the summary of a finished scan. The embed color
// follows the highest severity found.
func (n *DiscordNotifier) ScanCompleted(ctx context.Context, result *scan.Result) error {
	msg := Message{
		Title:       fmt.Sprintf("Scan %s: %s", result.Status, result.Target),
		Description: fmt.Sprintf("%d finding(s) across %d tool(s)", result.Summary.Total, result.ToolCount()),
		Severity:    topSeverity(result.Summary),
		Fields: map[string]string{
			"Critical": fmt.Sprintf("%d", result.Summary.Critical),
			"High":     fmt.Sprintf("%d", result.Summary.High),
			"Medium":   fmt.Sprintf("%d", result.Summary.Medium),
			"Low":      fmt.Sprintf("%d", result.Summary.Low),
			"Info":     fmt.Sprintf("%d", result.Summary.Info),
			"Duration": result.Duration.Round(time.Second).String(),
		},
	}
	return n.Send(msg)
}

func topSeverity(s scan.Summary) string {
	switch {
	case s.Critical > 0:
		return "critical"
	case s.High > 0:
		return "high"
	case s.Medium > 0:
		return "medium"
	case s.Low > 0:
		return "low"
	case s.Info > 0:
		return "info"
	default:
		return ""
	}
}

func (n *DiscordNotifier) Send(msg Message) error {
	if n.sg == nil {
		return fmt.Errorf("discord client not initialized")
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       severityColor(msg.Severity),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		fields := make([]*discordgo.MessageEmbedField, 0, len(msg.Fields))
		for key, value := range msg.Fields {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   key,
				Value:  value,
				Inline: true,
			})
		}
		embed.Fields = fields
	}

	_, err := n.sg.ChannelMessageSendEmbed(n.channelID, embed)
	return err
}

func (n *DiscordNotifier) Close() error {
	if n.sg != nil {
		return n.sg.Close()
	}
	return nil
}
