package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"loan-assistant/internal/application"
	"loan-assistant/internal/domain"
)

// Prober checks connectivity to the completion deployment.
type Prober interface {
	Probe(ctx context.Context) error
}

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Console is the interactive terminal front-end over a session.
type Console struct {
	session       *application.Session
	prober        Prober
	recordSeconds int
}

func NewConsole(session *application.Session, prober Prober, recordSeconds int) *Console {
	return &Console{
		session:       session,
		prober:        prober,
		recordSeconds: recordSeconds,
	}
}

// Run reads queries until /quit, EOF, or context cancellation.
func (c *Console) Run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println(promptStyle.Render("Loan Assistant"))
	fmt.Println(infoStyle.Render("Type a question, or /help for commands."))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := c.runCommand(ctx, input); quit {
				return nil
			}
			continue
		}

		c.send(ctx, input)
	}
}

// runCommand handles slash commands, reporting whether to exit.
func (c *Console) runCommand(ctx context.Context, input string) bool {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/q":
		return true
	case "/help", "/h":
		c.printHelp()
	case "/clear":
		c.session.Clear()
		fmt.Println(infoStyle.Render("history cleared"))
	case "/history":
		c.printHistory()
	case "/test":
		if err := c.prober.Probe(ctx); err != nil {
			fmt.Println(errorStyle.Render("connection test failed: " + err.Error()))
		} else {
			fmt.Println(infoStyle.Render("connection ok"))
		}
	case "/voice", "/v":
		seconds := c.recordSeconds
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				fmt.Println(errorStyle.Render("usage: /voice [seconds]"))
				return false
			}
			seconds = n
		}
		c.voice(ctx, seconds)
	default:
		fmt.Println(errorStyle.Render("unknown command: " + fields[0]))
	}
	return false
}

func (c *Console) voice(ctx context.Context, seconds int) {
	fmt.Println(infoStyle.Render(fmt.Sprintf("recording for %d seconds...", seconds)))

	result, err := c.session.RecordAndTranscribe(ctx, seconds)
	if err != nil {
		fmt.Println(errorStyle.Render("recording failed: " + err.Error()))
		return
	}
	if !result.Recognized() {
		fmt.Println(errorStyle.Render(domain.PlaceholderFor(result.Outcome)))
		return
	}

	fmt.Println(promptStyle.Render("you (voice)> ") + result.Text)
	c.send(ctx, result.Text)
}

func (c *Console) send(ctx context.Context, query string) {
	result, err := c.session.ProcessQuery(ctx, query)
	if err != nil {
		fmt.Println(errorStyle.Render(result.Message.Content))
		return
	}
	fmt.Println(assistantStyle.Render("assistant> ") + result.Message.Content)
}

func (c *Console) printHistory() {
	history := c.session.History()
	if len(history) == 0 {
		fmt.Println(infoStyle.Render("no messages yet"))
		return
	}
	for _, msg := range history {
		fmt.Printf("%s [%s] %s\n", infoStyle.Render(msg.FormattedTime()), msg.Role, msg.Content)
	}
}

func (c *Console) printHelp() {
	fmt.Println(infoStyle.Render(strings.TrimSpace(`
/voice [seconds]  record from the microphone and send the transcription
/test             check connectivity to the completion deployment
/history          show the conversation so far
/clear            reset the conversation
/quit             exit
`)))
}
