// Package interview runs the expert interview: a finite sequence of
// prompt/response steps that extracts tacit domain knowledge (logic,
// thresholds, edge-case strategies) and turns the transcript into a
// structured SKILL.md plus manifest metadata. Responses come from a
// caller-supplied source, so the same engine serves a human at a terminal
// and a scripted test harness.
package interview

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillmaker-ai/skillmaker/pkg/llm"
	"github.com/skillmaker-ai/skillmaker/pkg/logger"
)

// ErrAborted is returned when the expert cancels the interview.
var ErrAborted = errors.New("interview aborted")

// CompletionMarker ends the interview when it appears in a question.
const CompletionMarker = "[INTERVIEW_COMPLETE]"

const interviewSystemPrompt = `You are a senior financial knowledge engineering expert. Your goal is to extract the tacit knowledge in the user's head (logic, thresholds, edge-case handling strategies) by asking questions.
Conduct an in-depth interview around these dimensions: role definition, core capabilities, decision chain, constraints, output format.
During the interview you must cover these key questions:
1. What is the success criterion for this task?
2. Which red lines must absolutely never be crossed?
3. When data is missing, how do you usually decide?
When you believe you have enough information, reply with ` + CompletionMarker + `.`

const openingMessage = "Please begin the interview."

// Source supplies the expert's responses, one per question.
type Source interface {
	// Next returns the expert's answer to the question, or ErrAborted when
	// the expert cancels the session.
	Next(question string) (string, error)
}

// TerminalSource reads answers from an interactive terminal. Typing "quit"
// or "exit" aborts the session.
type TerminalSource struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewTerminalSource returns a source reading from in and prompting on out.
func NewTerminalSource(in io.Reader, out io.Writer) *TerminalSource {
	return &TerminalSource{reader: bufio.NewReader(in), out: out}
}

// Next implements Source.
func (s *TerminalSource) Next(question string) (string, error) {
	io.WriteString(s.out, "\nInterviewer: "+question+"\n\nYour answer: ")

	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", ErrAborted
	}

	answer := strings.TrimSpace(line)
	switch strings.ToLower(answer) {
	case "quit", "exit":
		return "", ErrAborted
	}
	return answer, nil
}

// ScriptedSource replays a fixed list of answers; exhausting the list aborts
// the session. It exists for tests and non-interactive use.
type ScriptedSource struct {
	answers []string
	next    int
}

// NewScriptedSource returns a source replaying the given answers in order.
func NewScriptedSource(answers ...string) *ScriptedSource {
	return &ScriptedSource{answers: answers}
}

// Next implements Source.
func (s *ScriptedSource) Next(string) (string, error) {
	if s.next >= len(s.answers) {
		return "", ErrAborted
	}
	answer := s.answers[s.next]
	s.next++
	return answer, nil
}

// Session is one interview run.
type Session struct {
	ID       string
	client   llm.Client
	source   Source
	maxTurns int
}

// Option configures a Session.
type Option func(*Session)

// WithMaxTurns caps the number of question/answer steps.
func WithMaxTurns(n int) Option {
	return func(s *Session) {
		s.maxTurns = n
	}
}

// NewSession creates an interview session.
func NewSession(client llm.Client, source Source, opts ...Option) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		client:   client,
		source:   source,
		maxTurns: 25,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives the interview until the interviewer signals completion, the
// turn cap is hit, or the source aborts. The transcript gathered so far is
// returned in every case; on abort the error is ErrAborted.
func (s *Session) Run(ctx context.Context) ([]llm.Message, error) {
	log := logger.G(ctx).WithField("session_id", s.ID)

	transcript := []llm.Message{{Role: llm.RoleUser, Content: openingMessage}}

	for turn := 0; turn < s.maxTurns; turn++ {
		question, err := s.client.Complete(ctx, interviewSystemPrompt, transcript)
		if err != nil {
			return transcript, errors.Wrap(err, "interviewer failed to produce a question")
		}
		transcript = append(transcript, llm.Message{Role: llm.RoleAssistant, Content: question})

		if strings.Contains(question, CompletionMarker) {
			log.WithField("turns", turn).Debug("interview completed by interviewer")
			return transcript, nil
		}

		answer, err := s.source.Next(strings.TrimSpace(question))
		if err != nil {
			if errors.Is(err, ErrAborted) {
				log.WithField("turns", turn).Debug("interview aborted by expert")
				return transcript, ErrAborted
			}
			return transcript, err
		}
		transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: answer})
	}

	log.WithField("turns", s.maxTurns).Debug("interview reached turn cap")
	return transcript, nil
}
