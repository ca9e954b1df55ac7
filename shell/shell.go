// Package shell is the line based front end: it asks for a topic and content type,
// generates, prints the result and saves it.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"content_generator/artifact"
	"content_generator/generator"
)

const (
	cmdQuit  = ":quit"
	cmdClear = ":clear"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type Shell struct {
	session *generator.Session
	writer  *artifact.Writer
	in      *bufio.Reader
	out     io.Writer
	log     logrus.FieldLogger
	style   string
	done    bool
}

type Option func(*Shell)

// WithStyle picks a glamour style; "notty" gives plain text.
func WithStyle(style string) Option {
	return func(s *Shell) { s.style = style }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Shell) { s.log = log }
}

func New(agent *generator.Agent, writer *artifact.Writer, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		session: generator.NewSession("shell", agent),
		writer:  writer,
		in:      bufio.NewReader(in),
		out:     out,
		log:     logrus.StandardLogger(),
		style:   "auto",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run loops until EOF, :quit, or ctx is cancelled. Generation errors are printed and the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Type %s to reset, %s to exit.\n", cmdClear, cmdQuit)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, ok, err := s.readRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if !ok {
			return nil
		}
		if req == nil {
			continue
		}
		if err := s.generate(ctx, *req); err != nil {
			s.printError(err)
			continue
		}
		s.done = true
	}
}

// RunOnce generates, prints and saves a single request without reading any input.
// The error is printed as well as returned.
func (s *Shell) RunOnce(ctx context.Context, req generator.Request) error {
	if err := s.generate(ctx, req); err != nil {
		s.printError(err)
		return err
	}
	s.done = true
	return nil
}

// Done reports whether at least one generation was printed and saved.
func (s *Shell) Done() bool {
	return s.done
}

// readRequest returns ok=false on :quit, and a nil request after :clear or a rejected content type.
func (s *Shell) readRequest() (*generator.Request, bool, error) {
	var req generator.Request
	steps := []struct {
		prompt string
		set    func(string) error
	}{
		{"Enter the topic you want to create content about: ", func(v string) error {
			req.Topic = strings.TrimSpace(v)
			return nil
		}},
		{"Enter the type of content to create ('blog' or 'social media'): ", func(v string) error {
			ct, err := generator.ParseContentType(v)
			req.ContentType = ct
			return err
		}},
		{"Custom system prompt (leave blank for default): ", func(v string) error {
			req.SystemPrompt = strings.TrimSpace(v)
			return nil
		}},
		{"Custom human prompt, must contain {topic} (leave blank for default): ", func(v string) error {
			req.HumanPrompt = strings.TrimSpace(v)
			return nil
		}},
	}
	for _, step := range steps {
		line, err := s.prompt(step.prompt)
		if err != nil {
			return nil, false, err
		}
		switch line {
		case cmdQuit:
			return nil, false, nil
		case cmdClear:
			s.session.Reset()
			fmt.Fprintln(s.out, "Cleared.")
			return nil, true, nil
		}
		if err := step.set(line); err != nil {
			s.printError(err)
			return nil, true, nil
		}
	}
	return &req, true, nil
}

func (s *Shell) prompt(text string) (string, error) {
	fmt.Fprint(s.out, text)
	line, err := s.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Shell) generate(ctx context.Context, req generator.Request) error {
	req = req.Normalized()
	s.log.WithFields(logrus.Fields{
		"content_type": req.ContentType,
		"topic_len":    utf8.RuneCountInString(req.Topic),
	}).Debug("generating")

	res, err := s.session.Generate(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "\n"+labelStyle.Render("Generated Content:"))
	fmt.Fprintln(s.out, s.render(res.MainContent))
	s.printField("Tags", strings.Join(res.Tags, ", "))
	s.printField("Focus keyphrase", res.FocusKeyphrase)
	s.printField("Meta description", res.MetaDescription)

	art, err := s.writer.Save(req.Topic, string(req.ContentType), res.Raw, res.Tags, res.FocusKeyphrase, res.MetaDescription)
	if err != nil {
		return err
	}
	s.printField("Saved", art.ContentPath)
	s.printField("Metadata", art.MetadataPath)
	return nil
}

func (s *Shell) render(md string) string {
	style := glamour.WithStandardStyle(s.style)
	if s.style == "auto" {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (s *Shell) printField(label, value string) {
	fmt.Fprintf(s.out, "%s %s\n", labelStyle.Render(label+":"), value)
}

func (s *Shell) printError(err error) {
	fmt.Fprintln(s.out, errorStyle.Render("Error: "+err.Error()))
}
