package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// ErrMissingCredential is returned when no source supplies an API key.
var ErrMissingCredential = errors.New("missing credential: set the API key in the environment, a .env file or the config file")

// Source is one place an API key can come from.
type Source interface {
	Name() string
	Lookup() (string, bool, error)
}

// Credential is a resolved key and the source that supplied it. Value must never be logged.
type Credential struct {
	Value  string
	Source string
}

// Resolver tries Sources in order and returns the first non-empty value.
type Resolver struct {
	Sources []Source
}

// NewResolver builds the fixed chain: environment, .env file, config file, then an
// interactive prompt when interactive is set.
func NewResolver(cfg LLMConfig, interactive bool) *Resolver {
	key := cfg.APIKeyEnv
	if key == "" {
		key = "OPENAI_API_KEY"
	}
	r := &Resolver{Sources: []Source{
		EnvSource{Key: key},
		DotEnvSource{Path: cfg.DotEnvPath, Key: key},
		ValueSource{Label: "config file", Value: cfg.APIKey},
	}}
	if interactive {
		r.Sources = append(r.Sources, PromptSource{Key: key, In: os.Stdin, Out: os.Stderr})
	}
	return r
}

func (r *Resolver) Resolve() (Credential, error) {
	for _, s := range r.Sources {
		val, ok, err := s.Lookup()
		if err != nil {
			return Credential{}, fmt.Errorf("%s: %w", s.Name(), err)
		}
		if ok {
			return Credential{Value: val, Source: s.Name()}, nil
		}
	}
	return Credential{}, ErrMissingCredential
}

// EnvSource reads a process environment variable.
type EnvSource struct {
	Key string
}

func (s EnvSource) Name() string { return "environment" }

func (s EnvSource) Lookup() (string, bool, error) {
	val := strings.TrimSpace(os.Getenv(s.Key))
	return val, val != "", nil
}

// DotEnvSource reads a key=value file without touching the process environment.
type DotEnvSource struct {
	Path string
	Key  string
}

func (s DotEnvSource) Name() string { return "dotenv file" }

func (s DotEnvSource) Lookup() (string, bool, error) {
	if s.Path == "" {
		return "", false, nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	vals, err := godotenv.Read(s.Path)
	if err != nil {
		return "", false, err
	}
	val := strings.TrimSpace(vals[s.Key])
	return val, val != "", nil
}

// ValueSource returns a value already loaded from somewhere else, e.g. the config file.
type ValueSource struct {
	Label string
	Value string
}

func (s ValueSource) Name() string { return s.Label }

func (s ValueSource) Lookup() (string, bool, error) {
	val := strings.TrimSpace(s.Value)
	return val, val != "", nil
}

// PromptSource asks on the terminal with echo off. It yields nothing when In is not a terminal.
type PromptSource struct {
	Key string
	In  *os.File
	Out io.Writer
}

func (s PromptSource) Name() string { return "interactive prompt" }

func (s PromptSource) Lookup() (string, bool, error) {
	if s.In == nil {
		return "", false, nil
	}
	fd := int(s.In.Fd())
	if !term.IsTerminal(fd) {
		return "", false, nil
	}
	fmt.Fprintf(s.Out, "Enter your %s: ", s.Key)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(s.Out)
	if err != nil {
		return "", false, err
	}
	val := strings.TrimSpace(string(b))
	return val, val != "", nil
}
